package accessor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/reflector/schema"
)

// Describe renders the metadata of t for diagnostics:
//
//	github.com/acme/app.Person (default constructor)
//	  2 getters:
//	    age int (field)
//	    name string (field)
//	  2 setters:
//	    age int (field)
//	    name string (field)
//
// Describe only reads metadata; the lookup may warm the cache.
func (a *Accessor) Describe(t reflect.Type) string {
	meta := a.cache.Get(t)

	var b strings.Builder
	b.WriteString(meta.Name)
	if meta.HasDefaultConstructor {
		b.WriteString(" (default constructor)\n")
	} else {
		b.WriteString(" (no default constructor)\n")
	}

	writeProperties(&b, "getter", meta.GetterNames(), meta.Getter)
	writeProperties(&b, "setter", meta.SetterNames(), meta.Setter)

	if generated := meta.Generated(); len(generated) > 0 {
		fmt.Fprintf(&b, "  generated (%s):\n", schema.Pluralize("property", len(generated), true))
		for _, g := range generated {
			fmt.Fprintf(&b, "    %s <- %s\n", g.Name, g.Generator)
		}
	}
	if warnings := meta.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(&b, "  %s:\n", schema.Pluralize("warning", len(warnings), true))
		for _, w := range warnings {
			fmt.Fprintf(&b, "    %s\n", w)
		}
	}

	return b.String()
}

func writeProperties(b *strings.Builder, kind string, names []string, find func(string) (*schema.Property, bool)) {
	fmt.Fprintf(b, "  %s:\n", schema.Pluralize(kind, len(names), true))
	for _, name := range names {
		p, _ := find(name)
		fmt.Fprintf(b, "    %s %s (%s)\n", name, p.Type, p.Source)
	}
}
