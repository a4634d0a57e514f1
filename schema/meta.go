package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var explicitConstructorType = reflect.TypeOf((*ExplicitConstructor)(nil)).Elem()

// Accessor method precedence when several map to one property.
const (
	rankBare = iota // X() paired with SetX
	rankGet         // GetX()
	rankIs          // IsX() bool
)

// metaBuilder holds everything buildMeta needs besides the type itself.
type metaBuilder struct {
	tags         *TagParser
	generators   *GeneratorRegistry
	constructors map[reflect.Type]func() (any, error)
}

type getterCandidate struct {
	prop *Property
	rank int
}

// buildMeta constructs the metadata for t, which must already be pointer
// normalized. It never fails: types without accessible members produce
// empty property maps, and malformed tags are recorded as warnings.
//
// Fields are collected first in declaration order (including fields
// promoted from embedded structs), then accessor methods of *t, which take
// precedence over fields exposing the same property name.
func (b *metaBuilder) buildMeta(t reflect.Type) *ClassMeta {
	meta := &ClassMeta{
		Type:    t,
		Name:    TypeName(t),
		getters: make(map[string]*Property),
		setters: make(map[string]*Property),
	}

	if ctor, ok := b.constructors[t]; ok {
		meta.HasDefaultConstructor = true
		meta.Constructor = &constructorInvoker{typ: t, fn: ctor}
	} else if t.Kind() == reflect.Struct && !reflect.PointerTo(t).Implements(explicitConstructorType) {
		meta.HasDefaultConstructor = true
		meta.Constructor = &constructorInvoker{typ: t}
	}

	if t.Kind() == reflect.Struct {
		b.addFields(meta, t)
	}
	if t.Kind() != reflect.Interface {
		b.addMethods(meta, t)
	}

	meta.finish()
	return meta
}

func (b *metaBuilder) addFields(meta *ClassMeta, t reflect.Type) {
	for _, f := range reflect.VisibleFields(t) {
		// Embedded structs contribute their promoted fields, not themselves
		if !f.IsExported() || f.Anonymous || !reachableField(t, f.Index) {
			continue
		}

		tag, err := b.tags.ParseTag(f.Name, f.Tag)
		if err != nil {
			meta.warn("skipping field %s: %v", f.Name, err)
			continue
		}
		if tag.Skip {
			continue
		}

		name := tag.Name
		if meta.HasGetter(name) || meta.HasSetter(name) {
			meta.warn("skipping field %s: property %q already defined", f.Name, name)
			continue
		}

		if !tag.WriteOnly {
			meta.getters[name] = &Property{
				Name:    name,
				GoName:  f.Name,
				Type:    f.Type,
				Source:  SourceField,
				Invoker: &fieldReadInvoker{owner: t, field: f},
			}
		}
		if !tag.ReadOnly {
			meta.setters[name] = &Property{
				Name:    name,
				GoName:  f.Name,
				Type:    f.Type,
				Source:  SourceField,
				Invoker: newFieldWriteInvoker(t, f),
			}
		}

		if tag.Generator != "" {
			switch _, known := b.generators.Get(tag.Generator); {
			case !known:
				meta.warn("field %s: unknown generator %q", f.Name, tag.Generator)
			case tag.ReadOnly:
				meta.warn("field %s: generator %q on a read-only property", f.Name, tag.Generator)
			default:
				meta.generated = append(meta.generated, GeneratedProperty{Name: name, Generator: tag.Generator})
			}
		}
	}
}

func (b *metaBuilder) addMethods(meta *ClassMeta, t reflect.Type) {
	pt := reflect.PointerTo(t)

	getters := make(map[string]getterCandidate)
	var bare []reflect.Method // X() candidates
	setters := make(map[string]*Property)

	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		mt := m.Type

		if goName, ok := trimAccessorPrefix(m.Name, "Set"); ok && isSetterShape(mt) {
			name := b.tags.PropertyName(goName)
			setters[name] = &Property{
				Name:   name,
				GoName: m.Name,
				Type:   mt.In(1),
				Source: SourceMethod,
				Invoker: &methodInvoker{
					owner:      t,
					method:     m,
					typ:        mt.In(1),
					setter:     true,
					returnsErr: mt.NumOut() == 1,
				},
			}
			continue
		}

		if !isGetterShape(mt) {
			continue
		}

		var (
			goName string
			rank   int
		)
		if rest, ok := trimAccessorPrefix(m.Name, "Is"); ok && mt.Out(0).Kind() == reflect.Bool {
			goName, rank = rest, rankIs
		} else if rest, ok := trimAccessorPrefix(m.Name, "Get"); ok {
			goName, rank = rest, rankGet
		} else {
			bare = append(bare, m)
			continue
		}
		addGetterCandidate(getters, t, b.tags.PropertyName(goName), m, rank)
	}

	// Go-style X() counts only together with SetX
	for _, m := range bare {
		name := b.tags.PropertyName(m.Name)
		if _, paired := setters[name]; paired {
			addGetterCandidate(getters, t, name, m, rankBare)
		}
	}

	for _, name := range sortedKeys(getters) {
		c := getters[name]
		if prev, ok := meta.getters[name]; ok && prev.Source == SourceField {
			meta.warn("method %s overrides field %s", c.prop.GoName, prev.GoName)
		}
		meta.getters[name] = c.prop
	}
	for _, name := range sortedKeys(setters) {
		p := setters[name]
		if prev, ok := meta.setters[name]; ok && prev.Source == SourceField {
			meta.warn("method %s overrides field %s", p.GoName, prev.GoName)
		}
		meta.setters[name] = p
	}
}

func addGetterCandidate(getters map[string]getterCandidate, owner reflect.Type, name string, m reflect.Method, rank int) {
	if existing, ok := getters[name]; ok && existing.rank >= rank {
		return
	}
	mt := m.Type
	getters[name] = getterCandidate{
		rank: rank,
		prop: &Property{
			Name:   name,
			GoName: m.Name,
			Type:   mt.Out(0),
			Source: SourceMethod,
			Invoker: &methodInvoker{
				owner:      owner,
				method:     m,
				typ:        mt.Out(0),
				returnsErr: mt.NumOut() == 2,
			},
		},
	}
}

// isGetterShape matches func(recv) V and func(recv) (V, error).
func isGetterShape(mt reflect.Type) bool {
	if mt.NumIn() != 1 || mt.IsVariadic() {
		return false
	}
	switch mt.NumOut() {
	case 1:
		return mt.Out(0) != errorType
	case 2:
		return mt.Out(1) == errorType
	default:
		return false
	}
}

// isSetterShape matches func(recv, V) and func(recv, V) error.
func isSetterShape(mt reflect.Type) bool {
	if mt.NumIn() != 2 || mt.IsVariadic() {
		return false
	}
	switch mt.NumOut() {
	case 0:
		return true
	case 1:
		return mt.Out(0) == errorType
	default:
		return false
	}
}

// trimAccessorPrefix strips prefix from a method name when what follows
// starts a new word: GetName -> Name, but Gettysburg is left alone.
func trimAccessorPrefix(methodName, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(methodName, prefix)
	if !ok || rest == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
		return "", false
	}
	return rest, true
}

// reachableField reports whether the field at index can be read and written
// through reflection: the path must not cross an unexported embedded pointer.
func reachableField(t reflect.Type, index []int) bool {
	for _, x := range index[:len(index)-1] {
		f := t.Field(x)
		if f.Type.Kind() == reflect.Pointer {
			if !f.IsExported() {
				return false
			}
			t = f.Type.Elem()
		} else {
			t = f.Type
		}
	}
	return true
}

// finish computes the sorted name lists and the case-insensitive index.
func (m *ClassMeta) finish() {
	m.getterNames = sortedKeys(m.getters)
	m.setterNames = sortedKeys(m.setters)

	m.foldIndex = make(map[string]string, len(m.getters)+len(m.setters))
	for _, names := range [][]string{m.getterNames, m.setterNames} {
		for _, name := range names {
			lower := strings.ToLower(name)
			if _, exists := m.foldIndex[lower]; !exists {
				m.foldIndex[lower] = name
			}
		}
	}

	sort.Slice(m.generated, func(i, j int) bool {
		return m.generated[i].Name < m.generated[j].Name
	})
}

func (m *ClassMeta) warn(format string, args ...any) {
	m.warnings = append(m.warnings, fmt.Sprintf(format, args...))
}

func sortedKeys[V any](props map[string]V) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
