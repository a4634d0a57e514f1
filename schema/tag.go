package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// DefaultTagName is the struct tag key read for property configuration.
const DefaultTagName = "prop"

// ParsedTag is the property configuration extracted from a struct tag.
type ParsedTag struct {
	Name      string // Property name (explicit or derived from the field name)
	Skip      bool   // Not a property at all (prop:"-")
	ReadOnly  bool   // Getter only
	WriteOnly bool   // Setter only
	Generator string // ID generator filling the property on construction
}

// TagParser parses and caches property struct tags.
//
// Supported tag syntax:
//
//	`prop:"name"`                    // Rename the property
//	`prop:"-"`                       // Skip the field
//	`prop:"name;readonly"`           // No setter
//	`prop:"name:display;writeonly"`  // Explicit name, no getter
//	`prop:"id;generate:uuid"`        // Filled by the uuid generator on construction
//
// A single token without ';' or ':' is always a name, so a flag on its own
// needs a leading separator: `prop:";readonly"`.
type TagParser struct {
	tagName        string
	namingStrategy NamingStrategy
	cache          map[string]*ParsedTag
	cacheMu        sync.RWMutex
}

// NewTagParser creates a parser reading tagName and deriving default names
// through namingStrategy.
func NewTagParser(tagName string, namingStrategy NamingStrategy) *TagParser {
	if tagName == "" {
		tagName = DefaultTagName
	}
	if namingStrategy == nil {
		namingStrategy = DefaultNamingStrategy()
	}
	return &TagParser{
		tagName:        tagName,
		namingStrategy: namingStrategy,
		cache:          make(map[string]*ParsedTag, 64),
	}
}

// ParseTag returns the configuration for a field. Results are cached per
// (field name, tag value); callers must not modify them.
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue := tag.Get(p.tagName)

	if tagValue == "" {
		return &ParsedTag{Name: p.namingStrategy.PropertyName(fieldName)}, nil
	}

	cacheKey := fieldName + ":" + tagValue
	p.cacheMu.RLock()
	if cached, exists := p.cache[cacheKey]; exists {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	parsed, err := p.parseTagValue(fieldName, tagValue)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = parsed
	p.cacheMu.Unlock()

	return parsed, nil
}

// PropertyName applies the parser's naming strategy to a Go identifier.
func (p *TagParser) PropertyName(goName string) string {
	return p.namingStrategy.PropertyName(goName)
}

func (p *TagParser) parseTagValue(fieldName, tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{Name: p.namingStrategy.PropertyName(fieldName)}

	// Simple rename (most common case)
	if !strings.ContainsAny(tagValue, ";:") {
		parsed.Name = tagValue
		return parsed, nil
	}

	for i, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}

		if colonIdx := strings.IndexByte(option, ':'); colonIdx != -1 {
			key := strings.TrimSpace(option[:colonIdx])
			value := strings.TrimSpace(option[colonIdx+1:])
			if err := parseKeyValue(parsed, key, value); err != nil {
				return nil, err
			}
			continue
		}

		switch option {
		case "readonly", "read_only":
			parsed.ReadOnly = true
		case "writeonly", "write_only":
			parsed.WriteOnly = true
		default:
			if i == 0 {
				parsed.Name = option
			}
			// Ignore unknown flags for forward compatibility
		}
	}

	if parsed.ReadOnly && parsed.WriteOnly {
		return nil, fmt.Errorf("readonly and writeonly are mutually exclusive")
	}
	return parsed, nil
}

func parseKeyValue(tag *ParsedTag, key, value string) error {
	switch key {
	case "name":
		if value == "" {
			return fmt.Errorf("empty property name")
		}
		tag.Name = value
	case "generate", "generator":
		if value == "" {
			return fmt.Errorf("empty generator name")
		}
		tag.Generator = value
	default:
		// Ignore unknown keys for forward compatibility
	}
	return nil
}
