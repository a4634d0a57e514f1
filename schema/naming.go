package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is shared for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// NamingStrategy defines how Go field and accessor names become property names.
type NamingStrategy interface {
	// PropertyName converts a Go identifier (field name, or accessor method
	// name with its Get/Is/Set prefix removed) to a property name.
	// Must return consistent results for the same input.
	PropertyName(goName string) string
}

// NamingType represents the supported property naming conventions.
type NamingType int

const (
	NamingCamelCase  NamingType = iota // userId, firstName, createdAt
	NamingSnakeCase                    // user_id, first_name, created_at
	NamingPascalCase                   // UserId, FirstName, CreatedAt
	NamingGoName                       // UserID, FirstName, CreatedAt (unchanged)
)

type namingStrategy struct {
	namingType NamingType
}

// NewNamingStrategy creates a naming strategy for the given convention.
func NewNamingStrategy(namingType NamingType) NamingStrategy {
	return &namingStrategy{namingType: namingType}
}

// DefaultNamingStrategy returns the camelCase strategy.
func DefaultNamingStrategy() NamingStrategy {
	return NewNamingStrategy(NamingCamelCase)
}

// ParseNamingType maps a configuration value to a NamingType.
func ParseNamingType(s string) (NamingType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "camel", "camelcase":
		return NamingCamelCase, true
	case "snake", "snake_case":
		return NamingSnakeCase, true
	case "pascal", "pascalcase":
		return NamingPascalCase, true
	case "go", "goname":
		return NamingGoName, true
	default:
		return NamingCamelCase, false
	}
}

func (n *namingStrategy) PropertyName(goName string) string {
	switch n.namingType {
	case NamingSnakeCase:
		return toSnakeCase(goName)
	case NamingPascalCase:
		return toPascalCase(goName)
	case NamingGoName:
		return goName
	default:
		return toCamelCase(goName)
	}
}

// =========================================================================
// Core Conversion Functions
// =========================================================================

// toSnakeCase converts any naming convention to snake_case, keeping
// acronyms together: UserID -> user_id, HTTPServer -> http_server.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// Already snake_case
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				if prev != '_' {
					result.WriteByte('_')
				}
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}

// toCamelCase converts any naming convention to camelCase.
func toCamelCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var result strings.Builder
	result.Grow(len(name))

	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if first {
			result.WriteString(part)
			first = false
			continue
		}
		result.WriteString(capitalize(part))
	}
	return result.String()
}

// toPascalCase converts any naming convention to PascalCase.
func toPascalCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var result strings.Builder
	result.Grow(len(name))

	for _, part := range parts {
		if part != "" {
			result.WriteString(capitalize(part))
		}
	}
	return result.String()
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// Pluralize returns word in the form matching count, prefixed with count
// when inclusive is set: Pluralize("property", 2, true) == "2 properties".
func Pluralize(word string, count int, inclusive bool) string {
	return pluralizeClient.Pluralize(word, count, inclusive)
}
