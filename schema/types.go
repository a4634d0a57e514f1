package schema

import (
	"reflect"
	"slices"
	"strings"
)

// ExplicitConstructor is implemented by types whose zero value is not usable.
// Such types report no default constructor unless one is registered with
// WithConstructor.
type ExplicitConstructor interface {
	ExplicitConstructor()
}

// Initializer is implemented by types that finish their own setup after
// allocation. A non-nil error fails construction.
type Initializer interface {
	Init() error
}

// PropertySource tells where an accessor was discovered.
type PropertySource uint8

const (
	SourceField PropertySource = iota
	SourceMethod
)

func (s PropertySource) String() string {
	if s == SourceMethod {
		return "method"
	}
	return "field"
}

// Property is one readable or writable attribute of a type.
type Property struct {
	Name    string // Property name as exposed to callers
	GoName  string // Field or method name it was derived from
	Type    reflect.Type
	Source  PropertySource
	Invoker Invoker
}

// GeneratedProperty is a writable property filled by an IDGenerator when an
// instance is constructed.
type GeneratedProperty struct {
	Name      string
	Generator string
}

// ClassMeta is the cached description of one type. It is immutable once
// built and may be shared freely between goroutines.
type ClassMeta struct {
	Type                  reflect.Type
	Name                  string
	HasDefaultConstructor bool
	Constructor           Invoker // nil unless HasDefaultConstructor

	getters     map[string]*Property
	setters     map[string]*Property
	getterNames []string
	setterNames []string
	foldIndex   map[string]string // lower-cased name -> property name
	generated   []GeneratedProperty
	warnings    []string
}

// Getter returns the read accessor for name.
func (m *ClassMeta) Getter(name string) (*Property, bool) {
	p, ok := m.getters[name]
	return p, ok
}

// Setter returns the write accessor for name.
func (m *ClassMeta) Setter(name string) (*Property, bool) {
	p, ok := m.setters[name]
	return p, ok
}

func (m *ClassMeta) HasGetter(name string) bool {
	_, ok := m.getters[name]
	return ok
}

func (m *ClassMeta) HasSetter(name string) bool {
	_, ok := m.setters[name]
	return ok
}

// GetterType returns the declared type of a readable property, or nil.
func (m *ClassMeta) GetterType(name string) reflect.Type {
	if p, ok := m.getters[name]; ok {
		return p.Type
	}
	return nil
}

// SetterType returns the declared type of a writable property, or nil.
func (m *ClassMeta) SetterType(name string) reflect.Type {
	if p, ok := m.setters[name]; ok {
		return p.Type
	}
	return nil
}

// GetterNames returns the readable property names in sorted order.
func (m *ClassMeta) GetterNames() []string {
	return slices.Clone(m.getterNames)
}

// SetterNames returns the writable property names in sorted order.
func (m *ClassMeta) SetterNames() []string {
	return slices.Clone(m.setterNames)
}

// FindProperty resolves name case-insensitively to the exposed property name.
func (m *ClassMeta) FindProperty(name string) (string, bool) {
	if _, ok := m.getters[name]; ok {
		return name, true
	}
	if _, ok := m.setters[name]; ok {
		return name, true
	}
	p, ok := m.foldIndex[strings.ToLower(name)]
	return p, ok
}

// NewInstance invokes the default constructor, returning a pointer to a new
// instance. Types without one fail with ErrNoDefaultConstructor.
func (m *ClassMeta) NewInstance() (any, error) {
	if !m.HasDefaultConstructor {
		return nil, newNoDefaultConstructorError(m.Type)
	}
	return m.Constructor.Invoke(nil)
}

// Generated returns the properties populated by ID generators on construction.
func (m *ClassMeta) Generated() []GeneratedProperty {
	return append([]GeneratedProperty(nil), m.generated...)
}

// Warnings returns problems found while building the metadata that did not
// prevent it, such as an unknown generator name in a tag.
func (m *ClassMeta) Warnings() []string {
	return append([]string(nil), m.warnings...)
}

// TypeName returns the fully qualified name of t, used in errors and
// diagnostics. Unnamed types fall back to their literal form.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	t = indirectType(t)
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// indirectType normalizes pointer types to the type they point to.
func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
