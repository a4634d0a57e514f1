// Package accessor creates instances and reads and writes their properties
// by name, without compile-time knowledge of their types.
//
// All type knowledge comes from a schema.Cache:
//
//	c := schema.NewCache()
//	a := accessor.New(c, accessor.WithLogger(logger))
//
//	p, err := accessor.NewPairsOf[Person](a, "name", "Alice", "age", "30")
//	age, err := a.GetProperty(p, "age") // 30 (int)
//
// Values are coerced to the declared property type before they are set.
package accessor

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/reflector/schema"
)

// Accessor is the dynamic access facade over a metadata cache. It holds no
// mutable state of its own and is safe for concurrent use.
type Accessor struct {
	cache         *schema.Cache
	logger        *zap.Logger
	strict        bool
	caseSensitive bool
}

// New creates an Accessor backed by c. A nil c gets a default cache.
func New(c *schema.Cache, options ...Option) *Accessor {
	if c == nil {
		c = schema.NewCache()
	}
	a := &Accessor{
		cache:         c,
		logger:        zap.NewNop(),
		caseSensitive: true,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Cache returns the metadata cache backing a.
func (a *Accessor) Cache() *schema.Cache {
	return a.cache
}

// =========================================================================
// Construction
// =========================================================================

// Construct creates a new instance of t through its default constructor and
// fills its generated properties. It returns a pointer to the instance.
func (a *Accessor) Construct(t reflect.Type) (any, error) {
	return a.ConstructWith(t, nil)
}

// ConstructWith creates a new instance of t and sets each entry of props
// on it, coercing values to the declared property types. Entries are
// applied in name order. A property that cannot be set is logged and
// skipped, leaving the instance partially populated, unless the Accessor
// is strict.
func (a *Accessor) ConstructWith(t reflect.Type, props map[string]any) (any, error) {
	meta := a.cache.Get(t)

	instance, err := meta.NewInstance()
	if err != nil {
		return nil, err
	}

	// Generated first so caller values win
	for _, g := range meta.Generated() {
		if err := a.generate(meta, instance, g); err != nil {
			if a.strict {
				return nil, err
			}
			a.skip(meta, g.Name, err)
		}
	}

	if err := a.populate(meta, instance, props); err != nil {
		return nil, err
	}
	return instance, nil
}

// ConstructPairs is ConstructWith taking alternating name/value arguments:
//
//	a.ConstructPairs(t, "name", "Alice", "age", 30)
//
// An odd number of arguments or a non-string name is an ErrArgument.
func (a *Accessor) ConstructPairs(t reflect.Type, pairs ...any) (any, error) {
	props, err := pairsToMap(pairs)
	if err != nil {
		return nil, err
	}
	return a.ConstructWith(t, props)
}

// NewOf constructs a T populated from props.
func NewOf[T any](a *Accessor, props map[string]any) (*T, error) {
	instance, err := a.ConstructWith(reflect.TypeFor[T](), props)
	if err != nil {
		return nil, err
	}
	return asPointer[T](instance)
}

// NewPairsOf constructs a T populated from alternating name/value arguments.
func NewPairsOf[T any](a *Accessor, pairs ...any) (*T, error) {
	instance, err := a.ConstructPairs(reflect.TypeFor[T](), pairs...)
	if err != nil {
		return nil, err
	}
	return asPointer[T](instance)
}

func asPointer[T any](instance any) (*T, error) {
	typed, ok := instance.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: '%s': constructor returned %T", schema.ErrConstruction, schema.TypeName(reflect.TypeFor[T]()), instance)
	}
	return typed, nil
}

func pairsToMap(pairs []any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, schema.NewArgumentError("odd number of name/value arguments: %d", len(pairs))
	}

	props := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, schema.NewArgumentError("property name at position %d is %T, not string", i, pairs[i])
		}
		props[name] = pairs[i+1]
	}
	return props, nil
}

func (a *Accessor) generate(meta *schema.ClassMeta, instance any, g schema.GeneratedProperty) error {
	value, err := a.cache.Generators().Generate(g.Generator)
	if err != nil {
		return err
	}
	return a.set(meta, instance, g.Name, value)
}

// populate sets props on instance in name order.
func (a *Accessor) populate(meta *schema.ClassMeta, instance any, props map[string]any) error {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := a.set(meta, instance, name, props[name]); err != nil {
			if a.strict {
				return err
			}
			a.skip(meta, name, err)
		}
	}
	return nil
}

func (a *Accessor) skip(meta *schema.ClassMeta, name string, err error) {
	a.logger.Warn("skipping property",
		zap.String("type", meta.Name),
		zap.String("property", name),
		zap.Error(err),
	)
}

// =========================================================================
// Property access
// =========================================================================

// GetProperty returns the value of the named property of instance.
func (a *Accessor) GetProperty(instance any, name string) (any, error) {
	if instance == nil {
		return nil, schema.NewArgumentError("nil instance")
	}

	meta := a.cache.For(instance)
	p, ok := a.lookup(meta, name, (*schema.ClassMeta).Getter)
	if !ok {
		return nil, schema.NewPropertyError(meta.Type, name, "getter")
	}
	return p.Invoker.Invoke(instance)
}

// SetProperty coerces value to the declared type of the named property and
// stores it. instance must be a non-nil pointer.
func (a *Accessor) SetProperty(instance any, name string, value any) error {
	if instance == nil {
		return schema.NewArgumentError("nil instance")
	}
	return a.set(a.cache.For(instance), instance, name, value)
}

// SetProperties sets every entry of props on instance with the same skip or
// strict policy as ConstructWith.
func (a *Accessor) SetProperties(instance any, props map[string]any) error {
	if v := reflect.ValueOf(instance); v.Kind() != reflect.Pointer || v.IsNil() {
		return schema.NewArgumentError("instance must be a non-nil pointer, got %T", instance)
	}
	return a.populate(a.cache.For(instance), instance, props)
}

// PropertyAs returns the named property of instance coerced to T.
func PropertyAs[T any](a *Accessor, instance any, name string) (T, error) {
	value, err := a.GetProperty(instance, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return schema.CoerceTo[T](value)
}

func (a *Accessor) set(meta *schema.ClassMeta, instance any, name string, value any) error {
	p, ok := a.lookup(meta, name, (*schema.ClassMeta).Setter)
	if !ok {
		return schema.NewPropertyError(meta.Type, name, "setter")
	}

	coerced, err := schema.Coerce(value, p.Type)
	if err != nil {
		return err
	}
	_, err = p.Invoker.Invoke(instance, coerced)
	return err
}

func (a *Accessor) lookup(meta *schema.ClassMeta, name string, find func(*schema.ClassMeta, string) (*schema.Property, bool)) (*schema.Property, bool) {
	if p, ok := find(meta, name); ok || a.caseSensitive {
		return p, ok
	}
	resolved, ok := meta.FindProperty(name)
	if !ok {
		return nil, false
	}
	return find(meta, resolved)
}

// =========================================================================
// Cache introspection
// =========================================================================

func (a *Accessor) IsCacheEnabled() bool {
	return a.cache.IsEnabled()
}

// IsCached reports whether metadata for t is currently cached.
func (a *Accessor) IsCached(t reflect.Type) bool {
	return a.cache.ContainsKey(t)
}

// IsCachedName reports whether metadata for the type with the qualified
// name (as produced by schema.TypeName) is currently cached.
func (a *Accessor) IsCachedName(name string) bool {
	for _, t := range a.cache.Keys() {
		if schema.TypeName(t) == name {
			return true
		}
	}
	return false
}

// CachedTypeNames returns the qualified names of the cached types, sorted.
func (a *Accessor) CachedTypeNames() []string {
	keys := a.cache.Keys()
	names := make([]string, 0, len(keys))
	for _, t := range keys {
		names = append(names, schema.TypeName(t))
	}
	sort.Strings(names)
	return names
}
