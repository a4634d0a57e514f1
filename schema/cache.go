package schema

import (
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/reflector/cache"
)

// Cache stores one ClassMeta per type. With caching enabled, every caller
// asking for the same type receives the same *ClassMeta, even when the
// first requests race; with caching disabled every Get builds afresh and
// nothing is retained.
//
// A Cache is safe for concurrent use. Several independently configured
// caches may coexist in one process.
type Cache struct {
	enabled atomic.Bool
	builds  atomic.Int64
	store   cache.Store[reflect.Type, *ClassMeta]
	builder *metaBuilder
	logger  *zap.Logger

	// Configuration, fixed after NewCache
	cachingEnabled bool
	cacheSize      int
	onEvict        func(reflect.Type, *ClassMeta)
	tagName        string
	namingStrategy NamingStrategy
	generators     *GeneratorRegistry
	constructors   map[reflect.Type]func() (any, error)
}

type Option func(*Cache)

// WithCaching sets the initial caching mode. Defaults to enabled.
func WithCaching(enabled bool) Option {
	return func(c *Cache) { c.cachingEnabled = enabled }
}

// WithCacheSize bounds the cache to size entries with LRU eviction.
// Zero (the default) keeps every entry for the cache's lifetime.
func WithCacheSize(size int) Option {
	return func(c *Cache) { c.cacheSize = size }
}

// WithEvictionCallback sets a callback for LRU eviction. Only used with a
// bounded cache.
func WithEvictionCallback(onEvict func(reflect.Type, *ClassMeta)) Option {
	return func(c *Cache) { c.onEvict = onEvict }
}

// WithTagName sets the struct tag key read for property configuration.
func WithTagName(tagName string) Option {
	return func(c *Cache) { c.tagName = tagName }
}

// WithNamingStrategy sets how Go names become property names.
func WithNamingStrategy(strategy NamingStrategy) Option {
	return func(c *Cache) { c.namingStrategy = strategy }
}

// WithGenerator registers an ID generator usable from generate:<name> tags.
func WithGenerator(name string, generator IDGenerator) Option {
	return func(c *Cache) { c.generators.Register(name, generator) }
}

// WithLogger sets the logger used for metadata build diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConstructor registers fn as the default constructor of T. It makes T
// constructible even when T is not a struct or implements
// ExplicitConstructor.
func WithConstructor[T any](fn func() (*T, error)) Option {
	return func(c *Cache) {
		c.constructors[indirectType(reflect.TypeFor[T]())] = func() (any, error) {
			v, err := fn()
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, nil
			}
			return v, nil
		}
	}
}

// NewCache creates a metadata cache.
func NewCache(options ...Option) *Cache {
	c := &Cache{
		// Default configuration
		cachingEnabled: true,
		tagName:        DefaultTagName,
		namingStrategy: DefaultNamingStrategy(),
		generators:     NewGeneratorRegistry(),
		constructors:   make(map[reflect.Type]func() (any, error)),
		logger:         zap.NewNop(),
	}

	for _, opt := range options {
		opt(c)
	}

	c.enabled.Store(c.cachingEnabled)
	c.store = c.newStore()
	c.builder = &metaBuilder{
		tags:         NewTagParser(c.tagName, c.namingStrategy),
		generators:   c.generators,
		constructors: c.constructors,
	}

	return c
}

func (c *Cache) newStore() cache.Store[reflect.Type, *ClassMeta] {
	if c.cacheSize <= 0 {
		return cache.NewMapStore[reflect.Type, *ClassMeta]()
	}

	store, err := cache.NewLRUStore(c.cacheSize, c.onEvict)
	if err != nil {
		c.logger.Warn("falling back to unbounded metadata cache", zap.Error(err))
		return cache.NewMapStore[reflect.Type, *ClassMeta]()
	}
	return store
}

// Get returns the metadata for t, building it on first use. Pointer types
// share the metadata of the type they point to. Get never fails; a nil t
// yields empty metadata.
func (c *Cache) Get(t reflect.Type) *ClassMeta {
	if t == nil {
		return c.builder.buildEmpty()
	}
	t = indirectType(t)

	if c.enabled.Load() {
		if meta, ok := c.store.Get(t); ok {
			return meta
		}
	}

	meta := c.builder.buildMeta(t)
	c.builds.Add(1)
	c.logger.Debug("built class metadata",
		zap.String("type", meta.Name),
		zap.Int("getters", len(meta.getterNames)),
		zap.Int("setters", len(meta.setterNames)),
		zap.Bool("constructible", meta.HasDefaultConstructor),
	)
	for _, w := range meta.warnings {
		c.logger.Warn("class metadata", zap.String("type", meta.Name), zap.String("warning", w))
	}

	if !c.enabled.Load() {
		return meta
	}

	// A concurrent builder may have published first; its result is canonical
	actual, _ := c.store.GetOrSet(t, meta)
	return actual
}

// For returns the metadata for the dynamic type of v.
func (c *Cache) For(v any) *ClassMeta {
	return c.Get(reflect.TypeOf(v))
}

// IsEnabled reports whether lookups are currently cached.
func (c *Cache) IsEnabled() bool {
	return c.enabled.Load()
}

// SetEnabled toggles caching. Entries cached earlier stay until Clear.
func (c *Cache) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// ContainsKey reports whether metadata for t is currently cached.
func (c *Cache) ContainsKey(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return c.store.Contains(indirectType(t))
}

// Keys returns a snapshot of the cached types. Order is unspecified.
func (c *Cache) Keys() []reflect.Type {
	return c.store.Keys()
}

// Len returns the number of cached types.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Clear evicts every cached entry.
func (c *Cache) Clear() {
	c.store.Purge()
}

// BuildCount returns how many times metadata has been built by this cache.
func (c *Cache) BuildCount() int64 {
	return c.builds.Load()
}

// Generators returns the registry backing generate:<name> tags.
func (c *Cache) Generators() *GeneratorRegistry {
	return c.generators
}

func (b *metaBuilder) buildEmpty() *ClassMeta {
	meta := &ClassMeta{
		Name:    TypeName(nil),
		getters: map[string]*Property{},
		setters: map[string]*Property{},
	}
	meta.finish()
	return meta
}
