package accessor

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Konsultn-Engineering/reflector/schema"
)

// =========================================================================
// Test Data Structures
// =========================================================================

type Person struct {
	Name string
	Age  int
}

type Order struct {
	ID       uuid.UUID `prop:"id;generate:uuid"`
	Customer string
	Total    float64
	Placed   time.Time
	Express  bool
	note     string
}

func (o *Order) GetNote() string { return o.note }
func (o *Order) SetNote(n string) error {
	if n == "" {
		return errors.New("empty note")
	}
	o.note = n
	return nil
}

type Pool struct {
	size int
}

func (Pool) ExplicitConstructor() {}
func (p *Pool) GetSize() int { return p.size }

func newTestAccessor(options ...Option) (*Accessor, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	options = append([]Option{WithLogger(zap.New(core))}, options...)
	return New(schema.NewCache(), options...), logs
}

// =========================================================================
// Construction Tests
// =========================================================================

func TestConstructPairs(t *testing.T) {
	a, logs := newTestAccessor()

	instance, err := a.ConstructPairs(reflect.TypeOf(Person{}), "name", "Alice", "age", "30")
	require.NoError(t, err)

	name, err := a.GetProperty(instance, "name")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	age, err := a.GetProperty(instance, "age")
	require.NoError(t, err)
	assert.Equal(t, 30, age)

	assert.Equal(t, &Person{Name: "Alice", Age: 30}, instance)
	assert.Equal(t, 0, logs.Len())
}

func TestConstructPairsArguments(t *testing.T) {
	a, _ := newTestAccessor()

	tests := []struct {
		name  string
		pairs []any
	}{
		{"OddLength", []any{"name", "Alice", "age"}},
		{"SingleName", []any{"name"}},
		{"NonStringName", []any{42, "Alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, err := a.ConstructPairs(reflect.TypeOf(Person{}), tt.pairs...)
			assert.Nil(t, instance)
			assert.ErrorIs(t, err, schema.ErrArgument)
		})
	}

	// No pairs at all is a plain construction
	instance, err := a.ConstructPairs(reflect.TypeOf(Person{}))
	require.NoError(t, err)
	assert.Equal(t, &Person{}, instance)
}

func TestConstructNoDefaultConstructor(t *testing.T) {
	a, _ := newTestAccessor()

	for _, typ := range []reflect.Type{reflect.TypeOf(Pool{}), reflect.TypeOf(0), reflect.TypeOf((*error)(nil)).Elem(), nil} {
		instance, err := a.Construct(typ)
		assert.Nil(t, instance)
		assert.ErrorIs(t, err, schema.ErrNoDefaultConstructor)

		var ce *schema.ConstructionError
		assert.ErrorAs(t, err, &ce)
	}

	_, err := a.ConstructPairs(reflect.TypeOf(Pool{}), "size", 3)
	assert.ErrorIs(t, err, schema.ErrNoDefaultConstructor)
}

func TestConstructRegisteredConstructor(t *testing.T) {
	c := schema.NewCache(schema.WithConstructor(func() (*Pool, error) {
		return &Pool{size: 8}, nil
	}))
	a := New(c)

	pool, err := NewOf[Pool](a, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, pool.GetSize())

	size, err := PropertyAs[string](a, pool, "size")
	require.NoError(t, err)
	assert.Equal(t, "8", size)
}

func TestConstructSkipsFailures(t *testing.T) {
	a, logs := newTestAccessor()

	instance, err := a.ConstructWith(reflect.TypeOf(Person{}), map[string]any{
		"name":        "Bob",
		"age":         "old",
		"unknownProp": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, &Person{Name: "Bob"}, instance)

	entries := logs.FilterMessage("skipping property").All()
	require.Len(t, entries, 2)

	// Sorted by property name
	assert.Equal(t, "age", entries[0].ContextMap()["property"])
	assert.Equal(t, "unknownProp", entries[1].ContextMap()["property"])
	assert.Equal(t, schema.TypeName(reflect.TypeOf(Person{})), entries[0].ContextMap()["type"])
	assert.Contains(t, entries[0].ContextMap()["error"], "cannot coerce value")
	assert.Contains(t, entries[1].ContextMap()["error"], "no such property")
}

func TestConstructStrict(t *testing.T) {
	a, logs := newTestAccessor(WithStrict(true))

	instance, err := a.ConstructWith(reflect.TypeOf(Person{}), map[string]any{"unknownProp": 1})
	assert.Nil(t, instance)
	assert.ErrorIs(t, err, schema.ErrNoSuchProperty)

	_, err = a.ConstructPairs(reflect.TypeOf(Person{}), "age", "old")
	assert.ErrorIs(t, err, schema.ErrCoercion)

	instance, err = a.ConstructPairs(reflect.TypeOf(Person{}), "age", 5)
	require.NoError(t, err)
	assert.Equal(t, &Person{Age: 5}, instance)

	assert.Equal(t, 0, logs.Len())
}

func TestConstructGenerated(t *testing.T) {
	a, _ := newTestAccessor()

	first, err := NewOf[Order](a, nil)
	require.NoError(t, err)
	second, err := NewOf[Order](a, nil)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	// Caller values win over generated ones
	id := uuid.MustParse("0b8f3a3e-8c1d-4a6e-9b7a-2d4f6e8a0c1e")
	order, err := NewPairsOf[Order](a, "id", id.String(), "customer", "acme")
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)
	assert.Equal(t, "acme", order.Customer)
}

func TestConstructCoercion(t *testing.T) {
	a, logs := newTestAccessor()

	order, err := NewPairsOf[Order](a,
		"total", "19.99",
		"placed", "2024-03-01",
		"express", "TRUE",
		"note", 42,
	)
	require.NoError(t, err)

	assert.Equal(t, 19.99, order.Total)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), order.Placed)
	assert.True(t, order.Express)
	assert.Equal(t, "42", order.GetNote())
	assert.Equal(t, 0, logs.Len())
}

func TestNewTypeMismatch(t *testing.T) {
	a, _ := newTestAccessor()

	_, err := NewOf[int](a, nil)
	assert.ErrorIs(t, err, schema.ErrNoDefaultConstructor)
}

// =========================================================================
// Property Access Tests
// =========================================================================

func TestPropertyRoundTrip(t *testing.T) {
	a, _ := newTestAccessor()

	tests := []struct {
		name  string
		prop  string
		value any
	}{
		{"String", "customer", "acme"},
		{"StringFromInt", "customer", 7},
		{"FloatFromString", "total", "12.5"},
		{"FloatFromInt", "total", 3},
		{"BoolFromString", "express", "false"},
		{"TimeFromString", "placed", "2024-01-02T03:04:05Z"},
		{"MethodSetter", "note", "handle with care"},
	}

	meta := a.Cache().Get(reflect.TypeOf(Order{}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{}
			require.NoError(t, a.SetProperty(order, tt.prop, tt.value))

			got, err := a.GetProperty(order, tt.prop)
			require.NoError(t, err)

			want, err := schema.Coerce(tt.value, meta.SetterType(tt.prop))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestGetPropertyErrors(t *testing.T) {
	a, _ := newTestAccessor()

	_, err := a.GetProperty(&Person{}, "email")
	require.ErrorIs(t, err, schema.ErrNoSuchProperty)

	var pe *schema.PropertyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "email", pe.Property)
	assert.Equal(t, "getter", pe.Access)
	assert.Equal(t, schema.TypeName(reflect.TypeOf(Person{})), pe.Type)

	_, err = a.GetProperty(nil, "name")
	assert.ErrorIs(t, err, schema.ErrArgument)

	// Case sensitive by default
	_, err = a.GetProperty(&Person{}, "Name")
	assert.ErrorIs(t, err, schema.ErrNoSuchProperty)
}

func TestSetPropertyErrors(t *testing.T) {
	a, _ := newTestAccessor()

	tests := []struct {
		name     string
		instance any
		prop     string
		value    any
		target   error
	}{
		{"NoSetter", &Person{}, "email", "x", schema.ErrNoSuchProperty},
		{"NilInstance", nil, "name", "x", schema.ErrArgument},
		{"ValueInstance", Person{}, "name", "x", schema.ErrAccess},
		{"NilPointer", (*Person)(nil), "name", "x", schema.ErrAccess},
		{"BadValue", &Person{}, "age", "old", schema.ErrCoercion},
		{"SetterError", &Order{}, "note", "", schema.ErrAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.SetProperty(tt.instance, tt.prop, tt.value)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestCaseInsensitive(t *testing.T) {
	a, _ := newTestAccessor(WithCaseSensitive(false))

	p := &Person{}
	require.NoError(t, a.SetProperty(p, "NAME", "Carol"))

	name, err := a.GetProperty(p, "Name")
	require.NoError(t, err)
	assert.Equal(t, "Carol", name)

	instance, err := a.ConstructPairs(reflect.TypeOf(Person{}), "AGE", 41)
	require.NoError(t, err)
	assert.Equal(t, &Person{Age: 41}, instance)

	_, err = a.GetProperty(p, "email")
	assert.ErrorIs(t, err, schema.ErrNoSuchProperty)
}

func TestSetProperties(t *testing.T) {
	a, logs := newTestAccessor()

	p := &Person{Name: "Dave"}
	require.NoError(t, a.SetProperties(p, map[string]any{"age": 52, "email": "d@example.com"}))
	assert.Equal(t, &Person{Name: "Dave", Age: 52}, p)
	assert.Equal(t, 1, logs.FilterMessage("skipping property").Len())

	assert.ErrorIs(t, a.SetProperties(Person{}, nil), schema.ErrArgument)
	assert.ErrorIs(t, a.SetProperties((*Person)(nil), nil), schema.ErrArgument)

	strict, _ := newTestAccessor(WithStrict(true))
	assert.ErrorIs(t, strict.SetProperties(p, map[string]any{"email": "x"}), schema.ErrNoSuchProperty)
}

func TestPropertyAs(t *testing.T) {
	a, _ := newTestAccessor()
	p := &Person{Name: "Eve", Age: 29}

	age, err := PropertyAs[string](a, p, "age")
	require.NoError(t, err)
	assert.Equal(t, "29", age)

	n, err := PropertyAs[int64](a, p, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(29), n)

	_, err = PropertyAs[int](a, p, "name")
	assert.ErrorIs(t, err, schema.ErrCoercion)

	_, err = PropertyAs[int](a, p, "email")
	assert.ErrorIs(t, err, schema.ErrNoSuchProperty)
}

// =========================================================================
// Describe and Introspection Tests
// =========================================================================

func TestDescribe(t *testing.T) {
	a, _ := newTestAccessor()

	expected := "github.com/Konsultn-Engineering/reflector/accessor.Person (default constructor)\n" +
		"  2 getters:\n" +
		"    age int (field)\n" +
		"    name string (field)\n" +
		"  2 setters:\n" +
		"    age int (field)\n" +
		"    name string (field)\n"
	assert.Equal(t, expected, a.Describe(reflect.TypeOf(Person{})))

	pool := a.Describe(reflect.TypeOf(Pool{}))
	assert.Contains(t, pool, "(no default constructor)")
	assert.Contains(t, pool, "  1 getter:\n    size int (method)\n")
	assert.Contains(t, pool, "  0 setters:\n")

	order := a.Describe(reflect.TypeOf(&Order{}))
	assert.Contains(t, order, "  generated (1 property):\n    id <- uuid\n")
	assert.Contains(t, order, "    note string (method)\n")
}

func TestCacheIntrospection(t *testing.T) {
	a, _ := newTestAccessor()

	assert.True(t, a.IsCacheEnabled())
	assert.False(t, a.IsCached(reflect.TypeOf(Person{})))
	assert.Empty(t, a.CachedTypeNames())

	_, err := a.Construct(reflect.TypeOf(Person{}))
	require.NoError(t, err)
	_, err = a.GetProperty(&Order{}, "customer")
	require.NoError(t, err)

	assert.True(t, a.IsCached(reflect.TypeOf(&Person{})))
	assert.True(t, a.IsCachedName("github.com/Konsultn-Engineering/reflector/accessor.Person"))
	assert.False(t, a.IsCachedName("github.com/Konsultn-Engineering/reflector/accessor.Pool"))
	assert.False(t, a.IsCachedName("Person"))
	assert.Equal(t, []string{
		"github.com/Konsultn-Engineering/reflector/accessor.Order",
		"github.com/Konsultn-Engineering/reflector/accessor.Person",
	}, a.CachedTypeNames())

	a.Cache().SetEnabled(false)
	assert.False(t, a.IsCacheEnabled())
}

func TestAccessorConcurrency(t *testing.T) {
	const numGoroutines = 10

	for _, enabled := range []bool{true, false} {
		a := New(schema.NewCache(schema.WithCaching(enabled)))

		var wg sync.WaitGroup
		errs := make(chan error, numGoroutines)
		startBarrier := make(chan struct{})

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(age int) {
				defer wg.Done()
				<-startBarrier

				p, err := NewPairsOf[Person](a, "name", "worker", "age", age)
				if err != nil {
					errs <- err
					return
				}
				got, err := PropertyAs[int](a, p, "age")
				if err != nil {
					errs <- err
					return
				}
				if got != age {
					errs <- errors.New("age mismatch")
				}
			}(i)
		}

		close(startBarrier)
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("caching=%v: %v", enabled, err)
		}
	}
}
