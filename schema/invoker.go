package schema

import (
	"fmt"
	"reflect"
)

// InvokerKind tags the member an Invoker wraps.
type InvokerKind uint8

const (
	KindConstructor InvokerKind = iota
	KindFieldRead
	KindFieldWrite
	KindMethodCall
)

func (k InvokerKind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindFieldRead:
		return "field-read"
	case KindFieldWrite:
		return "field-write"
	case KindMethodCall:
		return "method-call"
	default:
		return fmt.Sprintf("InvokerKind(%d)", k)
	}
}

// Invoker is a stateless callable over a constructor, a field or an accessor
// method. One Invoker serves every instance of its owning type.
//
// Constructors ignore target and args and return a pointer to a new
// instance. Reads take no args and return the current value. Writes take
// exactly one arg, mutate target in place and return nil.
type Invoker interface {
	Kind() InvokerKind
	// Type is the constructed type, the value type read, or the value type written.
	Type() reflect.Type
	Invoke(target any, args ...any) (any, error)
}

// =========================================================================
// Constructor
// =========================================================================

type constructorInvoker struct {
	typ reflect.Type
	fn  func() (any, error) // registered constructor; nil means zero value
}

func (c *constructorInvoker) Kind() InvokerKind  { return KindConstructor }
func (c *constructorInvoker) Type() reflect.Type { return c.typ }

func (c *constructorInvoker) Invoke(_ any, _ ...any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, newConstructionError(c.typ, fmt.Errorf("panic: %v", r))
		}
	}()

	var instance any
	if c.fn != nil {
		instance, err = c.fn()
		if err != nil {
			return nil, newConstructionError(c.typ, err)
		}
		if instance == nil {
			return nil, newConstructionError(c.typ, fmt.Errorf("constructor returned nil"))
		}
	} else {
		instance = reflect.New(c.typ).Interface()
	}

	if initializer, ok := instance.(Initializer); ok {
		if err := initializer.Init(); err != nil {
			return nil, newConstructionError(c.typ, err)
		}
	}
	return instance, nil
}

// =========================================================================
// Fields
// =========================================================================

type fieldReadInvoker struct {
	owner reflect.Type
	field reflect.StructField
}

func (f *fieldReadInvoker) Kind() InvokerKind  { return KindFieldRead }
func (f *fieldReadInvoker) Type() reflect.Type { return f.field.Type }

func (f *fieldReadInvoker) Invoke(target any, args ...any) (any, error) {
	member := memberName(f.owner, f.field.Name)
	if len(args) != 0 {
		return nil, newAccessError(member, fmt.Sprintf("expected 0 arguments, got %d", len(args)), nil)
	}

	recv, err := resolveTarget(f.owner, target, false)
	if err != nil {
		return nil, newAccessError(member, err.Error(), nil)
	}

	return fieldByIndexZero(reflect.Indirect(recv), f.field).Interface(), nil
}

type fieldWriteInvoker struct {
	owner  reflect.Type
	field  reflect.StructField
	direct fieldWriter // set only for fields declared directly on owner
}

func newFieldWriteInvoker(owner reflect.Type, field reflect.StructField) *fieldWriteInvoker {
	fw := &fieldWriteInvoker{owner: owner, field: field}
	if len(field.Index) == 1 {
		fw.direct = createFieldWriter(field.Type, field.Offset)
	}
	return fw
}

func (f *fieldWriteInvoker) Kind() InvokerKind  { return KindFieldWrite }
func (f *fieldWriteInvoker) Type() reflect.Type { return f.field.Type }

func (f *fieldWriteInvoker) Invoke(target any, args ...any) (any, error) {
	member := memberName(f.owner, f.field.Name)
	if len(args) != 1 {
		return nil, newAccessError(member, fmt.Sprintf("expected 1 argument, got %d", len(args)), nil)
	}

	recv, err := resolveTarget(f.owner, target, true)
	if err != nil {
		return nil, newAccessError(member, err.Error(), nil)
	}

	value := args[0]
	if value == nil {
		dst, err := fieldByIndexAlloc(recv.Elem(), f.field.Index)
		if err != nil {
			return nil, newAccessError(member, "unreachable field", err)
		}
		dst.SetZero()
		return nil, nil
	}

	if f.direct != nil {
		if f.direct(recv.UnsafePointer(), value) {
			return nil, nil
		}
		return nil, newAccessError(member, fmt.Sprintf("cannot assign %T to %s", value, f.field.Type), nil)
	}

	val := reflect.ValueOf(value)
	if !val.Type().AssignableTo(f.field.Type) {
		return nil, newAccessError(member, fmt.Sprintf("cannot assign %T to %s", value, f.field.Type), nil)
	}
	dst, err := fieldByIndexAlloc(recv.Elem(), f.field.Index)
	if err != nil {
		return nil, newAccessError(member, "unreachable field", err)
	}
	dst.Set(val)
	return nil, nil
}

// fieldByIndexZero walks index like FieldByIndex. A nil embedded struct
// pointer on the way yields the zero value of the field, mirroring writes,
// which allocate it.
func fieldByIndexZero(v reflect.Value, field reflect.StructField) reflect.Value {
	for i, x := range field.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Zero(field.Type)
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// fieldByIndexAlloc walks index like FieldByIndex, allocating nil embedded
// struct pointers on the way.
func fieldByIndexAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot allocate embedded %s", v.Type())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

// =========================================================================
// Methods
// =========================================================================

type methodInvoker struct {
	owner      reflect.Type
	method     reflect.Method // from the method set of *owner
	typ        reflect.Type
	setter     bool
	returnsErr bool
}

func (m *methodInvoker) Kind() InvokerKind  { return KindMethodCall }
func (m *methodInvoker) Type() reflect.Type { return m.typ }

func (m *methodInvoker) Invoke(target any, args ...any) (result any, err error) {
	member := memberName(m.owner, m.method.Name)

	want := 0
	if m.setter {
		want = 1
	}
	if len(args) != want {
		return nil, newAccessError(member, fmt.Sprintf("expected %d arguments, got %d", want, len(args)), nil)
	}

	recv, err := resolveTarget(m.owner, target, m.setter)
	if err != nil {
		return nil, newAccessError(member, err.Error(), nil)
	}
	if recv.Kind() != reflect.Pointer {
		// Pointer-receiver methods need an addressable copy for reads
		p := reflect.New(m.owner)
		p.Elem().Set(recv)
		recv = p
	}

	in := []reflect.Value{recv}
	if m.setter {
		arg := reflect.Zero(m.typ)
		if args[0] != nil {
			arg = reflect.ValueOf(args[0])
			if !arg.Type().AssignableTo(m.typ) {
				return nil, newAccessError(member, fmt.Sprintf("cannot pass %T as %s", args[0], m.typ), nil)
			}
		}
		in = append(in, arg)
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, newAccessError(member, "method panicked", fmt.Errorf("%v", r))
		}
	}()

	out := m.method.Func.Call(in)

	if m.returnsErr {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, newAccessError(member, "method returned error", errVal.Interface().(error))
		}
	}
	if m.setter {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// resolveTarget checks target against owner and returns either a non-nil
// *owner value or, when a pointer is not required, an owner value.
func resolveTarget(owner reflect.Type, target any, needPtr bool) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, fmt.Errorf("nil target")
	}

	v := reflect.ValueOf(target)
	switch {
	case v.Kind() == reflect.Pointer && v.Type().Elem() == owner:
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s target", v.Type())
		}
		return v, nil
	case v.Type() == owner:
		if needPtr {
			return reflect.Value{}, fmt.Errorf("target must be *%s to be written, got %s", owner, v.Type())
		}
		return v, nil
	default:
		return reflect.Value{}, fmt.Errorf("target %s is not assignable to %s", v.Type(), owner)
	}
}

func memberName(owner reflect.Type, name string) string {
	return TypeName(owner) + "." + name
}
