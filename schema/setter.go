package schema

import (
	"reflect"
	"sync"
	"time"
	"unsafe"
)

// fieldWriter stores value into the field at a fixed offset of the struct
// pointed to by structPtr. It reports false when value does not have the
// field's exact type, leaving the field untouched.
type fieldWriter func(structPtr unsafe.Pointer, value any) bool

var fieldWriterCreators = sync.Map{} // map[reflect.Type]func(uintptr) fieldWriter

func registerFieldWriter[T any]() {
	fieldWriterCreators.Store(reflect.TypeFor[T](), func(offset uintptr) fieldWriter {
		return func(structPtr unsafe.Pointer, value any) bool {
			v, ok := value.(T)
			if !ok {
				return false
			}
			*(*T)(unsafe.Add(structPtr, offset)) = v
			return true
		}
	})
}

func init() {
	registerFieldWriter[string]()
	registerFieldWriter[bool]()
	registerFieldWriter[int]()
	registerFieldWriter[int8]()
	registerFieldWriter[int16]()
	registerFieldWriter[int32]()
	registerFieldWriter[int64]()
	registerFieldWriter[uint]()
	registerFieldWriter[uint8]()
	registerFieldWriter[uint16]()
	registerFieldWriter[uint32]()
	registerFieldWriter[uint64]()
	registerFieldWriter[float32]()
	registerFieldWriter[float64]()
	registerFieldWriter[[]byte]()
	registerFieldWriter[time.Time]()
	registerFieldWriter[time.Duration]()
}

// createFieldWriter returns the typed writer registered for fieldType, or a
// reflection-based one that accepts any assignable value.
func createFieldWriter(fieldType reflect.Type, offset uintptr) fieldWriter {
	if creator, ok := fieldWriterCreators.Load(fieldType); ok {
		return creator.(func(uintptr) fieldWriter)(offset)
	}

	return func(structPtr unsafe.Pointer, value any) bool {
		val := reflect.ValueOf(value)
		if !val.Type().AssignableTo(fieldType) {
			return false
		}
		reflect.NewAt(fieldType, unsafe.Add(structPtr, offset)).Elem().Set(val)
		return true
	}
}
