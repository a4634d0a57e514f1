package schema

import (
	"errors"
	"fmt"
	"reflect"
)

// Error kinds returned by the metadata, invoker and coercion layers.
// Match them with errors.Is; the typed errors below carry the details.
var (
	ErrNoSuchProperty       = errors.New("no such property")
	ErrNoDefaultConstructor = errors.New("no default constructor")
	ErrConstruction         = errors.New("construction failed")
	ErrAccess               = errors.New("property access failed")
	ErrCoercion             = errors.New("cannot coerce value")
	ErrArgument             = errors.New("invalid argument")
)

// PropertyError reports a property name with no matching accessor.
type PropertyError struct {
	Type     string
	Property string
	Access   string // "getter" or "setter"
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("%v: '%s' has no %s for property '%s'", ErrNoSuchProperty, e.Type, e.Access, e.Property)
}

func (e *PropertyError) Is(target error) bool {
	return target == ErrNoSuchProperty
}

// ConstructionError reports a type that could not be instantiated, either
// because it has no default constructor or because the constructor failed.
type ConstructionError struct {
	kind  error
	cause error
	Type  string
}

func (e *ConstructionError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%v: '%s'", e.kind, e.Type)
	}
	return fmt.Sprintf("%v: '%s': %v", e.kind, e.Type, e.cause)
}

func (e *ConstructionError) Is(target error) bool {
	return target == e.kind
}

func (e *ConstructionError) Unwrap() error {
	return e.cause
}

func newNoDefaultConstructorError(t reflect.Type) error {
	return &ConstructionError{kind: ErrNoDefaultConstructor, Type: TypeName(t)}
}

func newConstructionError(t reflect.Type, cause error) error {
	return &ConstructionError{kind: ErrConstruction, Type: TypeName(t), cause: cause}
}

// AccessError reports a target or argument that does not fit an invoker.
type AccessError struct {
	cause  error
	Member string
	Reason string
}

func (e *AccessError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%v: %s: %s", ErrAccess, e.Member, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s: %v", ErrAccess, e.Member, e.Reason, e.cause)
}

func (e *AccessError) Is(target error) bool {
	return target == ErrAccess
}

func (e *AccessError) Unwrap() error {
	return e.cause
}

func newAccessError(member, reason string, cause error) error {
	return &AccessError{Member: member, Reason: reason, cause: cause}
}

// CoercionError reports a value that cannot be converted to a declared type.
type CoercionError struct {
	cause  error
	Value  any
	Target string
}

func (e *CoercionError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%v: '%v' (%T) to '%s'", ErrCoercion, e.Value, e.Value, e.Target)
	}
	return fmt.Sprintf("%v: '%v' (%T) to '%s': %v", ErrCoercion, e.Value, e.Value, e.Target, e.cause)
}

func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

func (e *CoercionError) Unwrap() error {
	return e.cause
}

func newCoercionError(value any, target reflect.Type, cause error) error {
	return &CoercionError{Value: value, Target: target.String(), cause: cause}
}

// NewArgumentError reports a malformed call.
func NewArgumentError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArgument, fmt.Sprintf(format, args...))
}

// NewPropertyError builds the error returned when name has no accessor of
// the requested kind on t.
func NewPropertyError(t reflect.Type, name, access string) error {
	return &PropertyError{Type: TypeName(t), Property: name, Access: access}
}
