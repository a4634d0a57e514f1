package schema

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// convertFunc converts a non-nil value of one fixed source type.
type convertFunc func(value any) (any, error)

type converterKey struct {
	dst, src reflect.Type
}

// Pre-compiled converter cache, one entry per (target, source) pair
var converterCache = sync.Map{} // map[converterKey]convertFunc

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
	stringerType        = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// timeLayouts are tried in order when parsing text into time.Time.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"15:04:05",
}

// Coerce converts value to target:
//
//   - nil (or a nil pointer) stays nil
//   - values already assignable to target are returned unchanged
//   - numbers convert between numeric kinds, truncating on narrowing;
//     text is parsed at the target's bit size
//   - bool targets accept bools and "true"/"false" in any case
//   - string targets accept anything through its canonical text form
//   - text decodes into time.Time, time.Duration, []byte and any
//     encoding.TextUnmarshaler
//
// Any other target gets value back unchanged, so an incompatible value is
// reported later by the Invoker. Failures are *CoercionError.
func Coerce(value any, target reflect.Type) (any, error) {
	if value == nil {
		return nil, nil
	}

	src := reflect.TypeOf(value)
	if src.Kind() == reflect.Ptr && reflect.ValueOf(value).IsNil() {
		return nil, nil
	}
	if target == nil || src.AssignableTo(target) {
		return value, nil
	}

	return getConverter(target, src)(value)
}

// CoerceTo is the generic form of Coerce. A nil result yields the zero T.
func CoerceTo[T any](value any) (T, error) {
	var zero T
	target := reflect.TypeFor[T]()

	out, err := Coerce(value, target)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	result, ok := out.(T)
	if !ok {
		return zero, newCoercionError(value, target, nil)
	}
	return result, nil
}

func getConverter(dst, src reflect.Type) convertFunc {
	key := converterKey{dst: dst, src: src}

	// Fast path: check cache first
	if cached, ok := converterCache.Load(key); ok {
		return cached.(convertFunc)
	}

	// Slow path: build once; concurrent builders keep whichever landed first
	actual, _ := converterCache.LoadOrStore(key, buildConverter(dst, src))
	return actual.(convertFunc)
}

// buildConverter selects the conversion for a (target, source) pair.
func buildConverter(dst, src reflect.Type) convertFunc {
	// Pointer receivers such as *errors.errorString format themselves
	if dst.Kind() == reflect.String && src.Kind() == reflect.Ptr && hasTextForm(src) && !hasTextForm(src.Elem()) {
		return buildStringConverter(dst, src)
	}

	// Unwrap pointer sources and targets
	if src.Kind() == reflect.Ptr {
		return func(value any) (any, error) {
			return Coerce(reflect.ValueOf(value).Elem().Interface(), dst)
		}
	}
	if dst.Kind() == reflect.Ptr {
		return buildPointerConverter(dst)
	}

	switch {
	case dst == timeType:
		return buildTimeConverter(dst, src)
	case dst == durationType && src.Kind() == reflect.String:
		return buildDurationConverter(dst)
	case dst.Kind() == reflect.String:
		return buildStringConverter(dst, src)
	case dst.Kind() == reflect.Slice && dst.Elem().Kind() == reflect.Uint8 && src.Kind() == reflect.String:
		return func(value any) (any, error) {
			return reflect.ValueOf([]byte(reflect.ValueOf(value).String())).Convert(dst).Interface(), nil
		}
	case src.Kind() == reflect.String && reflect.PointerTo(dst).Implements(textUnmarshalerType):
		return buildTextUnmarshalConverter(dst)
	}

	switch {
	case isIntKind(dst.Kind()), isUintKind(dst.Kind()), isFloatKind(dst.Kind()):
		return buildNumberConverter(dst, src)
	case dst.Kind() == reflect.Bool:
		return buildBoolConverter(dst, src)
	default:
		// Unrecognized target: leave the failure to the accessor
		return func(value any) (any, error) {
			return value, nil
		}
	}
}

func buildPointerConverter(dst reflect.Type) convertFunc {
	elem := dst.Elem()
	return func(value any) (any, error) {
		out, err := Coerce(value, elem)
		if err != nil || out == nil {
			return nil, err
		}
		ov := reflect.ValueOf(out)
		if !ov.Type().AssignableTo(elem) {
			return value, nil
		}
		p := reflect.New(elem)
		p.Elem().Set(ov)
		return p.Interface(), nil
	}
}

// ===================
// NUMBER CONVERTERS
// ===================

func buildNumberConverter(dst, src reflect.Type) convertFunc {
	srcKind := src.Kind()

	switch {
	case isIntKind(srcKind), isUintKind(srcKind), isFloatKind(srcKind):
		return func(value any) (any, error) {
			return reflect.ValueOf(value).Convert(dst).Interface(), nil
		}
	case srcKind == reflect.Bool:
		return func(value any) (any, error) {
			n := 0
			if reflect.ValueOf(value).Bool() {
				n = 1
			}
			return reflect.ValueOf(n).Convert(dst).Interface(), nil
		}
	case srcKind == reflect.String:
		return func(value any) (any, error) {
			parsed, err := parseNumber(reflect.ValueOf(value).String(), dst)
			if err != nil {
				return nil, newCoercionError(value, dst, err)
			}
			return parsed.Convert(dst).Interface(), nil
		}
	default:
		return func(value any) (any, error) {
			return nil, newCoercionError(value, dst, nil)
		}
	}
}

func parseNumber(s string, dst reflect.Type) (reflect.Value, error) {
	bits := dst.Bits()
	switch {
	case isIntKind(dst.Kind()):
		n, err := strconv.ParseInt(s, 10, bits)
		return reflect.ValueOf(n), err
	case isUintKind(dst.Kind()):
		n, err := strconv.ParseUint(s, 10, bits)
		return reflect.ValueOf(n), err
	default:
		n, err := strconv.ParseFloat(s, bits)
		return reflect.ValueOf(n), err
	}
}

func buildDurationConverter(dst reflect.Type) convertFunc {
	return func(value any) (any, error) {
		s := reflect.ValueOf(value).String()
		if d, err := time.ParseDuration(s); err == nil {
			return reflect.ValueOf(d).Convert(dst).Interface(), nil
		}
		// Bare integers are nanoseconds
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, newCoercionError(value, dst, err)
		}
		return reflect.ValueOf(n).Convert(dst).Interface(), nil
	}
}

// ===================
// BOOL CONVERTERS
// ===================

func buildBoolConverter(dst, src reflect.Type) convertFunc {
	switch src.Kind() {
	case reflect.Bool:
		return func(value any) (any, error) {
			return reflect.ValueOf(value).Convert(dst).Interface(), nil
		}
	case reflect.String:
		return func(value any) (any, error) {
			var b bool
			switch s := reflect.ValueOf(value).String(); {
			case strings.EqualFold(s, "true"):
				b = true
			case strings.EqualFold(s, "false"):
				b = false
			default:
				return nil, newCoercionError(value, dst, fmt.Errorf("cannot parse '%s' as bool", s))
			}
			return reflect.ValueOf(b).Convert(dst).Interface(), nil
		}
	default:
		return func(value any) (any, error) {
			return nil, newCoercionError(value, dst, nil)
		}
	}
}

// ===================
// STRING CONVERTERS
// ===================

// buildStringConverter never fails: every value has a canonical text form.
func buildStringConverter(dst, src reflect.Type) convertFunc {
	format := stringFormatter(src)
	if dst.Kind() == reflect.String && dst != reflect.TypeOf("") {
		return func(value any) (any, error) {
			return reflect.ValueOf(format(value)).Convert(dst).Interface(), nil
		}
	}
	return func(value any) (any, error) {
		return format(value), nil
	}
}

func stringFormatter(src reflect.Type) func(any) string {
	switch {
	case src == timeType:
		return func(value any) string {
			return value.(time.Time).Format(time.RFC3339)
		}
	case src.Implements(errorType):
		return func(value any) string {
			return value.(error).Error()
		}
	case src.Implements(stringerType):
		return func(value any) string {
			return value.(fmt.Stringer).String()
		}
	case src.Implements(textMarshalerType):
		return func(value any) string {
			if b, err := value.(encoding.TextMarshaler).MarshalText(); err == nil {
				return string(b)
			}
			return fmt.Sprintf("%v", value)
		}
	}

	switch kind := src.Kind(); {
	case kind == reflect.String:
		return func(value any) string {
			return reflect.ValueOf(value).String()
		}
	case kind == reflect.Bool:
		return func(value any) string {
			return strconv.FormatBool(reflect.ValueOf(value).Bool())
		}
	case isIntKind(kind):
		return func(value any) string {
			return strconv.FormatInt(reflect.ValueOf(value).Int(), 10)
		}
	case isUintKind(kind):
		return func(value any) string {
			return strconv.FormatUint(reflect.ValueOf(value).Uint(), 10)
		}
	case isFloatKind(kind):
		bits := src.Bits()
		return func(value any) string {
			return strconv.FormatFloat(reflect.ValueOf(value).Float(), 'f', -1, bits)
		}
	case kind == reflect.Slice && src.Elem().Kind() == reflect.Uint8:
		return func(value any) string {
			return string(reflect.ValueOf(value).Bytes())
		}
	case kind == reflect.Slice, kind == reflect.Array, kind == reflect.Map, kind == reflect.Struct:
		// Composite values as JSON
		return func(value any) string {
			if b, err := json.Marshal(value); err == nil {
				return string(b)
			}
			return fmt.Sprintf("%v", value)
		}
	default:
		return func(value any) string {
			return fmt.Sprintf("%v", value)
		}
	}
}

// ===================
// TIME CONVERTERS
// ===================

func buildTimeConverter(dst, src reflect.Type) convertFunc {
	switch kind := src.Kind(); {
	case kind == reflect.String:
		return func(value any) (any, error) {
			s := reflect.ValueOf(value).String()
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t, nil
				}
			}
			return nil, newCoercionError(value, dst, fmt.Errorf("cannot parse time string: %s", s))
		}
	case isIntKind(kind):
		// Unix seconds
		return func(value any) (any, error) {
			return time.Unix(reflect.ValueOf(value).Int(), 0), nil
		}
	default:
		return func(value any) (any, error) {
			return nil, newCoercionError(value, dst, nil)
		}
	}
}

// ===================
// TEXT DECODING
// ===================

func buildTextUnmarshalConverter(dst reflect.Type) convertFunc {
	return func(value any) (any, error) {
		p := reflect.New(dst)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(reflect.ValueOf(value).String())); err != nil {
			return nil, newCoercionError(value, dst, err)
		}
		return p.Elem().Interface(), nil
	}
}

func hasTextForm(t reflect.Type) bool {
	return t.Implements(errorType) || t.Implements(stringerType) || t.Implements(textMarshalerType)
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
