package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float64

func (c celsius) String() string { return "warm" }

func TestCoerce(t *testing.T) {
	id := uuid.MustParse("0b8f3a3e-8c1d-4a6e-9b7a-2d4f6e8a0c1e")
	seven := 7

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		want   any
	}{
		// Identity and nil
		{"Nil", nil, reflect.TypeOf(0), nil},
		{"NilPointer", (*int)(nil), reflect.TypeOf(0), nil},
		{"Assignable", 5, reflect.TypeOf(0), 5},
		{"NilTarget", "x", nil, "x"},
		{"InterfaceTarget", 5, reflect.TypeOf((*any)(nil)).Elem(), 5},

		// Numbers
		{"StringToInt", "42", reflect.TypeOf(0), 42},
		{"StringToInt64", "-9000000000", reflect.TypeOf(int64(0)), int64(-9000000000)},
		{"StringToUint8", "255", reflect.TypeOf(uint8(0)), uint8(255)},
		{"StringToFloat", "2.5", reflect.TypeOf(0.0), 2.5},
		{"StringToFloat32", "0.25", reflect.TypeOf(float32(0)), float32(0.25)},
		{"Int64ToInt8Truncates", int64(300), reflect.TypeOf(int8(0)), int8(44)},
		{"FloatToIntTruncates", 3.99, reflect.TypeOf(0), 3},
		{"IntToFloat", 3, reflect.TypeOf(0.0), 3.0},
		{"BoolToInt", true, reflect.TypeOf(0), 1},
		{"FalseToUint", false, reflect.TypeOf(uint(0)), uint(0)},
		{"StringToNamedInt", "5", reflect.TypeOf(Level(0)), Level(5)},
		{"IntToNamedInt", 5, reflect.TypeOf(Level(0)), Level(5)},

		// Bools
		{"TrueUpper", "TRUE", reflect.TypeOf(false), true},
		{"FalseMixed", "False", reflect.TypeOf(false), false},

		// Strings
		{"IntToString", 42, reflect.TypeOf(""), "42"},
		{"UintToString", uint16(7), reflect.TypeOf(""), "7"},
		{"FloatToString", 2.5, reflect.TypeOf(""), "2.5"},
		{"Float32ToString", float32(0.1), reflect.TypeOf(""), "0.1"},
		{"BoolToString", true, reflect.TypeOf(""), "true"},
		{"BytesToString", []byte("raw"), reflect.TypeOf(""), "raw"},
		{"SliceToString", []int{1, 2}, reflect.TypeOf(""), "[1,2]"},
		{"MapToString", map[string]int{"a": 1}, reflect.TypeOf(""), `{"a":1}`},
		{"StringerToString", celsius(21), reflect.TypeOf(""), "warm"},
		{"ErrorToString", errors.New("bad"), reflect.TypeOf(""), "bad"},
		{"TextMarshalerToString", id, reflect.TypeOf(""), id.String()},
		{"TimeToString", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), reflect.TypeOf(""), "2024-01-02T03:04:05Z"},
		{"IntToNamedString", 12, reflect.TypeOf(Label("")), Label("12")},

		// Text decoding
		{"StringToBytes", "hello", reflect.TypeOf([]byte(nil)), []byte("hello")},
		{"StringToDuration", "90s", reflect.TypeOf(time.Duration(0)), 90 * time.Second},
		{"StringNanosToDuration", "1500", reflect.TypeOf(time.Duration(0)), time.Duration(1500)},
		{"IntToDuration", 2000, reflect.TypeOf(time.Duration(0)), time.Duration(2000)},
		{"StringToTime", "2024-01-02", reflect.TypeOf(time.Time{}), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"UnixToTime", int64(0), reflect.TypeOf(time.Time{}), time.Unix(0, 0)},
		{"StringToUUID", id.String(), reflect.TypeOf(uuid.UUID{}), id},

		// Pointers
		{"PointerSource", &seven, reflect.TypeOf(""), "7"},
		{"PointerStringer", &Account{Owner: "acme"}, reflect.TypeOf(""), "acme"},
		{"PointerTarget", "7", reflect.TypeOf(&seven), &seven},

		// Unrecognized targets pass through
		{"StringToSlice", "a,b", reflect.TypeOf([]string(nil)), "a,b"},
		{"IntToStruct", 1, reflect.TypeOf(Person{}), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceErrors(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		target reflect.Type
	}{
		{"NotANumber", "notanumber", reflect.TypeOf(0)},
		{"Int16Overflow", "70000", reflect.TypeOf(int16(0))},
		{"NegativeUint", "-1", reflect.TypeOf(uint(0))},
		{"BadFloat", "1.2.3", reflect.TypeOf(0.0)},
		{"StructToInt", Person{}, reflect.TypeOf(0)},
		{"YesToBool", "yes", reflect.TypeOf(false)},
		{"IntToBool", 1, reflect.TypeOf(false)},
		{"BadDuration", "soon", reflect.TypeOf(time.Duration(0))},
		{"BadTime", "yesterday", reflect.TypeOf(time.Time{})},
		{"FloatToTime", 1.5, reflect.TypeOf(time.Time{})},
		{"BadUUID", "not-a-uuid", reflect.TypeOf(uuid.UUID{})},
		{"PointerTargetBadValue", "x", reflect.TypeOf((*int)(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.target)
			assert.Nil(t, got)
			require.ErrorIs(t, err, ErrCoercion)

			var ce *CoercionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.value, ce.Value)
		})
	}
}

func TestCoerceTo(t *testing.T) {
	n, err := CoerceTo[int]("30")
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	s, err := CoerceTo[string](3.5)
	require.NoError(t, err)
	assert.Equal(t, "3.5", s)

	zero, err := CoerceTo[int](nil)
	require.NoError(t, err)
	assert.Equal(t, 0, zero)

	_, err = CoerceTo[int]("x")
	assert.ErrorIs(t, err, ErrCoercion)

	// A passthrough that does not produce T is still an error
	_, err = CoerceTo[[]string]("a,b")
	assert.ErrorIs(t, err, ErrCoercion)
}

func TestConverterCaching(t *testing.T) {
	dst, src := reflect.TypeOf(0), reflect.TypeOf("")

	first := getConverter(dst, src)
	_, ok := converterCache.Load(converterKey{dst: dst, src: src})
	require.True(t, ok)

	second := getConverter(dst, src)
	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer())
}

func BenchmarkCoerceStringToInt(b *testing.B) {
	target := reflect.TypeOf(0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Coerce("12345", target); err != nil {
			b.Fatal(err)
		}
	}
}
