package dbr

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Wire size limits.
const (
	// MaxStringSize is the fixed on-wire size of one string element.
	MaxStringSize = 40
	// MaxUnitsSize is the fixed on-wire size of the units field.
	MaxUnitsSize = 8
	// MaxEnumStates is the maximum number of enum states.
	MaxEnumStates = 16
	// MaxEnumStringSize is the fixed on-wire size of one enum name.
	MaxEnumStringSize = 26
)

// Array is a decoded value array holding exactly one element kind.
// Typed Go slices are native byte order by construction, so any wire
// byte swapping happens in DecodeBytes and nowhere later.
//
// The zero Array is an empty char array; use the per-kind constructors.
type Array struct {
	elem  FieldType
	chars []byte
	strs  []string
	enums []uint16
	i16   []int16
	i32   []int32
	f32   []float32
	f64   []float64
}

// Chars returns a char (byte) array.
func Chars(v []byte) Array { return Array{elem: Char, chars: v} }

// Strings returns a string array.
func Strings(v []string) Array { return Array{elem: String, strs: v} }

// Enums returns an enum-index array.
func Enums(v []uint16) Array { return Array{elem: Enum, enums: v} }

// Shorts returns a 16-bit integer array.
func Shorts(v []int16) Array { return Array{elem: Int, i16: v} }

// Longs returns a 32-bit integer array.
func Longs(v []int32) Array { return Array{elem: Long, i32: v} }

// Floats returns a 32-bit float array.
func Floats(v []float32) Array { return Array{elem: Float, f32: v} }

// Doubles returns a 64-bit float array.
func Doubles(v []float64) Array { return Array{elem: Double, f64: v} }

// ElemType returns the native element type.
func (a Array) ElemType() FieldType { return a.elem }

// Class returns the element classification.
func (a Array) Class() Class { return a.elem.Class() }

// Len returns the element count.
func (a Array) Len() int {
	switch a.elem {
	case String:
		return len(a.strs)
	case Enum:
		return len(a.enums)
	case Int:
		return len(a.i16)
	case Long:
		return len(a.i32)
	case Float:
		return len(a.f32)
	case Double:
		return len(a.f64)
	default:
		return len(a.chars)
	}
}

// Value returns the backing typed slice ([]byte, []string, []uint16,
// []int16, []int32, []float32 or []float64).
func (a Array) Value() any {
	switch a.elem {
	case String:
		return a.strs
	case Enum:
		return a.enums
	case Int:
		return a.i16
	case Long:
		return a.i32
	case Float:
		return a.f32
	case Double:
		return a.f64
	default:
		return a.chars
	}
}

// At returns element i as a native Go value.
func (a Array) At(i int) any {
	switch a.elem {
	case String:
		return a.strs[i]
	case Enum:
		return a.enums[i]
	case Int:
		return a.i16[i]
	case Long:
		return a.i32[i]
	case Float:
		return a.f32[i]
	case Double:
		return a.f64[i]
	default:
		return a.chars[i]
	}
}

// Scalar returns the first element as a native Go value, or nil if the
// array is empty.
func (a Array) Scalar() any {
	if a.Len() == 0 {
		return nil
	}
	return a.At(0)
}

// ToList returns the elements as a generic []any.
func (a Array) ToList() []any {
	out := make([]any, a.Len())
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

// Bytes returns the char payload. Nil for other element kinds.
func (a Array) Bytes() []byte { return a.chars }

// StringSlice returns the string payload. Nil for other element kinds.
func (a Array) StringSlice() []string { return a.strs }

// EnumSlice returns the enum-index payload. Nil for other element kinds.
func (a Array) EnumSlice() []uint16 { return a.enums }

// FloatAt returns element i as a float64 for display and conversion.
// Returns false for string elements that do not parse as numbers.
func (a Array) FloatAt(i int) (float64, bool) {
	switch a.elem {
	case String:
		f, err := strconv.ParseFloat(a.strs[i], 64)
		return f, err == nil
	case Enum:
		return float64(a.enums[i]), true
	case Int:
		return float64(a.i16[i]), true
	case Long:
		return float64(a.i32[i]), true
	case Float:
		return float64(a.f32[i]), true
	case Double:
		return a.f64[i], true
	default:
		return float64(a.chars[i]), true
	}
}

// Slice returns a copy of the first n elements, or the whole array if
// n is larger than the length.
func (a Array) Slice(n int) Array {
	if n >= a.Len() {
		n = a.Len()
	}
	out := Array{elem: a.elem}
	switch a.elem {
	case String:
		out.strs = append([]string(nil), a.strs[:n]...)
	case Enum:
		out.enums = append([]uint16(nil), a.enums[:n]...)
	case Int:
		out.i16 = append([]int16(nil), a.i16[:n]...)
	case Long:
		out.i32 = append([]int32(nil), a.i32[:n]...)
	case Float:
		out.f32 = append([]float32(nil), a.f32[:n]...)
	case Double:
		out.f64 = append([]float64(nil), a.f64[:n]...)
	default:
		out.chars = append([]byte(nil), a.chars[:n]...)
	}
	return out
}

// elemSize returns the on-wire element size for a native type.
func elemSize(elem FieldType) int {
	switch elem {
	case String:
		return MaxStringSize
	case Char:
		return 1
	case Int, Enum:
		return 2
	case Long, Float:
		return 4
	default:
		return 8
	}
}

// DecodeBytes decodes a big-endian wire payload of count elements into
// a native-order Array. This is the single byte-order normalization
// point: everything downstream sees native Go values.
func DecodeBytes(elem FieldType, count int, data []byte) (Array, error) {
	elem = elem.Native()
	size := elemSize(elem)
	if len(data) < count*size {
		return Array{}, fmt.Errorf("dbr: %s payload too short: %d bytes for %d elements", elem, len(data), count)
	}

	switch elem {
	case Char:
		return Chars(append([]byte(nil), data[:count]...)), nil
	case String:
		strs := make([]string, count)
		for i := 0; i < count; i++ {
			cell := data[i*size : (i+1)*size]
			if nul := indexByte(cell, 0); nul >= 0 {
				cell = cell[:nul]
			}
			strs[i] = DecodeText(cell)
		}
		return Strings(strs), nil
	case Enum:
		out := make([]uint16, count)
		for i := range out {
			out[i] = binary.BigEndian.Uint16(data[i*2:])
		}
		return Enums(out), nil
	case Int:
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(binary.BigEndian.Uint16(data[i*2:]))
		}
		return Shorts(out), nil
	case Long:
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(binary.BigEndian.Uint32(data[i*4:]))
		}
		return Longs(out), nil
	case Float:
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
		}
		return Floats(out), nil
	default:
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
		}
		return Doubles(out), nil
	}
}

// EncodeBytes encodes the array to a big-endian wire payload.
func (a Array) EncodeBytes() []byte {
	size := elemSize(a.elem)
	out := make([]byte, a.Len()*size)
	switch a.elem {
	case Char:
		copy(out, a.chars)
	case String:
		for i, s := range a.strs {
			cell := out[i*size : (i+1)*size]
			copy(cell, EncodeText(s))
		}
	case Enum:
		for i, v := range a.enums {
			binary.BigEndian.PutUint16(out[i*2:], v)
		}
	case Int:
		for i, v := range a.i16 {
			binary.BigEndian.PutUint16(out[i*2:], uint16(v))
		}
	case Long:
		for i, v := range a.i32 {
			binary.BigEndian.PutUint32(out[i*4:], uint32(v))
		}
	case Float:
		for i, v := range a.f32 {
			binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
	default:
		for i, v := range a.f64 {
			binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
	}
	return out
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// ArrayFrom builds an Array from caller-supplied Go values: a scalar, a
// typed slice, a string, a []string, or a []any of numbers.
func ArrayFrom(v any) (Array, error) {
	switch t := v.(type) {
	case Array:
		return t, nil
	case []byte:
		return Chars(t), nil
	case string:
		return Strings([]string{t}), nil
	case []string:
		return Strings(t), nil
	case []uint16:
		return Enums(t), nil
	case []int16:
		return Shorts(t), nil
	case []int32:
		return Longs(t), nil
	case []float32:
		return Floats(t), nil
	case []float64:
		return Doubles(t), nil
	case []int:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return Longs(out), nil
	case []int64:
		out := make([]int32, len(t))
		for i, x := range t {
			out[i] = int32(x)
		}
		return Longs(out), nil
	case []any:
		out := make([]float64, len(t))
		for i, x := range t {
			f, ok := toFloat(x)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert element %d (%T) to a value array", i, x)
			}
			out[i] = f
		}
		return Doubles(out), nil
	case byte:
		return Chars([]byte{t}), nil
	case int16:
		return Shorts([]int16{t}), nil
	case uint16:
		return Enums([]uint16{t}), nil
	case int32:
		return Longs([]int32{t}), nil
	case int:
		return Longs([]int32{int32(t)}), nil
	case int64:
		return Longs([]int32{int32(t)}), nil
	case float32:
		return Floats([]float32{t}), nil
	case float64:
		return Doubles([]float64{t}), nil
	case bool:
		if t {
			return Enums([]uint16{1}), nil
		}
		return Enums([]uint16{0}), nil
	default:
		return Array{}, fmt.Errorf("dbr: cannot convert %T to a value array", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case byte:
		return float64(t), true
	case int16:
		return float64(t), true
	case uint16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// ConvertTo converts the array to the given native element type.
// Numeric kinds convert by value, strings parse to numbers, and
// numbers format to strings. Used by providers to coerce incoming
// writes to the channel's native type.
func (a Array) ConvertTo(elem FieldType) (Array, error) {
	elem = elem.Native()
	if a.elem == elem {
		return a, nil
	}

	n := a.Len()
	switch elem {
	case String:
		out := make([]string, n)
		for i := range out {
			switch a.elem {
			case Char:
				out[i] = strconv.Itoa(int(a.chars[i]))
			default:
				f, _ := a.FloatAt(i)
				out[i] = strconv.FormatFloat(f, 'g', -1, 64)
			}
		}
		return Strings(out), nil
	case Char:
		out := make([]byte, n)
		for i := range out {
			f, ok := a.FloatAt(i)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert %q to %s", a.strs[i], elem)
			}
			out[i] = byte(int64(f))
		}
		return Chars(out), nil
	case Enum:
		out := make([]uint16, n)
		for i := range out {
			f, ok := a.FloatAt(i)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert %q to %s", a.strs[i], elem)
			}
			out[i] = uint16(int64(f))
		}
		return Enums(out), nil
	case Int:
		out := make([]int16, n)
		for i := range out {
			f, ok := a.FloatAt(i)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert %q to %s", a.strs[i], elem)
			}
			out[i] = int16(int64(f))
		}
		return Shorts(out), nil
	case Long:
		out := make([]int32, n)
		for i := range out {
			f, ok := a.FloatAt(i)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert %q to %s", a.strs[i], elem)
			}
			out[i] = int32(int64(f))
		}
		return Longs(out), nil
	case Float:
		out := make([]float32, n)
		for i := range out {
			f, ok := a.FloatAt(i)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert %q to %s", a.strs[i], elem)
			}
			out[i] = float32(f)
		}
		return Floats(out), nil
	default:
		out := make([]float64, n)
		for i := range out {
			f, ok := a.FloatAt(i)
			if !ok {
				return Array{}, fmt.Errorf("dbr: cannot convert %q to %s", a.strs[i], elem)
			}
			out[i] = f
		}
		return Doubles(out), nil
	}
}
