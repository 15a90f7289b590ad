package pv

import (
	"errors"
	"testing"

	"github.com/epics-tools/cago/pkg/dbr"
)

func TestCoerceScalarCollapse(t *testing.T) {
	raw := dbr.Doubles([]float64{1.5})

	got, err := coerceValue(raw, dbr.Unresolved, dbr.TimeDouble, 1, 0, nil, false, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if got != 1.5 {
		t.Errorf("value = %v, want scalar 1.5", got)
	}

	// An explicit requested count keeps array form.
	got, err = coerceValue(raw, dbr.Unresolved, dbr.TimeDouble, 1, 1, nil, false, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if _, ok := got.([]float64); !ok {
		t.Errorf("value = %T, want []float64", got)
	}
}

func TestCoerceAsList(t *testing.T) {
	raw := dbr.Longs([]int32{1, 2, 3})
	got, err := coerceValue(raw, dbr.Unresolved, dbr.TimeLong, 3, 0, nil, false, true)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	list, ok := got.([]any)
	if !ok {
		t.Fatalf("value = %T, want []any", got)
	}
	if len(list) != 3 || list[0] != int32(1) {
		t.Errorf("list = %v", list)
	}
}

func TestCoerceStringAlwaysText(t *testing.T) {
	raw := dbr.Strings([]string{"abc"})
	display := dbr.ResolvedDisplay("abc")
	got, err := coerceValue(raw, display, dbr.TimeString, 1, 0, nil, false, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if got != "abc" {
		t.Errorf("value = %v, want abc", got)
	}
}

func TestCoerceCharAsString(t *testing.T) {
	raw := dbr.Chars([]byte{'h', 'i'})
	display := dbr.ResolvedDisplay("hi")

	got, err := coerceValue(raw, display, dbr.TimeChar, 2, 0, nil, true, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if got != "hi" {
		t.Errorf("as-string char = %v, want hi", got)
	}

	// Without as-string the bytes come back numeric.
	got, err = coerceValue(raw, display, dbr.TimeChar, 2, 0, nil, false, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if _, ok := got.([]byte); !ok {
		t.Errorf("numeric char = %T, want []byte", got)
	}
}

func TestCoerceEnumAsString(t *testing.T) {
	raw := dbr.Enums([]uint16{1})

	got, err := coerceValue(raw, dbr.Unresolved, dbr.TimeEnum, 1, 0, []string{"Off", "On"}, true, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if got != "On" {
		t.Errorf("value = %v, want On", got)
	}

	// Unknown name list is an error, not a guess.
	_, err = coerceValue(raw, dbr.Unresolved, dbr.TimeEnum, 1, 0, nil, true, false)
	if !errors.Is(err, ErrEnumStringsUnset) {
		t.Fatalf("err = %v, want ErrEnumStringsUnset", err)
	}

	// Out-of-range index maps to the empty string.
	got, err = coerceValue(dbr.Enums([]uint16{7}), dbr.Unresolved, dbr.TimeEnum, 1, 0, []string{"Off"}, true, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if got != "" {
		t.Errorf("value = %v, want empty string", got)
	}
}

func TestCoerceEnumWithoutAsString(t *testing.T) {
	raw := dbr.Enums([]uint16{1})
	got, err := coerceValue(raw, dbr.Unresolved, dbr.TimeEnum, 1, 0, nil, false, false)
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if got != uint16(1) {
		t.Errorf("value = %v (%T), want uint16(1)", got, got)
	}
}
