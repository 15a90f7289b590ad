package dbr

import (
	"testing"
	"time"
)

func TestArrayScalar(t *testing.T) {
	a := Doubles([]float64{3.14})
	if got := a.Scalar(); got != 3.14 {
		t.Errorf("Scalar() = %v, want 3.14", got)
	}
	if got := Doubles(nil).Scalar(); got != nil {
		t.Errorf("empty Scalar() = %v, want nil", got)
	}
}

func TestArrayToList(t *testing.T) {
	a := Shorts([]int16{1, 2, 3})
	list := a.ToList()
	if len(list) != 3 {
		t.Fatalf("ToList() length = %d, want 3", len(list))
	}
	if list[1] != int16(2) {
		t.Errorf("ToList()[1] = %v, want int16(2)", list[1])
	}
}

func TestDecodeBytesRoundTrip(t *testing.T) {
	arrays := []Array{
		Doubles([]float64{1.5, -2.25}),
		Floats([]float32{0.5}),
		Longs([]int32{-7, 123456}),
		Shorts([]int16{-1, 2}),
		Enums([]uint16{0, 3}),
		Chars([]byte("hello")),
		Strings([]string{"one", "two"}),
	}
	for _, a := range arrays {
		wire := a.EncodeBytes()
		back, err := DecodeBytes(a.ElemType(), a.Len(), wire)
		if err != nil {
			t.Fatalf("DecodeBytes(%s): %v", a.ElemType(), err)
		}
		if back.Len() != a.Len() {
			t.Errorf("%s round trip length = %d, want %d", a.ElemType(), back.Len(), a.Len())
		}
		for i := 0; i < a.Len(); i++ {
			if back.At(i) != a.At(i) {
				t.Errorf("%s round trip [%d] = %v, want %v", a.ElemType(), i, back.At(i), a.At(i))
			}
		}
	}
}

func TestDecodeBytesShortPayload(t *testing.T) {
	if _, err := DecodeBytes(Double, 2, make([]byte, 8)); err == nil {
		t.Error("DecodeBytes with short payload should fail")
	}
}

func TestDecodeBytesPromotedElem(t *testing.T) {
	// Promoted type codes decode as their native element type.
	wire := Shorts([]int16{42}).EncodeBytes()
	a, err := DecodeBytes(TimeInt, 1, wire)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if a.ElemType() != Int {
		t.Errorf("ElemType() = %s, want INT", a.ElemType())
	}
}

func TestArrayFrom(t *testing.T) {
	a, err := ArrayFrom(42)
	if err != nil {
		t.Fatalf("ArrayFrom(42): %v", err)
	}
	if a.ElemType() != Long || a.Len() != 1 || a.At(0) != int32(42) {
		t.Errorf("ArrayFrom(42) = %s len %d", a.ElemType(), a.Len())
	}

	a, err = ArrayFrom([]float64{1, 2})
	if err != nil {
		t.Fatalf("ArrayFrom([]float64): %v", err)
	}
	if a.ElemType() != Double || a.Len() != 2 {
		t.Errorf("ArrayFrom([]float64) = %s len %d", a.ElemType(), a.Len())
	}

	a, err = ArrayFrom("ready")
	if err != nil {
		t.Fatalf("ArrayFrom(string): %v", err)
	}
	if a.ElemType() != String || a.At(0) != "ready" {
		t.Errorf("ArrayFrom(string) = %s %v", a.ElemType(), a.At(0))
	}

	if _, err := ArrayFrom(struct{}{}); err == nil {
		t.Error("ArrayFrom(struct{}{}) should fail")
	}
}

func TestConvertTo(t *testing.T) {
	a, err := Strings([]string{"2.5"}).ConvertTo(Double)
	if err != nil {
		t.Fatalf("ConvertTo(Double): %v", err)
	}
	if a.At(0) != 2.5 {
		t.Errorf("string->double = %v, want 2.5", a.At(0))
	}

	a, err = Doubles([]float64{3.9}).ConvertTo(Long)
	if err != nil {
		t.Fatalf("ConvertTo(Long): %v", err)
	}
	if a.At(0) != int32(3) {
		t.Errorf("double->long = %v, want 3", a.At(0))
	}

	if _, err := Strings([]string{"not a number"}).ConvertTo(Double); err == nil {
		t.Error("ConvertTo with unparseable string should fail")
	}
}

func TestDisplayTriState(t *testing.T) {
	var unresolved Display
	if unresolved.Resolved() {
		t.Error("zero Display should be unresolved")
	}
	if unresolved.Value() != nil {
		t.Errorf("unresolved Value() = %v, want nil", unresolved.Value())
	}

	empty := ResolvedDisplay("")
	if !empty.Resolved() {
		t.Error("ResolvedDisplay(\"\") should be resolved")
	}
	if empty.Value() != "" {
		t.Errorf("empty resolved Value() = %v, want \"\"", empty.Value())
	}

	multi := ResolvedDisplay("a", "b")
	v, ok := multi.Value().([]string)
	if !ok || len(v) != 2 {
		t.Errorf("multi Value() = %v, want []string of 2", multi.Value())
	}
}

func TestEpochConversion(t *testing.T) {
	// Protocol epoch is 1990-01-01T00:00:00Z.
	got := EpochToTime(0, 0)
	want := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EpochToTime(0, 0) = %v, want %v", got, want)
	}

	got = EpochToTime(86400, 500)
	want = time.Date(1990, 1, 2, 0, 0, 0, 500, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EpochToTime(86400, 500) = %v, want %v", got, want)
	}

	secs, nanos := TimeToEpoch(want)
	if secs != 86400 || nanos != 500 {
		t.Errorf("TimeToEpoch = (%d, %d), want (86400, 500)", secs, nanos)
	}

	if PosixSeconds(0) != 631152000 {
		t.Errorf("PosixSeconds(0) = %d, want 631152000", PosixSeconds(0))
	}
}

func TestDecodeText(t *testing.T) {
	// 8-bit charset: every byte round-trips.
	b := []byte{0x48, 0x69, 0xb5}
	s := DecodeText(b)
	back := EncodeText(s)
	if string(back) != string(b) {
		t.Errorf("text round trip = %x, want %x", back, b)
	}
}
