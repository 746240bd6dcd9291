package types

import (
	"bytes"
	"math"
	"testing"
)

func TestSuccessorInt32(t *testing.T) {
	ti := GetTypeInfo(Int32)

	v, ok := ti.Successor(int32(41))
	if !ok {
		t.Fatal("expected a successor")
	}
	if v.(int32) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}

	_, ok = ti.Successor(int32(math.MaxInt32))
	if ok {
		t.Fatal("expected overflow at max int32")
	}
}

func TestSuccessorString(t *testing.T) {
	ti := GetTypeInfo(String)

	v, ok := ti.Successor("")
	if !ok {
		t.Fatal("expected a successor")
	}
	if v.(string) != "\x00" {
		t.Fatalf("expected zero byte, got %q", v)
	}

	v, ok = ti.Successor("abc")
	if !ok {
		t.Fatal("expected a successor")
	}
	if v.(string) != "abc\x00" {
		t.Fatalf("expected abc plus zero byte, got %q", v)
	}
}

func TestSuccessorBinary(t *testing.T) {
	ti := GetTypeInfo(Binary)
	v, ok := ti.Successor([]byte{0xff})
	if !ok {
		t.Fatal("expected a successor")
	}
	if !bytes.Equal(v.([]byte), []byte{0xff, 0x00}) {
		t.Fatalf("expected 0xff00, got %x", v)
	}
}

func TestMinValues(t *testing.T) {
	if !GetTypeInfo(Int32).IsMinValue(int32(math.MinInt32)) {
		t.Fatal("min int32 should be min value")
	}
	if GetTypeInfo(Int32).IsMinValue(int32(0)) {
		t.Fatal("0 is not the int32 min value")
	}
	if !GetTypeInfo(String).IsMinValue("") {
		t.Fatal("empty string should be min value")
	}
	if GetTypeInfo(String).IsMinValue("a") {
		t.Fatal("non-empty string is not the min value")
	}
	if !GetTypeInfo(Int64).IsMinValue(GetTypeInfo(Int64).MinValue()) {
		t.Fatal("MinValue should satisfy IsMinValue")
	}
}

func TestMaxValues(t *testing.T) {
	if !GetTypeInfo(Int8).IsMaxValue(int8(math.MaxInt8)) {
		t.Fatal("max int8 should be max value")
	}
	if GetTypeInfo(String).IsMaxValue("zzz") {
		t.Fatal("strings have no max value")
	}
}

func TestCellTypeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on mismatched cell type")
		}
	}()
	GetTypeInfo(Int32).IsMinValue(int64(0))
}
