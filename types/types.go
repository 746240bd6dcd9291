package types

import (
	"fmt"
	"math"
)

type (
	// Type enumerates the column types that may appear in a primary or
	// partition key. Cell values are native Go values: int8, int16, int32,
	// int64, string, []byte.
	Type int

	TypeInfo struct {
		typ  Type
		name string
		size int
	}
)

const (
	Int8 Type = iota
	Int16
	Int32
	Int64
	String
	Binary
)

var typeInfos = map[Type]*TypeInfo{
	Int8:   {Int8, "int8", 1},
	Int16:  {Int16, "int16", 2},
	Int32:  {Int32, "int32", 4},
	Int64:  {Int64, "int64", 8},
	String: {String, "string", -1},
	Binary: {Binary, "binary", -1},
}

func GetTypeInfo(t Type) *TypeInfo {
	ti, ok := typeInfos[t]
	if !ok {
		panic(fmt.Sprintf("unknown column type %d", t))
	}
	return ti
}

func (ti *TypeInfo) Type() Type {
	return ti.typ
}

func (ti *TypeInfo) Name() string {
	return ti.name
}

// Size returns the encoded width in bytes, or -1 for variable-width types.
func (ti *TypeInfo) Size() int {
	return ti.size
}

// MinValue returns the smallest cell value of this type.
func (ti *TypeInfo) MinValue() any {
	switch ti.typ {
	case Int8:
		return int8(math.MinInt8)
	case Int16:
		return int16(math.MinInt16)
	case Int32:
		return int32(math.MinInt32)
	case Int64:
		return int64(math.MinInt64)
	case String:
		return ""
	case Binary:
		return []byte(nil)
	default:
		panic(fmt.Sprintf("unknown column type %d", ti.typ))
	}
}

func (ti *TypeInfo) IsMinValue(v any) bool {
	switch ti.typ {
	case Int8:
		return ti.CellInt8(v) == math.MinInt8
	case Int16:
		return ti.CellInt16(v) == math.MinInt16
	case Int32:
		return ti.CellInt32(v) == math.MinInt32
	case Int64:
		return ti.CellInt64(v) == math.MinInt64
	case String:
		return len(ti.CellString(v)) == 0
	case Binary:
		return len(ti.CellBinary(v)) == 0
	default:
		panic(fmt.Sprintf("unknown column type %d", ti.typ))
	}
}

// IsMaxValue reports whether v admits no successor within the type. Always
// false for variable-width types, which can grow by a byte.
func (ti *TypeInfo) IsMaxValue(v any) bool {
	switch ti.typ {
	case Int8:
		return ti.CellInt8(v) == math.MaxInt8
	case Int16:
		return ti.CellInt16(v) == math.MaxInt16
	case Int32:
		return ti.CellInt32(v) == math.MaxInt32
	case Int64:
		return ti.CellInt64(v) == math.MaxInt64
	case String, Binary:
		return false
	default:
		panic(fmt.Sprintf("unknown column type %d", ti.typ))
	}
}

// Successor returns the smallest value ordered after v, reporting false when
// the type admits none (integer overflow).
func (ti *TypeInfo) Successor(v any) (any, bool) {
	switch ti.typ {
	case Int8:
		c := ti.CellInt8(v)
		if c == math.MaxInt8 {
			return nil, false
		}
		return c + 1, true
	case Int16:
		c := ti.CellInt16(v)
		if c == math.MaxInt16 {
			return nil, false
		}
		return c + 1, true
	case Int32:
		c := ti.CellInt32(v)
		if c == math.MaxInt32 {
			return nil, false
		}
		return c + 1, true
	case Int64:
		c := ti.CellInt64(v)
		if c == math.MaxInt64 {
			return nil, false
		}
		return c + 1, true
	case String:
		return ti.CellString(v) + "\x00", true
	case Binary:
		c := ti.CellBinary(v)
		out := make([]byte, len(c)+1)
		copy(out, c)
		return out, true
	default:
		panic(fmt.Sprintf("unknown column type %d", ti.typ))
	}
}

func (ti *TypeInfo) CellInt8(v any) int8 {
	c, ok := v.(int8)
	if !ok {
		panic(ti.badCell(v))
	}
	return c
}

func (ti *TypeInfo) CellInt16(v any) int16 {
	c, ok := v.(int16)
	if !ok {
		panic(ti.badCell(v))
	}
	return c
}

func (ti *TypeInfo) CellInt32(v any) int32 {
	c, ok := v.(int32)
	if !ok {
		panic(ti.badCell(v))
	}
	return c
}

func (ti *TypeInfo) CellInt64(v any) int64 {
	c, ok := v.(int64)
	if !ok {
		panic(ti.badCell(v))
	}
	return c
}

func (ti *TypeInfo) CellString(v any) string {
	c, ok := v.(string)
	if !ok {
		panic(ti.badCell(v))
	}
	return c
}

func (ti *TypeInfo) CellBinary(v any) []byte {
	if v == nil {
		return nil
	}
	c, ok := v.([]byte)
	if !ok {
		panic(ti.badCell(v))
	}
	return c
}

func (ti *TypeInfo) badCell(v any) string {
	return fmt.Sprintf("cell %v (%T) is not a %s", v, v, ti.name)
}
