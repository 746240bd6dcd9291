package key_encoder

import (
	"encoding/binary"

	"github.com/danthegoodman1/floedb/types"
	"github.com/danthegoodman1/floedb/utils"
)

// The encoding is the storage layer's partition and primary key layout:
// comparing two encoded keys with bytes.Compare gives the logical key order.
//
// Fixed-width integers are big-endian with the sign bit flipped. Variable
// width columns (string, binary) are raw bytes when they are the final column
// of a composite; otherwise every 0x00 is escaped to 0x00 0x01 and the column
// is terminated with 0x00 0x00 so that a shorter value sorts before any of
// its extensions. Hash bucket indexes are plain big-endian uint32.

var (
	ErrKeyTooShort  = utils.PermError("encoded key too short")
	ErrBadSeparator = utils.PermError("invalid separator escape in encoded key")
)

// Encode appends the order-preserving encoding of v to buf and returns the
// extended buffer. isLast marks the final column of a composite key.
func Encode(ti *types.TypeInfo, v any, isLast bool, buf []byte) []byte {
	switch ti.Type() {
	case types.Int8:
		return append(buf, uint8(ti.CellInt8(v))^0x80)
	case types.Int16:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(ti.CellInt16(v))^0x8000)
		return append(buf, tmp[:]...)
	case types.Int32:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(ti.CellInt32(v))^0x80000000)
		return append(buf, tmp[:]...)
	case types.Int64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(ti.CellInt64(v))^0x8000000000000000)
		return append(buf, tmp[:]...)
	case types.String:
		return encodeBytes([]byte(ti.CellString(v)), isLast, buf)
	case types.Binary:
		return encodeBytes(ti.CellBinary(v), isLast, buf)
	default:
		panic("unreachable")
	}
}

func encodeBytes(b []byte, isLast bool, buf []byte) []byte {
	if isLast {
		return append(buf, b...)
	}
	for _, c := range b {
		if c == 0x00 {
			buf = append(buf, 0x00, 0x01)
		} else {
			buf = append(buf, c)
		}
	}
	return append(buf, 0x00, 0x00)
}

// EncodeHashBucket appends the 4-byte big-endian bucket index. Bucket indexes
// are unsigned, so no sign flip: bucket+1 is the exact lexicographic
// successor, which the pruner relies on for exclusive upper bounds.
func EncodeHashBucket(bucket uint32, buf []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], bucket)
	return append(buf, tmp[:]...)
}

// DecodeColumn decodes one column value from the front of buf, returning the
// value and the remaining bytes. Used only for debug rendering.
func DecodeColumn(ti *types.TypeInfo, buf []byte, isLast bool) (any, []byte, error) {
	switch ti.Type() {
	case types.Int8:
		if len(buf) < 1 {
			return nil, nil, ErrKeyTooShort
		}
		return int8(buf[0] ^ 0x80), buf[1:], nil
	case types.Int16:
		if len(buf) < 2 {
			return nil, nil, ErrKeyTooShort
		}
		return int16(binary.BigEndian.Uint16(buf) ^ 0x8000), buf[2:], nil
	case types.Int32:
		if len(buf) < 4 {
			return nil, nil, ErrKeyTooShort
		}
		return int32(binary.BigEndian.Uint32(buf) ^ 0x80000000), buf[4:], nil
	case types.Int64:
		if len(buf) < 8 {
			return nil, nil, ErrKeyTooShort
		}
		return int64(binary.BigEndian.Uint64(buf) ^ 0x8000000000000000), buf[8:], nil
	case types.String:
		b, rest, err := decodeBytes(buf, isLast)
		if err != nil {
			return nil, nil, err
		}
		return string(b), rest, nil
	case types.Binary:
		return decodeBytes(buf, isLast)
	default:
		panic("unreachable")
	}
}

func decodeBytes(buf []byte, isLast bool) ([]byte, []byte, error) {
	if isLast {
		out := make([]byte, len(buf))
		copy(out, buf)
		return out, nil, nil
	}
	var out []byte
	for i := 0; i < len(buf); {
		if buf[i] != 0x00 {
			out = append(out, buf[i])
			i++
			continue
		}
		if i+1 >= len(buf) {
			return nil, nil, ErrKeyTooShort
		}
		switch buf[i+1] {
		case 0x00:
			return out, buf[i+2:], nil
		case 0x01:
			out = append(out, 0x00)
			i += 2
		default:
			return nil, nil, ErrBadSeparator
		}
	}
	return nil, nil, ErrKeyTooShort
}

// DecodeHashBucket decodes a 4-byte bucket index from the front of buf.
func DecodeHashBucket(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, ErrKeyTooShort
	}
	return binary.BigEndian.Uint32(buf), buf[4:], nil
}
