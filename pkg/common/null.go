package common

import "math"

// Reserved in-band null patterns. Fixed-width slots encode NULL as the
// minimum representable value of the slot's canonical width; floats use
// the minimum positive normalized bit pattern.
const (
	NullTinyint  = int64(math.MinInt8)
	NullSmallint = int64(math.MinInt16)
	NullInt      = int64(math.MinInt32)
	NullBigint   = int64(math.MinInt64)
	NullBoolean  = int64(math.MinInt8)
)

var (
	NullFloat  = math.Float32frombits(0x00800000)
	NullDouble = math.Float64frombits(0x0010000000000000)
)

// Empty-entry key sentinels, one per key slot width.
const (
	EmptyKey64 = int64(math.MaxInt64)
	EmptyKey32 = int64(math.MaxInt32)
	EmptyKey16 = int64(math.MaxInt16)
	EmptyKey8  = int64(math.MaxInt8)
)

// InlineIntNullValue returns the null pattern for a fixed-width type,
// selected by the type's canonical byte width.
func InlineIntNullValue(lt LType) int64 {
	if lt.IsExtDictionary() {
		return NullInt
	}
	switch lt.CanonicalSize() {
	case 1:
		return NullTinyint
	case 2:
		return NullSmallint
	case 4:
		return NullInt
	case 8:
		return NullBigint
	default:
		panic("usp")
	}
}

// InlineNullForWidth returns the null pattern a slot of the given byte
// width carries, regardless of the logical type stored in it.
func InlineNullForWidth(width int) int64 {
	switch width {
	case 1:
		return NullTinyint
	case 2:
		return NullSmallint
	case 4:
		return NullInt
	case 8:
		return NullBigint
	default:
		panic("usp")
	}
}

// EmptyKeyForWidth returns the empty-entry sentinel for a key slot of
// the given byte width.
func EmptyKeyForWidth(width int) int64 {
	switch width {
	case 1:
		return EmptyKey8
	case 2:
		return EmptyKey16
	case 4:
		return EmptyKey32
	case 8:
		return EmptyKey64
	default:
		panic("usp")
	}
}
