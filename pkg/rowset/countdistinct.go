package rowset

import (
	"encoding/binary"

	hll "github.com/axiomhq/hyperloglog"
	"github.com/willf/bitset"

	"github.com/voradb/vora/pkg/util"
)

type CountDistinctImpl int

const (
	CountDistinctInvalid CountDistinctImpl = iota
	CountDistinctBitmap
	CountDistinctHashSet
	CountDistinctHLL
)

var cdImplToStr = map[CountDistinctImpl]string{
	CountDistinctInvalid: "Invalid",
	CountDistinctBitmap:  "Bitmap",
	CountDistinctHashSet: "HashSet",
	CountDistinctHLL:     "HLL",
}

func (impl CountDistinctImpl) String() string {
	return cdImplToStr[impl]
}

// CountDistinctDescriptor is chosen by the producer at compile time.
// The decode side must honor it exactly; it cannot be inferred from
// the slot contents.
type CountDistinctDescriptor struct {
	Impl CountDistinctImpl

	//Bitmap: value v sets bit v-MinVal; BitmapSizeBits is the dense range
	MinVal         int64
	BitmapSizeBits int64
}

type countDistinctAcc interface {
	insert(val int64)
	size() int64
}

type bitmapDistinct struct {
	_bits   *bitset.BitSet
	_minVal int64
}

func newBitmapDistinct(desc CountDistinctDescriptor) *bitmapDistinct {
	util.AssertFunc(desc.BitmapSizeBits > 0)
	return &bitmapDistinct{
		_bits:   bitset.New(uint(desc.BitmapSizeBits)),
		_minVal: desc.MinVal,
	}
}

func (acc *bitmapDistinct) insert(val int64) {
	acc._bits.Set(uint(val - acc._minVal))
}

func (acc *bitmapDistinct) size() int64 {
	return int64(acc._bits.Count())
}

type hashSetDistinct struct {
	_set map[int64]struct{}
}

func newHashSetDistinct() *hashSetDistinct {
	return &hashSetDistinct{_set: make(map[int64]struct{})}
}

func (acc *hashSetDistinct) insert(val int64) {
	acc._set[val] = struct{}{}
}

func (acc *hashSetDistinct) size() int64 {
	return int64(len(acc._set))
}

type hllDistinct struct {
	_log *hll.Sketch
}

func newHLLDistinct() *hllDistinct {
	return &hllDistinct{_log: hll.New14()}
}

func (acc *hllDistinct) insert(val int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(val))
	acc._log.Insert(buf[:])
}

func (acc *hllDistinct) size() int64 {
	return int64(acc._log.Estimate())
}

func newCountDistinctAcc(desc CountDistinctDescriptor) countDistinctAcc {
	switch desc.Impl {
	case CountDistinctBitmap:
		return newBitmapDistinct(desc)
	case CountDistinctHashSet:
		return newHashSetDistinct()
	case CountDistinctHLL:
		return newHLLDistinct()
	default:
		panic("usp count distinct impl")
	}
}

// CountDistinctSetSize resolves the slot handle against the owner and
// returns the accumulator's cardinality. A zero handle means the
// accumulator was never created, i.e. cardinality zero. Reading is
// idempotent.
func CountDistinctSetSize(owner *RowSetMemoryOwner, handle int64, desc CountDistinctDescriptor) int64 {
	util.AssertFunc(desc.Impl != CountDistinctInvalid)
	if handle == 0 {
		return 0
	}
	acc := owner.CountDistinctAt(handle)
	return acc.size()
}
