package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voradb/vora/pkg/common"
)

func buildDistinctResultSet(desc CountDistinctDescriptor) (*ResultSet, *ResultStorage) {
	target := AggTarget(AggCount, common.BigintType(), common.BigintType())
	target.IsDistinct = true
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_NonGroupedAggregate,
		EntryCount:    1,
		PaddedWidths:  []int{8},
		LogicalWidths: []int{8},
		CountDistinct: map[int]CountDistinctDescriptor{0: desc},
	})
	rs := NewResultSet([]TargetInfo{target}, layout, NewRowSetMemoryOwner())
	return rs, rs.AllocateStorage()
}

func TestBitmapCountDistinct(t *testing.T) {
	desc := CountDistinctDescriptor{
		Impl:           CountDistinctBitmap,
		MinVal:         100,
		BitmapSizeBits: 64,
	}
	rs, storage := buildDistinctResultSet(desc)
	handle := rs.Owner().NewCountDistinctBuffer(desc)
	for _, v := range []int64{100, 105, 105, 110, 100} {
		rs.Owner().InsertCountDistinct(handle, v)
	}
	storage.SetSlotInt(0, 0, handle, 8)

	row := rs.GetRowAt(0, false, false)
	require.Len(t, row, 1)
	assert.Equal(t, int64(3), row[0].I64)

	//reading is idempotent
	again := rs.GetRowAt(0, false, false)
	assert.Equal(t, int64(3), again[0].I64)
}

func TestHashSetCountDistinct(t *testing.T) {
	desc := CountDistinctDescriptor{Impl: CountDistinctHashSet}
	rs, storage := buildDistinctResultSet(desc)
	handle := rs.Owner().NewCountDistinctBuffer(desc)
	for _, v := range []int64{-1 << 40, 0, 1 << 40, 0} {
		rs.Owner().InsertCountDistinct(handle, v)
	}
	storage.SetSlotInt(0, 0, handle, 8)
	assert.Equal(t, int64(3), rs.GetRowAt(0, false, false)[0].I64)
}

func TestHLLCountDistinct(t *testing.T) {
	desc := CountDistinctDescriptor{Impl: CountDistinctHLL}
	rs, storage := buildDistinctResultSet(desc)
	handle := rs.Owner().NewCountDistinctBuffer(desc)
	for v := int64(0); v < 10000; v++ {
		rs.Owner().InsertCountDistinct(handle, v)
	}
	storage.SetSlotInt(0, 0, handle, 8)
	got := rs.GetRowAt(0, false, false)[0].I64
	assert.InDelta(t, 10000, float64(got), 10000*0.02)
}

func TestZeroHandleCountsZero(t *testing.T) {
	desc := CountDistinctDescriptor{Impl: CountDistinctHashSet}
	rs, storage := buildDistinctResultSet(desc)
	storage.SetSlotInt(0, 0, 0, 8)
	row := rs.GetRowAt(0, false, false)
	assert.False(t, row[0].IsNull)
	assert.Equal(t, int64(0), row[0].I64)
}

func TestFixupCountDistinctPointers(t *testing.T) {
	desc := CountDistinctDescriptor{Impl: CountDistinctHashSet}
	rs, storage := buildDistinctResultSet(desc)

	//simulate a merge: the slot still holds the source partition's handle
	staleHandle := int64(42)
	mergedHandle := rs.Owner().NewCountDistinctBuffer(desc)
	rs.Owner().InsertCountDistinct(mergedHandle, 1)
	rs.Owner().InsertCountDistinct(mergedHandle, 2)

	storage.SetSlotInt(0, 0, staleHandle, 8)
	storage.AddCountDistinctMapping(staleHandle, mergedHandle)
	rs.FixupCountDistinctPointers()

	assert.Equal(t, int64(2), rs.GetRowAt(0, false, false)[0].I64)

	//a second fixup is a no-op
	rs.FixupCountDistinctPointers()
	assert.Equal(t, int64(2), rs.GetRowAt(0, false, false)[0].I64)
}

func TestFixupAllocatesForUnknownHandles(t *testing.T) {
	desc := CountDistinctDescriptor{Impl: CountDistinctHashSet}
	rs, storage := buildDistinctResultSet(desc)

	//a foreign handle with no recorded mapping
	storage.SetSlotInt(0, 0, 999, 8)
	rs.FixupCountDistinctPointers()

	row := rs.GetRowAt(0, false, false)
	assert.False(t, row[0].IsNull)
	assert.Equal(t, int64(0), row[0].I64)
}
