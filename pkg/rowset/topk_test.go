package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/util"
)

func buildTopKResultSet(param int, inline bool) (*ResultSet, *ResultStorage) {
	target := AggTarget(AggTopK, common.BigintType(), common.BigintType())
	target.TopKParam = param
	target.TopKInline = inline
	width := 8
	if inline {
		cap := param
		if cap < 0 {
			cap = -cap
		}
		width = cap * 8
	}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_NonGroupedAggregate,
		EntryCount:    1,
		PaddedWidths:  []int{width},
		LogicalWidths: []int{width},
	})
	rs := NewResultSet([]TargetInfo{target}, layout, NewRowSetMemoryOwner())
	return rs, rs.AllocateStorage()
}

func intArr(vals []TargetValue) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = v.I64
	}
	return out
}

func TestTopKDescending(t *testing.T) {
	//top 3 of {7, 3, 9, 1}: the heap keeps {3, 7, 9}, weakest first
	rs, storage := buildTopKResultSet(3, false)
	handle := rs.Owner().NewTopKBuffer(3, common.NullBigint)
	heap := rs.Owner().TopKBufferAt(handle)
	copy(heap, []int64{3, 7, 9})
	storage.SetSlotInt(0, 0, handle, 8)

	row := rs.GetRowAt(0, false, false)
	require.False(t, row[0].IsNull)
	assert.Equal(t, []int64{9, 7, 3}, intArr(row[0].Arr))
}

func TestBottomKAscending(t *testing.T) {
	//bottom 3 of {7, 3, 9, 1}: the heap keeps {7, 3, 1}, weakest first
	rs, storage := buildTopKResultSet(-3, false)
	handle := rs.Owner().NewTopKBuffer(3, common.NullBigint)
	heap := rs.Owner().TopKBufferAt(handle)
	copy(heap, []int64{7, 3, 1})
	storage.SetSlotInt(0, 0, handle, 8)

	row := rs.GetRowAt(0, false, false)
	assert.Equal(t, []int64{1, 3, 7}, intArr(row[0].Arr))
}

func TestTopKPartiallyFilled(t *testing.T) {
	//only two inputs arrived; the tail elements stay null
	rs, storage := buildTopKResultSet(3, false)
	handle := rs.Owner().NewTopKBuffer(3, common.NullBigint)
	heap := rs.Owner().TopKBufferAt(handle)
	heap[0] = 3
	heap[1] = 7
	storage.SetSlotInt(0, 0, handle, 8)

	row := rs.GetRowAt(0, false, false)
	assert.Equal(t, []int64{7, 3}, intArr(row[0].Arr))
}

func TestTopKWiderBufferCapsAtK(t *testing.T) {
	//a 6-wide buffer holding {7, 3, 9, 1, null, null} with k=3 yields
	//the three strongest in either direction
	build := func(param int) *ResultSet {
		rs, storage := buildTopKResultSet(param, false)
		handle := rs.Owner().NewTopKBuffer(6, common.NullBigint)
		copy(rs.Owner().TopKBufferAt(handle), []int64{7, 3, 9, 1})
		storage.SetSlotInt(0, 0, handle, 8)
		return rs
	}

	row := build(3).GetRowAt(0, false, false)
	assert.Equal(t, []int64{9, 7, 3}, intArr(row[0].Arr))

	row = build(-3).GetRowAt(0, false, false)
	assert.Equal(t, []int64{1, 3, 7}, intArr(row[0].Arr))
}

func TestTopKNeverFed(t *testing.T) {
	rs, storage := buildTopKResultSet(3, false)
	storage.SetSlotInt(0, 0, 0, 8)
	assert.True(t, rs.GetRowAt(0, false, false)[0].IsNull)
}

func TestTopKInlineSlot(t *testing.T) {
	//the heap lives in the slot itself, 3 elements wide
	rs, storage := buildTopKResultSet(3, true)
	buf := storage.SlotPtr(0, 0, 24)
	for i, v := range []int64{2, 5, 8} {
		util.Store2[int64](v, buf, i*8)
	}
	row := rs.GetRowAt(0, false, false)
	assert.Equal(t, []int64{8, 5, 2}, intArr(row[0].Arr))
}
