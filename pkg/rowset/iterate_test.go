package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillGroupedRows writes (key, value) pairs at given entry indices.
func fillGroupedRows(storage *ResultStorage, entries []int, keys, vals []int64) {
	for i, entryIdx := range entries {
		storage.SetKey(entryIdx, 0, keys[i])
		storage.SetSlotInt(entryIdx, 0, vals[i], 8)
		storage.SetSlotInt(entryIdx, 1, vals[i]*10, 8)
	}
}

func buildIterationFixture() *ResultSet {
	//4 entries, entry 1 stays empty
	rs, storage := buildGrouped(4, 2, bigintTargets(2))
	fillGroupedRows(storage, []int{0, 2, 3},
		[]int64{1, 2, 3}, []int64{10, 20, 30})
	return rs
}

func TestIterationSkipsEmptyEntries(t *testing.T) {
	rs := buildIterationFixture()
	var got [][2]int64
	for {
		row := rs.GetNextRow(false, false)
		if row == nil {
			break
		}
		got = append(got, [2]int64{row[0].I64, row[1].I64})
	}
	assert.Equal(t, [][2]int64{{10, 100}, {20, 200}, {30, 300}}, got)
	assert.Equal(t, int64(3), rs.RowCount())
}

func TestIterationHonorsPermutation(t *testing.T) {
	rs := buildIterationFixture()
	//reverse row order over the non-empty entries
	rs.SetPermutation([]uint32{3, 2, 0})
	var got []int64
	for {
		row := rs.GetNextRow(false, false)
		if row == nil {
			break
		}
		got = append(got, row[0].I64)
	}
	assert.Equal(t, []int64{30, 20, 10}, got)
}

func TestIterationOffsetAndLimit(t *testing.T) {
	rs := buildIterationFixture()
	rs.SetOffsets(1, 1)
	row := rs.GetNextRow(false, false)
	require.NotNil(t, row)
	assert.Equal(t, int64(20), row[0].I64)
	assert.Nil(t, rs.GetNextRow(false, false))
	assert.Equal(t, int64(1), rs.RowCount())
}

func TestIterationOffsetPastEnd(t *testing.T) {
	rs := buildIterationFixture()
	rs.SetOffsets(10, 0)
	assert.Nil(t, rs.GetNextRow(false, false))
	assert.Equal(t, int64(0), rs.RowCount())
}

func TestMoveToBeginRestarts(t *testing.T) {
	rs := buildIterationFixture()
	first := rs.GetNextRow(false, false)
	require.NotNil(t, first)
	rs.MoveToBegin()
	again := rs.GetNextRow(false, false)
	require.NotNil(t, again)
	assert.Equal(t, first[0].I64, again[0].I64)
}

func TestGetRowAtAppliesPermutation(t *testing.T) {
	rs := buildIterationFixture()
	rs.SetPermutation([]uint32{3, 2, 0})
	row := rs.GetRowAt(0, false, false)
	require.NotNil(t, row)
	assert.Equal(t, int64(30), row[0].I64)
	//past the permutation is out of range
	assert.Nil(t, rs.GetRowAt(3, false, false))
}

func TestMultiStorageIteration(t *testing.T) {
	rs, first := buildGrouped(2, 1, bigintTargets(1))
	first.SetKey(0, 0, 1)
	first.SetSlotInt(0, 0, 11, 8)

	second := NewResultStorage(rs.Layout(), rs.Targets())
	second.InitEmpty()
	second.SetKey(1, 0, 2)
	second.SetSlotInt(1, 0, 22, 8)
	rs.AppendStorage(second)

	assert.Equal(t, 4, rs.EntryCount())
	var got []int64
	for {
		row := rs.GetNextRow(false, false)
		if row == nil {
			break
		}
		got = append(got, row[0].I64)
	}
	assert.Equal(t, []int64{11, 22}, got)
}
