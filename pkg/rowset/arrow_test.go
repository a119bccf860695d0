package rowset

import (
	"testing"

	"github.com/apache/arrow/go/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voradb/vora/pkg/common"
)

func TestArrowBatchExport(t *testing.T) {
	targets := []TargetInfo{
		ProjectedTarget(common.BigintType()),
		ProjectedTarget(common.DoubleType()),
		ProjectedTarget(common.DictVarcharType(3)),
	}
	rs, storage := buildProjection(3, targets, false)
	rs.Owner().RegisterDictProxy(NewStringDictProxy(3, []string{"x", "y"}))

	storage.SetSlotInt(0, 0, 1, 8)
	storage.SetSlotDouble(0, 1, 1.5)
	storage.SetSlotInt(0, 2, 0, 4)

	storage.SetSlotInt(1, 0, common.NullBigint, 8)
	storage.SetSlotDouble(1, 1, 2.5)
	storage.SetSlotInt(1, 2, 1, 4)

	storage.SetSlotInt(2, 0, 3, 8)
	storage.SetSlotDouble(2, 1, common.NullDouble)
	storage.SetSlotInt(2, 2, common.NullInt, 4)

	rec, err := GetArrowBatch(rs, []string{"id", "score", "tag"})
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(3), rec.NumRows())
	require.Equal(t, int64(3), rec.NumCols())
	assert.Equal(t, "id", rec.Schema().Field(0).Name)

	ids := rec.Column(0).(*array.Int64)
	assert.Equal(t, int64(1), ids.Value(0))
	assert.True(t, ids.IsNull(1))
	assert.Equal(t, int64(3), ids.Value(2))

	scores := rec.Column(1).(*array.Float64)
	assert.InDelta(t, 1.5, scores.Value(0), 1e-9)
	assert.True(t, scores.IsNull(2))

	tags := rec.Column(2).(*array.String)
	assert.Equal(t, "x", tags.Value(0))
	assert.Equal(t, "y", tags.Value(1))
	assert.True(t, tags.IsNull(2))
}

func TestArrowBatchRejectsArrays(t *testing.T) {
	widths := []int{8, 8}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_Projection,
		EntryCount:    1,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet([]TargetInfo{ProjectedTarget(common.ListType(common.LTID_INTEGER))},
		layout, NewRowSetMemoryOwner())
	rs.AllocateStorage()
	_, err := GetArrowBatch(rs, nil)
	assert.Error(t, err)
}

func TestArrowDecimalAsDouble(t *testing.T) {
	rs, storage := buildProjection(1, []TargetInfo{
		ProjectedTarget(common.DecimalType(10, 2)),
	}, false)
	storage.SetSlotInt(0, 0, 12345, 8)
	rec, err := GetArrowBatch(rs, nil)
	require.NoError(t, err)
	defer rec.Release()
	col := rec.Column(0).(*array.Float64)
	assert.InDelta(t, 123.45, col.Value(0), 1e-9)
}
