package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voradb/vora/pkg/common"
)

func TestSignExtendedSlotReads(t *testing.T) {
	widths := []int{1, 2, 4, 8}
	types := []common.LType{
		common.TinyintType(), common.SmallintType(),
		common.IntegerType(), common.BigintType(),
	}
	targets := make([]TargetInfo, len(types))
	for i, typ := range types {
		targets[i] = ProjectedTarget(typ)
	}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_Projection,
		EntryCount:    2,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet(targets, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()
	for slotIdx, width := range widths {
		storage.SetSlotInt(0, slotIdx, -5, width)
		storage.SetSlotInt(1, slotIdx, 100, width)
	}
	row := rs.GetRowAt(0, false, false)
	require.Len(t, row, 4)
	for _, val := range row {
		assert.False(t, val.IsNull)
		assert.Equal(t, int64(-5), val.I64)
	}
	row = rs.GetRowAt(1, false, false)
	for _, val := range row {
		assert.Equal(t, int64(100), val.I64)
	}
}

func TestInlineNullDecoding(t *testing.T) {
	rs, storage := buildProjection(1, []TargetInfo{
		ProjectedTarget(common.IntegerType()),
		ProjectedTarget(common.DoubleType()),
		ProjectedTarget(common.FloatType()),
	}, false)
	storage.SetSlotInt(0, 0, common.NullInt, 4)
	storage.SetSlotDouble(0, 1, common.NullDouble)
	storage.SetSlotFloat(0, 2, common.NullFloat)
	row := rs.GetRowAt(0, false, false)
	require.Len(t, row, 3)
	for _, val := range row {
		assert.True(t, val.IsNull)
	}
}

func TestAvgDecoding(t *testing.T) {
	avg := AggTarget(AggAvg, common.DoubleType(), common.BigintType())
	widths := []int{8, 8}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_NonGroupedAggregate,
		EntryCount:    1,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})

	build := func() (*ResultSet, *ResultStorage) {
		rs := NewResultSet([]TargetInfo{avg}, layout, NewRowSetMemoryOwner())
		return rs, rs.AllocateStorage()
	}

	rs, storage := build()
	storage.SetSlotInt(0, 0, 10, 8)
	storage.SetSlotInt(0, 1, 4, 8)
	row := rs.GetRowAt(0, false, false)
	require.False(t, row[0].IsNull)
	assert.InDelta(t, 2.5, row[0].F64, 1e-9)

	//zero count means the group never saw a non-null input
	rs, storage = build()
	storage.SetSlotInt(0, 0, 10, 8)
	storage.SetSlotInt(0, 1, 0, 8)
	assert.True(t, rs.GetRowAt(0, false, false)[0].IsNull)

	//null pattern in the sum slot also nulls the average
	rs, storage = build()
	storage.SetSlotInt(0, 0, common.NullBigint, 8)
	storage.SetSlotInt(0, 1, 3, 8)
	assert.True(t, rs.GetRowAt(0, false, false)[0].IsNull)
}

func TestAvgFloatArgument(t *testing.T) {
	avg := AggTarget(AggAvg, common.DoubleType(), common.FloatType())
	require.True(t, TakesFloatArgument(avg))
	widths := []int{8, 8}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_NonGroupedAggregate,
		EntryCount:    1,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet([]TargetInfo{avg}, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()
	//fp32 accumulators write 4 bytes even into an 8 byte slot
	storage.SetSlotFloat(0, 0, 6.0)
	storage.SetSlotInt(0, 1, 4, 8)
	row := rs.GetRowAt(0, false, false)
	require.False(t, row[0].IsNull)
	assert.InDelta(t, 1.5, row[0].F64, 1e-6)
}

func TestDecimalDecoding(t *testing.T) {
	rs, storage := buildProjection(1, []TargetInfo{
		ProjectedTarget(common.DecimalType(10, 2)),
	}, false)
	storage.SetSlotInt(0, 0, 12345, 8)

	raw := rs.GetRowAt(0, false, false)
	assert.Equal(t, int64(12345), raw[0].I64)

	asDouble := rs.GetRowAt(0, false, true)
	assert.InDelta(t, 123.45, asDouble[0].F64, 1e-9)

	storage.SetSlotInt(0, 0, common.NullBigint, 8)
	assert.True(t, rs.GetRowAt(0, false, false)[0].IsNull)
}

func TestDictDecoding(t *testing.T) {
	dictType := common.DictVarcharType(7)
	rs, storage := buildProjection(3, []TargetInfo{
		ProjectedTarget(dictType),
	}, false)
	rs.Owner().RegisterDictProxy(NewStringDictProxy(7, []string{"foo", "bar"}))

	storage.SetSlotInt(0, 0, 1, 4)
	storage.SetSlotInt(1, 0, common.NullInt, 4)
	storage.SetSlotInt(2, 0, 0, 4)

	translated := rs.GetRowAt(0, true, false)
	assert.Equal(t, "bar", translated[0].Str)

	//without translation the raw id comes back
	untranslated := rs.GetRowAt(0, false, false)
	assert.Equal(t, int64(1), untranslated[0].I64)

	assert.True(t, rs.GetRowAt(1, true, false)[0].IsNull)
	assert.Equal(t, "foo", rs.GetRowAt(2, true, false)[0].Str)
}

func TestKeySourcedTarget(t *testing.T) {
	//the target aliases key slot 0, no value slot is read
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:         QDT_GroupByPerfectHash,
		KeyCount:          1,
		KeyWidth:          8,
		EntryCount:        2,
		PaddedWidths:      []int{8},
		LogicalWidths:     []int{8},
		TargetGroupbyIdxs: []int{0},
	})
	targets := []TargetInfo{ProjectedTarget(common.BigintType())}
	rs := NewResultSet(targets, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()
	storage.InitEmpty()
	storage.SetKey(0, 0, 77)
	storage.SetSlotInt(0, 0, -999, 8)
	row := rs.GetRowAt(0, false, false)
	require.Len(t, row, 1)
	assert.Equal(t, int64(77), row[0].I64)
}

func TestSingleColPerfectHashReadsLogicalWidth(t *testing.T) {
	//key and value fused: the slot is padded to 8 but holds a 4 byte value
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_GroupByPerfectHash,
		KeyCount:      1,
		KeyWidth:      8,
		EntryCount:    1,
		PaddedWidths:  []int{8},
		LogicalWidths: []int{4},
	})
	require.True(t, layout.IsSingleColumnGroupByWithPerfectHash())
	targets := []TargetInfo{ProjectedTarget(common.IntegerType())}
	rs := NewResultSet(targets, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()
	storage.InitEmpty()
	storage.SetKey(0, 0, 5)
	//garbage in the high 4 bytes must not leak into the value
	storage.SetSlotInt(0, 0, int64(0x7fff_0000_0000_002a), 8)
	row := rs.GetRowAt(0, false, false)
	assert.Equal(t, int64(42), row[0].I64)
}

func TestVarlenSlotPair(t *testing.T) {
	//varlen without a separate buffer takes two slots
	widths := []int{8, 8}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_Projection,
		EntryCount:    2,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet([]TargetInfo{ProjectedTarget(common.VarcharType())}, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()

	handle := rs.Owner().AddVarlen([]byte("hello"))
	storage.SetSlotInt(0, 0, handle, 8)
	storage.SetSlotInt(0, 1, 5, 8)
	//handle 0 decodes to null
	storage.SetSlotInt(1, 0, 0, 8)

	row := rs.GetRowAt(0, false, false)
	assert.Equal(t, "hello", row[0].Str)
	assert.True(t, rs.GetRowAt(1, false, false)[0].IsNull)
}

func TestSeparateVarlenBuffer(t *testing.T) {
	rs, storage := buildProjection(3, []TargetInfo{
		ProjectedTarget(common.VarcharType()),
	}, false)
	rs.SetSeparateVarlenValid(true)
	storage.EnableVarlenBuffer()

	storage.AppendVarlen(0, 0, []byte("aa"))
	storage.SetVarlenNull(1, 0)
	storage.AppendVarlen(2, 0, []byte("cc"))

	assert.Equal(t, "aa", rs.GetRowAt(0, false, false)[0].Str)
	assert.True(t, rs.GetRowAt(1, false, false)[0].IsNull)
	assert.Equal(t, "cc", rs.GetRowAt(2, false, false)[0].Str)
}

func TestArrayDecoding(t *testing.T) {
	arrType := common.ListType(common.LTID_INTEGER)
	widths := []int{8, 8}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_Projection,
		EntryCount:    1,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet([]TargetInfo{ProjectedTarget(arrType)}, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()
	rs.SetSeparateVarlenValid(true)
	storage.EnableVarlenBuffer()

	//[1, null, 3] packed as 4 byte elements
	payload := make([]byte, 12)
	for i, v := range []int32{1, int32(common.NullInt), 3} {
		payload[i*4] = byte(v)
		payload[i*4+1] = byte(v >> 8)
		payload[i*4+2] = byte(v >> 16)
		payload[i*4+3] = byte(v >> 24)
	}
	storage.AppendVarlen(0, 0, payload)

	row := rs.GetRowAt(0, false, false)
	require.Len(t, row[0].Arr, 3)
	assert.Equal(t, int64(1), row[0].Arr[0].I64)
	assert.True(t, row[0].Arr[1].IsNull)
	assert.Equal(t, int64(3), row[0].Arr[2].I64)
}

func TestGetOneColRow(t *testing.T) {
	rs, storage := buildGrouped(3, 1, bigintTargets(1))
	storage.SetKey(1, 0, 1)
	storage.SetSlotInt(1, 0, 55, 8)

	hit := rs.GetOneColRow(1)
	assert.True(t, hit.Valid)
	assert.Equal(t, int64(55), hit.Value)

	miss := rs.GetOneColRow(0)
	assert.False(t, miss.Valid)
}
