package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voradb/vora/pkg/common"
)

func TestExactQuantile(t *testing.T) {
	acc := newExactQuantile()
	for v := 1; v <= 100; v++ {
		acc.Add(float64(v))
	}
	assert.Equal(t, uint64(100), acc.Count())
	assert.InDelta(t, 50.0, acc.Quantile(0.5), 1.0)
	assert.Equal(t, 1.0, acc.Quantile(0))
	assert.Equal(t, 100.0, acc.Quantile(1))
}

func TestExactQuantileDuplicates(t *testing.T) {
	acc := newExactQuantile()
	for i := 0; i < 10; i++ {
		acc.Add(5)
	}
	acc.Add(100)
	assert.Equal(t, 5.0, acc.Quantile(0.5))
}

func TestApproxQuantile(t *testing.T) {
	acc := newApproxQuantile()
	for v := 1; v <= 10000; v++ {
		acc.Add(float64(v))
	}
	assert.Equal(t, uint64(10000), acc.Count())
	assert.InDelta(t, 5000.0, acc.Quantile(0.5), 500.0)
	assert.InDelta(t, 9000.0, acc.Quantile(0.9), 500.0)
}

func buildQuantileResultSet(kind AggKind, q float64) (*ResultSet, *ResultStorage) {
	target := AggTarget(kind, common.DoubleType(), common.DoubleType())
	target.QuantileParam = q
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_NonGroupedAggregate,
		EntryCount:    1,
		PaddedWidths:  []int{8},
		LogicalWidths: []int{8},
	})
	rs := NewResultSet([]TargetInfo{target}, layout, NewRowSetMemoryOwner())
	return rs, rs.AllocateStorage()
}

func TestQuantileDecoding(t *testing.T) {
	rs, storage := buildQuantileResultSet(AggQuantile, 0.5)
	handle := rs.Owner().NewQuantileAcc(false)
	acc := rs.Owner().QuantileAt(handle)
	for v := 1; v <= 9; v++ {
		acc.Add(float64(v))
	}
	storage.SetSlotInt(0, 0, handle, 8)

	row := rs.GetRowAt(0, false, false)
	require.False(t, row[0].IsNull)
	assert.InDelta(t, 5.0, row[0].F64, 1e-9)
}

func TestQuantileNeverFedIsNull(t *testing.T) {
	rs, storage := buildQuantileResultSet(AggQuantile, 0.5)
	//handle 0: the accumulator was never created
	storage.SetSlotInt(0, 0, 0, 8)
	assert.True(t, rs.GetRowAt(0, false, false)[0].IsNull)

	//created but never fed
	handle := rs.Owner().NewQuantileAcc(false)
	storage.SetSlotInt(0, 0, handle, 8)
	assert.True(t, rs.GetRowAt(0, false, false)[0].IsNull)
}

func TestApproxQuantileDecoding(t *testing.T) {
	rs, storage := buildQuantileResultSet(AggApproxQuantile, 0.9)
	handle := rs.Owner().NewQuantileAcc(true)
	acc := rs.Owner().QuantileAt(handle)
	for v := 1; v <= 1000; v++ {
		acc.Add(float64(v))
	}
	storage.SetSlotInt(0, 0, handle, 8)
	row := rs.GetRowAt(0, false, false)
	require.False(t, row[0].IsNull)
	assert.InDelta(t, 900.0, row[0].F64, 100.0)
}
