package rowset

import (
	"github.com/voradb/vora/pkg/common"
)

// buildProjection makes a dense projection result set with one storage
// partition.
func buildProjection(entryCount int, targets []TargetInfo, columnar bool) (*ResultSet, *ResultStorage) {
	widths := make([]int, 0, len(targets))
	for _, ti := range targets {
		widths = append(widths, ti.Type.CanonicalSize())
	}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_Projection,
		EntryCount:    entryCount,
		IsColumnar:    columnar,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet(targets, layout, NewRowSetMemoryOwner())
	return rs, rs.AllocateStorage()
}

// buildGrouped makes a single-key perfect hash result set with 8-byte
// keys and 8-byte slots, entries pre-marked empty.
func buildGrouped(entryCount, slotCount int, targets []TargetInfo) (*ResultSet, *ResultStorage) {
	widths := make([]int, slotCount)
	for i := range widths {
		widths[i] = 8
	}
	layout := NewResultSetLayout(LayoutArgs{
		QueryType:     QDT_GroupByPerfectHash,
		KeyCount:      1,
		KeyWidth:      8,
		EntryCount:    entryCount,
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := NewResultSet(targets, layout, NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()
	storage.InitEmpty()
	return rs, storage
}

func bigintTargets(count int) []TargetInfo {
	targets := make([]TargetInfo, count)
	for i := range targets {
		targets[i] = ProjectedTarget(common.BigintType())
	}
	return targets
}
