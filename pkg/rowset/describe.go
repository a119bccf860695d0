package rowset

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Describe renders the result set shape for logs and the bench tool.
func (rs *ResultSet) Describe() string {
	tree := treeprint.NewWithRoot("ResultSet")
	layout := tree.AddBranch(fmt.Sprintf("layout %v", rs._layout.QueryType()))
	layout.AddNode(fmt.Sprintf("entries %d", rs._layout.EntryCount()))
	layout.AddNode(fmt.Sprintf("columnar %v", rs._layout.DidOutputColumnar()))
	layout.AddNode(fmt.Sprintf("keys %d x %d bytes (effective %d)",
		rs._layout.KeyCount(), rs._layout.KeyWidth(), rs._layout.GetEffectiveKeyWidth()))
	if rs._layout.HasKeylessHash() {
		layout.AddNode(fmt.Sprintf("keyless, key target %d", rs._layout.TargetIdxForKey()))
	}
	slots := layout.AddBranch("slots")
	for slotIdx := 0; slotIdx < rs._layout.SlotCount(); slotIdx++ {
		slots.AddNode(fmt.Sprintf("%d: padded %d logical %d", slotIdx,
			rs._layout.GetPaddedSlotWidthBytes(slotIdx),
			rs._layout.GetLogicalSlotWidthBytes(slotIdx)))
	}
	targets := tree.AddBranch("targets")
	for targetIdx, ti := range rs._targets {
		if ti.IsAgg {
			targets.AddNode(fmt.Sprintf("%d: %v(%v) -> %v",
				targetIdx, ti.Kind, ti.ArgType, ti.Type))
		} else {
			targets.AddNode(fmt.Sprintf("%d: %v", targetIdx, ti.Type))
		}
	}
	tree.AddNode(fmt.Sprintf("storages %d", len(rs._storage)))
	return tree.String()
}
