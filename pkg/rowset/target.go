package rowset

import (
	"fmt"

	"github.com/voradb/vora/pkg/common"
)

type AggKind int

const (
	AggInvalid AggKind = iota
	AggCount
	AggSum
	AggMin
	AggMax
	AggAvg
	AggApproxCountDistinct
	AggApproxQuantile
	AggQuantile
	AggSample
	AggSingleValue
	AggTopK
)

var aggKindToStr = map[AggKind]string{
	AggInvalid:             "INVALID",
	AggCount:               "COUNT",
	AggSum:                 "SUM",
	AggMin:                 "MIN",
	AggMax:                 "MAX",
	AggAvg:                 "AVG",
	AggApproxCountDistinct: "APPROX_COUNT_DISTINCT",
	AggApproxQuantile:      "APPROX_QUANTILE",
	AggQuantile:            "QUANTILE",
	AggSample:              "SAMPLE",
	AggSingleValue:         "SINGLE_VALUE",
	AggTopK:                "TOPK",
}

func (k AggKind) String() string {
	if s, has := aggKindToStr[k]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", k))
}

// TargetInfo describes one output column of a result set. The same
// ordered sequence of TargetInfo is shared by every storage partition.
type TargetInfo struct {
	IsAgg       bool
	Kind        AggKind
	Type        common.LType
	ArgType     common.LType
	IsDistinct  bool
	SkipNullVal bool

	// TopK: |TopKParam| is the heap capacity; sign picks top (+) or
	// bottom (-). TopKInline means the heap lives in the slot itself.
	TopKParam  int
	TopKInline bool

	// Quantile aggregates carry the requested quantile here.
	QuantileParam float64
}

func ProjectedTarget(typ common.LType) TargetInfo {
	return TargetInfo{Type: typ, ArgType: typ}
}

func AggTarget(kind AggKind, typ, argType common.LType) TargetInfo {
	return TargetInfo{IsAgg: true, Kind: kind, Type: typ, ArgType: argType}
}

// IsDistinctTarget reports whether the slot holds a handle to a
// count-distinct accumulator rather than a plain value.
func IsDistinctTarget(ti TargetInfo) bool {
	return ti.IsAgg &&
		(ti.Kind == AggApproxCountDistinct ||
			(ti.Kind == AggCount && ti.IsDistinct))
}

// TakesFloatArgument reports whether the aggregate accumulates a raw
// float argument, which changes the byte width the sum slot is read at.
func TakesFloatArgument(ti TargetInfo) bool {
	return ti.IsAgg && ti.ArgType.IsFp32() &&
		(ti.Kind == AggSum || ti.Kind == AggMin || ti.Kind == AggMax ||
			ti.Kind == AggAvg || ti.Kind == AggSingleValue)
}

// IsRealStrOrArray reports whether the target is variable length and
// materialized through a (pointer,length) slot pair.
func IsRealStrOrArray(ti TargetInfo) bool {
	if ti.Type.IsExtDictionary() {
		return false
	}
	return ti.Type.IsString() || ti.Type.IsArray()
}

// UsesTwoSlots reports whether the target occupies two physical slots.
// AVG always does (sum, count); varlen targets do unless the values
// moved to the separately stored varlen buffer.
func UsesTwoSlots(ti TargetInfo, separateVarlenValid bool) bool {
	if ti.IsAgg && ti.Kind == AggAvg {
		return true
	}
	if IsRealStrOrArray(ti) {
		return !separateVarlenValid
	}
	return false
}

// AdvanceSlot maps a target index step to a physical slot index step.
func AdvanceSlot(slotIdx int, ti TargetInfo, separateVarlenValid bool) int {
	if UsesTwoSlots(ti, separateVarlenValid) {
		return slotIdx + 2
	}
	return slotIdx + 1
}

// SlotCountForTargets is the number of physical slots the ordered
// target sequence occupies.
func SlotCountForTargets(targets []TargetInfo, separateVarlenValid bool) int {
	slot := 0
	for _, ti := range targets {
		slot = AdvanceSlot(slot, ti, separateVarlenValid)
	}
	return slot
}
