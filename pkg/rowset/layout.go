package rowset

import (
	"github.com/huandu/go-clone"

	"github.com/voradb/vora/pkg/util"
)

type QueryDescriptionType int

const (
	QDT_Projection QueryDescriptionType = iota
	QDT_GroupByPerfectHash
	QDT_GroupByBaselineHash
	QDT_NonGroupedAggregate
)

var qdtToStr = map[QueryDescriptionType]string{
	QDT_Projection:          "Projection",
	QDT_GroupByPerfectHash:  "GroupByPerfectHash",
	QDT_GroupByBaselineHash: "GroupByBaselineHash",
	QDT_NonGroupedAggregate: "NonGroupedAggregate",
}

func (t QueryDescriptionType) String() string {
	return qdtToStr[t]
}

/*
ResultSetLayout
row-wise format:

	| keys (align 8) | slot 0 | slot 1 | ... | slot n-1 |  (align 8 per row)

columnar format:

	| key col 0 (entryCount wide) | ... | slot col 0 | ... | slot col n-1 |

All width/offset queries are pure functions of the descriptor and stay
constant for the lifetime of the result set.
*/
type ResultSetLayout struct {
	_queryType QueryDescriptionType

	_keyCount          int
	_keyWidth          int
	_effectiveKeyWidth int

	_isColumnar bool
	_entryCount int

	_paddedWidths  []int
	_logicalWidths []int

	//per target: >=0 means the target aliases that groupby key slot
	_targetGroupbyIndices []int

	//per target with a distinct aggregate
	_countDistinct map[int]CountDistinctDescriptor

	//keyless perfect hash: emptiness is judged by this target slot
	_hasKeylessHash  bool
	_targetIdxForKey int
	_emptySentinel   int64
}

type LayoutArgs struct {
	QueryType          QueryDescriptionType
	KeyCount           int
	KeyWidth           int
	EffectiveKeyWidth  int
	IsColumnar         bool
	EntryCount         int
	PaddedWidths       []int
	LogicalWidths      []int
	TargetGroupbyIdxs  []int
	CountDistinct      map[int]CountDistinctDescriptor
	HasKeylessHash     bool
	TargetIdxForKey    int
	KeylessEmptyValue  int64
	UseKeylessSentinel bool
}

func NewResultSetLayout(args LayoutArgs) *ResultSetLayout {
	util.AssertFunc(args.EntryCount > 0)
	util.AssertFunc(len(args.PaddedWidths) == len(args.LogicalWidths))
	ret := &ResultSetLayout{
		_queryType:            args.QueryType,
		_keyCount:             args.KeyCount,
		_keyWidth:             args.KeyWidth,
		_effectiveKeyWidth:    args.EffectiveKeyWidth,
		_isColumnar:           args.IsColumnar,
		_entryCount:           args.EntryCount,
		_paddedWidths:         util.CopyTo(args.PaddedWidths),
		_logicalWidths:        util.CopyTo(args.LogicalWidths),
		_targetGroupbyIndices: util.CopyTo(args.TargetGroupbyIdxs),
		_countDistinct:        args.CountDistinct,
		_hasKeylessHash:       args.HasKeylessHash,
		_targetIdxForKey:      args.TargetIdxForKey,
	}
	if ret._effectiveKeyWidth == 0 {
		ret._effectiveKeyWidth = ret._keyWidth
	}
	if args.UseKeylessSentinel {
		ret._emptySentinel = args.KeylessEmptyValue
	} else if ret._hasKeylessHash && len(ret._paddedWidths) > 0 {
		ret._emptySentinel = 0
	}
	return ret
}

func (layout *ResultSetLayout) QueryType() QueryDescriptionType {
	return layout._queryType
}

func (layout *ResultSetLayout) DidOutputColumnar() bool {
	return layout._isColumnar
}

func (layout *ResultSetLayout) EntryCount() int {
	return layout._entryCount
}

func (layout *ResultSetLayout) KeyCount() int {
	return layout._keyCount
}

func (layout *ResultSetLayout) KeyWidth() int {
	return layout._keyWidth
}

func (layout *ResultSetLayout) GetEffectiveKeyWidth() int {
	return layout._effectiveKeyWidth
}

func (layout *ResultSetLayout) HasKeylessHash() bool {
	return layout._hasKeylessHash
}

func (layout *ResultSetLayout) TargetIdxForKey() int {
	return layout._targetIdxForKey
}

func (layout *ResultSetLayout) EmptySentinel() int64 {
	return layout._emptySentinel
}

func (layout *ResultSetLayout) SlotCount() int {
	return len(layout._paddedWidths)
}

func (layout *ResultSetLayout) GetPaddedSlotWidthBytes(slotIdx int) int {
	util.AssertFunc(slotIdx >= 0 && slotIdx < len(layout._paddedWidths))
	return layout._paddedWidths[slotIdx]
}

func (layout *ResultSetLayout) GetLogicalSlotWidthBytes(slotIdx int) int {
	util.AssertFunc(slotIdx >= 0 && slotIdx < len(layout._logicalWidths))
	return layout._logicalWidths[slotIdx]
}

func (layout *ResultSetLayout) TargetGroupbyIndicesSize() int {
	return len(layout._targetGroupbyIndices)
}

func (layout *ResultSetLayout) GetTargetGroupbyIndex(targetIdx int) int {
	if targetIdx >= len(layout._targetGroupbyIndices) {
		return -1
	}
	return layout._targetGroupbyIndices[targetIdx]
}

func (layout *ResultSetLayout) GetCountDistinctDescriptor(targetIdx int) CountDistinctDescriptor {
	desc, has := layout._countDistinct[targetIdx]
	util.AssertFunc(has)
	return desc
}

func (layout *ResultSetLayout) HasCountDistinct(targetIdx int) bool {
	_, has := layout._countDistinct[targetIdx]
	return has
}

// GetKeyBytesWithPadding is the row-wise key prefix width, padded so
// slot zero starts 8-byte aligned.
func (layout *ResultSetLayout) GetKeyBytesWithPadding() int {
	return util.AlignValue8(layout._keyCount * layout._keyWidth)
}

// GetRowSize is the row-wise stride between consecutive entries.
func (layout *ResultSetLayout) GetRowSize() int {
	sz := layout.GetKeyBytesWithPadding()
	for _, w := range layout._paddedWidths {
		sz += w
	}
	return util.AlignValue8(sz)
}

// GetColOffInBytes is the byte offset of a slot's column in the
// columnar format, and the in-row offset of the slot past the key
// prefix in the row-wise format.
func (layout *ResultSetLayout) GetColOffInBytes(slotIdx int) int {
	util.AssertFunc(slotIdx >= 0 && slotIdx < len(layout._paddedWidths))
	if layout._isColumnar {
		off := layout._keyCount * layout._keyWidth * layout._entryCount
		for i := 0; i < slotIdx; i++ {
			off += layout._paddedWidths[i] * layout._entryCount
		}
		return off
	}
	off := layout.GetKeyBytesWithPadding()
	for i := 0; i < slotIdx; i++ {
		off += layout._paddedWidths[i]
	}
	return off
}

// GetColOnlyOffInBytes is the slot offset relative to the start of the
// row's slot section.
func (layout *ResultSetLayout) GetColOnlyOffInBytes(slotIdx int) int {
	util.AssertFunc(slotIdx >= 0 && slotIdx < len(layout._paddedWidths))
	off := 0
	for i := 0; i < slotIdx; i++ {
		off += layout._paddedWidths[i]
	}
	return off
}

func (layout *ResultSetLayout) GetBufferSizeBytes() int {
	if layout._isColumnar {
		sz := layout._keyCount * layout._keyWidth * layout._entryCount
		for _, w := range layout._paddedWidths {
			sz += w * layout._entryCount
		}
		return sz
	}
	return layout.GetRowSize() * layout._entryCount
}

func (layout *ResultSetLayout) IsSingleColumnGroupByWithPerfectHash() bool {
	return layout._queryType == QDT_GroupByPerfectHash && layout._keyCount == 1
}

// Copy deep-copies the descriptor so per-shard storage partitions can
// hold their own.
func (layout *ResultSetLayout) Copy() *ResultSetLayout {
	return clone.Clone(layout).(*ResultSetLayout)
}
