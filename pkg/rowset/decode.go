// Copyright 2024-2025 the vora authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rowset

import (
	"math"
	"sort"
	"unsafe"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/util"
)

// readIntFromPtr sign-extends the low width bytes at ptr.
func readIntFromPtr(ptr unsafe.Pointer, width int) int64 {
	switch width {
	case 1:
		return int64(util.Load[int8](ptr))
	case 2:
		return int64(util.Load[int16](ptr))
	case 4:
		return int64(util.Load[int32](ptr))
	case 8:
		return util.Load[int64](ptr)
	default:
		panic("usp slot width")
	}
}

func isNullFloat(val float32) bool {
	return math.Float32bits(val) == math.Float32bits(common.NullFloat)
}

func isNullDouble(val float64) bool {
	return math.Float64bits(val) == math.Float64bits(common.NullDouble)
}

// slotReadWidth picks the byte width a target's first slot is read at.
// Aggregates over fp32 arguments accumulate in 4 bytes regardless of
// the padded width; non-aggregate targets of a single-column perfect
// hash read the logical width because key and value share the slot.
func (rs *ResultSet) slotReadWidth(storage *ResultStorage, targetIdx, slotIdx int) int {
	ti := rs._targets[targetIdx]
	if TakesFloatArgument(ti) {
		return 4
	}
	layout := storage.Layout()
	if layout.IsSingleColumnGroupByWithPerfectHash() && !ti.IsAgg {
		return layout.GetLogicalSlotWidthBytes(slotIdx)
	}
	return layout.GetPaddedSlotWidthBytes(slotIdx)
}

// makeTargetValue decodes one target of one entry.
func (rs *ResultSet) makeTargetValue(storage *ResultStorage, entryIdx, targetIdx, slotIdx int,
	translateStrings, decimalToDouble bool) TargetValue {
	ti := rs._targets[targetIdx]
	layout := storage.Layout()

	if tgIdx := layout.GetTargetGroupbyIndex(targetIdx); tgIdx >= 0 {
		width := layout.GetEffectiveKeyWidth()
		raw := storage.ReadKeyInt(entryIdx, tgIdx, width)
		return rs.makeFixedValue(ti, raw, width, translateStrings, decimalToDouble)
	}

	if ti.IsAgg {
		switch ti.Kind {
		case AggAvg:
			return rs.makeAvgTargetValue(storage, entryIdx, targetIdx, slotIdx)
		case AggTopK:
			return rs.makeTopKTargetValue(storage, entryIdx, targetIdx, slotIdx)
		case AggQuantile, AggApproxQuantile:
			return rs.makeQuantileTargetValue(storage, entryIdx, targetIdx, slotIdx)
		}
	}
	if IsDistinctTarget(ti) {
		width := layout.GetPaddedSlotWidthBytes(slotIdx)
		handle := storage.ReadSlotInt(entryIdx, slotIdx, width)
		desc := layout.GetCountDistinctDescriptor(targetIdx)
		return IntValue(ti.Type, CountDistinctSetSize(rs._owner, handle, desc))
	}
	if IsRealStrOrArray(ti) {
		return rs.makeVarlenTargetValue(storage, entryIdx, targetIdx, slotIdx)
	}

	if rs.isLazyTarget(targetIdx) {
		//the slot holds the source row id, not the value
		width := layout.GetPaddedSlotWidthBytes(slotIdx)
		rowId := storage.ReadSlotInt(entryIdx, slotIdx, width)
		return rs.resolveLazyFixed(targetIdx, rowId, translateStrings, decimalToDouble)
	}

	width := rs.slotReadWidth(storage, targetIdx, slotIdx)
	if ti.Type.IsFp32() || TakesFloatArgument(ti) {
		val := util.Load[float32](storage.SlotPtr(entryIdx, slotIdx, 4))
		if isNullFloat(val) {
			return NullValue(ti.Type)
		}
		return FloatValue(ti.Type, float64(val))
	}
	if ti.Type.Id == common.LTID_DOUBLE {
		val := util.Load[float64](storage.SlotPtr(entryIdx, slotIdx, 8))
		if isNullDouble(val) {
			return NullValue(ti.Type)
		}
		return FloatValue(ti.Type, val)
	}

	raw := storage.ReadSlotInt(entryIdx, slotIdx, width)
	return rs.makeFixedValue(ti, raw, width, translateStrings, decimalToDouble)
}

// makeFixedValue interprets a sign-extended raw slot value by the
// target's logical type.
func (rs *ResultSet) makeFixedValue(ti TargetInfo, raw int64, width int,
	translateStrings, decimalToDouble bool) TargetValue {
	typ := ti.Type
	if typ.IsFp32() && width == 4 {
		val := math.Float32frombits(uint32(raw))
		if isNullFloat(val) {
			return NullValue(typ)
		}
		return FloatValue(typ, float64(val))
	}
	if typ.Id == common.LTID_DOUBLE && width == 8 {
		val := math.Float64frombits(uint64(raw))
		if isNullDouble(val) {
			return NullValue(typ)
		}
		return FloatValue(typ, val)
	}
	if typ.IsExtDictionary() {
		return rs.makeDictValue(typ, int32(raw), translateStrings)
	}
	if typ.IsDecimal() {
		if raw == common.NullBigint {
			return NullValue(typ)
		}
		if decimalToDouble {
			return FloatValue(common.DoubleType(),
				float64(raw)/common.ExpToScale(typ.Scale))
		}
		return IntValue(typ, raw)
	}
	if raw == common.InlineIntNullValue(typ) {
		return NullValue(typ)
	}
	return IntValue(typ, raw)
}

func (rs *ResultSet) makeDictValue(typ common.LType, id int32, translateStrings bool) TargetValue {
	if IsNullDictId(id) {
		return NullValue(typ)
	}
	if !translateStrings {
		return IntValue(typ, int64(id))
	}
	proxy := rs._owner.GetDictProxy(typ.DictId)
	util.AssertFunc(proxy != nil)
	str, ok := proxy.GetString(id)
	if !ok {
		return NullValue(typ)
	}
	return StrValue(typ, rs._owner.AddString(str))
}

// makeAvgTargetValue divides the slot pair (sum, count). The result is
// null when the group never saw a non-null input, which surfaces either
// as a zero count or as the null pattern in the sum slot.
func (rs *ResultSet) makeAvgTargetValue(storage *ResultStorage, entryIdx, targetIdx, slotIdx int) TargetValue {
	ti := rs._targets[targetIdx]
	layout := storage.Layout()
	outType := common.DoubleType()

	countWidth := layout.GetPaddedSlotWidthBytes(slotIdx + 1)
	count := storage.ReadSlotInt(entryIdx, slotIdx+1, countWidth)
	if count == 0 {
		return NullValue(outType)
	}

	var sum float64
	switch {
	case TakesFloatArgument(ti):
		val := util.Load[float32](storage.SlotPtr(entryIdx, slotIdx, 4))
		if isNullFloat(val) {
			return NullValue(outType)
		}
		sum = float64(val)
	case ti.ArgType.IsFloatingPoint():
		val := util.Load[float64](storage.SlotPtr(entryIdx, slotIdx, 8))
		if isNullDouble(val) {
			return NullValue(outType)
		}
		sum = val
	default:
		width := layout.GetPaddedSlotWidthBytes(slotIdx)
		raw := storage.ReadSlotInt(entryIdx, slotIdx, width)
		if raw == common.InlineNullForWidth(width) {
			return NullValue(outType)
		}
		if ti.ArgType.IsDecimal() {
			sum = float64(raw) / common.ExpToScale(ti.ArgType.Scale)
		} else {
			sum = float64(raw)
		}
	}
	return FloatValue(outType, sum/float64(count))
}

func (rs *ResultSet) makeQuantileTargetValue(storage *ResultStorage, entryIdx, targetIdx, slotIdx int) TargetValue {
	ti := rs._targets[targetIdx]
	layout := storage.Layout()
	width := layout.GetPaddedSlotWidthBytes(slotIdx)
	handle := storage.ReadSlotInt(entryIdx, slotIdx, width)
	outType := common.DoubleType()
	if handle == 0 {
		return NullValue(outType)
	}
	acc := rs._owner.QuantileAt(handle)
	if acc.Count() == 0 {
		return NullValue(outType)
	}
	return FloatValue(outType, acc.Quantile(ti.QuantileParam))
}

// makeTopKTargetValue materializes a top-k heap buffer as a list. The
// heap is packed from index 0 with unfilled slots holding the null
// sentinel, so the scan runs forward and stops at the first sentinel.
// Positive k sorts descending, negative ascending; at most |k|
// elements come out even when the buffer is wider.
func (rs *ResultSet) makeTopKTargetValue(storage *ResultStorage, entryIdx, targetIdx, slotIdx int) TargetValue {
	ti := rs._targets[targetIdx]
	layout := storage.Layout()
	outType := common.ListType(ti.ArgType.Id)

	var heap []int64
	if ti.TopKInline {
		//the heap occupies the slot itself, element width 8
		capacity := ti.TopKParam
		if capacity < 0 {
			capacity = -capacity
		}
		ptr := storage.SlotPtr(entryIdx, slotIdx, capacity*8)
		heap = util.PointerToSlice[int64](ptr, capacity)
	} else {
		width := layout.GetPaddedSlotWidthBytes(slotIdx)
		handle := storage.ReadSlotInt(entryIdx, slotIdx, width)
		if handle == 0 {
			return NullValue(outType)
		}
		heap = rs._owner.TopKBufferAt(handle)
	}

	nullVal := common.InlineIntNullValue(ti.ArgType)
	if ti.ArgType.IsFloatingPoint() {
		nullVal = int64(math.Float64bits(common.NullDouble))
	}
	vals := make([]int64, 0, len(heap))
	for _, v := range heap {
		if v == nullVal {
			break
		}
		vals = append(vals, v)
	}
	if ti.ArgType.IsFloatingPoint() {
		sort.Slice(vals, func(i, j int) bool {
			a := math.Float64frombits(uint64(vals[i]))
			b := math.Float64frombits(uint64(vals[j]))
			if ti.TopKParam > 0 {
				return a > b
			}
			return a < b
		})
	} else {
		sort.Slice(vals, func(i, j int) bool {
			if ti.TopKParam > 0 {
				return vals[i] > vals[j]
			}
			return vals[i] < vals[j]
		})
	}
	maxSize := ti.TopKParam
	if maxSize < 0 {
		maxSize = -maxSize
	}
	if len(vals) > maxSize {
		vals = vals[:maxSize]
	}
	elems := make([]TargetValue, 0, len(vals))
	for _, raw := range vals {
		if ti.ArgType.IsFloatingPoint() {
			elems = append(elems, FloatValue(ti.ArgType,
				math.Float64frombits(uint64(raw))))
		} else {
			elems = append(elems, IntValue(ti.ArgType, raw))
		}
	}
	return ArrValue(outType, elems)
}

// makeVarlenTargetValue decodes a string or array target. Resolution
// order: lazily fetched from the source column, then the partition's
// separate varlen buffer, then the inline (handle, length) slot pair.
func (rs *ResultSet) makeVarlenTargetValue(storage *ResultStorage, entryIdx, targetIdx, slotIdx int) TargetValue {
	ti := rs._targets[targetIdx]
	layout := storage.Layout()

	if rs.isLazyTarget(targetIdx) {
		width := layout.GetPaddedSlotWidthBytes(slotIdx)
		rowId := storage.ReadSlotInt(entryIdx, slotIdx, width)
		info := rs._lazyFetchInfo[targetIdx]
		payload, ok := rs._lazyFetcher.FetchVarlen(info.LocalColId, rowId)
		if !ok {
			return NullValue(ti.Type)
		}
		return rs.varlenPayloadToValue(ti, payload)
	}

	if rs._separateVarlenValid {
		width := layout.GetPaddedSlotWidthBytes(slotIdx)
		idx := storage.ReadSlotInt(entryIdx, slotIdx, width)
		payload, ok := storage.VarlenAt(idx)
		if !ok {
			return NullValue(ti.Type)
		}
		return rs.varlenPayloadToValue(ti, payload)
	}

	width := layout.GetPaddedSlotWidthBytes(slotIdx)
	handle := storage.ReadSlotInt(entryIdx, slotIdx, width)
	if handle == 0 {
		return NullValue(ti.Type)
	}
	lenWidth := layout.GetPaddedSlotWidthBytes(slotIdx + 1)
	length := storage.ReadSlotInt(entryIdx, slotIdx+1, lenWidth)
	payload := rs._owner.VarlenAt(handle)
	util.AssertFunc(int64(len(payload)) >= length)
	return rs.varlenPayloadToValue(ti, payload[:length])
}

func (rs *ResultSet) varlenPayloadToValue(ti TargetInfo, payload []byte) TargetValue {
	if ti.Type.IsArray() {
		return rs.decodeArrayPayload(ti.Type, payload)
	}
	return StrValue(ti.Type, rs._owner.AddString(string(payload)))
}

// decodeArrayPayload splits a packed fixed-width element buffer into
// list elements, honoring the element type's inline null pattern.
func (rs *ResultSet) decodeArrayPayload(typ common.LType, payload []byte) TargetValue {
	elemType := typ.Elem()
	elemWidth := elemType.CanonicalSize()
	util.AssertFunc(len(payload)%elemWidth == 0)
	count := len(payload) / elemWidth
	elems := make([]TargetValue, 0, count)
	base := util.BytesSliceToPointer(payload)
	for i := 0; i < count; i++ {
		ptr := util.PointerAdd(base, i*elemWidth)
		switch {
		case elemType.IsFp32():
			val := util.Load[float32](ptr)
			if isNullFloat(val) {
				elems = append(elems, NullValue(elemType))
			} else {
				elems = append(elems, FloatValue(elemType, float64(val)))
			}
		case elemType.Id == common.LTID_DOUBLE:
			val := util.Load[float64](ptr)
			if isNullDouble(val) {
				elems = append(elems, NullValue(elemType))
			} else {
				elems = append(elems, FloatValue(elemType, val))
			}
		default:
			raw := readIntFromPtr(ptr, elemWidth)
			if raw == common.InlineIntNullValue(elemType) {
				elems = append(elems, NullValue(elemType))
			} else {
				elems = append(elems, IntValue(elemType, raw))
			}
		}
	}
	return ArrValue(typ, elems)
}

func (rs *ResultSet) isLazyTarget(targetIdx int) bool {
	return targetIdx < len(rs._lazyFetchInfo) &&
		rs._lazyFetchInfo[targetIdx].IsLazilyFetched &&
		rs._lazyFetcher != nil
}

// resolveLazyFixed treats the slot value as a source row id and fetches
// the real value from the source column.
func (rs *ResultSet) resolveLazyFixed(targetIdx int, rowId int64,
	translateStrings, decimalToDouble bool) TargetValue {
	ti := rs._targets[targetIdx]
	info := rs._lazyFetchInfo[targetIdx]
	raw := rs._lazyFetcher.FetchFixed(info.LocalColId, rowId)
	return rs.makeFixedValue(ti, raw, ti.Type.CanonicalSize(),
		translateStrings, decimalToDouble)
}
