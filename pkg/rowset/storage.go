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
	"unsafe"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/util"
)

// ResultStorage is one storage partition: a raw entry buffer laid out
// per its own cloned descriptor, plus an optional separate varlen
// buffer. Varlen slots then hold an index into that buffer, -1 for
// null.
type ResultStorage struct {
	_layout  *ResultSetLayout
	_targets []TargetInfo
	_buff    *util.ByteBuffer

	_varlenBuffer [][]byte
	_hasVarlen    bool

	//count-distinct handle rewrites pending application
	_cdRemap map[int64]int64
}

func NewResultStorage(layout *ResultSetLayout, targets []TargetInfo) *ResultStorage {
	return &ResultStorage{
		_layout:  layout.Copy(),
		_targets: targets,
		_buff:    util.NewByteBuffer(layout.GetBufferSizeBytes()),
		_cdRemap: make(map[int64]int64),
	}
}

func (storage *ResultStorage) Layout() *ResultSetLayout {
	return storage._layout
}

func (storage *ResultStorage) Buffer() *util.ByteBuffer {
	return storage._buff
}

func (storage *ResultStorage) EnableVarlenBuffer() {
	storage._hasVarlen = true
}

func (storage *ResultStorage) HasVarlenBuffer() bool {
	return storage._hasVarlen
}

func (storage *ResultStorage) slotOff(entryIdx, slotIdx int) int {
	layout := storage._layout
	util.AssertFunc(entryIdx >= 0 && entryIdx < layout.EntryCount())
	if layout.DidOutputColumnar() {
		return layout.GetColOffInBytes(slotIdx) +
			entryIdx*layout.GetPaddedSlotWidthBytes(slotIdx)
	}
	return entryIdx*layout.GetRowSize() + layout.GetColOffInBytes(slotIdx)
}

func (storage *ResultStorage) keyOff(entryIdx, keyIdx int) int {
	layout := storage._layout
	util.AssertFunc(entryIdx >= 0 && entryIdx < layout.EntryCount())
	util.AssertFunc(keyIdx >= 0 && keyIdx < layout.KeyCount())
	if layout.DidOutputColumnar() {
		return keyIdx*layout.KeyWidth()*layout.EntryCount() +
			entryIdx*layout.KeyWidth()
	}
	return entryIdx*layout.GetRowSize() + keyIdx*layout.KeyWidth()
}

// SlotPtr addresses a slot for a read or write of width bytes.
func (storage *ResultStorage) SlotPtr(entryIdx, slotIdx, width int) unsafe.Pointer {
	return storage._buff.PtrAt(storage.slotOff(entryIdx, slotIdx), width)
}

func (storage *ResultStorage) KeyPtr(entryIdx, keyIdx int) unsafe.Pointer {
	return storage._buff.PtrAt(storage.keyOff(entryIdx, keyIdx),
		storage._layout.KeyWidth())
}

// ReadSlotInt sign-extends the slot's low width bytes.
func (storage *ResultStorage) ReadSlotInt(entryIdx, slotIdx, width int) int64 {
	return readIntFromPtr(storage.SlotPtr(entryIdx, slotIdx, width), width)
}

// ReadKeyInt sign-extends a key slot read at the given width, which may
// be narrower than the stored key width.
func (storage *ResultStorage) ReadKeyInt(entryIdx, keyIdx, width int) int64 {
	util.AssertFunc(width <= storage._layout.KeyWidth())
	return readIntFromPtr(storage.KeyPtr(entryIdx, keyIdx), width)
}

// IsEmptyEntry reports whether the entry holds no group. Projection and
// non-grouped aggregate buffers are dense; keyless perfect hash judges
// by the designated target slot; everything else judges by the first
// key slot.
func (storage *ResultStorage) IsEmptyEntry(entryIdx int) bool {
	layout := storage._layout
	switch layout.QueryType() {
	case QDT_Projection, QDT_NonGroupedAggregate:
		return false
	}
	if layout.HasKeylessHash() {
		targetIdx := layout.TargetIdxForKey()
		width := layout.GetPaddedSlotWidthBytes(targetIdx)
		return storage.ReadSlotInt(entryIdx, targetIdx, width) ==
			layout.EmptySentinel()
	}
	width := layout.GetEffectiveKeyWidth()
	return storage.ReadKeyInt(entryIdx, 0, width) ==
		common.EmptyKeyForWidth(width)
}

// InitEmpty marks every entry empty so producers can fill selectively.
func (storage *ResultStorage) InitEmpty() {
	layout := storage._layout
	switch layout.QueryType() {
	case QDT_Projection, QDT_NonGroupedAggregate:
		return
	}
	for entryIdx := 0; entryIdx < layout.EntryCount(); entryIdx++ {
		if layout.HasKeylessHash() {
			targetIdx := layout.TargetIdxForKey()
			width := layout.GetPaddedSlotWidthBytes(targetIdx)
			storage.SetSlotInt(entryIdx, targetIdx, layout.EmptySentinel(), width)
			continue
		}
		sentinel := common.EmptyKeyForWidth(layout.GetEffectiveKeyWidth())
		storage.SetKey(entryIdx, 0, sentinel)
	}
}

func writeIntToPtr(ptr unsafe.Pointer, val int64, width int) {
	switch width {
	case 1:
		util.Store[int8](int8(val), ptr)
	case 2:
		util.Store[int16](int16(val), ptr)
	case 4:
		util.Store[int32](int32(val), ptr)
	case 8:
		util.Store[int64](val, ptr)
	default:
		panic("usp slot width")
	}
}

func (storage *ResultStorage) SetKey(entryIdx, keyIdx int, val int64) {
	writeIntToPtr(storage.KeyPtr(entryIdx, keyIdx), val,
		storage._layout.KeyWidth())
}

func (storage *ResultStorage) SetSlotInt(entryIdx, slotIdx int, val int64, width int) {
	writeIntToPtr(storage.SlotPtr(entryIdx, slotIdx, width), val, width)
}

func (storage *ResultStorage) SetSlotFloat(entryIdx, slotIdx int, val float32) {
	util.Store[float32](val, storage.SlotPtr(entryIdx, slotIdx, 4))
}

func (storage *ResultStorage) SetSlotDouble(entryIdx, slotIdx int, val float64) {
	util.Store[float64](val, storage.SlotPtr(entryIdx, slotIdx, 8))
}

// AppendVarlen stores a payload in the separate varlen buffer and
// writes its index into the slot.
func (storage *ResultStorage) AppendVarlen(entryIdx, slotIdx int, payload []byte) {
	util.AssertFunc(storage._hasVarlen)
	idx := int64(len(storage._varlenBuffer))
	storage._varlenBuffer = append(storage._varlenBuffer, payload)
	width := storage._layout.GetPaddedSlotWidthBytes(slotIdx)
	storage.SetSlotInt(entryIdx, slotIdx, idx, width)
}

func (storage *ResultStorage) SetVarlenNull(entryIdx, slotIdx int) {
	util.AssertFunc(storage._hasVarlen)
	width := storage._layout.GetPaddedSlotWidthBytes(slotIdx)
	storage.SetSlotInt(entryIdx, slotIdx, -1, width)
}

// VarlenAt resolves a varlen slot value; false means null.
func (storage *ResultStorage) VarlenAt(idx int64) ([]byte, bool) {
	if idx < 0 {
		return nil, false
	}
	util.AssertFunc(idx < int64(len(storage._varlenBuffer)))
	return storage._varlenBuffer[idx], true
}

// AddCountDistinctMapping records a handle rewrite to be applied by
// FixupCountDistinctPointers after partitions are merged.
func (storage *ResultStorage) AddCountDistinctMapping(oldHandle, newHandle int64) {
	storage._cdRemap[oldHandle] = newHandle
}

func (storage *ResultStorage) rewriteCountDistinctHandles(owner *RowSetMemoryOwner, separateVarlenValid bool) {
	layout := storage._layout
	for entryIdx := 0; entryIdx < layout.EntryCount(); entryIdx++ {
		slotIdx := 0
		for targetIdx, ti := range storage._targets {
			if IsDistinctTarget(ti) && layout.HasCountDistinct(targetIdx) {
				width := layout.GetPaddedSlotWidthBytes(slotIdx)
				handle := storage.ReadSlotInt(entryIdx, slotIdx, width)
				if handle != 0 {
					if mapped, has := storage._cdRemap[handle]; has {
						storage.SetSlotInt(entryIdx, slotIdx, mapped, width)
					} else if !owner.ValidCountDistinctHandle(handle) {
						//a foreign handle with no mapping gets a fresh empty
						//accumulator, so the entry decodes to zero not a fault
						fresh := owner.NewCountDistinctBuffer(
							layout.GetCountDistinctDescriptor(targetIdx))
						storage._cdRemap[handle] = fresh
						storage.SetSlotInt(entryIdx, slotIdx, fresh, width)
					}
				}
			}
			slotIdx = AdvanceSlot(slotIdx, ti, separateVarlenValid)
		}
	}
	storage._cdRemap = make(map[int64]int64)
}
