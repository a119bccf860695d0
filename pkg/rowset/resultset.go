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
	"sync"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/util"
)

// ResultSet binds the target list, the layout descriptor, one or more
// storage partitions and the memory owner into the read surface for
// one query result. Row accessors take logical indices: the optional
// permutation is applied first, emptiness and LIMIT/OFFSET after.
type ResultSet struct {
	_targets []TargetInfo
	_layout  *ResultSetLayout
	_storage []*ResultStorage
	_owner   *RowSetMemoryOwner

	_permutation []uint32
	_dropFirst   int64
	_keepFirst   int64

	_lazyFetchInfo []ColLazyFetchInfo
	_lazyFetcher   *LazyFetcher

	_separateVarlenValid bool

	mu sync.Mutex
	//iterator cursor, guarded by mu
	_crtRowBuffIdx int64
	_fetchedSoFar  int64
	_begun         bool

	_cachedRowCount int64
}

func NewResultSet(targets []TargetInfo, layout *ResultSetLayout, owner *RowSetMemoryOwner) *ResultSet {
	util.AssertFunc(owner != nil)
	return &ResultSet{
		_targets:        targets,
		_layout:         layout,
		_owner:          owner,
		_cachedRowCount: -1,
	}
}

func (rs *ResultSet) Owner() *RowSetMemoryOwner {
	return rs._owner
}

func (rs *ResultSet) Layout() *ResultSetLayout {
	return rs._layout
}

func (rs *ResultSet) Targets() []TargetInfo {
	return rs._targets
}

// AllocateStorage creates and attaches the next storage partition.
func (rs *ResultSet) AllocateStorage() *ResultStorage {
	storage := NewResultStorage(rs._layout, rs._targets)
	rs._storage = append(rs._storage, storage)
	rs.invalidateCachedRowCount()
	return storage
}

// AppendStorage attaches an externally built partition; its descriptor
// must agree with this result set's on everything but entry count.
func (rs *ResultSet) AppendStorage(storage *ResultStorage) {
	util.AssertFunc(storage != nil)
	rs._storage = append(rs._storage, storage)
	rs.invalidateCachedRowCount()
}

func (rs *ResultSet) StorageCount() int {
	return len(rs._storage)
}

// SetLazyFetch arms lazy decoding for the flagged targets.
func (rs *ResultSet) SetLazyFetch(info []ColLazyFetchInfo, fetcher *LazyFetcher) {
	rs._lazyFetchInfo = info
	rs._lazyFetcher = fetcher
}

func (rs *ResultSet) SetSeparateVarlenValid(valid bool) {
	rs._separateVarlenValid = valid
}

func (rs *ResultSet) SeparateVarlenValid() bool {
	return rs._separateVarlenValid
}

// SetPermutation installs a sort order over global entry indices.
func (rs *ResultSet) SetPermutation(perm []uint32) {
	rs._permutation = perm
	rs.invalidateCachedRowCount()
}

func (rs *ResultSet) IsPermuted() bool {
	return len(rs._permutation) > 0
}

// SetOffsets applies OFFSET (drop) and LIMIT (keep); keep zero means
// unlimited.
func (rs *ResultSet) SetOffsets(drop, keep int64) {
	util.AssertFunc(drop >= 0 && keep >= 0)
	rs._dropFirst = drop
	rs._keepFirst = keep
	rs.invalidateCachedRowCount()
}

func (rs *ResultSet) EntryCount() int {
	if len(rs._permutation) > 0 {
		return len(rs._permutation)
	}
	total := 0
	for _, storage := range rs._storage {
		total += storage.Layout().EntryCount()
	}
	return total
}

func (rs *ResultSet) ColCount() int {
	return len(rs._targets)
}

// ColType is the decoded type of one output column; AVG always decodes
// to double.
func (rs *ResultSet) ColType(colIdx int) common.LType {
	util.AssertFunc(colIdx >= 0 && colIdx < len(rs._targets))
	ti := rs._targets[colIdx]
	if ti.IsAgg && ti.Kind == AggAvg {
		return common.DoubleType()
	}
	return ti.Type
}

// findStorage maps a global entry index to (partition, local index).
func (rs *ResultSet) findStorage(globalEntryIdx int) (*ResultStorage, int) {
	util.AssertFunc(globalEntryIdx >= 0)
	for _, storage := range rs._storage {
		cnt := storage.Layout().EntryCount()
		if globalEntryIdx < cnt {
			return storage, globalEntryIdx
		}
		globalEntryIdx -= cnt
	}
	panic("entry index out of range")
}

func (rs *ResultSet) permute(logicalIdx int) int {
	if len(rs._permutation) > 0 {
		util.AssertFunc(logicalIdx < len(rs._permutation))
		return int(rs._permutation[logicalIdx])
	}
	return logicalIdx
}

// IsRowAtEmpty reports emptiness of the entry a logical index maps to.
func (rs *ResultSet) IsRowAtEmpty(logicalIdx int) bool {
	storage, localIdx := rs.findStorage(rs.permute(logicalIdx))
	return storage.IsEmptyEntry(localIdx)
}

// GetRowAt decodes the row at a logical index, or nil when the entry is
// empty or out of range.
func (rs *ResultSet) GetRowAt(logicalIdx int, translateStrings, decimalToDouble bool) Row {
	if logicalIdx >= rs.EntryCount() {
		return nil
	}
	return rs.rowAt(rs.permute(logicalIdx), translateStrings, decimalToDouble, nil)
}

// GetRowAtNoTranslations is the fast variant used by the columnar
// converter: no dictionary translation, and targetsToSkip[i] true
// leaves column i as a zero TargetValue.
func (rs *ResultSet) GetRowAtNoTranslations(logicalIdx int, targetsToSkip []bool) Row {
	if logicalIdx >= rs.EntryCount() {
		return nil
	}
	return rs.rowAt(rs.permute(logicalIdx), false, false, targetsToSkip)
}

func (rs *ResultSet) rowAt(globalEntryIdx int, translateStrings, decimalToDouble bool,
	targetsToSkip []bool) Row {
	storage, localIdx := rs.findStorage(globalEntryIdx)
	if storage.IsEmptyEntry(localIdx) {
		return nil
	}
	row := make(Row, 0, len(rs._targets))
	slotIdx := 0
	for targetIdx, ti := range rs._targets {
		if len(targetsToSkip) > 0 && targetsToSkip[targetIdx] {
			row = append(row, TargetValue{Typ: ti.Type})
		} else {
			row = append(row, rs.makeTargetValue(storage, localIdx, targetIdx,
				slotIdx, translateStrings, decimalToDouble))
		}
		slotIdx = AdvanceSlot(slotIdx, ti, rs._separateVarlenValid)
	}
	return row
}

// OneIntegerColumnRow is the single-column fast path result.
type OneIntegerColumnRow struct {
	Value int64
	Valid bool
}

// GetOneColRow reads the first target of an entry without translation.
// Valid is false for empty entries and null values.
func (rs *ResultSet) GetOneColRow(globalEntryIdx int) OneIntegerColumnRow {
	storage, localIdx := rs.findStorage(globalEntryIdx)
	if storage.IsEmptyEntry(localIdx) {
		return OneIntegerColumnRow{}
	}
	val := rs.makeTargetValue(storage, localIdx, 0, 0, false, false)
	if val.IsNull {
		return OneIntegerColumnRow{}
	}
	return OneIntegerColumnRow{Value: val.I64, Valid: true}
}

// FixupCountDistinctPointers applies the pending count-distinct handle
// rewrites of every partition, once.
func (rs *ResultSet) FixupCountDistinctPointers() {
	for _, storage := range rs._storage {
		storage.rewriteCountDistinctHandles(rs._owner, rs._separateVarlenValid)
	}
}

func (rs *ResultSet) invalidateCachedRowCount() {
	rs.mu.Lock()
	rs._cachedRowCount = -1
	rs.mu.Unlock()
}

// RowCount counts non-empty entries after LIMIT/OFFSET. Projection
// buffers are dense so the count is arithmetic; grouped buffers scan.
func (rs *ResultSet) RowCount() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs._cachedRowCount >= 0 {
		return rs._cachedRowCount
	}
	var total int64
	if rs._layout.QueryType() == QDT_Projection {
		total = int64(rs.EntryCount())
	} else {
		for idx := 0; idx < rs.EntryCount(); idx++ {
			if !rs.IsRowAtEmpty(idx) {
				total++
			}
		}
	}
	total -= rs._dropFirst
	if total < 0 {
		total = 0
	}
	if rs._keepFirst > 0 && total > rs._keepFirst {
		total = rs._keepFirst
	}
	rs._cachedRowCount = total
	return total
}
