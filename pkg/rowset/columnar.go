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
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/util"
)

// ColumnarBuffer is one converted output column: packed values at the
// type's canonical width. Validity is nil when the column has no nulls;
// dictionary columns keep their ids in Data and carry the densified
// dictionary in Dict.
type ColumnarBuffer struct {
	Typ       common.LType
	Data      *util.ByteBuffer
	Validity  *util.Bitmap
	NullCount int64
	Dict      *DictionaryExport
}

// ColumnarResults is the column-major rendition of a result set.
type ColumnarResults struct {
	_columns  []*ColumnarBuffer
	_rowCount int64
	_direct   bool
}

func (cr *ColumnarResults) RowCount() int64 {
	return cr._rowCount
}

func (cr *ColumnarResults) ColCount() int {
	return len(cr._columns)
}

func (cr *ColumnarResults) Column(colIdx int) *ColumnarBuffer {
	return cr._columns[colIdx]
}

// WasDirect reports whether the bulk path ran, for tests and timing.
func (cr *ColumnarResults) WasDirect() bool {
	return cr._direct
}

func colNullPattern(typ common.LType) int64 {
	switch {
	case typ.IsFp32():
		return int64(int32(math.Float32bits(common.NullFloat)))
	case typ.Id == common.LTID_DOUBLE:
		return int64(math.Float64bits(common.NullDouble))
	default:
		return common.InlineIntNullValue(typ)
	}
}

func convertibleType(typ common.LType) bool {
	if typ.IsArray() {
		return false
	}
	if typ.IsString() {
		return false
	}
	return true
}

// canConvertDirectly gates the bulk path: dense projection entries in
// their stored order, every target readable as fixed-width raw bytes.
func canConvertDirectly(rs *ResultSet, opts *util.ConvertOptions) bool {
	if opts.ForceRowWiseFallback {
		return false
	}
	if rs._layout.QueryType() != QDT_Projection {
		return false
	}
	if rs.IsPermuted() || rs._dropFirst > 0 || rs._keepFirst > 0 {
		return false
	}
	for targetIdx, ti := range rs._targets {
		if rs.isLazyTarget(targetIdx) {
			return false
		}
		//bools and datetimes change width on the way out
		if ti.Type.IsBoolean() || ti.Type.IsDateTime() {
			return false
		}
		if UsesTwoSlots(ti, rs._separateVarlenValid) {
			return false
		}
	}
	return true
}

// ConvertToColumnar renders a result set column-major. Projection
// results without reordering take a bulk per-column copy, fanned out
// over a worker pool; everything else decodes row by row.
func ConvertToColumnar(rs *ResultSet, opts *util.ConvertOptions) (*ColumnarResults, error) {
	if opts == nil {
		opts = &util.DefaultConfig().Convert
	}
	for colIdx := range rs._targets {
		if !convertibleType(rs.ColType(colIdx)) {
			return nil, fmt.Errorf("unsupported type for columnar conversion: %v",
				rs.ColType(colIdx))
		}
	}
	if canConvertDirectly(rs, opts) {
		return convertDirect(rs, opts)
	}
	return convertRowWise(rs, opts)
}

func targetSlotIndices(rs *ResultSet) []int {
	slots := make([]int, len(rs._targets))
	slotIdx := 0
	for targetIdx, ti := range rs._targets {
		slots[targetIdx] = slotIdx
		slotIdx = AdvanceSlot(slotIdx, ti, rs._separateVarlenValid)
	}
	return slots
}

func newColumnarBuffer(typ common.LType, rowCount int64) *ColumnarBuffer {
	width := typ.CanonicalSize()
	size := int(rowCount) * width
	if size == 0 {
		size = width
	}
	return &ColumnarBuffer{
		Typ:  typ,
		Data: util.NewByteBuffer(size),
	}
}

func convertDirect(rs *ResultSet, opts *util.ConvertOptions) (*ColumnarResults, error) {
	rowCount := int64(rs.EntryCount())
	cols := make([]*ColumnarBuffer, len(rs._targets))
	slots := targetSlotIndices(rs)

	workers := opts.WorkerCount
	if workers < 1 {
		workers = 1
	}
	var eg errgroup.Group
	eg.SetLimit(workers)
	for colIdx := range rs._targets {
		colIdx := colIdx
		eg.Go(func() error {
			col := newColumnarBuffer(rs.ColType(colIdx), rowCount)
			copyColumnDirect(rs, slots[colIdx], col)
			if col.Typ.IsExtDictionary() {
				normalizeDictNulls(col, rowCount)
			}
			finalizeValidity(col, rowCount)
			cols[colIdx] = col
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := remapDictColumns(rs, cols, rowCount, opts); err != nil {
		return nil, err
	}
	util.Info("columnar conversion",
		zap.Int64("rows", rowCount),
		zap.Int("cols", len(cols)),
		zap.Bool("direct", true))
	return &ColumnarResults{_columns: cols, _rowCount: rowCount, _direct: true}, nil
}

// copyColumnDirect fills one output column from every partition in
// order. A columnar source whose padded width matches the output width
// is a straight byte copy; otherwise entries are read strided.
func copyColumnDirect(rs *ResultSet, slotIdx int, col *ColumnarBuffer) {
	dstWidth := col.Typ.CanonicalSize()
	dstRow := 0
	for _, storage := range rs._storage {
		layout := storage.Layout()
		entryCount := layout.EntryCount()
		srcWidth := layout.GetPaddedSlotWidthBytes(slotIdx)
		if layout.DidOutputColumnar() && srcWidth == dstWidth {
			srcOff := layout.GetColOffInBytes(slotIdx)
			size := entryCount * srcWidth
			copy(col.Data.Bytes()[dstRow*dstWidth:],
				storage.Buffer().Bytes()[srcOff:srcOff+size])
		} else {
			for entryIdx := 0; entryIdx < entryCount; entryIdx++ {
				raw := storage.ReadSlotInt(entryIdx, slotIdx, srcWidth)
				writeIntToPtr(col.Data.PtrAt((dstRow+entryIdx)*dstWidth, dstWidth),
					raw, dstWidth)
			}
		}
		dstRow += entryCount
	}
}

// normalizeDictNulls rewrites the dictionary's reserved null id to the
// integer null pattern, so the validity scan and the id remap see one
// representation regardless of which form the writer stored.
func normalizeDictNulls(col *ColumnarBuffer, rowCount int64) {
	ids := util.PointerToSlice[int32](col.Data.Ptr(), int(rowCount))
	for row := range ids {
		if ids[row] == dictNullId {
			ids[row] = int32(common.NullInt)
		}
	}
}

// finalizeValidity scans the packed column for the null pattern. The
// bitmap is materialized only when at least one null shows up.
func finalizeValidity(col *ColumnarBuffer, rowCount int64) {
	if col.Typ.NotNull {
		return
	}
	width := col.Typ.CanonicalSize()
	nullVal := colNullPattern(col.Typ)
	var bm *util.Bitmap
	for row := int64(0); row < rowCount; row++ {
		raw := readIntFromPtr(col.Data.PtrAt(int(row)*width, width), width)
		if raw == nullVal {
			if bm == nil {
				bm = &util.Bitmap{}
				bm.Init(int(rowCount))
			}
			bm.SetInvalid(uint64(row))
			col.NullCount++
		}
	}
	col.Validity = bm
}

// remapDictColumns densifies each dictionary column's ids in place and
// attaches the exported dictionary.
func remapDictColumns(rs *ResultSet, cols []*ColumnarBuffer, rowCount int64,
	opts *util.ConvertOptions) error {
	for colIdx, col := range cols {
		typ := rs.ColType(colIdx)
		if !typ.IsExtDictionary() {
			continue
		}
		proxy := rs._owner.GetDictProxy(typ.DictId)
		if proxy == nil {
			return fmt.Errorf("no dictionary proxy for dict %d", typ.DictId)
		}
		ids := util.PointerToSlice[int32](col.Data.Ptr(), int(rowCount))
		export := BuildDictionaryExport(proxy, ids, opts.DictPluckThreshold)
		for row := range ids {
			if IsNullDictId(ids[row]) {
				continue
			}
			ids[row] = export.Remap[ids[row]]
		}
		col.Dict = export
	}
	return nil
}

// convertRowWise decodes rows in iteration order and scatters them into
// columns. Reordered or limited results keep a single decoding pass;
// otherwise the collected row indices are split across workers.
func convertRowWise(rs *ResultSet, opts *util.ConvertOptions) (*ColumnarResults, error) {
	indices := rs.collectRowIndices()
	rowCount := int64(len(indices))
	cols := make([]*ColumnarBuffer, len(rs._targets))
	for colIdx := range rs._targets {
		cols[colIdx] = newColumnarBuffer(rs.ColType(colIdx), rowCount)
	}

	limited := rs._dropFirst > 0 || rs._keepFirst > 0
	if limited || rowCount < int64(opts.MinRowsForParallel) || opts.WorkerCount <= 1 {
		fillRowRange(rs, cols, indices, 0, len(indices))
	} else {
		var eg errgroup.Group
		eg.SetLimit(opts.WorkerCount)
		chunk := (len(indices) + opts.WorkerCount - 1) / opts.WorkerCount
		for lo := 0; lo < len(indices); lo += chunk {
			lo := lo
			hi := util.Min(lo+chunk, len(indices))
			eg.Go(func() error {
				fillRowRange(rs, cols, indices, lo, hi)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}
	for _, col := range cols {
		finalizeValidity(col, rowCount)
	}
	if err := remapDictColumns(rs, cols, rowCount, opts); err != nil {
		return nil, err
	}
	util.Info("columnar conversion",
		zap.Int64("rows", rowCount),
		zap.Int("cols", len(cols)),
		zap.Bool("direct", false))
	return &ColumnarResults{_columns: cols, _rowCount: rowCount}, nil
}

// collectRowIndices lists the logical indices of the rows the iteration
// engine would produce, in order.
func (rs *ResultSet) collectRowIndices() []int {
	indices := make([]int, 0, rs.EntryCount())
	fetched := int64(0)
	skipped := int64(0)
	for logicalIdx := 0; logicalIdx < rs.EntryCount(); logicalIdx++ {
		if rs.IsRowAtEmpty(logicalIdx) {
			continue
		}
		if skipped < rs._dropFirst {
			skipped++
			continue
		}
		if rs._keepFirst > 0 && fetched >= rs._keepFirst {
			break
		}
		indices = append(indices, logicalIdx)
		fetched++
	}
	return indices
}

func fillRowRange(rs *ResultSet, cols []*ColumnarBuffer, indices []int, lo, hi int) {
	for pos := lo; pos < hi; pos++ {
		row := rs.GetRowAtNoTranslations(indices[pos], nil)
		util.AssertFunc(row != nil)
		for colIdx, col := range cols {
			writeColumnValue(col, pos, rs.ColType(colIdx), row[colIdx])
		}
	}
}

// writeColumnValue packs one decoded value, substituting the type's
// null pattern for nulls.
func writeColumnValue(col *ColumnarBuffer, row int, typ common.LType, val TargetValue) {
	width := typ.CanonicalSize()
	ptr := col.Data.PtrAt(row*width, width)
	if val.IsNull {
		writeIntToPtr(ptr, colNullPattern(typ), width)
		return
	}
	switch {
	case typ.IsFp32():
		util.Store[float32](float32(val.F64), ptr)
	case typ.Id == common.LTID_DOUBLE:
		util.Store[float64](val.F64, ptr)
	default:
		writeIntToPtr(ptr, val.I64, width)
	}
}

// CopyColumnIntoBuffer bulk-copies one column of a directly convertible
// result set into a caller-owned buffer.
func CopyColumnIntoBuffer(rs *ResultSet, colIdx int, dst *util.ByteBuffer) error {
	opts := &util.DefaultConfig().Convert
	if !canConvertDirectly(rs, opts) {
		return fmt.Errorf("result set does not support direct column copy")
	}
	typ := rs.ColType(colIdx)
	if !convertibleType(typ) {
		return fmt.Errorf("unsupported type for columnar conversion: %v", typ)
	}
	need := rs.EntryCount() * typ.CanonicalSize()
	if dst.Size() < need {
		return fmt.Errorf("destination buffer too small: %d < %d", dst.Size(), need)
	}
	col := &ColumnarBuffer{Typ: typ, Data: dst}
	copyColumnDirect(rs, targetSlotIndices(rs)[colIdx], col)
	return nil
}
