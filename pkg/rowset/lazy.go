package rowset

import (
	"github.com/tidwall/btree"

	"github.com/voradb/vora/pkg/util"
)

// ColLazyFetchInfo marks a target whose slot stores the source row id
// instead of the value; the value is fetched from the source column at
// decode time.
type ColLazyFetchInfo struct {
	IsLazilyFetched bool
	LocalColId      int
}

// ChunkResolver hands out source column values for lazy targets.
// fragIdx/rowIdx address a fragment-local row produced by the fragment
// lookup.
type ChunkResolver interface {
	GetNthFixed(fragIdx, localColId int, rowIdx int64) int64
	GetNthVarlen(fragIdx, localColId int, rowIdx int64) ([]byte, bool)
}

type fragStart struct {
	_start int64
	_idx   int
}

// ColumnFragments maps a global row id to (fragment, local row).
// Uniformly sized fragments resolve arithmetically; ragged sizes fall
// back to an ordered search over fragment start offsets.
type ColumnFragments struct {
	_starts   []int64
	_counts   []int64
	_uniform  int64
	_startIdx *btree.BTreeG[fragStart]
}

func NewColumnFragments(rowCounts []int64) *ColumnFragments {
	util.AssertFunc(len(rowCounts) > 0)
	ret := &ColumnFragments{
		_counts:  util.CopyTo(rowCounts),
		_uniform: rowCounts[0],
	}
	start := int64(0)
	for i, cnt := range rowCounts {
		util.AssertFunc(cnt > 0)
		ret._starts = append(ret._starts, start)
		start += cnt
		//the last fragment may run short without breaking uniformity
		if i < len(rowCounts)-1 && cnt != ret._uniform {
			ret._uniform = 0
		}
	}
	if ret._uniform == 0 {
		ret._startIdx = btree.NewBTreeG[fragStart](func(a, b fragStart) bool {
			return a._start < b._start
		})
		for i, s := range ret._starts {
			ret._startIdx.Set(fragStart{_start: s, _idx: i})
		}
	}
	return ret
}

func (frags *ColumnFragments) TotalRows() int64 {
	last := len(frags._counts) - 1
	return frags._starts[last] + frags._counts[last]
}

// Resolve returns the fragment index and fragment-local row for a
// global row id.
func (frags *ColumnFragments) Resolve(globalRow int64) (int, int64) {
	util.AssertFunc(globalRow >= 0 && globalRow < frags.TotalRows())
	if frags._uniform > 0 {
		fragIdx := int(globalRow / frags._uniform)
		return fragIdx, globalRow - int64(fragIdx)*frags._uniform
	}
	var hit fragStart
	frags._startIdx.Descend(fragStart{_start: globalRow, _idx: len(frags._starts)},
		func(item fragStart) bool {
			hit = item
			return false
		})
	return hit._idx, globalRow - hit._start
}

// LazyFetcher pairs the fragment map with a resolver; one per result
// set whenever any target is lazily fetched.
type LazyFetcher struct {
	_frags    *ColumnFragments
	_resolver ChunkResolver
}

func NewLazyFetcher(frags *ColumnFragments, resolver ChunkResolver) *LazyFetcher {
	return &LazyFetcher{_frags: frags, _resolver: resolver}
}

func (fetcher *LazyFetcher) FetchFixed(localColId int, globalRow int64) int64 {
	fragIdx, rowIdx := fetcher._frags.Resolve(globalRow)
	return fetcher._resolver.GetNthFixed(fragIdx, localColId, rowIdx)
}

func (fetcher *LazyFetcher) FetchVarlen(localColId int, globalRow int64) ([]byte, bool) {
	fragIdx, rowIdx := fetcher._frags.Resolve(globalRow)
	return fetcher._resolver.GetNthVarlen(fragIdx, localColId, rowIdx)
}

// SliceChunkResolver serves lazy fetches from in-memory slices,
// indexed fragment then column then row.
type SliceChunkResolver struct {
	Fixed  [][][]int64
	Varlen [][][][]byte
}

func (res *SliceChunkResolver) GetNthFixed(fragIdx, localColId int, rowIdx int64) int64 {
	return res.Fixed[fragIdx][localColId][rowIdx]
}

func (res *SliceChunkResolver) GetNthVarlen(fragIdx, localColId int, rowIdx int64) ([]byte, bool) {
	payload := res.Varlen[fragIdx][localColId][rowIdx]
	return payload, payload != nil
}
