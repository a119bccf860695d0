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

	"github.com/petermattis/goid"
	"golang.org/x/sync/syncmap"

	"github.com/voradb/vora/pkg/util"
)

// RowSetMemoryOwner owns every out-of-line allocation a result set can
// reference through a slot handle: count-distinct accumulators,
// quantile accumulators, top-k buffers, varlen payloads and dictionary
// proxies. Handles are 1-based; handle 0 means never initialized.
// The owner outlives every result set that references it.
type RowSetMemoryOwner struct {
	_strArenas syncmap.Map

	_cdMu   sync.Mutex
	_cdAccs []countDistinctAcc

	_quantMu   sync.Mutex
	_quantAccs []QuantileAcc

	_topkMu   sync.Mutex
	_topkBufs [][]int64

	_varlenMu sync.Mutex
	_varlen   [][]byte

	_dictProxies syncmap.Map
}

func NewRowSetMemoryOwner() *RowSetMemoryOwner {
	return &RowSetMemoryOwner{}
}

type stringArena struct {
	mu   sync.Mutex
	strs []string
}

// AddString copies the string into the calling goroutine's arena and
// returns the copy. Concurrent decoders never share an arena, so the
// per-arena lock is uncontended.
func (owner *RowSetMemoryOwner) AddString(str string) string {
	gid := goid.Get()
	val, _ := owner._strArenas.LoadOrStore(gid, &stringArena{})
	arena := val.(*stringArena)
	cpy := string([]byte(str))
	arena.mu.Lock()
	arena.strs = append(arena.strs, cpy)
	arena.mu.Unlock()
	return cpy
}

// NewCountDistinctBuffer allocates an accumulator for the descriptor
// and returns its handle.
func (owner *RowSetMemoryOwner) NewCountDistinctBuffer(desc CountDistinctDescriptor) int64 {
	return owner.importCountDistinct(newCountDistinctAcc(desc))
}

func (owner *RowSetMemoryOwner) importCountDistinct(acc countDistinctAcc) int64 {
	owner._cdMu.Lock()
	defer owner._cdMu.Unlock()
	owner._cdAccs = append(owner._cdAccs, acc)
	return int64(len(owner._cdAccs))
}

func (owner *RowSetMemoryOwner) ValidCountDistinctHandle(handle int64) bool {
	owner._cdMu.Lock()
	defer owner._cdMu.Unlock()
	return handle > 0 && handle <= int64(len(owner._cdAccs))
}

func (owner *RowSetMemoryOwner) CountDistinctAt(handle int64) countDistinctAcc {
	owner._cdMu.Lock()
	defer owner._cdMu.Unlock()
	util.AssertFunc(handle > 0 && handle <= int64(len(owner._cdAccs)))
	return owner._cdAccs[handle-1]
}

// InsertCountDistinct is the producer-side feed path.
func (owner *RowSetMemoryOwner) InsertCountDistinct(handle int64, val int64) {
	owner.CountDistinctAt(handle).insert(val)
}

// NewQuantileAcc allocates a quantile accumulator, exact or sketched,
// and returns its handle.
func (owner *RowSetMemoryOwner) NewQuantileAcc(approx bool) int64 {
	owner._quantMu.Lock()
	defer owner._quantMu.Unlock()
	if approx {
		owner._quantAccs = append(owner._quantAccs, newApproxQuantile())
	} else {
		owner._quantAccs = append(owner._quantAccs, newExactQuantile())
	}
	return int64(len(owner._quantAccs))
}

func (owner *RowSetMemoryOwner) QuantileAt(handle int64) QuantileAcc {
	owner._quantMu.Lock()
	defer owner._quantMu.Unlock()
	util.AssertFunc(handle > 0 && handle <= int64(len(owner._quantAccs)))
	return owner._quantAccs[handle-1]
}

// NewTopKBuffer allocates a heap buffer of the given capacity with
// every element preset to the null pattern of the element width.
func (owner *RowSetMemoryOwner) NewTopKBuffer(capacity int, nullVal int64) int64 {
	util.AssertFunc(capacity > 0)
	buf := make([]int64, capacity)
	for i := range buf {
		buf[i] = nullVal
	}
	owner._topkMu.Lock()
	defer owner._topkMu.Unlock()
	owner._topkBufs = append(owner._topkBufs, buf)
	return int64(len(owner._topkBufs))
}

func (owner *RowSetMemoryOwner) TopKBufferAt(handle int64) []int64 {
	owner._topkMu.Lock()
	defer owner._topkMu.Unlock()
	util.AssertFunc(handle > 0 && handle <= int64(len(owner._topkBufs)))
	return owner._topkBufs[handle-1]
}

// AddVarlen stores a varlen payload and returns its handle. Used when
// varlen values stay inline in the slot pair rather than in a storage
// partition's separate varlen buffer.
func (owner *RowSetMemoryOwner) AddVarlen(payload []byte) int64 {
	cpy := make([]byte, len(payload))
	copy(cpy, payload)
	owner._varlenMu.Lock()
	defer owner._varlenMu.Unlock()
	owner._varlen = append(owner._varlen, cpy)
	return int64(len(owner._varlen))
}

func (owner *RowSetMemoryOwner) VarlenAt(handle int64) []byte {
	owner._varlenMu.Lock()
	defer owner._varlenMu.Unlock()
	util.AssertFunc(handle > 0 && handle <= int64(len(owner._varlen)))
	return owner._varlen[handle-1]
}

func (owner *RowSetMemoryOwner) RegisterDictProxy(proxy *StringDictProxy) {
	owner._dictProxies.Store(proxy.DictId(), proxy)
}

// GetDictProxy returns the proxy for a dictionary id, or nil when none
// was registered.
func (owner *RowSetMemoryOwner) GetDictProxy(dictId int32) *StringDictProxy {
	val, has := owner._dictProxies.Load(dictId)
	if !has {
		return nil
	}
	return val.(*StringDictProxy)
}
