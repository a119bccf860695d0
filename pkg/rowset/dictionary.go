package rowset

import (
	"sync"

	"github.com/tidwall/btree"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/util"
)

type dictEntry struct {
	_str string
	_id  int32
}

// StringDictProxy fronts one string dictionary. Ids >= 0 address the
// shared backing dictionary; transient ids added through the proxy run
// from -2 downward (-1 is reserved as the inline null id). Lookups are
// safe for concurrent decoders.
type StringDictProxy struct {
	_dictId  int32
	_backing []string

	mu          sync.RWMutex
	_transients []string
	_index      *btree.BTreeG[dictEntry]
}

func NewStringDictProxy(dictId int32, backing []string) *StringDictProxy {
	util.AssertFunc(dictId != 0)
	idx := btree.NewBTreeG[dictEntry](func(a, b dictEntry) bool {
		return a._str < b._str
	})
	for i, str := range backing {
		idx.Set(dictEntry{_str: str, _id: int32(i)})
	}
	return &StringDictProxy{
		_dictId:  dictId,
		_backing: backing,
		_index:   idx,
	}
}

func (proxy *StringDictProxy) DictId() int32 {
	return proxy._dictId
}

// EntryCount counts backing plus transient entries.
func (proxy *StringDictProxy) EntryCount() int {
	proxy.mu.RLock()
	defer proxy.mu.RUnlock()
	return len(proxy._backing) + len(proxy._transients)
}

// GetString resolves an id. The second return is false for the null id
// and for ids outside the dictionary.
func (proxy *StringDictProxy) GetString(id int32) (string, bool) {
	if IsNullDictId(id) {
		return "", false
	}
	if id >= 0 {
		if int(id) >= len(proxy._backing) {
			return "", false
		}
		return proxy._backing[id], true
	}
	proxy.mu.RLock()
	defer proxy.mu.RUnlock()
	slot := int(-id) - 2
	if slot < 0 || slot >= len(proxy._transients) {
		return "", false
	}
	return proxy._transients[slot], true
}

// GetIdOfString returns the id for a string, or the null id when the
// string is in neither the backing dictionary nor the transients.
func (proxy *StringDictProxy) GetIdOfString(str string) int32 {
	proxy.mu.RLock()
	defer proxy.mu.RUnlock()
	if ent, has := proxy._index.Get(dictEntry{_str: str}); has {
		return ent._id
	}
	return dictNullId
}

// GetOrAddTransient interns a string absent from the backing
// dictionary under a fresh transient id.
func (proxy *StringDictProxy) GetOrAddTransient(str string) int32 {
	proxy.mu.Lock()
	defer proxy.mu.Unlock()
	if ent, has := proxy._index.Get(dictEntry{_str: str}); has {
		return ent._id
	}
	proxy._transients = append(proxy._transients, str)
	id := int32(-len(proxy._transients) - 1)
	proxy._index.Set(dictEntry{_str: str, _id: id})
	return id
}

// dictNullId is the proxy's invalid-id; slots additionally encode null
// strings as the 4-byte inline null pattern.
const dictNullId = int32(-1)

func DictNullId() int32 {
	return dictNullId
}

func IsNullDictId(id int32) bool {
	return id == dictNullId || int64(id) == common.NullInt
}

/// DictionaryExport is a dense dictionary for one exported column:
// Remap takes slot ids to indices into Strings.
type DictionaryExport struct {
	Strings []string
	Remap   map[int32]int32
}

// BuildDictionaryExport densifies the ids of one column. When the
// distinct ratio is below the pluck threshold only the referenced
// strings are fetched; otherwise the whole proxy is copied and remapped
// in order.
func BuildDictionaryExport(proxy *StringDictProxy, ids []int32, pluckThreshold float64) *DictionaryExport {
	distinct := make(map[int32]struct{})
	for _, id := range ids {
		if !IsNullDictId(id) {
			distinct[id] = struct{}{}
		}
	}
	ret := &DictionaryExport{Remap: make(map[int32]int32, len(distinct))}
	if len(ids) > 0 &&
		float64(len(distinct))/float64(len(ids)) < pluckThreshold {
		for _, id := range ids {
			if IsNullDictId(id) {
				continue
			}
			if _, has := ret.Remap[id]; has {
				continue
			}
			str, ok := proxy.GetString(id)
			util.AssertFunc(ok)
			ret.Remap[id] = int32(len(ret.Strings))
			ret.Strings = append(ret.Strings, str)
		}
		return ret
	}
	proxy.mu.RLock()
	backing := proxy._backing
	transients := util.CopyTo(proxy._transients)
	proxy.mu.RUnlock()
	for i, str := range backing {
		ret.Remap[int32(i)] = int32(len(ret.Strings))
		ret.Strings = append(ret.Strings, str)
	}
	for i, str := range transients {
		ret.Remap[int32(-i-2)] = int32(len(ret.Strings))
		ret.Strings = append(ret.Strings, str)
	}
	return ret
}
