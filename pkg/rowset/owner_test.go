package rowset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerHandlesAreOneBased(t *testing.T) {
	owner := NewRowSetMemoryOwner()
	desc := CountDistinctDescriptor{Impl: CountDistinctHashSet}
	first := owner.NewCountDistinctBuffer(desc)
	second := owner.NewCountDistinctBuffer(desc)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.NotSame(t, owner.CountDistinctAt(first), owner.CountDistinctAt(second))
}

func TestOwnerVarlenRoundTrip(t *testing.T) {
	owner := NewRowSetMemoryOwner()
	payload := []byte("payload")
	handle := owner.AddVarlen(payload)
	//the owner keeps its own copy
	payload[0] = 'X'
	assert.Equal(t, []byte("payload"), owner.VarlenAt(handle))
}

func TestOwnerConcurrentStrings(t *testing.T) {
	owner := NewRowSetMemoryOwner()
	var wg sync.WaitGroup
	out := make([]string, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				out[g] = owner.AddString("abc")
			}
		}(g)
	}
	wg.Wait()
	for _, s := range out {
		assert.Equal(t, "abc", s)
	}
}

func TestOwnerTopKBufferPreset(t *testing.T) {
	owner := NewRowSetMemoryOwner()
	handle := owner.NewTopKBuffer(4, -99)
	buf := owner.TopKBufferAt(handle)
	require.Len(t, buf, 4)
	for _, v := range buf {
		assert.Equal(t, int64(-99), v)
	}
}
