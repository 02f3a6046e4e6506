package actor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCell(name string) *actorCell {
	return &actorCell{pid: &PID{ID: name}}
}

func TestRegistryAddRemove(t *testing.T) {
	r := newRegistry()
	a := testCell("a")

	require.True(t, r.add(a))
	assert.False(t, r.add(testCell("a")))

	got, ok := r.get("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	// 同名的其他 cell 不会删除当前注册项
	r.remove(testCell("a"))
	_, ok = r.get("a")
	assert.True(t, ok)

	r.remove(a)
	_, ok = r.get("a")
	assert.False(t, ok)
}

func TestRegistrySnapshot(t *testing.T) {
	r := newRegistry()
	for i := 0; i < 200; i++ {
		require.True(t, r.add(testCell(fmt.Sprintf("actor-%d", i))))
	}

	assert.Equal(t, 200, r.count())
	assert.Len(t, r.snapshot(), 200)

	used := 0
	for i := range r.shards {
		if len(r.shards[i].cells) > 0 {
			used++
		}
	}
	assert.Greater(t, used, registryShards/2)
}
