package actor

import (
	"sync"

	"github.com/twmb/murmur3"
)

const registryShards = 32

// registry 按名称分片的 Actor 注册表
// 只在创建、终止和查找时访问，消息投递直接通过 PID 持有的 cell，不经过注册表
type registry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu    sync.RWMutex
	cells map[string]*actorCell
}

func newRegistry() *registry {
	r := &registry{}
	for i := range r.shards {
		r.shards[i].cells = make(map[string]*actorCell)
	}
	return r
}

func (r *registry) shard(name string) *registryShard {
	return &r.shards[murmur3.StringSum32(name)%registryShards]
}

// add 注册，名称已存在时返回 false
func (r *registry) add(cell *actorCell) bool {
	s := r.shard(cell.pid.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cells[cell.pid.ID]; exists {
		return false
	}
	s.cells[cell.pid.ID] = cell
	return true
}

// remove 只删除同一个 cell，避免误删同名的新 Actor
func (r *registry) remove(cell *actorCell) {
	s := r.shard(cell.pid.ID)
	s.mu.Lock()
	if cur, ok := s.cells[cell.pid.ID]; ok && cur == cell {
		delete(s.cells, cell.pid.ID)
	}
	s.mu.Unlock()
}

func (r *registry) get(name string) (*actorCell, bool) {
	s := r.shard(name)
	s.mu.RLock()
	cell, ok := s.cells[name]
	s.mu.RUnlock()
	return cell, ok
}

// snapshot 返回当前所有 cell 的快照
func (r *registry) snapshot() []*actorCell {
	cells := make([]*actorCell, 0, r.count())
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for _, cell := range s.cells {
			cells = append(cells, cell)
		}
		s.mu.RUnlock()
	}
	return cells
}

func (r *registry) count() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.cells)
		s.mu.RUnlock()
	}
	return n
}
