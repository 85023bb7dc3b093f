package resolve

import (
	"sync"

	"github.com/zulandar/classlive/internal/models"
)

// enrichment is the outcome of resolving one live id.
type enrichment struct {
	room  models.Room
	video models.VideoPath
	err   error
}

// roomCache is the id-keyed result map shared by enrichment workers. Each id
// is written by exactly one worker.
type roomCache struct {
	mu sync.Mutex
	m  map[int64]enrichment
}

func newRoomCache(size int) *roomCache {
	return &roomCache{m: make(map[int64]enrichment, size)}
}

func (c *roomCache) put(id int64, e enrichment) {
	c.mu.Lock()
	c.m[id] = e
	c.mu.Unlock()
}

func (c *roomCache) get(id int64) (enrichment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[id]
	return e, ok
}

// syncMap is a mutex-guarded map for workers that publish keyed results.
type syncMap[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

func newSyncMap[K comparable, V any]() *syncMap[K, V] {
	return &syncMap[K, V]{m: make(map[K]V)}
}

func (s *syncMap[K, V]) store(k K, v V) {
	s.mu.Lock()
	s.m[k] = v
	s.mu.Unlock()
}

// storeIf sets k to v when k is absent or keep(old) is false.
func (s *syncMap[K, V]) storeIf(k K, v V, keep func(old V) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.m[k]; ok && keep(old) {
		return
	}
	s.m[k] = v
}

// snapshot returns the map. Call only after all writers have joined.
func (s *syncMap[K, V]) snapshot() map[K]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}
