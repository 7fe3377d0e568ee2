package model

import (
	"slices"
	"sync"
)

// IDSet 是一个并发安全的 int64 集合，重复添加同一个成员没有额外效果。
type IDSet struct {
	mu      sync.RWMutex
	members map[int64]struct{}
}

// NewIDSet 创建空集合
func NewIDSet() *IDSet {
	return &IDSet{members: make(map[int64]struct{})}
}

// Add 添加成员，返回该成员是否为新成员
func (s *IDSet) Add(id int64) bool {
	s.mu.RLock()
	_, exists := s.members[id]
	s.mu.RUnlock()
	if exists {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists = s.members[id]; exists {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

// Contains 判断成员是否存在
func (s *IDSet) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[id]
	return ok
}

// Len 返回集合大小
func (s *IDSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Members 返回按升序排列的成员副本
func (s *IDSet) Members() []int64 {
	s.mu.RLock()
	out := make([]int64, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	s.mu.RUnlock()

	slices.Sort(out)
	return out
}
