package model

import (
	"strconv"
	"sync"
)

// Names hands out unique model names of the form base+N, counting per base.
type Names struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewNames creates an empty registry.
func NewNames() *Names {
	return &Names{counts: make(map[string]int)}
}

// Next returns the next name for base. The first call for a base yields base+"1".
func (n *Names) Next(base string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts[base]++
	return base + strconv.Itoa(n.counts[base])
}

