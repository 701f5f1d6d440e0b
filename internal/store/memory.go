// Package store provides durable key-value persistence for portfolio
// snapshots. Every backend stores the whole snapshot as JSON under a fixed
// key and returns (nil, nil) when no snapshot exists.
package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Alias1177/TradeAgent/models"
)

// Memory is an in-process snapshot store, used in tests and for throwaway
// runs where durability does not matter.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{snaps: make(map[string][]byte)}
}

// Load returns the snapshot stored under key, or (nil, nil) if absent
func (m *Memory) Load(key string) (*models.Portfolio, error) {
	m.mu.RLock()
	raw, ok := m.snaps[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var p models.Portfolio
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &p, nil
}

// Save stores the snapshot under key, replacing any previous one
func (m *Memory) Save(key string, p *models.Portfolio) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	m.mu.Lock()
	m.snaps[key] = raw
	m.mu.Unlock()
	return nil
}
