package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/twpicks/pkg/logger"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache for source responses
// ⭐ SSOT: Redis 미사용 시 기본 캐시
//
// 값은 JSON 바이트로 저장하므로 호출자가 받은 값을 수정해도 캐시는 안전하다.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	logger  *logger.Logger
}

// NewMemory creates an empty memory cache
func NewMemory(log *logger.Logger) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  log,
	}
}

// Get decodes a live entry into dest
func (c *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set stores value until ttl elapses
func (c *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}

	c.mu.Lock()
	c.entries[key] = entry{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a key
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired included
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune drops expired entries and returns how many were removed
func (c *Memory) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 && c.logger != nil {
		c.logger.WithField("count", count).Info("Pruned expired cache entries")
	}
	return count
}
