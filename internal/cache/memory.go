package cache

import (
	"context"
	"sync"
	"time"

	"uav-log-analyzer/internal/telemetry"
)

type memoryEntry struct {
	log       telemetry.Log
	expiresAt time.Time
}

// MemoryStore хранит сессии в памяти процесса
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	hits    uint64
	misses  uint64
}

// NewMemoryStore создает хранилище сессий в памяти. ttl <= 0 отключает истечение.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save сохраняет лог сессии
func (m *MemoryStore) Save(_ context.Context, sessionID string, log telemetry.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[sessionID] = memoryEntry{log: log, expiresAt: m.expiry()}
	return nil
}

// Load возвращает лог сессии и продлевает ее TTL
func (m *MemoryStore) Load(_ context.Context, sessionID string) (telemetry.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[sessionID]
	if !ok || m.expired(entry) {
		delete(m.entries, sessionID)
		m.misses++
		return telemetry.Log{}, ErrSessionNotFound
	}

	entry.expiresAt = m.expiry()
	m.entries[sessionID] = entry
	m.hits++
	return entry.log, nil
}

// Count удаляет истекшие сессии и возвращает число оставшихся
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range m.entries {
		if m.expired(entry) {
			delete(m.entries, id)
		}
	}
	return len(m.entries), nil
}

// Ping всегда успешен
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Stats возвращает статистику хранилища
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"backend":  "memory",
		"sessions": len(m.entries),
		"hits":     m.hits,
		"misses":   m.misses,
		"ttl":      m.ttl.String(),
	}
}

// Close очищает хранилище
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *MemoryStore) expiry() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}

var _ SessionStore = (*MemoryStore)(nil)
