package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process SnapshotStore used by tests and local tooling.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStore builds an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: map[string]Snapshot{}}
}

func (s *MemoryStore) Load(_ context.Context, shopID uuid.UUID, sessionID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[memoryKey(shopID, sessionID)]
	if !ok {
		return nil, nil
	}
	copied := snapshot
	copied.Items = append([]Item(nil), snapshot.Items...)
	return &copied, nil
}

func (s *MemoryStore) Save(_ context.Context, shopID uuid.UUID, sessionID string, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snapshot
	copied.Items = append([]Item(nil), snapshot.Items...)
	s.snapshots[memoryKey(shopID, sessionID)] = copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, shopID uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, memoryKey(shopID, sessionID))
	return nil
}

func memoryKey(shopID uuid.UUID, sessionID string) string {
	return shopID.String() + ":" + sessionID
}
