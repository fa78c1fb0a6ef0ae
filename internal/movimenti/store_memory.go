package movimenti

import (
	"context"
	"sort"
	"sync"
	"time"

	"rentrihub/pkg/domain"
)

// MemoryStore is an in-memory Store for unit tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[domain.MovimentoID]*Movimento
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[domain.MovimentoID]*Movimento)}
}

func (s *MemoryStore) Insert(_ context.Context, m *Movimento) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *m
	s.rows[m.ID] = &cloned
	return nil
}

func (s *MemoryStore) ListForPush(_ context.Context, registroID domain.RegistroID, ids []domain.MovimentoID) ([]*Movimento, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Movimento
	for _, id := range ids {
		m, ok := s.rows[id]
		if !ok || m.RegistroID != registroID {
			continue
		}
		if m.SyncStatus != SyncPending && m.SyncStatus != SyncError {
			continue
		}
		cloned := *m
		out = append(out, &cloned)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Progressivo < out[j].Progressivo })
	return out, nil
}

func (s *MemoryStore) MarkStatus(_ context.Context, ids []domain.MovimentoID, status SyncStatus, syncErr *string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		m, ok := s.rows[id]
		if !ok {
			continue
		}
		m.SyncStatus = status
		m.SyncError = syncErr
		syncAt := at
		m.SyncAt = &syncAt
	}
	return nil
}

func (s *MemoryStore) UpsertRemote(_ context.Context, incoming *Movimento) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rows {
		if existing.RegistroID == incoming.RegistroID &&
			existing.Anno == incoming.Anno &&
			existing.Progressivo == incoming.Progressivo {
			id := existing.ID
			cloned := *incoming
			cloned.ID = id
			s.rows[id] = &cloned
			return nil
		}
	}

	cloned := *incoming
	if cloned.ID.IsNil() {
		cloned.ID = domain.NewMovimentoID()
	}
	s.rows[cloned.ID] = &cloned
	return nil
}

// Get returns a movement by id; test helper.
func (s *MemoryStore) Get(id domain.MovimentoID) (*Movimento, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	cloned := *m
	return &cloned, true
}

// Count reports stored rows; test helper.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
