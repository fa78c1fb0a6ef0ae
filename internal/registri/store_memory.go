package registri

import (
	"context"
	"sync"
	"time"

	"rentrihub/pkg/domain"
	"rentrihub/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for unit tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[domain.RegistroID]*Registro
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[domain.RegistroID]*Registro)}
}

func (s *MemoryStore) Insert(_ context.Context, r *Registro) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *r
	s.rows[r.ID] = &cloned
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.RegistroID) (*Registro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cloned := *r
	return &cloned, nil
}

func (s *MemoryStore) ListBound(_ context.Context, orgID domain.OrgID, env domain.Environment) ([]*Registro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Registro
	for _, r := range s.rows {
		if r.OrgID == orgID && r.Environment == env && r.RemotelyBound() {
			cloned := *r
			out = append(out, &cloned)
		}
	}
	return out, nil
}

func (s *MemoryStore) BindRemote(_ context.Context, id domain.RegistroID, rentriID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.RentriID = &rentriID
	r.SyncStatus = SyncSynced
	syncAt := at
	r.SyncAt = &syncAt
	r.SyncError = nil
	return nil
}

func (s *MemoryStore) MarkError(_ context.Context, id domain.RegistroID, detail string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.SyncStatus = SyncError
	r.SyncError = &detail
	syncAt := at
	r.SyncAt = &syncAt
	return nil
}
