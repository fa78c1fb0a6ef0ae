package certstore

import (
	"context"
	"sync"

	"rentrihub/pkg/domain"
	"rentrihub/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used by unit tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	certs map[domain.CertificateID]*OperatorCertificate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{certs: make(map[domain.CertificateID]*OperatorCertificate)}
}

func (s *MemoryStore) SelectActive(_ context.Context, orgID domain.OrgID, env domain.Environment) (*OperatorCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cert := range s.certs {
		if cert.OrgID == orgID && cert.Environment == env && cert.IsActive && cert.IsDefault {
			cloned := *cert
			return &cloned, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) ActivateDefault(_ context.Context, cert *OperatorCertificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.certs {
		if existing.OrgID == cert.OrgID && existing.Environment == cert.Environment {
			existing.IsDefault = false
		}
	}
	cloned := *cert
	s.certs[cert.ID] = &cloned
	return nil
}

func (s *MemoryStore) SetSiteRegistration(_ context.Context, id domain.CertificateID, numIscrSito string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cert.NumIscrSito = &numIscrSito
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.CertificateID) (*OperatorCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cloned := *cert
	return &cloned, nil
}

// Count reports how many certificates are stored; test helper.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs)
}
