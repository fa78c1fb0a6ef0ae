// Package transmission moves movement batches between local bookkeeping and
// the Registry: push submits pending movements, pull reconciles remote state
// back into the local store.
package transmission

import (
	"context"
	"log/slog"

	"rentrihub/internal/certstore"
	"rentrihub/internal/movimenti"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/internal/transmission/metrics"
	"rentrihub/pkg/domain"
	"rentrihub/pkg/platform/audit"
	"rentrihub/pkg/requestcontext"
)

// RegistroSource resolves registers for push targeting and pull fan-out.
type RegistroSource interface {
	Get(ctx context.Context, id domain.RegistroID) (*registri.Registro, error)
	ListBound(ctx context.Context, orgID domain.OrgID, env domain.Environment) ([]*registri.Registro, error)
}

// CertificateSelector resolves the active operator certificate for an
// organization and environment.
type CertificateSelector interface {
	SelectCertificate(ctx context.Context, orgID domain.OrgID, env domain.Environment) (*certstore.OperatorCertificate, error)
}

// IntegritySigner signs the body digest of a write request.
type IntegritySigner interface {
	IntegritySignature(ctx context.Context, cert *certstore.OperatorCertificate, digest, contentType string) (string, error)
}

// RegistryClient performs one authenticated Registry exchange.
type RegistryClient interface {
	Do(ctx context.Context, req rentri.Request) (*rentri.Response, error)
}

// Auditor records submission outcomes.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	registri  RegistroSource
	movimenti movimenti.Store
	certs     CertificateSelector
	signer    IntegritySigner
	client    RegistryClient
	builder   *movimenti.Builder
	audit     Auditor
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	registroSource RegistroSource,
	movimentoStore movimenti.Store,
	certs CertificateSelector,
	signer IntegritySigner,
	client RegistryClient,
	builder *movimenti.Builder,
	auditor Auditor,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		registri:  registroSource,
		movimenti: movimentoStore,
		certs:     certs,
		signer:    signer,
		client:    client,
		builder:   builder,
		audit:     auditor,
		metrics:   m,
		logger:    logger,
	}
}

func (s *Service) emit(ctx context.Context, r *registri.Registro, action, outcome, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		OrgID:       r.OrgID,
		RegistroID:  r.ID,
		Environment: string(r.Environment),
		Action:      action,
		Outcome:     outcome,
		Detail:      detail,
		RequestID:   requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.Error("audit emit failed",
			slog.String("action", action),
			slog.String("error", err.Error()))
	}
}
