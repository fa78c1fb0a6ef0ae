package certstore

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"software.sslmate.com/src/go-pkcs12"

	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/audit"
	"rentrihub/pkg/platform/sentinel"
	"rentrihub/pkg/requestcontext"
)

// Auditor records certificate lifecycle outcomes.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles credential ingestion and certificate selection.
type Service struct {
	store  Store
	audit  Auditor
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithAuditor records credential activations and site configuration on the
// audit trail.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.audit = a }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestRequest carries an uploaded credential bundle from the CRUD layer.
type IngestRequest struct {
	OrgID       domain.OrgID
	Environment domain.Environment
	LegalName   string
	// Bundle is the raw PKCS#12 file content as uploaded.
	Bundle   []byte
	Password string
}

// Ingest extracts the certificate and private key from a PKCS#12 bundle and
// activates it as the organization's default for the environment. Nothing is
// persisted when extraction or validation fails.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*OperatorCertificate, error) {
	key, leaf, chain, err := pkcs12.DecodeChain(req.Bundle, req.Password)
	if err != nil {
		s.logger.Warn("credential bundle extraction failed",
			slog.String("org_id", req.OrgID.String()),
			slog.String("environment", req.Environment.String()))
		return nil, ErrInvalidCredentials
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		// The Registry only accepts RS256, so a non-RSA bundle is unusable.
		return nil, ErrInvalidCredentials
	}

	now := requestcontext.Now(ctx)
	if !now.Before(leaf.NotAfter) {
		return nil, ErrCertificateExpired
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	cert := &OperatorCertificate{
		ID:             domain.NewCertificateID(),
		OrgID:          req.OrgID,
		CFOperatore:    extractTaxCode(leaf),
		LegalName:      req.LegalName,
		CertificatePEM: encodeCertChainPEM(leaf, chain),
		PrivateKeyPEM: string(pem.EncodeToMemory(&pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: keyDER,
		})),
		Password:    req.Password,
		Environment: req.Environment,
		IssuedAt:    leaf.NotBefore,
		ExpiresAt:   leaf.NotAfter,
		IsActive:    true,
		IsDefault:   true,
	}

	if err := s.store.ActivateDefault(ctx, cert); err != nil {
		return nil, fmt.Errorf("activate certificate: %w", err)
	}

	s.logger.Info("operator certificate activated",
		slog.String("certificate_id", cert.ID.String()),
		slog.String("org_id", cert.OrgID.String()),
		slog.String("environment", cert.Environment.String()),
		slog.Time("expires_at", cert.ExpiresAt))
	s.emit(ctx, cert.OrgID, cert.Environment, audit.EventCertificateActivated,
		fmt.Sprintf("certificate %s active until %s", cert.ID, cert.ExpiresAt.Format("2006-01-02")))
	return cert, nil
}

// SelectCertificate resolves the active default certificate and enforces the
// validity window. Callers must treat failures as fatal for the operation.
func (s *Service) SelectCertificate(ctx context.Context, orgID domain.OrgID, env domain.Environment) (*OperatorCertificate, error) {
	cert, err := s.store.SelectActive(ctx, orgID, env)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrCertificateMissing
		}
		return nil, fmt.Errorf("select certificate: %w", err)
	}
	if cert.Expired(requestcontext.Now(ctx)) {
		return nil, ErrCertificateExpired
	}
	return cert, nil
}

// ConfigureSite records the site registration code needed by register
// creation.
func (s *Service) ConfigureSite(ctx context.Context, id domain.CertificateID, numIscrSito string) error {
	if strings.TrimSpace(numIscrSito) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "numIscrSito is required")
	}
	cert, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrCertificateMissing
		}
		return fmt.Errorf("get certificate: %w", err)
	}
	if err := s.store.SetSiteRegistration(ctx, id, numIscrSito); err != nil {
		return err
	}
	s.emit(ctx, cert.OrgID, cert.Environment, audit.EventSiteConfigured,
		fmt.Sprintf("site registration %s on certificate %s", numIscrSito, id))
	return nil
}

func (s *Service) emit(ctx context.Context, orgID domain.OrgID, env domain.Environment, action audit.AuditEvent, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		OrgID:       orgID,
		Environment: string(env),
		Action:      string(action),
		Outcome:     "ok",
		Detail:      detail,
		RequestID:   requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.Error("audit emit failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
	}
}

// extractTaxCode pulls the operator tax code out of the certificate subject.
// Italian operator certificates carry it in the serial number attribute as
// "TINIT-<codice fiscale>"; older ones put it directly in the CN.
func extractTaxCode(cert *x509.Certificate) string {
	if sn := cert.Subject.SerialNumber; sn != "" {
		return strings.TrimPrefix(sn, "TINIT-")
	}
	return cert.Subject.CommonName
}

func encodeCertChainPEM(leaf *x509.Certificate, chain []*x509.Certificate) string {
	var b strings.Builder
	for _, cert := range append([]*x509.Certificate{leaf}, chain...) {
		b.Write(pem.EncodeToMemory(&pem.Block{
			Type:  "CERTIFICATE",
			Bytes: cert.Raw,
		}))
	}
	return b.String()
}
