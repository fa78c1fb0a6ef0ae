// Package registri manages register lifecycle: local creation and the
// one-shot remote binding against the Registry.
package registri

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"rentrihub/internal/certstore"
	"rentrihub/internal/rentri"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/audit"
	strutil "rentrihub/pkg/platform/strings"
	"rentrihub/pkg/requestcontext"
)

// CertificateSelector resolves the active operator certificate for an
// organization and environment.
type CertificateSelector interface {
	SelectCertificate(ctx context.Context, orgID domain.OrgID, env domain.Environment) (*certstore.OperatorCertificate, error)
}

// RegistryClient performs one authenticated Registry exchange.
type RegistryClient interface {
	Do(ctx context.Context, req rentri.Request) (*rentri.Response, error)
}

// IntegritySigner signs the body digest of a write request.
type IntegritySigner interface {
	IntegritySignature(ctx context.Context, cert *certstore.OperatorCertificate, digest, contentType string) (string, error)
}

// Auditor records register lifecycle outcomes.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store  Store
	certs  CertificateSelector
	signer IntegritySigner
	client RegistryClient
	audit  Auditor
	logger *slog.Logger
}

func NewService(store Store, certs CertificateSelector, signer IntegritySigner, client RegistryClient, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		certs:  certs,
		signer: signer,
		client: client,
		audit:  auditor,
		logger: logger,
	}
}

// CreateRequest describes a new local register.
type CreateRequest struct {
	OrgID       domain.OrgID
	LocalType   LocalType
	Attivita    []string
	Codici      []string
	Environment domain.Environment
}

// Create registers a new local register, unbound until CreateRemote runs.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Registro, error) {
	r := &Registro{
		ID:                   domain.NewRegistroID(),
		OrgID:                req.OrgID,
		LocalType:            req.LocalType,
		Attivita:             strutil.DedupeAndTrim(req.Attivita),
		CodiciAutorizzazione: strutil.DedupeAndTrim(req.Codici),
		Environment:          req.Environment,
		SyncStatus:           SyncPending,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("insert registro: %w", err)
	}
	return r, nil
}

// registroWire is the remote creation payload.
type registroWire struct {
	NumIscrSito          string   `json:"num_iscr_sito"`
	TipoRegistro         string   `json:"tipo_registro"`
	Attivita             []string `json:"attivita"`
	CodiciAutorizzazione []string `json:"codici_autorizzazione,omitempty"`
}

type registroCreatedWire struct {
	Identificativo string `json:"identificativo"`
}

// CreateRemote binds a local register to the Registry. A register binds
// exactly once: a second attempt on a bound register is refused, never
// merged. On failure the register stays unbound so the call can be retried.
func (s *Service) CreateRemote(ctx context.Context, registroID domain.RegistroID) (*Registro, error) {
	r, err := s.store.Get(ctx, registroID)
	if err != nil {
		return nil, fmt.Errorf("get registro: %w", err)
	}
	if r.RemotelyBound() {
		return nil, ErrAlreadyBound
	}

	cert, err := s.certs.SelectCertificate(ctx, r.OrgID, r.Environment)
	if err != nil {
		return nil, err
	}
	if cert.NumIscrSito == nil || *cert.NumIscrSito == "" {
		return nil, ErrSiteRegistrationMissing
	}

	attivita, codici := s.resolveActivities(ctx, r, cert)

	body, err := json.Marshal(registroWire{
		NumIscrSito:          *cert.NumIscrSito,
		TipoRegistro:         string(r.LocalType),
		Attivita:             attivita,
		CodiciAutorizzazione: codici,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal registro payload: %w", err)
	}

	digest := rentri.ContentDigest(body)
	signature, err := s.signer.IntegritySignature(ctx, cert, digest, "application/json")
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set(rentri.HeaderDigest, digest)
	headers.Set(rentri.HeaderIntegritySignature, signature)
	resp, err := s.client.Do(ctx, rentri.Request{
		Method:      http.MethodPost,
		Service:     rentri.ServiceDatiRegistri,
		Path:        "/registri",
		Body:        body,
		Certificate: cert,
		Headers:     headers,
		Retry:       rentri.SingleAttempt(),
	})
	if err != nil {
		return nil, s.bindFailed(ctx, r, err)
	}

	var created registroCreatedWire
	if resp.Body != nil {
		// Parse failure falls through to the empty-identifier check.
		_ = json.Unmarshal(resp.Body, &created)
	}
	if created.Identificativo == "" {
		// A successful creation without an identifier means the remote
		// contract changed; nothing sane can be persisted.
		err := dErrors.New(dErrors.CodeInternal, "registry returned no register identifier")
		s.logger.Error("register creation succeeded without identifier",
			slog.String("registro_id", r.ID.String()),
			slog.Int("status", resp.Status))
		return nil, s.bindFailed(ctx, r, err)
	}

	now := requestcontext.Now(ctx)
	if err := s.store.BindRemote(ctx, r.ID, created.Identificativo, now); err != nil {
		return nil, fmt.Errorf("bind registro: %w", err)
	}

	s.emit(ctx, r, string(audit.EventRegistroBound), "ok",
		fmt.Sprintf("bound to remote register %s", created.Identificativo))

	r.RentriID = &created.Identificativo
	r.SyncStatus = SyncSynced
	r.SyncAt = &now
	r.SyncError = nil
	return r, nil
}

// resolveActivities determines the activity and authorization codes for the
// creation payload. Recupero and Smaltimento require authorization codes;
// when none are on hand it tries to harvest them from the operator's site
// authorizations, and failing that strips those activities rather than
// submitting an invalid payload.
func (s *Service) resolveActivities(ctx context.Context, r *Registro, cert *certstore.OperatorCertificate) ([]string, []string) {
	attivita := slices.Clone(r.Attivita)
	if len(attivita) == 0 {
		// Conservative default: Produzione never needs authorization codes.
		attivita = []string{AttivitaProduzione}
	}

	codici := slices.Clone(r.CodiciAutorizzazione)
	if !containsRestricted(attivita) || len(codici) > 0 {
		return attivita, codici
	}

	harvested, err := s.fetchAuthorizationCodes(ctx, cert)
	if harvested = strutil.DedupeAndTrim(harvested); err == nil && len(harvested) > 0 {
		return attivita, harvested
	}

	if err != nil {
		s.logger.Warn("authorization harvest failed, stripping restricted activities",
			slog.String("registro_id", r.ID.String()),
			slog.String("error", err.Error()))
	} else {
		s.logger.Warn("no site authorizations found, stripping restricted activities",
			slog.String("registro_id", r.ID.String()))
	}

	attivita = slices.DeleteFunc(attivita, func(a string) bool {
		return a == AttivitaRecupero || a == AttivitaSmaltimento
	})
	if len(attivita) == 0 {
		attivita = []string{AttivitaProduzione}
	}
	return attivita, nil
}

func (s *Service) fetchAuthorizationCodes(ctx context.Context, cert *certstore.OperatorCertificate) ([]string, error) {
	resp, err := s.client.Do(ctx, rentri.Request{
		Method:      http.MethodGet,
		Service:     rentri.ServiceAnagrafiche,
		Path:        fmt.Sprintf("/operatori/%s/autorizzazioni", *cert.NumIscrSito),
		Certificate: cert,
		Retry:       rentri.SingleAttempt(),
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Autorizzazioni []struct {
			Codice string `json:"codice"`
		} `json:"autorizzazioni"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parse authorizations: %w", err)
	}

	var codes []string
	for _, a := range parsed.Autorizzazioni {
		if a.Codice != "" {
			codes = append(codes, a.Codice)
		}
	}
	return codes, nil
}

// bindFailed records the failure on the register, audits it, and returns the
// original error so the Registry's detail reaches the operator verbatim.
func (s *Service) bindFailed(ctx context.Context, r *Registro, cause error) error {
	now := requestcontext.Now(ctx)
	if err := s.store.MarkError(ctx, r.ID, cause.Error(), now); err != nil {
		s.logger.Error("failed to record registro error",
			slog.String("registro_id", r.ID.String()),
			slog.String("error", err.Error()))
	}

	outcome := "error"
	var rejection *rentri.RejectionError
	if errors.As(cause, &rejection) {
		outcome = "rejected"
	}
	s.emit(ctx, r, string(audit.EventRegistroBindFailed), outcome, cause.Error())
	return cause
}

func (s *Service) emit(ctx context.Context, r *Registro, action, outcome, detail string) {
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

func containsRestricted(attivita []string) bool {
	return slices.Contains(attivita, AttivitaRecupero) ||
		slices.Contains(attivita, AttivitaSmaltimento)
}
