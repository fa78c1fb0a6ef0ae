// Package httptransport is the thin HTTP layer. Handlers decode plain JSON,
// delegate to domain services, and encode plain JSON back; no protocol
// objects leak upward.
package httptransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rentrihub/internal/certstore"
	"rentrihub/internal/registri"
	"rentrihub/internal/transmission"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/httputil"
)

// CertificateService handles credential ingestion and site configuration.
type CertificateService interface {
	Ingest(ctx context.Context, req certstore.IngestRequest) (*certstore.OperatorCertificate, error)
	ConfigureSite(ctx context.Context, id domain.CertificateID, numIscrSito string) error
}

// RegistroService handles register lifecycle.
type RegistroService interface {
	Create(ctx context.Context, req registri.CreateRequest) (*registri.Registro, error)
	CreateRemote(ctx context.Context, id domain.RegistroID) (*registri.Registro, error)
}

// SyncService moves movements between local state and the Registry.
type SyncService interface {
	Push(ctx context.Context, registroID domain.RegistroID, ids []domain.MovimentoID) (*transmission.PushResult, error)
	Pull(ctx context.Context, registroID domain.RegistroID) (*transmission.PullSummary, error)
	PullAll(ctx context.Context, orgID domain.OrgID, env domain.Environment) ([]*transmission.PullSummary, error)
}

type Handler struct {
	certificates CertificateService
	registri     RegistroService
	sync         SyncService
	logger       *slog.Logger
}

func NewHandler(certificates CertificateService, registroService RegistroService, syncService SyncService, logger *slog.Logger) *Handler {
	return &Handler{
		certificates: certificates,
		registri:     registroService,
		sync:         syncService,
		logger:       logger,
	}
}

type ingestCertificateRequest struct {
	OrgID       string `json:"org_id"`
	Environment string `json:"environment"`
	LegalName   string `json:"legal_name"`
	// Bundle is the PKCS#12 file, base64 encoded.
	Bundle   string `json:"bundle"`
	Password string `json:"password"`
}

type certificateResponse struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	CFOperatore string    `json:"cf_operatore"`
	LegalName   string    `json:"legal_name"`
	Environment string    `json:"environment"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) handleIngestCertificate(w http.ResponseWriter, r *http.Request) {
	var req ingestCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	orgID, err := domain.ParseOrgID(req.OrgID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid org_id"))
		return
	}
	env, err := domain.ParseEnvironment(req.Environment)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid environment"))
		return
	}
	bundle, err := base64.StdEncoding.DecodeString(req.Bundle)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "bundle must be base64 encoded"))
		return
	}

	cert, err := h.certificates.Ingest(r.Context(), certstore.IngestRequest{
		OrgID:       orgID,
		Environment: env,
		LegalName:   req.LegalName,
		Bundle:      bundle,
		Password:    req.Password,
	})
	if err != nil {
		h.logger.Warn("certificate ingestion failed",
			slog.String("org_id", req.OrgID),
			slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, certificateResponse{
		ID:          cert.ID.String(),
		OrgID:       cert.OrgID.String(),
		CFOperatore: cert.CFOperatore,
		LegalName:   cert.LegalName,
		Environment: cert.Environment.String(),
		IssuedAt:    cert.IssuedAt,
		ExpiresAt:   cert.ExpiresAt,
	})
}

type configureSiteRequest struct {
	NumIscrSito string `json:"num_iscr_sito"`
}

func (h *Handler) handleConfigureSite(w http.ResponseWriter, r *http.Request) {
	certificateID, err := domain.ParseCertificateID(chi.URLParam(r, "certificateID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	var req configureSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.certificates.ConfigureSite(r.Context(), certificateID, req.NumIscrSito); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createRegistroRequest struct {
	OrgID                string   `json:"org_id"`
	LocalType            string   `json:"local_type"`
	Attivita             []string `json:"attivita"`
	CodiciAutorizzazione []string `json:"codici_autorizzazione"`
	Environment          string   `json:"environment"`
}

type registroResponse struct {
	ID                   string     `json:"id"`
	OrgID                string     `json:"org_id"`
	LocalType            string     `json:"local_type"`
	RentriID             *string    `json:"rentri_id"`
	Attivita             []string   `json:"attivita"`
	CodiciAutorizzazione []string   `json:"codici_autorizzazione"`
	Environment          string     `json:"environment"`
	SyncStatus           string     `json:"sync_status"`
	SyncAt               *time.Time `json:"sync_at,omitempty"`
	SyncError            *string    `json:"sync_error,omitempty"`
}

func registroView(r *registri.Registro) registroResponse {
	return registroResponse{
		ID:                   r.ID.String(),
		OrgID:                r.OrgID.String(),
		LocalType:            string(r.LocalType),
		RentriID:             r.RentriID,
		Attivita:             r.Attivita,
		CodiciAutorizzazione: r.CodiciAutorizzazione,
		Environment:          r.Environment.String(),
		SyncStatus:           string(r.SyncStatus),
		SyncAt:               r.SyncAt,
		SyncError:            r.SyncError,
	}
}

func (h *Handler) handleCreateRegistro(w http.ResponseWriter, r *http.Request) {
	var req createRegistroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	orgID, err := domain.ParseOrgID(req.OrgID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid org_id"))
		return
	}
	env, err := domain.ParseEnvironment(req.Environment)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid environment"))
		return
	}
	localType := registri.LocalType(req.LocalType)
	switch localType {
	case registri.TipoCarico, registri.TipoScarico, registri.TipoCaricoScarico:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid local_type"))
		return
	}

	created, err := h.registri.Create(r.Context(), registri.CreateRequest{
		OrgID:       orgID,
		LocalType:   localType,
		Attivita:    req.Attivita,
		Codici:      req.CodiciAutorizzazione,
		Environment: env,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registroView(created))
}

func (h *Handler) handleCreateRemote(w http.ResponseWriter, r *http.Request) {
	registroID, err := domain.ParseRegistroID(chi.URLParam(r, "registroID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registro id"))
		return
	}

	bound, err := h.registri.CreateRemote(r.Context(), registroID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registroView(bound))
}

type pushRequest struct {
	MovimentoIDs []string `json:"movimento_ids"`
}

type excludedMovimento struct {
	MovimentoID string   `json:"movimento_id"`
	Errors      []string `json:"errors"`
}

type pushResponse struct {
	TransactionID string              `json:"transaction_id"`
	Location      string              `json:"location,omitempty"`
	Pushed        []string            `json:"pushed"`
	Excluded      []excludedMovimento `json:"excluded,omitempty"`
}

func (h *Handler) handlePush(w http.ResponseWriter, r *http.Request) {
	registroID, err := domain.ParseRegistroID(chi.URLParam(r, "registroID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registro id"))
		return
	}

	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	ids := make([]domain.MovimentoID, 0, len(req.MovimentoIDs))
	for _, raw := range req.MovimentoIDs {
		id, err := domain.ParseMovimentoID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid movimento id"))
			return
		}
		ids = append(ids, id)
	}

	result, err := h.sync.Push(r.Context(), registroID, ids)
	if err != nil {
		writePushFailure(w, result, err)
		return
	}

	resp := pushResponse{
		TransactionID: result.TransactionID,
		Location:      result.Location,
		Pushed:        make([]string, 0, len(result.Pushed)),
	}
	for _, id := range result.Pushed {
		resp.Pushed = append(resp.Pushed, id.String())
	}
	if len(result.Excluded) > 0 {
		resp.Excluded = excludedViews(result.Excluded)
	}
	httputil.WriteJSON(w, http.StatusAccepted, resp)
}

type pullSummaryResponse struct {
	RegistroID string   `json:"registro_id"`
	Pulled     int      `json:"pulled"`
	Errors     []string `json:"errors,omitempty"`
}

func pullSummaryView(s *transmission.PullSummary) pullSummaryResponse {
	return pullSummaryResponse{
		RegistroID: s.RegistroID.String(),
		Pulled:     s.Pulled,
		Errors:     s.Errors,
	}
}

func (h *Handler) handlePull(w http.ResponseWriter, r *http.Request) {
	registroID, err := domain.ParseRegistroID(chi.URLParam(r, "registroID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registro id"))
		return
	}

	summary, err := h.sync.Pull(r.Context(), registroID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pullSummaryView(summary))
}

type pullAllRequest struct {
	OrgID       string `json:"org_id"`
	Environment string `json:"environment"`
}

func (h *Handler) handlePullAll(w http.ResponseWriter, r *http.Request) {
	var req pullAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	orgID, err := domain.ParseOrgID(req.OrgID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid org_id"))
		return
	}
	env, err := domain.ParseEnvironment(req.Environment)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid environment"))
		return
	}

	summaries, err := h.sync.PullAll(r.Context(), orgID, env)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]pullSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, pullSummaryView(s))
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
