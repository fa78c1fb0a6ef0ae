package httptransport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentrihub/internal/certstore"
	"rentrihub/internal/movimenti"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/internal/transmission"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/internal/platform/logger"
)

type fakeCertificates struct {
	ingested    *certstore.IngestRequest
	ingestErr   error
	configured  map[domain.CertificateID]string
	certificate *certstore.OperatorCertificate
}

func (f *fakeCertificates) Ingest(_ context.Context, req certstore.IngestRequest) (*certstore.OperatorCertificate, error) {
	f.ingested = &req
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.certificate, nil
}

func (f *fakeCertificates) ConfigureSite(_ context.Context, id domain.CertificateID, numIscrSito string) error {
	if f.configured == nil {
		f.configured = map[domain.CertificateID]string{}
	}
	f.configured[id] = numIscrSito
	return nil
}

type fakeRegistri struct {
	created   *registri.CreateRequest
	registro  *registri.Registro
	remoteErr error
}

func (f *fakeRegistri) Create(_ context.Context, req registri.CreateRequest) (*registri.Registro, error) {
	f.created = &req
	return f.registro, nil
}

func (f *fakeRegistri) CreateRemote(_ context.Context, _ domain.RegistroID) (*registri.Registro, error) {
	if f.remoteErr != nil {
		return nil, f.remoteErr
	}
	return f.registro, nil
}

type fakeSync struct {
	pushedIDs  []domain.MovimentoID
	pushResult *transmission.PushResult
	pushErr    error
	summary    *transmission.PullSummary
	summaries  []*transmission.PullSummary
	pullErr    error
}

func (f *fakeSync) Push(_ context.Context, _ domain.RegistroID, ids []domain.MovimentoID) (*transmission.PushResult, error) {
	f.pushedIDs = ids
	return f.pushResult, f.pushErr
}

func (f *fakeSync) Pull(_ context.Context, registroID domain.RegistroID) (*transmission.PullSummary, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &transmission.PullSummary{RegistroID: registroID, Pulled: 3}, nil
}

func (f *fakeSync) PullAll(_ context.Context, _ domain.OrgID, _ domain.Environment) ([]*transmission.PullSummary, error) {
	return f.summaries, nil
}

type fixture struct {
	certificates *fakeCertificates
	registri     *fakeRegistri
	sync         *fakeSync
	server       *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		certificates: &fakeCertificates{},
		registri:     &fakeRegistri{},
		sync:         &fakeSync{},
	}
	h := NewHandler(f.certificates, f.registri, f.sync, logger.Nop())
	f.server = httptest.NewServer(NewRouter(h, logger.Nop()))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestIngestCertificate(t *testing.T) {
	f := newFixture(t)
	orgID := domain.NewOrgID()
	f.certificates.certificate = &certstore.OperatorCertificate{
		ID:          domain.NewCertificateID(),
		OrgID:       orgID,
		CFOperatore: "12345678901",
		LegalName:   "Rossi Trasporti SRL",
		Environment: domain.EnvDemo,
		IssuedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	resp := f.do(t, http.MethodPost, "/certificates", map[string]string{
		"org_id":      orgID.String(),
		"environment": "demo",
		"legal_name":  "Rossi Trasporti SRL",
		"bundle":      base64.StdEncoding.EncodeToString([]byte("pkcs12-bytes")),
		"password":    "secret",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body certificateResponse
	decode(t, resp, &body)
	assert.Equal(t, "12345678901", body.CFOperatore)
	assert.Equal(t, "demo", body.Environment)

	require.NotNil(t, f.certificates.ingested)
	assert.Equal(t, []byte("pkcs12-bytes"), f.certificates.ingested.Bundle,
		"bundle must reach the service decoded")
	assert.Equal(t, "secret", f.certificates.ingested.Password)
}

func TestIngestCertificate_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	valid := map[string]string{
		"org_id":      domain.NewOrgID().String(),
		"environment": "demo",
		"bundle":      base64.StdEncoding.EncodeToString([]byte("x")),
		"password":    "p",
	}

	cases := map[string]func(m map[string]string){
		"malformed org id":    func(m map[string]string) { m["org_id"] = "not-a-uuid" },
		"unknown environment": func(m map[string]string) { m["environment"] = "staging" },
		"bundle not base64":   func(m map[string]string) { m["bundle"] = "%%%" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			body := map[string]string{}
			for k, v := range valid {
				body[k] = v
			}
			mutate(body)
			resp := f.do(t, http.MethodPost, "/certificates", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Nil(t, f.certificates.ingested, "invalid input must not reach the service")
		})
	}
}

func TestConfigureSite(t *testing.T) {
	f := newFixture(t)
	certID := domain.NewCertificateID()

	resp := f.do(t, http.MethodPut, "/certificates/"+certID.String()+"/site",
		map[string]string{"num_iscr_sito": "IT-SITE-001"})

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "IT-SITE-001", f.certificates.configured[certID])
}

func TestConfigureSite_RejectsMalformedID(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPut, "/certificates/nope/site",
		map[string]string{"num_iscr_sito": "IT-SITE-001"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRegistro(t *testing.T) {
	f := newFixture(t)
	orgID := domain.NewOrgID()
	f.registri.registro = &registri.Registro{
		ID:          domain.NewRegistroID(),
		OrgID:       orgID,
		LocalType:   registri.TipoCaricoScarico,
		Attivita:    []string{registri.AttivitaProduzione},
		Environment: domain.EnvDemo,
		SyncStatus:  registri.SyncPending,
	}

	resp := f.do(t, http.MethodPost, "/registri", map[string]any{
		"org_id":      orgID.String(),
		"local_type":  "carico_scarico",
		"attivita":    []string{registri.AttivitaProduzione},
		"environment": "demo",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body registroResponse
	decode(t, resp, &body)
	assert.Equal(t, "pending", body.SyncStatus)
	assert.Nil(t, body.RentriID)

	require.NotNil(t, f.registri.created)
	assert.Equal(t, registri.TipoCaricoScarico, f.registri.created.LocalType)
}

func TestCreateRegistro_RejectsUnknownLocalType(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/registri", map[string]any{
		"org_id":      domain.NewOrgID().String(),
		"local_type":  "archivio",
		"environment": "demo",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, f.registri.created)
}

func TestCreateRemote(t *testing.T) {
	f := newFixture(t)
	remoteID := "REG-2025-42"
	registroID := domain.NewRegistroID()
	syncAt := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	f.registri.registro = &registri.Registro{
		ID:          registroID,
		OrgID:       domain.NewOrgID(),
		LocalType:   registri.TipoCaricoScarico,
		RentriID:    &remoteID,
		Environment: domain.EnvDemo,
		SyncStatus:  registri.SyncSynced,
		SyncAt:      &syncAt,
	}

	resp := f.do(t, http.MethodPost, "/registri/"+registroID.String()+"/remote", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body registroResponse
	decode(t, resp, &body)
	require.NotNil(t, body.RentriID)
	assert.Equal(t, "REG-2025-42", *body.RentriID)
	assert.Equal(t, "synced", body.SyncStatus)
}

func TestCreateRemote_TranslatesConflict(t *testing.T) {
	f := newFixture(t)
	f.registri.remoteErr = registri.ErrAlreadyBound

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/remote", nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "conflict", body["error"])
}

func TestPush(t *testing.T) {
	f := newFixture(t)
	pushed := domain.NewMovimentoID()
	excluded := domain.NewMovimentoID()
	f.sync.pushResult = &transmission.PushResult{
		TransactionID: "TX-123",
		Location:      "/transazioni/TX-123",
		Pushed:        []domain.MovimentoID{pushed},
		Excluded: map[domain.MovimentoID][]movimenti.FieldError{
			excluded: {{Field: "quantita", Message: "must be greater than zero"}},
		},
	}

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/push",
		map[string]any{"movimento_ids": []string{pushed.String(), excluded.String()}})

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var body pushResponse
	decode(t, resp, &body)
	assert.Equal(t, "TX-123", body.TransactionID)
	assert.Equal(t, "/transazioni/TX-123", body.Location)
	assert.Equal(t, []string{pushed.String()}, body.Pushed)
	require.Len(t, body.Excluded, 1)
	assert.Equal(t, excluded.String(), body.Excluded[0].MovimentoID)
	assert.Equal(t, []string{"quantita: must be greater than zero"}, body.Excluded[0].Errors)

	assert.Equal(t, []domain.MovimentoID{pushed, excluded}, f.sync.pushedIDs)
}

func TestPush_RejectsMalformedMovimentoID(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/push",
		map[string]any{"movimento_ids": []string{"not-a-uuid"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, f.sync.pushedIDs)
}

// registryErrorBody is the envelope rendered for Registry-side failures.
type registryErrorBody struct {
	Error          string              `json:"error"`
	RegistryStatus int                 `json:"registry_status"`
	Description    string              `json:"error_description"`
	Excluded       []excludedMovimento `json:"excluded"`
}

func TestPush_SurfacesRegistryRejection(t *testing.T) {
	f := newFixture(t)
	excluded := domain.NewMovimentoID()
	f.sync.pushResult = &transmission.PushResult{
		Excluded: map[domain.MovimentoID][]movimenti.FieldError{
			excluded: {{Field: "quantita", Message: "must be greater than zero"}},
		},
	}
	f.sync.pushErr = &rentri.RejectionError{
		Status: http.StatusUnprocessableEntity,
		Body:   []byte("codice EER non autorizzato per questo sito"),
	}

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/push",
		map[string]any{"movimento_ids": []string{domain.NewMovimentoID().String()}})

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode,
		"the Registry's own status must reach the caller")
	var body registryErrorBody
	decode(t, resp, &body)
	assert.Equal(t, "registry_rejected", body.Error)
	assert.Equal(t, http.StatusUnprocessableEntity, body.RegistryStatus)
	assert.Contains(t, body.Description, "non autorizzato")
	require.Len(t, body.Excluded, 1)
	assert.Equal(t, excluded.String(), body.Excluded[0].MovimentoID)
	assert.Equal(t, []string{"quantita: must be greater than zero"}, body.Excluded[0].Errors)
}

func TestPush_AllInvalidBatchReportsExclusions(t *testing.T) {
	f := newFixture(t)
	excluded := domain.NewMovimentoID()
	f.sync.pushResult = &transmission.PushResult{
		Excluded: map[domain.MovimentoID][]movimenti.FieldError{
			excluded: {{Field: "quantita", Message: "must be greater than zero"}},
		},
	}
	f.sync.pushErr = dErrors.New(dErrors.CodeInvalidInput, "every movement in the batch failed validation")

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/push",
		map[string]any{"movimento_ids": []string{excluded.String()}})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body registryErrorBody
	decode(t, resp, &body)
	assert.Equal(t, "invalid_input", body.Error)
	require.Len(t, body.Excluded, 1, "per-movement validation errors must reach the caller")
	assert.Equal(t, excluded.String(), body.Excluded[0].MovimentoID)
	assert.Equal(t, []string{"quantita: must be greater than zero"}, body.Excluded[0].Errors)
}

func TestCreateRemote_SurfacesRegistryRejection(t *testing.T) {
	f := newFixture(t)
	f.registri.remoteErr = &rentri.RejectionError{
		Status: http.StatusUnprocessableEntity,
		Body:   []byte(`{"detail":"num_iscr_sito non configurato"}`),
	}

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/remote", nil)

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body registryErrorBody
	decode(t, resp, &body)
	assert.Equal(t, "registry_rejected", body.Error)
	assert.Contains(t, body.Description, "num_iscr_sito non configurato")
}

func TestCreateRemote_RegistryServerErrorMapsToBadGateway(t *testing.T) {
	f := newFixture(t)
	f.registri.remoteErr = &rentri.RejectionError{
		Status: http.StatusServiceUnavailable,
		Body:   []byte("manutenzione programmata"),
	}

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/remote", nil)

	require.Equal(t, http.StatusBadGateway, resp.StatusCode,
		"a Registry 5xx is not the caller's fault")
	var body registryErrorBody
	decode(t, resp, &body)
	assert.Equal(t, http.StatusServiceUnavailable, body.RegistryStatus)
}

func TestPull_SurfacesRegistryUnreachable(t *testing.T) {
	f := newFixture(t)
	f.sync.pullErr = &rentri.TransportError{Err: fmt.Errorf("dial tcp 10.0.0.1:443: i/o timeout")}

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/pull", nil)

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body registryErrorBody
	decode(t, resp, &body)
	assert.Equal(t, "registry_unreachable", body.Error)
	assert.NotContains(t, body.Description, "10.0.0.1", "network detail stays server side")
}

func TestPush_TranslatesUnboundRegistro(t *testing.T) {
	f := newFixture(t)
	f.sync.pushErr = transmission.ErrRegistroNotBound

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/push",
		map[string]any{"movimento_ids": []string{domain.NewMovimentoID().String()}})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPull(t *testing.T) {
	f := newFixture(t)
	registroID := domain.NewRegistroID()

	resp := f.do(t, http.MethodPost, "/registri/"+registroID.String()+"/pull", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body pullSummaryResponse
	decode(t, resp, &body)
	assert.Equal(t, registroID.String(), body.RegistroID)
	assert.Equal(t, 3, body.Pulled)
}

func TestPullAll(t *testing.T) {
	f := newFixture(t)
	f.sync.summaries = []*transmission.PullSummary{
		{RegistroID: domain.NewRegistroID(), Pulled: 5},
		{RegistroID: domain.NewRegistroID(), Pulled: 0, Errors: []string{"movement 2025/2: parse data_registrazione"}},
	}

	resp := f.do(t, http.MethodPost, "/sync/pull", map[string]string{
		"org_id":      domain.NewOrgID().String(),
		"environment": "demo",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body []pullSummaryResponse
	decode(t, resp, &body)
	require.Len(t, body, 2)
	assert.Equal(t, 5, body[0].Pulled)
	require.Len(t, body[1].Errors, 1)
}

func TestErrorEnvelopeHidesInternalDetail(t *testing.T) {
	f := newFixture(t)
	f.sync.pullErr = dErrors.Wrap(dErrors.CodeInternal, "store blew up", fmt.Errorf("pq: connection refused"))

	resp := f.do(t, http.MethodPost, "/registri/"+domain.NewRegistroID().String()+"/pull", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "internal", body["error"])
	assert.NotContains(t, body, "error_description")
}

func TestRequestIDEchoedBack(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "corr-42")

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "corr-42", resp.Header.Get("X-Request-Id"))
}
