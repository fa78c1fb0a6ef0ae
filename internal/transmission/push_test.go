package transmission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentrihub/internal/certstore"
	"rentrihub/internal/movimenti"
	"rentrihub/internal/platform/logger"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/audit/publisher"
	auditmemory "rentrihub/pkg/platform/audit/store/memory"
	"rentrihub/pkg/requestcontext"
)

var pushNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

type fakeRegistry struct {
	mu       sync.Mutex
	requests []rentri.Request
	handler  func(req rentri.Request) (*rentri.Response, error)
}

func (f *fakeRegistry) Do(_ context.Context, req rentri.Request) (*rentri.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler := f.handler
	f.mu.Unlock()
	return handler(req)
}

func (f *fakeRegistry) recorded() []rentri.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rentri.Request{}, f.requests...)
}

type staticCerts struct {
	cert *certstore.OperatorCertificate
	err  error
}

func (s staticCerts) SelectCertificate(context.Context, domain.OrgID, domain.Environment) (*certstore.OperatorCertificate, error) {
	return s.cert, s.err
}

type staticSigner struct{}

func (staticSigner) IntegritySignature(context.Context, *certstore.OperatorCertificate, string, string) (string, error) {
	return "integrity-sig", nil
}

type pipeline struct {
	service    *Service
	registri   *registri.MemoryStore
	movimenti  *movimenti.MemoryStore
	client     *fakeRegistry
	auditStore *auditmemory.InMemoryStore
	registro   *registri.Registro
}

func newPipeline(t *testing.T, handler func(req rentri.Request) (*rentri.Response, error)) *pipeline {
	t.Helper()

	registroStore := registri.NewMemoryStore()
	movimentoStore := movimenti.NewMemoryStore()
	client := &fakeRegistry{handler: handler}
	auditStore := auditmemory.NewInMemoryStore()
	auditor := publisher.NewPublisher(auditStore)
	t.Cleanup(auditor.Close)

	remote := "REG-REMOTE-1"
	now := pushNow
	registro := &registri.Registro{
		ID:          domain.NewRegistroID(),
		OrgID:       domain.NewOrgID(),
		LocalType:   registri.TipoCaricoScarico,
		RentriID:    &remote,
		Environment: domain.EnvDemo,
		SyncStatus:  registri.SyncSynced,
		SyncAt:      &now,
	}
	require.NoError(t, registroStore.Insert(context.Background(), registro))

	certs := staticCerts{cert: &certstore.OperatorCertificate{
		ID:          domain.NewCertificateID(),
		OrgID:       registro.OrgID,
		CFOperatore: "RSSMRA80A01H501U",
		Environment: domain.EnvDemo,
		ExpiresAt:   pushNow.Add(24 * time.Hour),
	}}

	service := NewService(registroStore, movimentoStore, certs, staticSigner{},
		client, movimenti.NewBuilder(logger.Nop()), auditor, nil, logger.Nop())

	return &pipeline{
		service:    service,
		registri:   registroStore,
		movimenti:  movimentoStore,
		client:     client,
		auditStore: auditStore,
		registro:   registro,
	}
}

func pushContext() context.Context {
	return requestcontext.WithTime(context.Background(), pushNow)
}

func acceptedHandler(transazione string) func(req rentri.Request) (*rentri.Response, error) {
	return func(req rentri.Request) (*rentri.Response, error) {
		body, _ := json.Marshal(map[string]string{"transazione": transazione})
		headers := http.Header{}
		headers.Set("Location", "/transazioni/"+transazione)
		return &rentri.Response{Status: http.StatusAccepted, Headers: headers, Body: body}, nil
	}
}

func (p *pipeline) seedMovimento(t *testing.T, progressivo int, status movimenti.SyncStatus) *movimenti.Movimento {
	t.Helper()
	m := &movimenti.Movimento{
		ID:                domain.NewMovimentoID(),
		OrgID:             p.registro.OrgID,
		RegistroID:        p.registro.ID,
		Anno:              2025,
		Progressivo:       progressivo,
		DataRegistrazione: pushNow.Add(-time.Hour),
		Causale:           movimenti.CausaleNuovaProduzione,
		CodiceEER:         "160104",
		Quantita:          10,
		UnitaMisura:       "kg",
		SyncStatus:        status,
	}
	require.NoError(t, p.movimenti.Insert(context.Background(), m))
	return m
}

func TestPush_SubmitsBatchAndMarksInTransmission(t *testing.T) {
	p := newPipeline(t, acceptedHandler("TX-100"))
	first := p.seedMovimento(t, 1, movimenti.SyncPending)
	second := p.seedMovimento(t, 2, movimenti.SyncError)

	result, err := p.service.Push(pushContext(), p.registro.ID,
		[]domain.MovimentoID{first.ID, second.ID})
	require.NoError(t, err)

	assert.Equal(t, "TX-100", result.TransactionID)
	assert.Equal(t, "/transazioni/TX-100", result.Location)
	assert.Len(t, result.Pushed, 2)
	assert.Empty(t, result.Excluded)

	requests := p.client.recorded()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, rentri.ServiceDatiRegistri, req.Service)
	assert.Equal(t, "/registri/REG-REMOTE-1/movimenti", req.Path)
	assert.Equal(t, 3, req.Retry.MaxAttempts)

	body, ok := req.Body.([]byte)
	require.True(t, ok)
	assert.Equal(t, rentri.ContentDigest(body), req.Headers.Get(rentri.HeaderDigest))
	assert.Equal(t, "integrity-sig", req.Headers.Get(rentri.HeaderIntegritySignature))

	var wire []map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Len(t, wire, 2)

	for _, id := range []domain.MovimentoID{first.ID, second.ID} {
		stored, found := p.movimenti.Get(id)
		require.True(t, found)
		assert.Equal(t, movimenti.SyncInTransmission, stored.SyncStatus)
		assert.Nil(t, stored.SyncError)
	}

	events, err := p.auditStore.ListByOrg(context.Background(), p.registro.OrgID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "movements_pushed", events[0].Action)
}

func TestPush_UpfrontRejections(t *testing.T) {
	p := newPipeline(t, acceptedHandler("TX-1"))

	t.Run("empty batch", func(t *testing.T) {
		_, err := p.service.Push(pushContext(), p.registro.ID, nil)
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})

	t.Run("batch over limit", func(t *testing.T) {
		ids := make([]domain.MovimentoID, maxBatchSize+1)
		for i := range ids {
			ids[i] = domain.NewMovimentoID()
		}
		_, err := p.service.Push(pushContext(), p.registro.ID, ids)
		assert.ErrorIs(t, err, ErrBatchTooLarge)
	})

	t.Run("unbound registro", func(t *testing.T) {
		unbound := &registri.Registro{
			ID:          domain.NewRegistroID(),
			OrgID:       p.registro.OrgID,
			LocalType:   registri.TipoCarico,
			Environment: domain.EnvDemo,
			SyncStatus:  registri.SyncPending,
		}
		require.NoError(t, p.registri.Insert(context.Background(), unbound))

		_, err := p.service.Push(pushContext(), unbound.ID,
			[]domain.MovimentoID{domain.NewMovimentoID()})
		assert.ErrorIs(t, err, ErrRegistroNotBound)
	})

	assert.Empty(t, p.client.recorded(), "no request may leave the process on upfront rejection")
}

func TestPush_SkipsMovementsAlreadyInFlight(t *testing.T) {
	p := newPipeline(t, acceptedHandler("TX-1"))
	synced := p.seedMovimento(t, 1, movimenti.SyncSynced)
	inTransmission := p.seedMovimento(t, 2, movimenti.SyncInTransmission)

	_, err := p.service.Push(pushContext(), p.registro.ID,
		[]domain.MovimentoID{synced.ID, inTransmission.ID})
	assert.ErrorIs(t, err, ErrNoEligibleMovements)
	assert.Empty(t, p.client.recorded())
}

func TestPush_ExcludesInvalidMovements(t *testing.T) {
	p := newPipeline(t, acceptedHandler("TX-2"))
	valid := p.seedMovimento(t, 1, movimenti.SyncPending)

	invalid := p.seedMovimento(t, 2, movimenti.SyncPending)
	invalid.Quantita = 0
	require.NoError(t, p.movimenti.Insert(context.Background(), invalid))

	result, err := p.service.Push(pushContext(), p.registro.ID,
		[]domain.MovimentoID{valid.ID, invalid.ID})
	require.NoError(t, err)

	assert.Equal(t, []domain.MovimentoID{valid.ID}, result.Pushed)
	require.Contains(t, result.Excluded, invalid.ID)

	body := p.client.recorded()[0].Body.([]byte)
	var wire []map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	assert.Len(t, wire, 1)

	stored, _ := p.movimenti.Get(invalid.ID)
	assert.Equal(t, movimenti.SyncError, stored.SyncStatus)
	require.NotNil(t, stored.SyncError)
	assert.Contains(t, *stored.SyncError, "quantita")
}

func TestPush_AllInvalidSendsNothing(t *testing.T) {
	p := newPipeline(t, acceptedHandler("TX-3"))
	invalid := p.seedMovimento(t, 1, movimenti.SyncPending)
	invalid.CodiceEER = ""
	require.NoError(t, p.movimenti.Insert(context.Background(), invalid))

	result, err := p.service.Push(pushContext(), p.registro.ID,
		[]domain.MovimentoID{invalid.ID})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	require.NotNil(t, result)
	assert.Contains(t, result.Excluded, invalid.ID)
	assert.Empty(t, p.client.recorded())
}

func TestPush_RejectionMarksBatchErrored(t *testing.T) {
	rejection := &rentri.RejectionError{
		Status: http.StatusUnprocessableEntity,
		Body:   []byte(`{"detail":"codice EER non autorizzato"}`),
	}
	p := newPipeline(t, func(rentri.Request) (*rentri.Response, error) {
		return nil, rejection
	})
	m := p.seedMovimento(t, 1, movimenti.SyncPending)

	_, err := p.service.Push(pushContext(), p.registro.ID, []domain.MovimentoID{m.ID})
	var gotRejection *rentri.RejectionError
	require.ErrorAs(t, err, &gotRejection)

	stored, _ := p.movimenti.Get(m.ID)
	assert.Equal(t, movimenti.SyncError, stored.SyncStatus)
	require.NotNil(t, stored.SyncError)
	assert.Contains(t, *stored.SyncError, "codice EER non autorizzato")

	events, err := p.auditStore.ListByOrg(context.Background(), p.registro.OrgID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "movements_push_failed", events[0].Action)
	assert.Equal(t, "rejected", events[0].Outcome)
	assert.Contains(t, events[0].Detail, fmt.Sprint(http.StatusUnprocessableEntity))
}

func TestPush_MissingTransactionIDIsProtocolViolation(t *testing.T) {
	p := newPipeline(t, func(rentri.Request) (*rentri.Response, error) {
		return &rentri.Response{Status: http.StatusAccepted, Body: []byte(`{}`)}, nil
	})
	m := p.seedMovimento(t, 1, movimenti.SyncPending)

	_, err := p.service.Push(pushContext(), p.registro.ID, []domain.MovimentoID{m.ID})
	assert.ErrorIs(t, err, ErrMissingTransactionID)

	stored, _ := p.movimenti.Get(m.ID)
	assert.Equal(t, movimenti.SyncError, stored.SyncStatus)
}
