package transmission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentrihub/internal/movimenti"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/pkg/domain"
)

func remoteItem(progressivo int, identificativo string) map[string]any {
	return map[string]any{
		"identificativo":     identificativo,
		"anno":               2025,
		"progressivo":        progressivo,
		"data_registrazione": "2025-05-10T08:00:00Z",
		"causale":            "NP",
		"rifiuto": map[string]any{
			"codice_eer":   "160104",
			"stato_fisico": "SolidoNonPolverulento",
			"quantita": map[string]any{
				"valore":       12.5,
				"unita_misura": "kg",
			},
			"caratteristiche_pericolo": []string{},
		},
	}
}

func pageHandler(pages map[int][]map[string]any) func(req rentri.Request) (*rentri.Response, error) {
	return func(req rentri.Request) (*rentri.Response, error) {
		page, _ := strconv.Atoi(req.Headers.Get(rentri.HeaderPagingPage))
		body, _ := json.Marshal(pages[page])
		headers := http.Header{}
		headers.Set(rentri.HeaderPagingPageCount, strconv.Itoa(len(pages)))
		return &rentri.Response{Status: http.StatusOK, Headers: headers, Body: body}, nil
	}
}

func TestPull_ReconcilesRemoteMovements(t *testing.T) {
	p := newPipeline(t, pageHandler(map[int][]map[string]any{
		1: {remoteItem(1, "MOV-1"), remoteItem(2, "MOV-2")},
	}))

	summary, err := p.service.Pull(pushContext(), p.registro.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Pulled)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 2, p.movimenti.Count())

	requests := p.client.recorded()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/registri/REG-REMOTE-1/movimenti", req.Path)
	assert.Equal(t, "1", req.Headers.Get(rentri.HeaderPagingPage))
	assert.Equal(t, strconv.Itoa(pullPageSize), req.Headers.Get(rentri.HeaderPagingPageSize))
	// Reads are not integrity-signed.
	assert.Empty(t, req.Headers.Get(rentri.HeaderIntegritySignature))
}

func TestPull_PagesUntilDeclaredPageCount(t *testing.T) {
	firstPage := make([]map[string]any, pullPageSize)
	for i := range firstPage {
		firstPage[i] = remoteItem(i+1, fmt.Sprintf("MOV-%d", i+1))
	}
	p := newPipeline(t, pageHandler(map[int][]map[string]any{
		1: firstPage,
		2: {remoteItem(pullPageSize+1, "MOV-LAST")},
	}))

	summary, err := p.service.Pull(pushContext(), p.registro.ID)
	require.NoError(t, err)
	assert.Equal(t, pullPageSize+1, summary.Pulled)
	require.Len(t, p.client.recorded(), 2)
	assert.Equal(t, "2", p.client.recorded()[1].Headers.Get(rentri.HeaderPagingPage))
}

func TestPull_IsIdempotent(t *testing.T) {
	p := newPipeline(t, pageHandler(map[int][]map[string]any{
		1: {remoteItem(1, "MOV-1"), remoteItem(2, "MOV-2")},
	}))

	_, err := p.service.Pull(pushContext(), p.registro.ID)
	require.NoError(t, err)
	summary, err := p.service.Pull(pushContext(), p.registro.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Pulled)
	assert.Equal(t, 2, p.movimenti.Count(), "re-running the pull must converge, not duplicate")
}

func TestPull_MergesIntoExistingLocalRow(t *testing.T) {
	p := newPipeline(t, pageHandler(map[int][]map[string]any{
		1: {remoteItem(7, "MOV-7")},
	}))
	local := p.seedMovimento(t, 7, movimenti.SyncPending)

	_, err := p.service.Pull(pushContext(), p.registro.ID)
	require.NoError(t, err)

	stored, found := p.movimenti.Get(local.ID)
	require.True(t, found, "the remote row must merge into the local one, not duplicate it")
	assert.Equal(t, movimenti.SyncSynced, stored.SyncStatus)
	require.NotNil(t, stored.RentriID)
	assert.Equal(t, "MOV-7", *stored.RentriID)
	require.NotNil(t, stored.SyncAt)
	assert.Equal(t, 1, p.movimenti.Count())

	listed, err := p.movimenti.ListForPush(context.Background(), p.registro.ID,
		[]domain.MovimentoID{local.ID})
	require.NoError(t, err)
	assert.Empty(t, listed, "synced rows must not be pushable")
}

func TestPull_CollectsPerMovementFailures(t *testing.T) {
	broken := remoteItem(2, "MOV-BAD")
	broken["data_registrazione"] = "not-a-timestamp"

	p := newPipeline(t, pageHandler(map[int][]map[string]any{
		1: {remoteItem(1, "MOV-1"), broken, remoteItem(3, "MOV-3")},
	}))

	summary, err := p.service.Pull(pushContext(), p.registro.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Pulled)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "2025/2")
	assert.Equal(t, 2, p.movimenti.Count())
}

func TestPull_RequiresBoundRegistro(t *testing.T) {
	p := newPipeline(t, pageHandler(nil))
	unbound := &registri.Registro{
		ID:          domain.NewRegistroID(),
		OrgID:       p.registro.OrgID,
		LocalType:   registri.TipoScarico,
		Environment: domain.EnvDemo,
		SyncStatus:  registri.SyncPending,
	}
	require.NoError(t, p.registri.Insert(context.Background(), unbound))

	_, err := p.service.Pull(pushContext(), unbound.ID)
	assert.ErrorIs(t, err, ErrRegistroNotBound)
}

func TestPullAll_FansOutOverBoundRegisters(t *testing.T) {
	p := newPipeline(t, pageHandler(map[int][]map[string]any{
		1: {remoteItem(1, "MOV-1")},
	}))

	secondRemote := "REG-REMOTE-2"
	second := &registri.Registro{
		ID:          domain.NewRegistroID(),
		OrgID:       p.registro.OrgID,
		LocalType:   registri.TipoCarico,
		RentriID:    &secondRemote,
		Environment: domain.EnvDemo,
		SyncStatus:  registri.SyncSynced,
	}
	require.NoError(t, p.registri.Insert(context.Background(), second))

	// An unbound register must not take part in the fan-out.
	unbound := &registri.Registro{
		ID:          domain.NewRegistroID(),
		OrgID:       p.registro.OrgID,
		LocalType:   registri.TipoCarico,
		Environment: domain.EnvDemo,
		SyncStatus:  registri.SyncPending,
	}
	require.NoError(t, p.registri.Insert(context.Background(), unbound))

	summaries, err := p.service.PullAll(pushContext(), p.registro.OrgID, domain.EnvDemo)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, summary := range summaries {
		assert.Equal(t, 1, summary.Pulled)
		assert.Empty(t, summary.Errors)
	}
}
