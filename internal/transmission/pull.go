package transmission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rentrihub/internal/movimenti"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/audit"
	"rentrihub/pkg/requestcontext"
)

const (
	pullPageSize = 100
	// pullConcurrency bounds the register fan-out in PullAll.
	pullConcurrency = 4
)

// remoteMovimentoWire is one element of the Registry's movement listing.
type remoteMovimentoWire struct {
	Identificativo    string                         `json:"identificativo"`
	Anno              int                            `json:"anno"`
	Progressivo       int                            `json:"progressivo"`
	DataRegistrazione string                         `json:"data_registrazione"`
	Causale           string                         `json:"causale"`
	Rifiuto           *movimenti.RifiutoWire         `json:"rifiuto"`
	Materiale         *movimenti.MaterialeWire       `json:"materiale"`
	IntegrazioneFIR   *movimenti.IntegrazioneFIRWire `json:"integrazione_fir"`
	Esito             *movimenti.EsitoWire           `json:"esito"`
	Note              string                         `json:"note"`
}

// Pull reconciles one register's remote movements into local state. Paging
// stops when the declared page count is reached or a page comes back short.
// Each remote movement is merged by its (registro, anno, progressivo) key,
// so re-running the pull always converges to the same local state.
// Per-movement failures are collected and do not abort the rest.
func (s *Service) Pull(ctx context.Context, registroID domain.RegistroID) (*PullSummary, error) {
	start := time.Now()

	r, err := s.registri.Get(ctx, registroID)
	if err != nil {
		return nil, fmt.Errorf("get registro: %w", err)
	}
	if !r.RemotelyBound() {
		return nil, ErrRegistroNotBound
	}

	cert, err := s.certs.SelectCertificate(ctx, r.OrgID, r.Environment)
	if err != nil {
		return nil, err
	}

	summary := &PullSummary{RegistroID: registroID}
	for page := 1; ; page++ {
		// Reads carry only the bearer token; integrity signatures cover
		// writes.
		headers := http.Header{}
		headers.Set(rentri.HeaderPagingPage, strconv.Itoa(page))
		headers.Set(rentri.HeaderPagingPageSize, strconv.Itoa(pullPageSize))
		resp, err := s.client.Do(ctx, rentri.Request{
			Method:      http.MethodGet,
			Service:     rentri.ServiceDatiRegistri,
			Path:        fmt.Sprintf("/registri/%s/movimenti", *r.RentriID),
			Certificate: cert,
			Headers:     headers,
			Retry:       rentri.SingleAttempt(),
		})
		if err != nil {
			return summary, err
		}

		var items []remoteMovimentoWire
		if len(resp.Body) > 0 {
			if err := json.Unmarshal(resp.Body, &items); err != nil {
				return summary, dErrors.Wrap(dErrors.CodeInternal, "parse remote movements", err)
			}
		}

		now := requestcontext.Now(ctx)
		for _, item := range items {
			m, err := mapRemote(r, item, now)
			if err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("movement %d/%d: %v", item.Anno, item.Progressivo, err))
				continue
			}
			if err := s.movimenti.UpsertRemote(ctx, m); err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("movement %d/%d: %v", item.Anno, item.Progressivo, err))
				continue
			}
			summary.Pulled++
		}

		pageCount, _ := strconv.Atoi(resp.Headers.Get(rentri.HeaderPagingPageCount))
		if (pageCount > 0 && page >= pageCount) || len(items) < pullPageSize {
			break
		}
	}

	s.metrics.ObservePull(summary.Pulled, len(summary.Errors), start)
	s.emit(ctx, r, string(audit.EventMovementsPulled), "ok",
		fmt.Sprintf("%d movements reconciled, %d failures", summary.Pulled, len(summary.Errors)))
	return summary, nil
}

// PullAll reconciles every remotely bound register of the organization. One
// register's failure never aborts the others; it is folded into that
// register's summary instead.
func (s *Service) PullAll(ctx context.Context, orgID domain.OrgID, env domain.Environment) ([]*PullSummary, error) {
	regs, err := s.registri.ListBound(ctx, orgID, env)
	if err != nil {
		return nil, fmt.Errorf("list bound registri: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pullConcurrency)

	var mu sync.Mutex
	summaries := make([]*PullSummary, 0, len(regs))
	for _, r := range regs {
		g.Go(func() error {
			summary, err := s.Pull(ctx, r.ID)
			if summary == nil {
				summary = &PullSummary{RegistroID: r.ID}
			}
			if err != nil {
				summary.Errors = append(summary.Errors, err.Error())
			}
			mu.Lock()
			summaries = append(summaries, summary)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return summaries, nil
}

// mapRemote converts a remote movement into the local shape, stamped synced.
func mapRemote(r *registri.Registro, item remoteMovimentoWire, now time.Time) (*movimenti.Movimento, error) {
	if item.Anno == 0 || item.Progressivo == 0 {
		return nil, fmt.Errorf("missing anno or progressivo")
	}
	registered, err := time.Parse(time.RFC3339, item.DataRegistrazione)
	if err != nil {
		return nil, fmt.Errorf("parse data_registrazione: %w", err)
	}

	m := &movimenti.Movimento{
		OrgID:             r.OrgID,
		RegistroID:        r.ID,
		Anno:              item.Anno,
		Progressivo:       item.Progressivo,
		DataRegistrazione: registered,
		Causale:           item.Causale,
		Note:              item.Note,
		SyncStatus:        movimenti.SyncSynced,
		SyncAt:            &now,
	}
	if item.Identificativo != "" {
		m.RentriID = &item.Identificativo
	}

	if item.Rifiuto != nil {
		m.CodiceEER = item.Rifiuto.CodiceEER
		m.DescrizioneRifiuto = item.Rifiuto.Descrizione
		m.StatoFisico = item.Rifiuto.StatoFisico
		m.Quantita = item.Rifiuto.Quantita.Valore
		m.UnitaMisura = item.Rifiuto.Quantita.UnitaMisura
		m.CaratteristichePericolo = item.Rifiuto.CaratteristichePericolo
		m.Provenienza = item.Rifiuto.Provenienza
		m.AttivitaDestinazione = item.Rifiuto.AttivitaDestinazione
	}
	if item.Materiale != nil {
		m.CodiceMateriale = item.Materiale.Codice
		m.DescrizioneRifiuto = item.Materiale.Descrizione
		m.Quantita = item.Materiale.Quantita.Valore
		m.UnitaMisura = item.Materiale.Quantita.UnitaMisura
	}
	if item.IntegrazioneFIR != nil {
		m.RiferimentoFIR = item.IntegrazioneFIR.NumeroFIR
	}
	if item.Esito != nil {
		m.EsitoAccettazione = item.Esito.EsitoAccettazione
		m.QuantitaAccettata = item.Esito.QuantitaAccettata
		m.NoteAccettazione = item.Esito.Note
	}
	return m, nil
}
