package transmission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rentrihub/internal/movimenti"
	"rentrihub/internal/registri"
	"rentrihub/internal/rentri"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/platform/audit"
	"rentrihub/pkg/requestcontext"
)

// maxBatchSize is the Registry's movement submission limit.
const maxBatchSize = 1000

// pushAcceptedWire is the body of a 202 acceptance.
type pushAcceptedWire struct {
	Transazione string `json:"transazione"`
}

// Push submits the given movements of a register to the Registry. Only
// movements in a pushable sync state (pending or error) enter the batch;
// movements failing validation are excluded, marked error, and reported in
// the result. On acceptance the batch transitions to in_transmission and the
// remote transaction id is returned.
//
// When the submission itself fails, the returned PushResult still carries
// the validation exclusions; sync state records the failure for every
// movement that was in the batch.
func (s *Service) Push(ctx context.Context, registroID domain.RegistroID, ids []domain.MovimentoID) (*PushResult, error) {
	start := time.Now()

	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(ids) > maxBatchSize {
		return nil, ErrBatchTooLarge
	}

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

	movs, err := s.movimenti.ListForPush(ctx, registroID, ids)
	if err != nil {
		return nil, fmt.Errorf("list movimenti: %w", err)
	}
	if len(movs) == 0 {
		return nil, ErrNoEligibleMovements
	}

	now := requestcontext.Now(ctx)
	result := &PushResult{Excluded: make(map[domain.MovimentoID][]movimenti.FieldError)}

	var payload []movimenti.MovimentoWire
	var batch []domain.MovimentoID
	for _, m := range movs {
		if fieldErrs := movimenti.Validate(m); len(fieldErrs) > 0 {
			result.Excluded[m.ID] = fieldErrs
			detail := joinFieldErrors(fieldErrs)
			if err := s.movimenti.MarkStatus(ctx, []domain.MovimentoID{m.ID}, movimenti.SyncError, &detail, now); err != nil {
				s.logger.Error("failed to record validation exclusion",
					slog.String("movimento_id", m.ID.String()),
					slog.String("error", err.Error()))
			}
			continue
		}
		built := s.builder.Build(m)
		payload = append(payload, built.Payload)
		batch = append(batch, m.ID)
	}
	if len(batch) == 0 {
		return result, dErrors.New(dErrors.CodeInvalidInput, "every movement in the batch failed validation")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("marshal movement batch: %w", err)
	}
	digest := rentri.ContentDigest(body)
	signature, err := s.signer.IntegritySignature(ctx, cert, digest, "application/json")
	if err != nil {
		return result, err
	}

	headers := http.Header{}
	headers.Set(rentri.HeaderDigest, digest)
	headers.Set(rentri.HeaderIntegritySignature, signature)
	resp, err := s.client.Do(ctx, rentri.Request{
		Method:      http.MethodPost,
		Service:     rentri.ServiceDatiRegistri,
		Path:        fmt.Sprintf("/registri/%s/movimenti", *r.RentriID),
		Body:        body,
		Certificate: cert,
		Headers:     headers,
		Retry:       rentri.PushPolicy(),
	})
	if err != nil {
		return result, s.pushFailed(ctx, r, batch, err, start)
	}

	var accepted pushAcceptedWire
	_ = json.Unmarshal(resp.Body, &accepted)
	if accepted.Transazione == "" {
		s.logger.Error("registry accepted batch without transaction id",
			slog.String("registro_id", r.ID.String()),
			slog.Int("status", resp.Status),
			slog.Int("movements", len(batch)))
		return result, s.pushFailed(ctx, r, batch, ErrMissingTransactionID, start)
	}

	if err := s.movimenti.MarkStatus(ctx, batch, movimenti.SyncInTransmission, nil, now); err != nil {
		return result, fmt.Errorf("mark movimenti in transmission: %w", err)
	}

	result.TransactionID = accepted.Transazione
	result.Location = resp.Headers.Get("Location")
	result.Pushed = batch

	s.metrics.ObservePush("ok", len(batch), start)
	s.emit(ctx, r, string(audit.EventMovementsPushed), "ok",
		fmt.Sprintf("transaction %s, %d movements, %d excluded",
			accepted.Transazione, len(batch), len(result.Excluded)))
	return result, nil
}

// pushFailed marks the batch as errored, audits the failure, and returns the
// original error so the Registry's detail reaches the operator verbatim.
func (s *Service) pushFailed(ctx context.Context, r *registri.Registro, batch []domain.MovimentoID, cause error, start time.Time) error {
	now := requestcontext.Now(ctx)
	detail := cause.Error()
	if err := s.movimenti.MarkStatus(ctx, batch, movimenti.SyncError, &detail, now); err != nil {
		s.logger.Error("failed to record push failure",
			slog.String("registro_id", r.ID.String()),
			slog.String("error", err.Error()))
	}

	outcome := "error"
	var rejection *rentri.RejectionError
	if errors.As(cause, &rejection) {
		outcome = "rejected"
	}
	s.metrics.ObservePush(outcome, 0, start)
	s.emit(ctx, r, string(audit.EventMovementsPushFailed), outcome, detail)
	return cause
}

func joinFieldErrors(errs []movimenti.FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}
