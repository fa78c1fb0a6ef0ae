package transmission

import (
	"rentrihub/internal/movimenti"
	"rentrihub/pkg/domain"
)

// PushResult reports the outcome of one push submission. When the Registry
// rejects the batch the result still carries the per-movement exclusions, so
// callers receive it alongside the error.
type PushResult struct {
	// TransactionID is the remote transaction identifier from the 202
	// acceptance; empty when the submission failed.
	TransactionID string
	// Location is the remote status URL accompanying the acceptance.
	Location string
	// Pushed lists the movements that made it into the accepted batch.
	Pushed []domain.MovimentoID
	// Excluded maps movements to the validation failures that kept them out
	// of the batch. Excluded movements are marked error locally and can be
	// resubmitted after correction.
	Excluded map[domain.MovimentoID][]movimenti.FieldError
}

// PullSummary reports one register's reconciliation outcome. Per-movement
// failures are collected, never aborting the remaining movements.
type PullSummary struct {
	RegistroID domain.RegistroID
	Pulled     int
	Errors     []string
}
