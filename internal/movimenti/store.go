package movimenti

import (
	"context"
	"time"

	"rentrihub/pkg/domain"
)

// Store persists movements. Implementations return sentinel.ErrNotFound for
// missing rows.
type Store interface {
	// Insert creates a new local movement row.
	Insert(ctx context.Context, m *Movimento) error

	// ListForPush returns, among the given ids, only the movements of the
	// register whose sync status is pending or error. Rows already in
	// transmission or synced are skipped to avoid duplicate submission.
	ListForPush(ctx context.Context, registroID domain.RegistroID, ids []domain.MovimentoID) ([]*Movimento, error)

	// MarkStatus updates the sync status of a batch in one statement,
	// recording the sync error (nil clears it) and timestamp.
	MarkStatus(ctx context.Context, ids []domain.MovimentoID, status SyncStatus, syncErr *string, at time.Time) error

	// UpsertRemote merges a movement pulled from the Registry, keyed on
	// (registroID, anno, progressivo). Re-running the pull converges: the
	// same remote row always produces the same local row, stamped synced.
	UpsertRemote(ctx context.Context, m *Movimento) error
}
