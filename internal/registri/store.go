package registri

import (
	"context"
	"time"

	"rentrihub/pkg/domain"
)

// Store persists registers. Implementations return sentinel.ErrNotFound for
// missing rows.
type Store interface {
	// Insert creates a new local register row.
	Insert(ctx context.Context, r *Registro) error

	// Get returns one register by id.
	Get(ctx context.Context, id domain.RegistroID) (*Registro, error)

	// ListBound returns the organization's registers that already have a
	// remote identifier, in the given environment. The pull pipeline fans
	// out over these.
	ListBound(ctx context.Context, orgID domain.OrgID, env domain.Environment) ([]*Registro, error)

	// BindRemote records the remote identifier returned by the Registry and
	// stamps the register synced, clearing any previous sync error.
	BindRemote(ctx context.Context, id domain.RegistroID, rentriID string, at time.Time) error

	// MarkError records a failed remote operation, leaving the register
	// unbound so the creation can be retried.
	MarkError(ctx context.Context, id domain.RegistroID, detail string, at time.Time) error
}
