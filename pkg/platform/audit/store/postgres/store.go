package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "rentrihub/pkg/domain"
	audit "rentrihub/pkg/platform/audit"
	txcontext "rentrihub/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL. Rows are append-only: nothing
// ever updates or deletes an audit event.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()

	var registroID any
	if !event.RegistroID.IsNil() {
		registroID = uuid.UUID(event.RegistroID)
	}

	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (
			id, org_id, registro_id, environment, category, action, outcome,
			detail, request_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.New(),
		uuid.UUID(event.OrgID),
		registroID,
		event.Environment,
		string(category),
		event.Action,
		event.Outcome,
		event.Detail,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByOrg(ctx context.Context, orgID id.OrgID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT org_id, registro_id, environment, action, outcome, detail,
		       request_id, occurred_at
		FROM audit_events
		WHERE org_id = $1
		ORDER BY occurred_at
	`, uuid.UUID(orgID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			org        uuid.UUID
			registroID uuid.NullUUID
		)
		err := rows.Scan(&org, &registroID, &event.Environment, &event.Action,
			&event.Outcome, &event.Detail, &event.RequestID, &event.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.OrgID = id.OrgID(org)
		if registroID.Valid {
			event.RegistroID = id.RegistroID(registroID.UUID)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}
