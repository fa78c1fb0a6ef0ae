package registri

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rentrihub/pkg/domain"
	"rentrihub/pkg/platform/sentinel"
)

// PostgresStore persists registers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const registroColumns = `
	id, org_id, local_type, rentri_id, attivita, codici_autorizzazione,
	environment, sync_status, sync_at, sync_error`

func (s *PostgresStore) Insert(ctx context.Context, r *Registro) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registri (`+registroColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(r.ID),
		uuid.UUID(r.OrgID),
		string(r.LocalType),
		r.RentriID,
		pq.Array(r.Attivita),
		pq.Array(r.CodiciAutorizzazione),
		string(r.Environment),
		string(r.SyncStatus),
		r.SyncAt,
		r.SyncError,
	)
	if err != nil {
		return fmt.Errorf("insert registro: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RegistroID) (*Registro, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+registroColumns+`
		FROM registri
		WHERE id = $1
	`, uuid.UUID(id))

	r, err := scanRegistro(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registro: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListBound(ctx context.Context, orgID domain.OrgID, env domain.Environment) ([]*Registro, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+registroColumns+`
		FROM registri
		WHERE org_id = $1
		  AND environment = $2
		  AND rentri_id IS NOT NULL
		ORDER BY created_at
	`, uuid.UUID(orgID), string(env))
	if err != nil {
		return nil, fmt.Errorf("list bound registri: %w", err)
	}
	defer rows.Close()

	var out []*Registro
	for rows.Next() {
		r, err := scanRegistro(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registro: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registri: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) BindRemote(ctx context.Context, id domain.RegistroID, rentriID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE registri
		SET rentri_id = $2, sync_status = 'synced', sync_at = $3, sync_error = NULL
		WHERE id = $1
	`, uuid.UUID(id), rentriID, at)
	if err != nil {
		return fmt.Errorf("bind registro: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkError(ctx context.Context, id domain.RegistroID, detail string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE registri
		SET sync_status = 'error', sync_error = $2, sync_at = $3
		WHERE id = $1
	`, uuid.UUID(id), detail, at)
	if err != nil {
		return fmt.Errorf("mark registro error: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistro(row rowScanner) (*Registro, error) {
	var (
		r          Registro
		id, orgID  uuid.UUID
		localType  string
		rentriID   sql.NullString
		env        string
		syncStatus string
		syncAt     sql.NullTime
		syncError  sql.NullString
	)

	err := row.Scan(
		&id,
		&orgID,
		&localType,
		&rentriID,
		pq.Array(&r.Attivita),
		pq.Array(&r.CodiciAutorizzazione),
		&env,
		&syncStatus,
		&syncAt,
		&syncError,
	)
	if err != nil {
		return nil, err
	}

	r.ID = domain.RegistroID(id)
	r.OrgID = domain.OrgID(orgID)
	r.LocalType = LocalType(localType)
	r.Environment = domain.Environment(env)
	r.SyncStatus = SyncStatus(syncStatus)
	if rentriID.Valid {
		r.RentriID = &rentriID.String
	}
	if syncAt.Valid {
		r.SyncAt = &syncAt.Time
	}
	if syncError.Valid {
		r.SyncError = &syncError.String
	}
	return &r, nil
}
