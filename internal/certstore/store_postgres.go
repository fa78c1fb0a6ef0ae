package certstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"rentrihub/pkg/domain"
	"rentrihub/pkg/platform/sentinel"
	txcontext "rentrihub/pkg/platform/tx"
)

// PostgresStore persists operator certificates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const certificateColumns = `
	id, org_id, cf_operatore, legal_name, certificate_pem, private_key_pem,
	certificate_password, environment, num_iscr_sito, issued_at, expires_at,
	is_active, is_default`

func (s *PostgresStore) SelectActive(ctx context.Context, orgID domain.OrgID, env domain.Environment) (*OperatorCertificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM operator_certificates
		WHERE org_id = $1 AND environment = $2 AND is_active AND is_default
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(orgID), string(env))

	cert, err := scanCertificate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select active certificate: %w", err)
	}
	return cert, nil
}

// ActivateDefault runs the clear-then-insert inside a single transaction so a
// concurrent activation can never leave two default certificates behind. The
// partial unique index on (org_id, environment) is the backstop.
func (s *PostgresStore) ActivateDefault(ctx context.Context, cert *OperatorCertificate) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		sqlTx, _ := txcontext.From(ctx)

		_, err := sqlTx.ExecContext(ctx, `
			UPDATE operator_certificates
			SET is_default = FALSE
			WHERE org_id = $1 AND environment = $2 AND is_default
		`, uuid.UUID(cert.OrgID), string(cert.Environment))
		if err != nil {
			return fmt.Errorf("clear previous default: %w", err)
		}

		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO operator_certificates (`+certificateColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			uuid.UUID(cert.ID),
			uuid.UUID(cert.OrgID),
			cert.CFOperatore,
			cert.LegalName,
			cert.CertificatePEM,
			cert.PrivateKeyPEM,
			cert.Password,
			string(cert.Environment),
			cert.NumIscrSito,
			cert.IssuedAt,
			cert.ExpiresAt,
			cert.IsActive,
			cert.IsDefault,
		)
		if err != nil {
			return fmt.Errorf("insert certificate: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) SetSiteRegistration(ctx context.Context, id domain.CertificateID, numIscrSito string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE operator_certificates SET num_iscr_sito = $2 WHERE id = $1
	`, uuid.UUID(id), numIscrSito)
	if err != nil {
		return fmt.Errorf("set site registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set site registration: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.CertificateID) (*OperatorCertificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM operator_certificates
		WHERE id = $1
	`
	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return cert, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*OperatorCertificate, error) {
	var (
		cert        OperatorCertificate
		id, orgID   uuid.UUID
		env         string
		numIscrSito sql.NullString
	)
	err := row.Scan(
		&id,
		&orgID,
		&cert.CFOperatore,
		&cert.LegalName,
		&cert.CertificatePEM,
		&cert.PrivateKeyPEM,
		&cert.Password,
		&env,
		&numIscrSito,
		&cert.IssuedAt,
		&cert.ExpiresAt,
		&cert.IsActive,
		&cert.IsDefault,
	)
	if err != nil {
		return nil, err
	}
	cert.ID = domain.CertificateID(id)
	cert.OrgID = domain.OrgID(orgID)
	cert.Environment = domain.Environment(env)
	if numIscrSito.Valid {
		cert.NumIscrSito = &numIscrSito.String
	}
	return &cert, nil
}
