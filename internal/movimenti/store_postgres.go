package movimenti

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rentrihub/pkg/domain"
)

// PostgresStore persists movements in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const movimentoColumns = `
	id, org_id, registro_id, anno, progressivo, data_registrazione, causale,
	codice_eer, descrizione_rifiuto, codice_materiale, quantita, unita_misura,
	stato_fisico, caratteristiche_pericolo, provenienza, attivita_destinazione,
	riferimento_fir, esito_accettazione, quantita_accettata, note_accettazione,
	note, sync_status, rentri_id, sync_error, sync_at`

func (s *PostgresStore) Insert(ctx context.Context, m *Movimento) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movimenti (`+movimentoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`, movimentoArgs(m)...)
	if err != nil {
		return fmt.Errorf("insert movimento: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListForPush(ctx context.Context, registroID domain.RegistroID, ids []domain.MovimentoID) ([]*Movimento, error) {
	rawIDs := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		rawIDs[i] = uuid.UUID(id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movimentoColumns+`
		FROM movimenti
		WHERE registro_id = $1
		  AND id = ANY($2)
		  AND sync_status IN ('pending', 'error')
		ORDER BY progressivo
	`, uuid.UUID(registroID), pq.Array(rawIDs))
	if err != nil {
		return nil, fmt.Errorf("list movimenti for push: %w", err)
	}
	defer rows.Close()

	var out []*Movimento
	for rows.Next() {
		m, err := scanMovimento(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movimento: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movimenti: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkStatus(ctx context.Context, ids []domain.MovimentoID, status SyncStatus, syncErr *string, at time.Time) error {
	rawIDs := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		rawIDs[i] = uuid.UUID(id)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE movimenti
		SET sync_status = $2, sync_error = $3, sync_at = $4
		WHERE id = ANY($1)
	`, pq.Array(rawIDs), string(status), syncErr, at)
	if err != nil {
		return fmt.Errorf("mark movimenti status: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertRemote(ctx context.Context, m *Movimento) error {
	if m.ID.IsNil() {
		m.ID = domain.NewMovimentoID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movimenti (`+movimentoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (registro_id, anno, progressivo) DO UPDATE SET
			data_registrazione       = EXCLUDED.data_registrazione,
			causale                  = EXCLUDED.causale,
			codice_eer               = EXCLUDED.codice_eer,
			descrizione_rifiuto      = EXCLUDED.descrizione_rifiuto,
			codice_materiale         = EXCLUDED.codice_materiale,
			quantita                 = EXCLUDED.quantita,
			unita_misura             = EXCLUDED.unita_misura,
			stato_fisico             = EXCLUDED.stato_fisico,
			caratteristiche_pericolo = EXCLUDED.caratteristiche_pericolo,
			provenienza              = EXCLUDED.provenienza,
			attivita_destinazione    = EXCLUDED.attivita_destinazione,
			riferimento_fir          = EXCLUDED.riferimento_fir,
			esito_accettazione       = EXCLUDED.esito_accettazione,
			quantita_accettata       = EXCLUDED.quantita_accettata,
			note_accettazione        = EXCLUDED.note_accettazione,
			note                     = EXCLUDED.note,
			sync_status              = EXCLUDED.sync_status,
			rentri_id                = EXCLUDED.rentri_id,
			sync_error               = NULL,
			sync_at                  = EXCLUDED.sync_at
	`, movimentoArgs(m)...)
	if err != nil {
		return fmt.Errorf("upsert remote movimento: %w", err)
	}
	return nil
}

func movimentoArgs(m *Movimento) []any {
	return []any{
		uuid.UUID(m.ID),
		uuid.UUID(m.OrgID),
		uuid.UUID(m.RegistroID),
		m.Anno,
		m.Progressivo,
		m.DataRegistrazione,
		m.Causale,
		nullIfEmpty(m.CodiceEER),
		nullIfEmpty(m.DescrizioneRifiuto),
		nullIfEmpty(m.CodiceMateriale),
		m.Quantita,
		nullIfEmpty(m.UnitaMisura),
		nullIfEmpty(m.StatoFisico),
		pq.Array(m.CaratteristichePericolo),
		nullIfEmpty(m.Provenienza),
		nullIfEmpty(m.AttivitaDestinazione),
		nullIfEmpty(m.RiferimentoFIR),
		nullIfEmpty(m.EsitoAccettazione),
		m.QuantitaAccettata,
		nullIfEmpty(m.NoteAccettazione),
		nullIfEmpty(m.Note),
		string(m.SyncStatus),
		m.RentriID,
		m.SyncError,
		m.SyncAt,
	}
}

func scanMovimento(rows *sql.Rows) (*Movimento, error) {
	var (
		m                       Movimento
		id, orgID, registroID   uuid.UUID
		codiceEER, descrizione  sql.NullString
		codiceMateriale         sql.NullString
		unitaMisura, statoFis   sql.NullString
		provenienza, attivita   sql.NullString
		riferimentoFIR, esito   sql.NullString
		noteAccettazione, note  sql.NullString
		syncStatus              string
		rentriID, syncErrorText sql.NullString
		syncAt                  sql.NullTime
	)

	err := rows.Scan(
		&id,
		&orgID,
		&registroID,
		&m.Anno,
		&m.Progressivo,
		&m.DataRegistrazione,
		&m.Causale,
		&codiceEER,
		&descrizione,
		&codiceMateriale,
		&m.Quantita,
		&unitaMisura,
		&statoFis,
		pq.Array(&m.CaratteristichePericolo),
		&provenienza,
		&attivita,
		&riferimentoFIR,
		&esito,
		&m.QuantitaAccettata,
		&noteAccettazione,
		&note,
		&syncStatus,
		&rentriID,
		&syncErrorText,
		&syncAt,
	)
	if err != nil {
		return nil, err
	}

	m.ID = domain.MovimentoID(id)
	m.OrgID = domain.OrgID(orgID)
	m.RegistroID = domain.RegistroID(registroID)
	m.CodiceEER = codiceEER.String
	m.DescrizioneRifiuto = descrizione.String
	m.CodiceMateriale = codiceMateriale.String
	m.UnitaMisura = unitaMisura.String
	m.StatoFisico = statoFis.String
	m.Provenienza = provenienza.String
	m.AttivitaDestinazione = attivita.String
	m.RiferimentoFIR = riferimentoFIR.String
	m.EsitoAccettazione = esito.String
	m.NoteAccettazione = noteAccettazione.String
	m.Note = note.String
	m.SyncStatus = SyncStatus(syncStatus)
	if rentriID.Valid {
		m.RentriID = &rentriID.String
	}
	if syncErrorText.Valid {
		m.SyncError = &syncErrorText.String
	}
	if syncAt.Valid {
		m.SyncAt = &syncAt.Time
	}
	return &m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
