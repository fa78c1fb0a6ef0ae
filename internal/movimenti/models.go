// Package movimenti holds the movement domain: the local ledger entry model,
// the causale rules, the wire payload builder, and the pre-submission
// validator.
package movimenti

import (
	"time"

	"rentrihub/pkg/domain"
)

// SyncStatus tracks where a movement sits in the asynchronous acceptance
// pipeline. Local state is the durable record of the last known truth.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	// SyncInTransmission means the Registry accepted the submission (202)
	// and confirmation will arrive asynchronously.
	SyncInTransmission SyncStatus = "in_transmission"
	SyncSynced         SyncStatus = "synced"
	SyncError          SyncStatus = "error"
)

// Movimento is one waste (or material) ledger entry. The triple
// (RegistroID, Anno, Progressivo) is the idempotency key the pull
// reconciliation converges on.
type Movimento struct {
	ID         domain.MovimentoID
	OrgID      domain.OrgID
	RegistroID domain.RegistroID

	Anno              int
	Progressivo       int
	DataRegistrazione time.Time
	Causale           string

	// Waste branch fields (causale != "M").
	CodiceEER               string
	DescrizioneRifiuto      string
	StatoFisico             string
	CaratteristichePericolo []string
	Provenienza             string
	AttivitaDestinazione    string

	// Materials branch (causale "M"). CodiceEER doubles as fallback code.
	CodiceMateriale string

	Quantita    float64
	UnitaMisura string

	// Transport manifest reference for transport causali.
	RiferimentoFIR string

	// Arrival outcome for arrival causali.
	EsitoAccettazione string
	QuantitaAccettata *float64
	NoteAccettazione  string

	Note string

	SyncStatus SyncStatus
	RentriID   *string
	SyncError  *string
	SyncAt     *time.Time
}
