package registri

import (
	"time"

	"rentrihub/pkg/domain"
)

// LocalType is the register's bookkeeping direction.
type LocalType string

const (
	TipoCarico        LocalType = "carico"
	TipoScarico       LocalType = "scarico"
	TipoCaricoScarico LocalType = "carico_scarico"
)

// Registry activity codes. Recupero and Smaltimento carry a mandatory
// authorization-code list; declaring them without codes is rejected remotely.
const (
	AttivitaProduzione  = "Produzione"
	AttivitaRecupero    = "Recupero"
	AttivitaSmaltimento = "Smaltimento"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// Registro is the local mirror of a Registry register: the container that
// movements belong to. Created locally first, bound remotely exactly once.
type Registro struct {
	ID        domain.RegistroID
	OrgID     domain.OrgID
	LocalType LocalType
	// RentriID is the remote register identifier; nil until remote creation
	// succeeds.
	RentriID             *string
	Attivita             []string
	CodiciAutorizzazione []string
	Environment          domain.Environment
	SyncStatus           SyncStatus
	SyncAt               *time.Time
	SyncError            *string
}

// RemotelyBound reports whether the register already has a remote identity.
func (r *Registro) RemotelyBound() bool {
	return r.RentriID != nil && *r.RentriID != ""
}
