package audit

import (
	"context"
	"time"

	id "rentrihub/pkg/domain"
)

// EventCategory classifies audit events by retention requirement.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// everything that changes what the national Registry believes about the
	// organization. These require long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Kept
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	OrgID       id.OrgID
	RegistroID  id.RegistroID
	Environment string
	Action      string
	// Outcome is "ok", "rejected" or "error".
	Outcome string
	// Detail carries the operator-facing context: Registry status and body
	// excerpt on rejection, counts on success. Rejections are often legally
	// meaningful, so enough of the original error must survive here.
	Detail    string
	RequestID string
}

type AuditEvent string

const (
	// Certificate events
	EventCertificateActivated AuditEvent = "certificate_activated"
	EventSiteConfigured       AuditEvent = "site_configured"

	// Registro events
	EventRegistroBound      AuditEvent = "registro_bound"
	EventRegistroBindFailed AuditEvent = "registro_bind_failed"

	// Movement events
	EventMovementsPushed     AuditEvent = "movements_pushed"
	EventMovementsPushFailed AuditEvent = "movements_push_failed"
	EventMovementsPulled     AuditEvent = "movements_pulled"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCertificateActivated: CategoryCompliance,
	EventRegistroBound:        CategoryCompliance,
	EventRegistroBindFailed:   CategoryCompliance,
	EventMovementsPushed:      CategoryCompliance,
	EventMovementsPushFailed:  CategoryCompliance,

	EventSiteConfigured:  CategoryOperations,
	EventMovementsPulled: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]Event, error)
}
