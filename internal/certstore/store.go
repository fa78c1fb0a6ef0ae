package certstore

import (
	"context"

	"rentrihub/pkg/domain"
)

// Store persists operator certificates. Implementations return
// sentinel.ErrNotFound when no matching certificate exists; the service
// translates that into ErrCertificateMissing.
type Store interface {
	// SelectActive returns the single certificate with is_active and
	// is_default set for the organization and environment.
	SelectActive(ctx context.Context, orgID domain.OrgID, env domain.Environment) (*OperatorCertificate, error)

	// ActivateDefault inserts cert as the new active default, clearing the
	// default flag on every other certificate for the same organization and
	// environment. The clear-then-insert must be one atomic unit so two
	// certificates are never simultaneously default.
	ActivateDefault(ctx context.Context, cert *OperatorCertificate) error

	// SetSiteRegistration records the numIscrSito site code on a certificate.
	SetSiteRegistration(ctx context.Context, id domain.CertificateID, numIscrSito string) error

	// Get returns a certificate by id regardless of its flags.
	Get(ctx context.Context, id domain.CertificateID) (*OperatorCertificate, error)
}
