package certstore

import (
	"time"

	"rentrihub/pkg/domain"
)

// OperatorCertificate holds the signing material an operator uses against the
// Registry, plus the metadata needed to pick the right one per organization
// and environment.
//
// Certificates are never mutated after creation except for the IsActive and
// IsDefault flags. Superseded certificates keep their rows with
// IsDefault=false so past submissions remain attributable.
type OperatorCertificate struct {
	ID             domain.CertificateID
	OrgID          domain.OrgID
	CFOperatore    string
	LegalName      string
	CertificatePEM string
	PrivateKeyPEM  string
	// Password is kept for re-derivation of the original bundle, never sent
	// on the wire.
	Password    string
	Environment domain.Environment
	// NumIscrSito is the site registration code; nil until the operator
	// completes site configuration.
	NumIscrSito *string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	IsActive    bool
	IsDefault   bool
}

// Expired reports whether the certificate is unusable at the given instant,
// regardless of the IsActive/IsDefault flags.
func (c *OperatorCertificate) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
