package certstore

import dErrors "rentrihub/pkg/domain-errors"

// Certificate failures are terminal for the calling operation: a missing or
// expired certificate is only fixed by an operator uploading new credentials.
var (
	// ErrCertificateMissing means no active default certificate exists for
	// the organization and environment. Callers must fail, never proceed
	// unsigned.
	ErrCertificateMissing = dErrors.New(dErrors.CodeConfiguration, "no active default certificate for organization and environment")

	// ErrInvalidCredentials means the uploaded bundle could not be decrypted
	// with the declared password, or is corrupt. Nothing is persisted.
	ErrInvalidCredentials = dErrors.New(dErrors.CodeInvalidInput, "credential bundle could not be decrypted with the declared password")

	// ErrCertificateExpired means the certificate validity window has closed.
	ErrCertificateExpired = dErrors.New(dErrors.CodeConfiguration, "operator certificate is expired")
)
