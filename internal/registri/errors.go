package registri

import dErrors "rentrihub/pkg/domain-errors"

// ErrAlreadyBound rejects a second remote creation of the same register.
// Re-creation is refused rather than merged.
var ErrAlreadyBound = dErrors.New(dErrors.CodeConflict, "registro is already bound to a remote register")

// ErrSiteRegistrationMissing means the active certificate carries no site
// registration code, without which the Registry cannot place the register.
var ErrSiteRegistrationMissing = dErrors.New(dErrors.CodeConfiguration, "certificate has no site registration code configured")
