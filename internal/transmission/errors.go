package transmission

import dErrors "rentrihub/pkg/domain-errors"

// ErrRegistroNotBound rejects a push or pull against a register that was
// never created remotely.
var ErrRegistroNotBound = dErrors.New(dErrors.CodeConflict, "registro is not bound to a remote register")

// ErrEmptyBatch rejects a push with no movement ids.
var ErrEmptyBatch = dErrors.New(dErrors.CodeInvalidInput, "no movements to push")

// ErrBatchTooLarge rejects a push over the Registry's batch limit.
var ErrBatchTooLarge = dErrors.New(dErrors.CodeInvalidInput, "batch exceeds the 1000 movement limit")

// ErrNoEligibleMovements means none of the requested movements are in a
// pushable sync state.
var ErrNoEligibleMovements = dErrors.New(dErrors.CodeInvalidInput, "no movements in a pushable state")

// ErrMissingTransactionID flags a 202 acceptance without a transaction
// identifier: a protocol violation by the remote side that indicates a
// backend contract change.
var ErrMissingTransactionID = dErrors.New(dErrors.CodeInternal, "registry accepted the submission without a transaction id")
