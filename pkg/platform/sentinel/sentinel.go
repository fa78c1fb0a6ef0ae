// Package sentinel defines sentinel errors for infrastructure facts. Stores and
// transport layers return these (optionally wrapped) so services can translate
// them into domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: write collides with an existing row or unique constraint
//   - ErrExpired: certificate or token is past its validity window
//   - ErrInvalidState: entity in wrong state for requested operation
//     (e.g. re-creating an already remotely bound register)
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
