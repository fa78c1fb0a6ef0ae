// Package domain holds shared identifier and enumeration types used across
// module boundaries. Typed UUID wrappers keep organization, certificate,
// register, and movement identifiers from being mixed up at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "rentrihub/pkg/domain-errors"
)

type (
	// OrgID identifies an operator organization.
	OrgID uuid.UUID
	// CertificateID identifies a stored operator certificate.
	CertificateID uuid.UUID
	// RegistroID identifies a local register.
	RegistroID uuid.UUID
	// MovimentoID identifies a local movement row.
	MovimentoID uuid.UUID
)

func (id OrgID) String() string         { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id RegistroID) String() string    { return uuid.UUID(id).String() }
func (id MovimentoID) String() string   { return uuid.UUID(id).String() }

func (id OrgID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RegistroID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MovimentoID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps IDs as canonical UUID strings in JSON and broker
// payloads instead of the raw byte-array form of the underlying type.

func (id OrgID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id CertificateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id RegistroID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id MovimentoID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *OrgID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = OrgID(parsed)
	return nil
}

func (id *CertificateID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = CertificateID(parsed)
	return nil
}

func (id *RegistroID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = RegistroID(parsed)
	return nil
}

func (id *MovimentoID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = MovimentoID(parsed)
	return nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

func ParseOrgID(raw string) (OrgID, error) {
	id, err := parseUUID(raw, "organization id")
	return OrgID(id), err
}

func ParseCertificateID(raw string) (CertificateID, error) {
	id, err := parseUUID(raw, "certificate id")
	return CertificateID(id), err
}

func ParseRegistroID(raw string) (RegistroID, error) {
	id, err := parseUUID(raw, "registro id")
	return RegistroID(id), err
}

func ParseMovimentoID(raw string) (MovimentoID, error) {
	id, err := parseUUID(raw, "movimento id")
	return MovimentoID(id), err
}

func NewOrgID() OrgID                 { return OrgID(uuid.New()) }
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }
func NewRegistroID() RegistroID       { return RegistroID(uuid.New()) }
func NewMovimentoID() MovimentoID     { return MovimentoID(uuid.New()) }
