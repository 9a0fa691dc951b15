package domain

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	dErrors "assetd/pkg/domain-errors"
)

// AccountID names an account that can own assets.
// Invariant: never the nil UUID once produced by ParseAccountID.
type AccountID uuid.UUID

// ParseAccountID validates external input at trust boundaries.
func ParseAccountID(s string) (AccountID, error) {
	if strings.TrimSpace(s) == "" {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must not be nil")
	}
	return AccountID(parsed), nil
}

// AccountIDFromBytes decodes the 16-byte persisted form.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	parsed, err := uuid.FromBytes(b)
	if err != nil {
		return AccountID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed account id")
	}
	return AccountID(parsed), nil
}

func (a AccountID) String() string { return uuid.UUID(a).String() }

// Bytes returns the 16-byte persisted form.
func (a AccountID) Bytes() []byte {
	u := uuid.UUID(a)
	return u[:]
}

func (a AccountID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

// MaxIdentityLength bounds identities accepted from external input.
const MaxIdentityLength = 128

// Identity is the unique byte-string naming an asset. It is both the
// registry key and the asset's content.
type Identity []byte

// ParseIdentity decodes a lowercase or uppercase hex identity.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if len(s) > 2*MaxIdentityLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is too long")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity must be hex encoded")
	}
	return Identity(raw), nil
}

func (i Identity) String() string { return hex.EncodeToString(i) }

func (i Identity) Equal(other Identity) bool { return bytes.Equal(i, other) }

// Clone returns a copy that does not alias i.
func (i Identity) Clone() Identity {
	if i == nil {
		return nil
	}
	return append(Identity(nil), i...)
}
