package models

import "errors"

// Registry failure kinds. The service wraps these in domain errors so callers
// can match either the kind (errors.Is) or the transport code (dErrors.HasCode).
var (
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrCapacityExceeded  = errors.New("owner capacity exceeded")
	ErrNotFound          = errors.New("asset not found")
	ErrNotOwner          = errors.New("caller does not own asset")
	ErrSelfTransfer      = errors.New("transfer to self")
	ErrOverflow          = errors.New("counter overflow")
)
