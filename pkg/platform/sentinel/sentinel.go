package sentinel

import "errors"

// Sentinel errors for infrastructure facts. KV backends return these
// (optionally wrapped) and the registry service translates them into
// domain errors:
//   - ErrNotFound: key does not exist in the backend
//   - ErrConflict: a value read during the transaction changed before commit
//   - ErrUnavailable: backend temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
