package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into the
// coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record or grant does not exist in the store
// - ErrConflict: a write raced with an existing row
// - ErrInvalidState: entity in wrong state for the requested operation
// - ErrUnavailable: backing service or the monitoring hub is paused/down
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
