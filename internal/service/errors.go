package service

import "errors"

// Sentinel errors translated by handlers into response codes.
//
// ErrNotFound covers a missing item, a foreign owner, and a wrong state.
// Collapsing them keeps cross-tenant existence unguessable.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrTaskNotCompleted  = errors.New("task has not completed")
	ErrTaskNotResettable = errors.New("task cannot be reset")
	ErrNoCandidates      = errors.New("task produced no candidate questions")
	ErrNoEligibleItems   = errors.New("no eligible items")
)
