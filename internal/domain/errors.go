package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrValidation   = errors.New("domain: validation failed")
	ErrNestingDepth = errors.New("domain: subtasks cannot hold subtasks")
	ErrPersistence  = errors.New("domain: persistence failed")
)
