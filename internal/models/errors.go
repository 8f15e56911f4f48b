package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrProtectedStage    = errors.New("stage is protected")
	ErrStageConflict     = errors.New("lead stage changed concurrently")
	ErrInvalidOrdering   = errors.New("ordering does not match stage contents")
	ErrInvalidStage      = errors.New("invalid stage")
	ErrInvalidRules      = errors.New("invalid validation rules")
	ErrOperationInFlight = errors.New("another pipeline operation is in flight")
	ErrConcurrentUpdate  = errors.New("concurrent update, retry the request")

	// Оба варианта: частные случаи ErrProtectedStage.
	ErrSystemStageProtected = fmt.Errorf("%w: system stages can only be hidden", ErrProtectedStage)
	ErrHasDependentLeads    = fmt.Errorf("%w: leads still reference this stage", ErrProtectedStage)
)
