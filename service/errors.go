package service

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientFetch means the game archive could not be read; nothing was changed and the call can be retried
	ErrTransientFetch = errors.New("game archive temporarily unavailable")

	// ErrPreconditionFailed means the wager is not in a state that allows the operation
	ErrPreconditionFailed = errors.New("wager precondition failed")

	// ErrInvalidRole means settlement was asked for an outcome that does not name a party
	ErrInvalidRole = errors.New("invalid settlement role")

	// ErrInsufficientBalance means the losing party cannot cover the stake; nothing was moved
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrWagerNotFound is a precondition failure for a wager that does not exist
	ErrWagerNotFound = fmt.Errorf("%w: wager not found", ErrPreconditionFailed)
)
