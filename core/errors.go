package core

import "github.com/pkg/errors"

var (
	ErrAccessDenied      = errors.New("chairman only can create a proposal")
	ErrNotFound          = errors.New("proposal not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("not enough token")
	ErrAlreadyVoted      = errors.New("already voted")
	ErrActiveVoteLock    = errors.New("active proposal")
	ErrTimeNotElapsed    = errors.New("time has not expired")
	ErrAlreadyResolved   = errors.New("proposal is already finished")
)
