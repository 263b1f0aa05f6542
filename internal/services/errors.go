package services

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateUser       = errors.New("user already exists")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidWager        = errors.New("wager amount not permitted")
	ErrInvalidLine         = errors.New("invalid line payout")
	// ErrConflict reports that an optimistic update lost the write race
	// too many times in a row.
	ErrConflict = errors.New("too many concurrent updates")
)
