package services

import "errors"

var (
	// ErrUnauthorized: requester is not the configured administrator
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownUser: target chat ID has no ledger record
	ErrUnknownUser = errors.New("unknown user")
	// ErrStorageUnavailable wraps every driver-level failure of a ledger store
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedInput: missing or unparsable chat ID, URL, title or achievement name
	ErrMalformedInput = errors.New("malformed input")
)
