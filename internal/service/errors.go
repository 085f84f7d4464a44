package service

import "errors"

// Domain errors surfaced to the API layer.
var (
	ErrUploadNotFound   = errors.New("statement upload not found")
	ErrEntryNotFound    = errors.New("statement entry not found")
	ErrPurchaseNotFound = errors.New("purchase record not found")
	ErrInvalidStatus    = errors.New("invalid match status")
	ErrInvalidDocument  = errors.New("invalid statement document")
	ErrTooManyEntries   = errors.New("statement exceeds the entry limit for one upload")
)
