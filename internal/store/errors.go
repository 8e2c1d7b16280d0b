package store

import "errors"

// Sentinel errors returned by store operations. Callers match them with
// errors.Is; the wrapped message carries the specifics.
var (
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrLocationNotFound     = errors.New("location not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrValidation           = errors.New("validation failed")
)
