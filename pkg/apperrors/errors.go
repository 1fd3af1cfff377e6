package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrImmutable         = errors.New("document is issued or superseded and cannot be modified")
	ErrNotEligible       = errors.New("document is not eligible for issue")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidCategory   = errors.New("unknown action category")
	ErrUnknownType       = errors.New("unknown document type")
)
