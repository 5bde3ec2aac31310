package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingItem  = errors.New("fact has no question/answer item")
)
