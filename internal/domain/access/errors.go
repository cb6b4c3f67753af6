package access

import "errors"

var (
	ErrInvalidDuration  = errors.New("invalid access duration")
	ErrInvalidOperation = errors.New("invalid access operation")
)
