package repository

import "errors"

// Sentinel kinds for quota store errors.
var (
	ErrInvalidCeiling = errors.New("invalid quota ceiling")
)
