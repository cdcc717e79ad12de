package config

import "errors"

// Error kinds callers can match with errors.Is.
var (
	// ErrInvalidConfig marks a config that loaded but failed validation.
	ErrInvalidConfig = errors.New("configuration failed validation")

	// ErrLoadConfig wraps file or environment provider failures.
	ErrLoadConfig = errors.New("configuration could not be loaded")
)
