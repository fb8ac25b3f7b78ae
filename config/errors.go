package config

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrInvalidSettings indicates settings failed validation.
	ErrInvalidSettings = errors.New("config: invalid settings")
)
