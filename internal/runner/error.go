package runner

import (
	"errors"
)

var (
	// ErrConfigNil is returned when the runner is created without a configuration.
	ErrConfigNil = errors.New("config is nil")
)
