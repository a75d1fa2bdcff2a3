package bluesky

import (
	"errors"
)

var (
	// ErrConfigNil is returned when the client is created without settings.
	ErrConfigNil = errors.New("Bluesky config is nil")

	// ErrHostEmpty is returned when no PDS host is configured.
	ErrHostEmpty = errors.New("Bluesky host is empty")

	// ErrCredentialsEmpty is returned when the identifier or app password is missing.
	ErrCredentialsEmpty = errors.New("Bluesky credentials are empty")

	// ErrMissingToken is returned when createSession answers without an access token.
	ErrMissingToken = errors.New("Bluesky session carries no access token")
)
