package config

import (
	"github.com/skyqueue/skyqueue/internal/logger"
)

// Redacted replaces credential values in dumped config output.
const Redacted = "<redacted>"

// Config overall data structure.
type Config struct {
	DevMode bool   // enable dev mode for development
	DryRun  bool   // log what would be posted, touch nothing
	Title   string // human readable instance name for logs
	DB      DB
	Bluesky Bluesky
	Metrics Metrics
	Log     logger.Log
}

// Bluesky implements the remote publisher settings.
// It carries the PDS endpoint and the account credentials used for the
// createSession call; both credential fields are required by the handshake.
type Bluesky struct {
	Host        string `mapstructure:"host"         json:"Host"        validate:"required,url"`
	Identifier  string `mapstructure:"identifier"   json:"Identifier"  validate:"required"`
	AppPassword string `mapstructure:"app_password" json:"AppPassword" validate:"required"`
}

// Metrics implements push based run metrics settings.
// A short-lived job cannot be scraped, so results go to a Pushgateway;
// leaving the URL empty disables the push entirely.
type Metrics struct {
	PushGatewayURL string `mapstructure:"push_gateway_url"`
	JobName        string `mapstructure:"job_name"`
}
