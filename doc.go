// Package main provides the entry point for the skyqueue auto-poster.
// An external timer invokes it periodically. Each invocation reads the queue
// entry due for the current hour from a relational store and publishes it to
// a Bluesky PDS via the AT Protocol session/record handshake; the entry is
// removed on success. The application uses gorm for data persistence and
// cobra for the command line interface.
package main
