// Package grpcclient provides a client for the snapocr gRPC service
package grpcclient

import "time"

// Client configuration defaults
const (
	// Keepalive configuration
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second

	// Upper bound for a single call when the caller sets no deadline
	DefaultCallTimeout = 60 * time.Second
)
