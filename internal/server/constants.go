// Package server provides HTTP and WebSocket handlers
package server

import (
	"time"

	"github.com/GriffinCanCode/snapocr/internal/ocr"
)

// Server configuration constants
const (
	// Largest image accepted by POST /api/ocr
	MaxImageBytes = ocr.MaxImageBytes

	// Per-connection WebSocket command rate limiting
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Deadline for a single WebSocket write
	WriteTimeout = 5 * time.Second
)
