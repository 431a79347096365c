package model

import "time"

// Shared defaults used by the service, TUI and CLI binaries.
const (
	DefaultStreamInterval = 50 * time.Millisecond
	DefaultFrameInterval  = 33 * time.Millisecond
	DefaultRateLimit      = 20.0
	DefaultRateBurst      = 40
	DefaultSkin           = "default"
	DefaultDisplayName    = "main"
)
