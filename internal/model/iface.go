package model

import "github.com/tinytelemetry/odometer/internal/odometer"

// DisplayReader provides read-only access to named displays.
type DisplayReader interface {
	ListDisplays() ([]string, error)
	Snapshot(name string) (odometer.Snapshot, error)
	Option(name, option string) (any, error)
}

// DisplayController mutates named displays.
type DisplayController interface {
	// Invoke calls one of odometer.Methods() and returns the value afterwards.
	Invoke(name, method string, arg float64) (float64, error)
	SetOption(name, option string, value any) error
}

// DisplayAPI is the unified contract for control surfaces (HTTP, socket RPC,
// TUI). It is implemented in-process by display.Set and remotely by
// socketrpc.Client.
type DisplayAPI interface {
	DisplayReader
	DisplayController
}
