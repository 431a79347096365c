package socketrpc

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.DisplayAPI over a Unix domain socket.
//
//   Method          Params                                      Result
//   ────────────    ──────────────────────────────────────────  ─────────────────
//   ListDisplays    (none)                                      []string
//   Snapshot        {Display: string}                           odometer.Snapshot
//   Invoke          {Display: string, Method: string, Arg: n}   float64
//   GetOption       {Display: string, Option: string}           any
//   SetOption       {Display: string, Option: string, Value}    true
//
// Invoke methods are odometer.Methods(); Arg is optional and only read by
// set, increment and decrement.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found, or unsupported display method/option
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (unknown display, invalid option value)

const (
	codeParse          = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeApplication    = -32000
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Is lets callers of a remote display test errors with the same sentinels
// as in-process callers.
func (e *RPCError) Is(target error) bool {
	switch target {
	case odometer.ErrUnsupported:
		return e.Code == codeMethodNotFound
	case display.ErrNotFound, odometer.ErrInvalidOption:
		return e.Code == codeApplication && strings.Contains(e.Message, target.Error())
	}
	return false
}

// errorCode maps an engine or display error to its JSON-RPC code.
func errorCode(err error) int {
	if errors.Is(err, odometer.ErrUnsupported) {
		return codeMethodNotFound
	}
	return codeApplication
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/odometer/odometer.sock, falling back to
// ~/.local/state/odometer/odometer.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "odometer", "odometer.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/odometer.sock"
	}
	return filepath.Join(home, ".local", "state", "odometer", "odometer.sock")
}
