package socketrpc

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

// stubDisplays serves one display named "main" with fixed values.
type stubDisplays struct {
	lastSet any
}

func (d *stubDisplays) find(name string) error {
	if name != "main" {
		return fmt.Errorf("%w: %q", display.ErrNotFound, name)
	}
	return nil
}

func (d *stubDisplays) ListDisplays() ([]string, error) { return []string{"main"}, nil }
func (d *stubDisplays) Snapshot(name string) (odometer.Snapshot, error) {
	if err := d.find(name); err != nil {
		return odometer.Snapshot{}, err
	}
	return odometer.Snapshot{Name: name, Value: 12.5}, nil
}
func (d *stubDisplays) Invoke(name, method string, arg float64) (float64, error) {
	if err := d.find(name); err != nil {
		return 0, err
	}
	if method == "explode" {
		return 0, fmt.Errorf("%w: method %q", odometer.ErrUnsupported, method)
	}
	return arg + 1, nil
}
func (d *stubDisplays) Option(name, option string) (any, error) {
	if err := d.find(name); err != nil {
		return nil, err
	}
	return 6, nil
}
func (d *stubDisplays) SetOption(name, option string, value any) error {
	if err := d.find(name); err != nil {
		return err
	}
	if option == "digits" && value == float64(0) {
		return fmt.Errorf("%w: digits must be at least 1, got 0", odometer.ErrInvalidOption)
	}
	d.lastSet = value
	return nil
}

func newTestDispatcher() *Server {
	return &Server{displays: &stubDisplays{}}
}

func TestDispatch_AllMethods(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	tests := []struct {
		method string
		params string
	}{
		{"ListDisplays", `{}`},
		{"Snapshot", `{"Display":"main"}`},
		{"Invoke", `{"Display":"main","Method":"increment","Arg":2}`},
		{"GetOption", `{"Display":"main","Option":"digits"}`},
		{"SetOption", `{"Display":"main","Option":"digits","Value":4}`},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()
			req := Request{
				JSONRPC: "2.0",
				ID:      1,
				Method:  tt.method,
				Params:  json.RawMessage(tt.params),
			}
			resp := srv.dispatch(req)
			if resp.Error != nil {
				t.Fatalf("dispatch(%s) error: %s", tt.method, resp.Error.Message)
			}
			if resp.Result == nil {
				t.Fatalf("dispatch(%s) returned nil result", tt.method)
			}
			if resp.JSONRPC != "2.0" {
				t.Errorf("JSONRPC = %q, want 2.0", resp.JSONRPC)
			}
			if resp.ID != 1 {
				t.Errorf("ID = %d, want 1", resp.ID)
			}
		})
	}
}

func TestDispatch_InvokeResult(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	resp := srv.dispatch(Request{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "Invoke",
		Params:  json.RawMessage(`{"Display":"main","Method":"set","Arg":41}`),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	if string(resp.Result) != "42" {
		t.Errorf("result = %s, want 42", resp.Result)
	}
}

func TestDispatch_ErrorCodes(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	tests := []struct {
		name   string
		method string
		params string
		code   int
	}{
		{"unknown rpc method", "NonExistentMethod", `{}`, -32601},
		{"unsupported display method", "Invoke", `{"Display":"main","Method":"explode"}`, -32601},
		{"malformed params", "Snapshot", `not json`, -32602},
		{"unknown display", "Snapshot", `{"Display":"other"}`, -32000},
		{"invalid option value", "SetOption", `{"Display":"main","Option":"digits","Value":0}`, -32000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := srv.dispatch(Request{
				JSONRPC: "2.0",
				ID:      1,
				Method:  tt.method,
				Params:  json.RawMessage(tt.params),
			})
			if resp.Error == nil {
				t.Fatal("expected error")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("error code = %d, want %d", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestDispatch_PreservesRequestID(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	for _, id := range []int{0, 1, 42, 9999} {
		resp := srv.dispatch(Request{
			JSONRPC: "2.0",
			ID:      id,
			Method:  "ListDisplays",
			Params:  json.RawMessage(`{}`),
		})
		if resp.ID != id {
			t.Errorf("request ID %d: response ID = %d", id, resp.ID)
		}
	}
}

func TestRPCError_Is(t *testing.T) {
	t.Parallel()

	unsupported := &RPCError{Code: -32601, Message: "odometer: unsupported operation: method \"x\""}
	notFound := &RPCError{Code: -32000, Message: "display: not found: \"x\""}
	invalid := &RPCError{Code: -32000, Message: "odometer: invalid option: digits must be at least 1, got 0"}

	if !unsupported.Is(odometer.ErrUnsupported) {
		t.Error("-32601 should match ErrUnsupported")
	}
	if !notFound.Is(display.ErrNotFound) || notFound.Is(odometer.ErrInvalidOption) {
		t.Error("not-found message should match only ErrNotFound")
	}
	if !invalid.Is(odometer.ErrInvalidOption) {
		t.Error("invalid option message should match ErrInvalidOption")
	}
}
