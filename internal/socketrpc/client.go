package socketrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

// callTimeout bounds one request/response exchange.
const callTimeout = 10 * time.Second

// Client implements model.DisplayAPI over a Unix domain socket using JSON-RPC 2.0.
// Calls are serialized on one connection.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

var _ model.DisplayAPI = (*Client)(nil)

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	c.conn.SetDeadline(time.Now().Add(callTimeout))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}

	if resp.ID != id {
		return fmt.Errorf("socketrpc: response id %d, want %d", resp.ID, id)
	}
	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) ListDisplays() ([]string, error) {
	var result []string
	err := c.call("ListDisplays", map[string]interface{}{}, &result)
	return result, err
}

func (c *Client) Snapshot(name string) (odometer.Snapshot, error) {
	var result odometer.Snapshot
	err := c.call("Snapshot", map[string]interface{}{"Display": name}, &result)
	return result, err
}

func (c *Client) Invoke(name, method string, arg float64) (float64, error) {
	var result float64
	err := c.call("Invoke", map[string]interface{}{"Display": name, "Method": method, "Arg": arg}, &result)
	return result, err
}

func (c *Client) Option(name, option string) (any, error) {
	var result any
	err := c.call("GetOption", map[string]interface{}{"Display": name, "Option": option}, &result)
	return result, err
}

func (c *Client) SetOption(name, option string, value any) error {
	return c.call("SetOption", map[string]interface{}{"Display": name, "Option": option, "Value": value}, nil)
}
