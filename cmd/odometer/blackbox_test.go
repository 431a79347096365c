package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

var (
	binaryOnce sync.Once
	binaryPath string
	binaryErr  error
)

type blackboxServer struct {
	cmd        *exec.Cmd
	apiAddr    string
	socketPath string
	output     *bytes.Buffer
	exitCh     chan error
}

func TestBlackBox_ServesAndShutsDown(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the service binary")
	}

	srv := startBlackboxServer(t, `
odometer:
  digits: 3
  active: false
displays:
  - name: hits
    options:
      startValue: 7
`)

	var list struct {
		Displays []string `json:"displays"`
	}
	getJSON(t, srv.apiAddr, "/api/displays", &list)
	if len(list.Displays) != 1 || list.Displays[0] != "hits" {
		t.Fatalf("displays = %v, want [hits]", list.Displays)
	}

	resp, err := http.Post("http://"+srv.apiAddr+"/api/displays/hits/increment", "application/json", nil)
	if err != nil {
		t.Fatalf("POST increment: %v", err)
	}
	var invoked struct {
		Value float64 `json:"value"`
	}
	err = json.NewDecoder(resp.Body).Decode(&invoked)
	resp.Body.Close()
	if err != nil || invoked.Value != 8 {
		t.Fatalf("increment value = %v (err %v), want 8", invoked.Value, err)
	}

	if err := srv.cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("signal: %v", err)
	}
	select {
	case err := <-srv.exitCh:
		if err != nil {
			t.Fatalf("service exited with %v\n%s", err, srv.output.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("service did not exit after SIGINT\n%s", srv.output.String())
	}
	if _, err := os.Stat(srv.socketPath); !os.IsNotExist(err) {
		t.Fatalf("socket %s left behind: %v", srv.socketPath, err)
	}
}

func startBlackboxServer(t *testing.T, displays string) *blackboxServer {
	t.Helper()

	home := t.TempDir()
	sockDir, err := os.MkdirTemp("", "odo")
	if err != nil {
		t.Fatalf("mktemp socket dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(sockDir) })

	apiPort := freeTCPPort(t)
	socketPath := filepath.Join(sockDir, "odometer.sock")
	configPath := filepath.Join(home, "config.yml")
	body := fmt.Sprintf("api-port: %d\nsocket-path: %q\n%s", apiPort, socketPath, displays)
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	cmd := exec.Command(serviceBinary(t), "-config", configPath)
	cmd.Env = append(os.Environ(), "HOME="+home)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Start(); err != nil {
		t.Fatalf("start service: %v", err)
	}

	srv := &blackboxServer{
		cmd:        cmd,
		apiAddr:    fmt.Sprintf("127.0.0.1:%d", apiPort),
		socketPath: socketPath,
		output:     &out,
		exitCh:     make(chan error, 1),
	}
	go func() { srv.exitCh <- cmd.Wait() }()
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	deadline := time.Now().Add(20 * time.Second)
	for {
		resp, err := http.Get("http://" + srv.apiAddr + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return srv
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("service api failed to become ready\n%s", out.String())
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func serviceBinary(t *testing.T) string {
	t.Helper()
	binaryOnce.Do(func() {
		dir, err := os.MkdirTemp("", "odometer-blackbox-bin-*")
		if err != nil {
			binaryErr = fmt.Errorf("mktemp bin dir: %w", err)
			return
		}
		binaryPath = filepath.Join(dir, "odometer")

		cmd := exec.Command("go", "build", "-o", binaryPath, ".")
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := cmd.Run(); err != nil {
			binaryErr = fmt.Errorf("build service binary: %w\n%s", err, out.String())
		}
	})
	if binaryErr != nil {
		t.Fatalf("%v", binaryErr)
	}
	return binaryPath
}

func getJSON(t *testing.T, addr, path string, dest any) {
	t.Helper()
	resp, err := http.Get("http://" + addr + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func freeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve tcp port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}
