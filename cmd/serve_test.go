package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pythonkids/pad/internal/history"
	"github.com/pythonkids/pad/internal/proxy"
)

const serveManifestFmt = `deployment:
  deploymentTarget: autoscale
  run: ["sleep", "60", "--server.port", "%d"]
workflows:
  runButton: Project
  workflow:
    - name: Project
      tasks:
        - task: shell.exec
          args: echo hi
ports:
  - localPort: %d
    externalPort: %d
`

// startEchoApp stands in for the application listening on localPort.
func startEchoApp(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer func() { _ = c.Close() }()
				_, _ = io.Copy(c, c)
			}(conn)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, func() { _ = ln.Close() }
}

// freePort grabs an ephemeral port number and releases it for the code under
// test to claim.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestServeForwardsToRunningApp(t *testing.T) {
	padHome(t)

	localPort, stopApp := startEchoApp(t)
	defer stopApp()
	extPort := freePort(t)
	writeManifestFile(t, fmt.Sprintf(serveManifestFmt, localPort, localPort, extPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveCmd.SetContext(ctx)

	var out bytes.Buffer
	serveCmd.SetOut(&out)
	serveCmd.SetErr(io.Discard)
	if err := serveCmd.Flags().Set("no-run", "true"); err != nil {
		t.Fatalf("set --no-run: %v", err)
	}
	if err := serveCmd.Flags().Set("ready-timeout", "5s"); err != nil {
		t.Fatalf("set --ready-timeout: %v", err)
	}
	t.Cleanup(func() {
		_ = serveCmd.Flags().Set("no-run", "false")
		_ = serveCmd.Flags().Set("ready-timeout", "60s")
	})

	done := make(chan error, 1)
	go func() { done <- serveCmd.RunE(serveCmd, nil) }()

	target := fmt.Sprintf("127.0.0.1:%d", extPort)
	if err := proxy.WaitReady(context.Background(), target, 5*time.Second); err != nil {
		cancel()
		t.Fatalf("forwarder never listened: %v (serve: %v)", err, <-done)
	}

	conn, err := net.Dial("tcp", target)
	if err != nil {
		t.Fatalf("dial forwarder: %v", err)
	}
	if _, err := fmt.Fprintln(conn, "ping"); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(line) != "ping" {
		t.Fatalf("echo through forwarder = %q", line)
	}
	_ = conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}

	last := lastRecordedRun(t)
	if last == nil || last.Workflow != "serve" || last.Status != history.StatusOK {
		t.Fatalf("expected ok serve history record, got %+v", last)
	}
}

func TestServeRequiresPortMapping(t *testing.T) {
	padHome(t)
	writeManifestFile(t, "deployment:\n  deploymentTarget: autoscale\n  run: [\"sleep\", \"60\"]\n")

	serveCmd.SetContext(context.Background())
	err := serveCmd.RunE(serveCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "port mapping") {
		t.Fatalf("expected port mapping error, got %v", err)
	}
}

func TestServeReadyTimeout(t *testing.T) {
	padHome(t)

	localPort := freePort(t) // nothing listens here
	extPort := freePort(t)
	writeManifestFile(t, fmt.Sprintf(serveManifestFmt, localPort, localPort, extPort))

	serveCmd.SetContext(context.Background())
	serveCmd.SetOut(io.Discard)
	serveCmd.SetErr(io.Discard)
	if err := serveCmd.Flags().Set("no-run", "true"); err != nil {
		t.Fatalf("set --no-run: %v", err)
	}
	if err := serveCmd.Flags().Set("ready-timeout", "300ms"); err != nil {
		t.Fatalf("set --ready-timeout: %v", err)
	}
	t.Cleanup(func() {
		_ = serveCmd.Flags().Set("no-run", "false")
		_ = serveCmd.Flags().Set("ready-timeout", "60s")
	})

	err := serveCmd.RunE(serveCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "nothing listening") {
		t.Fatalf("expected readiness timeout, got %v", err)
	}

	last := lastRecordedRun(t)
	if last == nil || last.Status != history.StatusFailed {
		t.Fatalf("expected failed serve record, got %+v", last)
	}
}
