// Package proxy forwards TCP connections from an externally exposed port to
// the port the application binds locally, realizing the manifest's port
// mapping on a plain host.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Proxy forwards accepted connections to Target.
type Proxy struct {
	Target string // host:port the application listens on
	Logf   func(format string, args ...interface{})
}

// New returns a proxy targeting 127.0.0.1:localPort.
func New(localPort int) *Proxy {
	return &Proxy{Target: fmt.Sprintf("127.0.0.1:%d", localPort)}
}

func (p *Proxy) logf(format string, args ...interface{}) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}

// ListenAndServe listens on externalPort on all interfaces and serves until
// ctx is cancelled.
func (p *Proxy) ListenAndServe(ctx context.Context, externalPort int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", externalPort))
	if err != nil {
		return fmt.Errorf("listen on :%d: %w", externalPort, err)
	}
	return p.Serve(ctx, ln)
}

// Serve accepts connections from ln and forwards each to the target until
// ctx is cancelled. It returns nil on graceful shutdown.
func (p *Proxy) Serve(ctx context.Context, ln net.Listener) error {
	defer func() { _ = ln.Close() }()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.forward(ctx, conn)
		}()
	}
}

// forward pumps bytes both ways until either side closes or ctx is
// cancelled.
func (p *Proxy) forward(ctx context.Context, client net.Conn) {
	defer func() { _ = client.Close() }()

	d := net.Dialer{Timeout: 10 * time.Second}
	upstream, err := d.DialContext(ctx, "tcp", p.Target)
	if err != nil {
		p.logf("proxy: dial %s: %v", p.Target, err)
		return
	}
	defer func() { _ = upstream.Close() }()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
			_ = upstream.Close()
		case <-stop:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(upstream, client)
		halfClose(upstream)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(client, upstream)
		halfClose(client)
	}()
	wg.Wait()
	close(stop)
}

// halfClose signals EOF to the peer without tearing down the other
// direction.
func halfClose(c net.Conn) {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
}

// WaitReady polls addr until something accepts TCP connections there, the
// timeout elapses, or ctx is cancelled.
func WaitReady(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		d := net.Dialer{Timeout: time.Second}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("nothing listening on %s after %s", addr, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
