// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

// Package fileserver serves a directory tree over plain HTTP.
package fileserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coreos/pkg/capnslog"

	"github.com/flatcar/servedist/lang/destructor"
	"github.com/flatcar/servedist/network"
	"github.com/flatcar/servedist/network/neterror"
)

var (
	plog = capnslog.NewPackageLogger("github.com/flatcar/servedist", "fileserver")

	// ErrAlreadyListening is returned by a second call to Listen.
	ErrAlreadyListening = errors.New("server is already listening")
)

const readHeaderTimeout = 10 * time.Second

// Server is a static file server for a single root directory.
type Server struct {
	destructor.MultiDestructor

	cfg      Config
	root     string
	handler  http.Handler
	srv      *http.Server
	listener net.Listener
	mu       sync.Mutex

	onShutdown []func()
}

// New validates cfg and prepares a server for it. No socket is created
// until Listen or Serve.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving directory %q: %w", cfg.Root, err)
	}

	dir, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("opening directory %q: %w", root, err)
	}

	registerTypes()

	s := &Server{
		cfg:  cfg,
		root: root,
	}
	s.AddCloser(dir)

	s.handler = logRequests(allowGetHead(http.FileServerFS(rootFS{dir.FS()})))
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	plog.Debugf("Prepared server for %s", root)
	return s, nil
}

// Root is the absolute path of the served directory.
func (s *Server) Root() string {
	return s.root
}

// Handler returns the request handler without any network attached.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL is the address to browse to, valid after Listen.
func (s *Server) URL() string {
	return s.cfg.URL(s.Addr())
}

// OnShutdown registers f to run when Serve notices cancellation, before
// in-flight requests are waited for. Register before calling Serve.
func (s *Server) OnShutdown(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = append(s.onShutdown, f)
}

// Listen binds the configured address. The listener is released by
// Destroy.
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyListening
	}

	addr := s.cfg.ListenAddr()
	l, err := network.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	l = network.LimitListener(l, s.cfg.MaxConns)

	s.listener = l
	s.AddCloser(l)
	plog.Infof("Listening on %s", l.Addr())
	return nil
}

// Serve answers requests until ctx is cancelled, then shuts down
// gracefully and returns nil. Any other failure is returned as is.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.Serve(l)
	}()

	select {
	case err := <-errc:
		if neterror.IsClosed(err) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", l.Addr(), err)
	case <-ctx.Done():
	}

	s.mu.Lock()
	hooks := s.onShutdown
	s.mu.Unlock()
	for _, f := range hooks {
		f()
	}

	plog.Noticef("Shutting down server on %s", l.Addr())
	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(sctx); err != nil {
		plog.Warningf("Graceful shutdown incomplete, closing connections: %v", err)
		if err := s.srv.Close(); err != nil {
			plog.Errorf("Closing server: %v", err)
		}
	}
	<-errc
	return nil
}

// Destroy releases the listener and the root directory. It is safe to
// call more than once.
func (s *Server) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MultiDestructor.Destroy()
}
