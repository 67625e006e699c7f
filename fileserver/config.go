// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package fileserver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort            = 8000
	DefaultRoot            = "./dist"
	DefaultShutdownTimeout = 5 * time.Second
)

var (
	// ErrRootNotDir is returned when the serving root is missing or is
	// not a directory.
	ErrRootNotDir = errors.New("root is not a directory")

	// ErrInvalidPort is returned for ports outside 0-65535.
	ErrInvalidPort = errors.New("invalid port")
)

// Config holds everything needed to construct a Server. It is built once
// at startup and never modified afterwards.
type Config struct {
	// Address is the interface to bind, empty for all interfaces.
	Address string
	// Port to listen on. Zero picks an ephemeral port.
	Port int
	// Root is the directory files are served from.
	Root string
	// MaxConns caps simultaneous connections when positive.
	MaxConns int
	// ShutdownTimeout bounds how long in-flight requests may take to
	// finish once shutdown starts.
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		Root:            DefaultRoot,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate checks the configuration without touching the network.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max connections must not be negative: %d", c.MaxConns)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative: %v", c.ShutdownTimeout)
	}
	if c.Root == "" {
		return fmt.Errorf("no directory given: %w", ErrRootNotDir)
	}

	fi, err := os.Stat(c.Root)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("directory %q does not exist: %w", c.Root, ErrRootNotDir)
	case err != nil:
		return fmt.Errorf("checking directory %q: %w", c.Root, err)
	case !fi.IsDir():
		return fmt.Errorf("%q is not a directory: %w", c.Root, ErrRootNotDir)
	}
	return nil
}

// ListenAddr is the host:port pair handed to the listener.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// URL returns the address users should point a browser at. Wildcard
// binds are reported as localhost.
func (c Config) URL(addr net.Addr) string {
	port := c.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}

	host := c.Address
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// fileConfig mirrors Config for YAML decoding. Pointers tell unset keys
// apart from zero values.
type fileConfig struct {
	Address         *string `yaml:"address"`
	Port            *int    `yaml:"port"`
	Root            *string `yaml:"root"`
	MaxConns        *int    `yaml:"max-conns"`
	ShutdownTimeout *string `yaml:"shutdown-timeout"`
}

// LoadConfig reads a YAML configuration file and overlays the keys it
// sets on base. A relative root is taken relative to the directory
// holding the file, not the working directory.
func LoadConfig(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg := base
	if fc.Address != nil {
		cfg.Address = *fc.Address
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.Root != nil {
		cfg.Root = *fc.Root
		if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
			cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
		}
	}
	if fc.MaxConns != nil {
		cfg.MaxConns = *fc.MaxConns
	}
	if fc.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*fc.ShutdownTimeout)
		if err != nil {
			return base, fmt.Errorf("parsing shutdown-timeout in %s: %w", path, err)
		}
		cfg.ShutdownTimeout = d
	}

	plog.Debugf("Loaded config from %s: %+v", path, cfg)
	return cfg, nil
}
