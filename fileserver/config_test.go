// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package fileserver

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	t.Run("Success", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = dir
		assert.NoError(t, cfg.Validate())
	})
	t.Run("MissingRoot", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = filepath.Join(dir, "nope")
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrRootNotDir)
		assert.Contains(t, err.Error(), "does not exist")
	})
	t.Run("RootIsFile", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = file
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrRootNotDir)
		assert.Contains(t, err.Error(), "not a directory")
	})
	t.Run("EmptyRoot", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = ""
		assert.ErrorIs(t, cfg.Validate(), ErrRootNotDir)
	})
	t.Run("BadPort", func(t *testing.T) {
		for _, port := range []int{-1, 65536} {
			cfg := DefaultConfig()
			cfg.Root = dir
			cfg.Port = port
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidPort, "port %d", port)
		}
	})
	t.Run("NegativeLimits", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = dir
		cfg.MaxConns = -1
		assert.Error(t, cfg.Validate())

		cfg = DefaultConfig()
		cfg.Root = dir
		cfg.ShutdownTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})
}

func TestConfigURL(t *testing.T) {
	tests := []struct {
		name    string
		address string
		port    int
		addr    net.Addr
		want    string
	}{
		{"AllInterfaces", "", 8000, nil, "http://localhost:8000"},
		{"Unspecified", "0.0.0.0", 8000, nil, "http://localhost:8000"},
		{"UnspecifiedV6", "::", 8000, nil, "http://localhost:8000"},
		{"Loopback", "127.0.0.1", 9000, nil, "http://127.0.0.1:9000"},
		{"IPv6", "::1", 9000, nil, "http://[::1]:9000"},
		{"BoundPort", "", 0, &net.TCPAddr{IP: net.IPv4zero, Port: 41234}, "http://localhost:41234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Address: tt.address, Port: tt.port}
			assert.Equal(t, tt.want, cfg.URL(tt.addr))
		})
	}
}

func TestConfigListenAddr(t *testing.T) {
	assert.Equal(t, ":8000", DefaultConfig().ListenAddr())
	assert.Equal(t, "[::1]:80", Config{Address: "::1", Port: 80}.ListenAddr())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servedist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Overlay", func(t *testing.T) {
		path := writeConfig(t, `
port: 9090
root: ./public
max-conns: 1
shutdown-timeout: 250ms
`)
		cfg, err := LoadConfig(path, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, Config{
			Port:            9090,
			Root:            filepath.Join(filepath.Dir(path), "public"),
			MaxConns:        1,
			ShutdownTimeout: 250 * time.Millisecond,
		}, cfg)
	})
	t.Run("KeepsUnsetKeys", func(t *testing.T) {
		path := writeConfig(t, "address: 127.0.0.1\n")
		cfg, err := LoadConfig(path, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", cfg.Address)
		assert.Equal(t, DefaultPort, cfg.Port)
		assert.Equal(t, DefaultRoot, cfg.Root)
	})
	t.Run("AbsoluteRoot", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadConfig(writeConfig(t, "root: "+dir+"\n"), DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.Root)
	})
	t.Run("RelativeToFile", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		path := writeConfig(t, "root: site/dist\n")
		cfg, err := LoadConfig(path, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "site", "dist"), cfg.Root)
		assert.NotEqual(t, filepath.Join(wd, "site", "dist"), cfg.Root)
	})
	t.Run("Empty", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, ""), DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
	t.Run("UnknownKey", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "directory: ./dist\n"), DefaultConfig())
		assert.Error(t, err)
	})
	t.Run("BadDuration", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "shutdown-timeout: soon\n"), DefaultConfig())
		assert.Error(t, err)
	})
	t.Run("Missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), DefaultConfig())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
