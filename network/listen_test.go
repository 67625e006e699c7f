// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcar/servedist/network/neterror"
)

func TestListen(t *testing.T) {
	l, err := Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()

	t.Run("Busy", func(t *testing.T) {
		_, err := Listen(context.Background(), "tcp", addr)
		require.Error(t, err)
		assert.True(t, neterror.IsAddrInUse(err), "unexpected error: %v", err)
	})

	t.Run("Restart", func(t *testing.T) {
		// accept and drop one connection so the port has a socket
		// lingering in TIME_WAIT when we rebind
		go func() {
			if c, err := l.Accept(); err == nil {
				c.Close()
			}
		}()
		c, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		buf := make([]byte, 1)
		c.Read(buf)
		c.Close()
		require.NoError(t, l.Close())

		l2, err := Listen(context.Background(), "tcp", addr)
		require.NoError(t, err)
		l2.Close()
	})
}

func TestLimitListener(t *testing.T) {
	l, err := Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	assert.Same(t, l, LimitListener(l, 0))
	assert.Same(t, l, LimitListener(l, -3))

	limited := LimitListener(l, 1)
	assert.NotSame(t, l, limited)
	assert.Equal(t, l.Addr(), limited.Addr())
}
