// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package neterror

import (
	"errors"
	"net"
	"net/http"
	"syscall"
)

// IsClosed detects if an error is due to a closed network connection
// or a server that has already been shut down.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return true
	}
	if operr, ok := err.(*net.OpError); ok {
		err = operr.Err
	}
	// older wrappers only keep the message
	return err.Error() == "use of closed network connection"
}

// IsAddrInUse reports whether a bind failed because another socket is
// already listening on the address.
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
