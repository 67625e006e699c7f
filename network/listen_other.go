// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package network

import "syscall"

// Windows SO_REUSEADDR allows stealing a bound port, so leave the
// platform default alone.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
