// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"net"

	"github.com/coreos/pkg/capnslog"
	"golang.org/x/net/netutil"
)

var plog = capnslog.NewPackageLogger("github.com/flatcar/servedist", "network")

// Listen announces on the local network address with SO_REUSEADDR set
// where the platform supports it, so a server can be restarted right
// after the previous instance exited.
func Listen(ctx context.Context, network, address string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	l, err := lc.Listen(ctx, network, address)
	if err != nil {
		return nil, err
	}
	plog.Debugf("Listening on %s %s", l.Addr().Network(), l.Addr())
	return l, nil
}

// LimitListener returns a listener accepting at most n simultaneous
// connections. A non-positive n returns l unchanged.
func LimitListener(l net.Listener, n int) net.Listener {
	if n <= 0 {
		return l
	}
	plog.Debugf("Limiting %s to %d simultaneous connections", l.Addr(), n)
	return netutil.LimitListener(l, n)
}
