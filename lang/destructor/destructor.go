// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package destructor

import (
	"io"

	"github.com/coreos/pkg/capnslog"

	"github.com/flatcar/servedist/network/neterror"
)

var (
	plog = capnslog.NewPackageLogger("github.com/flatcar/servedist", "lang/destructor")
)

// Destructor is a common interface for objects that need to be cleaned up.
type Destructor interface {
	Destroy()
}

// CloserDestructor wraps any Closer to provide the Destructor interface.
// Errors from closing an already closed network connection are not
// reported since listeners are often closed by their server first.
type CloserDestructor struct {
	io.Closer
}

func (c CloserDestructor) Destroy() {
	if err := c.Close(); err != nil && !neterror.IsClosed(err) {
		plog.Errorf("Close() returned error: %v", err)
	}
}

// FuncDestructor adapts a plain cleanup function.
type FuncDestructor func()

func (f FuncDestructor) Destroy() {
	f()
}

// MultiDestructor wraps multiple Destructors for easy cleanup. They are
// destroyed in reverse order of addition, and at most once.
type MultiDestructor []Destructor

func (m *MultiDestructor) Destroy() {
	ds := *m
	*m = nil
	for i := len(ds) - 1; i >= 0; i-- {
		ds[i].Destroy()
	}
}

func (m *MultiDestructor) AddCloser(closer io.Closer) {
	m.AddDestructor(CloserDestructor{closer})
}

func (m *MultiDestructor) AddFunc(f func()) {
	m.AddDestructor(FuncDestructor(f))
}

func (m *MultiDestructor) AddDestructor(destructor Destructor) {
	*m = append(*m, destructor)
}
