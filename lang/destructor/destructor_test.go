// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package destructor

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingCloser struct {
	closed int
	err    error
}

func (c *countingCloser) Close() error {
	c.closed++
	return c.err
}

func TestMultiDestructor(t *testing.T) {
	var order []string
	var m MultiDestructor
	c := &countingCloser{}
	m.AddFunc(func() { order = append(order, "first") })
	m.AddCloser(c)
	m.AddFunc(func() { order = append(order, "last") })

	m.Destroy()
	assert.Equal(t, []string{"last", "first"}, order)
	assert.Equal(t, 1, c.closed)
	assert.Empty(t, m)

	m.Destroy()
	assert.Equal(t, []string{"last", "first"}, order)
	assert.Equal(t, 1, c.closed)
}

func TestCloserDestructorErrors(t *testing.T) {
	// neither of these may panic; errors are only logged
	CloserDestructor{&countingCloser{err: errors.New("boom")}}.Destroy()
	CloserDestructor{&countingCloser{err: net.ErrClosed}}.Destroy()
}
