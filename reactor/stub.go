//go:build !linux
// +build !linux

// File: reactor/stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub backend for platforms without epoll. The abstract contract in
// spec.md §6 is platform-neutral; only the Linux adapter is specified
// as the concrete event backend (spec.md §1 explicitly scopes "the
// exact event backend" out beyond this contract).

package reactor

import "errors"

// New returns an error on platforms without an implemented backend.
func New(batch int) (Backend, error) {
	return nil, errors.New("reactor: no event backend implemented for this platform")
}
