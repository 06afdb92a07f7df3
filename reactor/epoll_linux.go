//go:build linux
// +build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) backend. The per-fd reference-count table grows by
// doubling, matching original_source/event.c's
// _st_epoll_fd_data_expand ("while (maxfd >= n) n <<= 1") rather than
// appending one slot at a time. Interest is registered with
// EPOLLONESHOT so a single MOD in ConsumeOneShot re-arms exactly the
// one-shot semantics spec.md §4.4/§4.5 require.

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type fdRefs struct {
	read, write, except int
}

func maskOf(r *fdRefs) EventMask {
	var m EventMask
	if r.read > 0 {
		m |= EventRead
	}
	if r.write > 0 {
		m |= EventWrite
	}
	if r.except > 0 {
		m |= EventExcept
	}
	return m
}

func toEpoll(m EventMask) uint32 {
	var e uint32 = unix.EPOLLONESHOT
	if m&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if m&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	if m&EventExcept != 0 {
		e |= unix.EPOLLPRI
	}
	return e
}

func fromEpoll(e uint32) EventMask {
	var m EventMask
	if e&unix.EPOLLIN != 0 {
		m |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		m |= EventWrite
	}
	if e&unix.EPOLLPRI != 0 {
		m |= EventExcept
	}
	return m
}

type epollBackend struct {
	epfd    int
	batch   int
	refs    []fdRefs
	revents map[uintptr]EventMask
	pid     int
}

// New constructs the Linux epoll backend. batch bounds the number of
// events drained per Wait call.
func New(batch int) (Backend, error) {
	if batch <= 0 {
		batch = 256
	}
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollBackend{
		epfd:    epfd,
		batch:   batch,
		revents: make(map[uintptr]EventMask),
		pid:     unix.Getpid(),
	}, nil
}

func (b *epollBackend) ensureCapacity(fd int) {
	if fd < len(b.refs) {
		return
	}
	n := len(b.refs)
	if n == 0 {
		n = 1
	}
	for fd >= n {
		n <<= 1
	}
	grown := make([]fdRefs, n)
	copy(grown, b.refs)
	b.refs = grown
}

func addRefs(r *fdRefs, events EventMask) {
	if events&EventRead != 0 {
		r.read++
	}
	if events&EventWrite != 0 {
		r.write++
	}
	if events&EventExcept != 0 {
		r.except++
	}
}

func subRefs(r *fdRefs, events EventMask) {
	if events&EventRead != 0 && r.read > 0 {
		r.read--
	}
	if events&EventWrite != 0 && r.write > 0 {
		r.write--
	}
	if events&EventExcept != 0 && r.except > 0 {
		r.except--
	}
}

func (b *epollBackend) applyMask(fd int, old, new EventMask) error {
	if old == new {
		return nil
	}
	switch {
	case old == 0 && new != 0:
		ev := &unix.EpollEvent{Events: toEpoll(new), Fd: int32(fd)}
		return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev)
	case old != 0 && new == 0:
		return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	default:
		ev := &unix.EpollEvent{Events: toEpoll(new), Fd: int32(fd)}
		return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
	}
}

func (b *epollBackend) PollsetAdd(fds []FDInterest) error {
	for i, fi := range fds {
		fd := int(fi.FD)
		b.ensureCapacity(fd)
		r := &b.refs[fd]
		old := maskOf(r)
		addRefs(r, fi.Events)
		newMask := maskOf(r)
		if err := b.applyMask(fd, old, newMask); err != nil {
			subRefs(r, fi.Events)
			b.rollback(fds[:i])
			return fmt.Errorf("reactor: pollset add fd %d: %w", fd, err)
		}
	}
	return nil
}

func (b *epollBackend) rollback(fds []FDInterest) {
	for i := len(fds) - 1; i >= 0; i-- {
		fi := fds[i]
		fd := int(fi.FD)
		if fd >= len(b.refs) {
			continue
		}
		r := &b.refs[fd]
		old := maskOf(r)
		subRefs(r, fi.Events)
		_ = b.applyMask(fd, old, maskOf(r))
	}
}

func (b *epollBackend) PollsetDel(fds []FDInterest) error {
	for _, fi := range fds {
		fd := int(fi.FD)
		if fd >= len(b.refs) {
			continue
		}
		r := &b.refs[fd]
		old := maskOf(r)
		subRefs(r, fi.Events)
		_ = b.applyMask(fd, old, maskOf(r))
	}
	return nil
}

func (b *epollBackend) FDNew(osfd uintptr) error {
	b.ensureCapacity(int(osfd))
	return nil
}

func (b *epollBackend) FDClose(osfd uintptr) error {
	fd := int(osfd)
	if fd < len(b.refs) && maskOf(&b.refs[fd]) != 0 {
		return ErrFDBusy
	}
	delete(b.revents, osfd)
	return nil
}

func (b *epollBackend) FDGetLimit() int {
	return 0
}

func (b *epollBackend) Wait(timeoutMS int) ([]ReadyEvent, error) {
	events := make([]unix.EpollEvent, b.batch)
	n, err := unix.EpollWait(b.epfd, events, timeoutMS)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("reactor: epoll_wait: %w", err)
	}
	fold := make(map[uintptr]EventMask, n)
	for i := 0; i < n; i++ {
		fd := uintptr(events[i].Fd)
		m := fromEpoll(events[i].Events)
		if events[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			if int(fd) < len(b.refs) {
				m |= maskOf(&b.refs[fd])
			}
		}
		fold[fd] |= m
	}
	out := make([]ReadyEvent, 0, len(fold))
	for fd, m := range fold {
		b.revents[fd] |= m
		out = append(out, ReadyEvent{FD: fd, Revents: b.revents[fd]})
	}
	return out, nil
}

func (b *epollBackend) ConsumeOneShot(fd uintptr) error {
	delete(b.revents, fd)
	if int(fd) >= len(b.refs) {
		return nil
	}
	mask := maskOf(&b.refs[fd])
	if mask == 0 {
		return nil
	}
	ev := &unix.EpollEvent{Events: toEpoll(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, int(fd), ev); err != nil {
		return fmt.Errorf("reactor: consume one-shot fd %d: %w", fd, err)
	}
	return nil
}

func (b *epollBackend) PIDChanged() bool {
	return unix.Getpid() != b.pid
}

func (b *epollBackend) Rebuild() error {
	newEpfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("reactor: rebuild epoll_create1: %w", err)
	}
	old := b.epfd
	b.epfd = newEpfd
	b.pid = unix.Getpid()
	for fd := range b.refs {
		mask := maskOf(&b.refs[fd])
		if mask == 0 {
			continue
		}
		ev := &unix.EpollEvent{Events: toEpoll(mask), Fd: int32(fd)}
		if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
			return fmt.Errorf("reactor: rebuild re-register fd %d: %w", fd, err)
		}
	}
	_ = unix.Close(old)
	return nil
}

func (b *epollBackend) Close() error {
	return unix.Close(b.epfd)
}
