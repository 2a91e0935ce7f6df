// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package inotify

import (
	"context"
	"os"
	"syscall"

	"github.com/fsnotify/inotify/internal"
	"golang.org/x/sys/unix"
)

// kernel is the set of inotify syscalls the watcher needs.
type kernel interface {
	// init returns a new non-blocking inotify descriptor.
	init() (int, error)
	// addWatch returns a watch descriptor (>= 0) for path.
	addWatch(fd int, path string, mask uint32) (int, error)
	rmWatch(fd int, wd int) error
}

type unixKernel struct{}

func (unixKernel) init() (int, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return -1, os.NewSyscallError("inotify_init1", err)
	}
	return fd, nil
}

func (unixKernel) addWatch(fd int, path string, mask uint32) (int, error) {
	wd, err := internal.IgnoringEINTR(func() (int, error) {
		return unix.InotifyAddWatch(fd, path, mask)
	})
	if err != nil {
		return -1, os.NewSyscallError("inotify_add_watch", err)
	}
	return wd, nil
}

func (unixKernel) rmWatch(fd int, wd int) error {
	_, err := internal.IgnoringEINTR(func() (int, error) {
		return unix.InotifyRmWatch(fd, uint32(wd))
	})
	if err != nil {
		return os.NewSyscallError("inotify_rm_watch", err)
	}
	return nil
}

// control runs fn with the raw descriptor behind rc. The descriptor is
// referenced for the duration of fn, so it can't be closed and reused in the
// meantime.
func control(rc syscall.RawConn, fn func(fd int) (int, error)) (int, error) {
	var (
		n   int
		err error
	)
	cerr := rc.Control(func(fd uintptr) {
		n, err = fn(int(fd))
	})
	if cerr != nil {
		return -1, ErrClosed
	}
	return n, err
}

// adder performs inotify_add_watch for the watcher. The watcher picks an
// implementation per call site: directAdder for Watch, workerAdder for
// WatchContext and Start.
type adder interface {
	add(ctx context.Context, rc syscall.RawConn, path string, mask Flags) (int, error)
}

// directAdder calls the kernel on the calling goroutine; inotify_add_watch
// can block on slow filesystems.
type directAdder struct{ k kernel }

func (a directAdder) add(_ context.Context, rc syscall.RawConn, path string, mask Flags) (int, error) {
	return control(rc, func(fd int) (int, error) {
		return a.k.addWatch(fd, path, uint32(mask))
	})
}

// restore puts back the mask of prev after another add got the same watch
// descriptor and replaced it.
func (a directAdder) restore(rc syscall.RawConn, prev WatchRequest) {
	_, _ = a.add(context.Background(), rc, prev.Path, prev.Flags&^MaskAdd)
}

// workerAdder calls the kernel on a separate goroutine and waits for either
// the result or ctx. If ctx ends first the worker undoes whatever the kernel
// did once the call returns: a new watch is removed, and a watch in live
// (active when the call started, keyed by wd) gets its mask back.
//
// live is owned by the worker; pass a copy, never the registry's maps.
type workerAdder struct {
	k    kernel
	live map[int]WatchRequest
}

func (a workerAdder) add(ctx context.Context, rc syscall.RawConn, path string, mask Flags) (int, error) {
	type result struct {
		wd  int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		wd, err := directAdder{a.k}.add(ctx, rc, path, mask)
		ch <- result{wd, err}
	}()

	select {
	case r := <-ch:
		return r.wd, r.err
	case <-ctx.Done():
		go func() {
			r := <-ch
			if r.err != nil {
				return
			}
			if prev, ok := a.live[r.wd]; ok {
				directAdder{a.k}.restore(rc, prev)
				return
			}
			_, _ = control(rc, func(fd int) (int, error) {
				return 0, a.k.rmWatch(fd, r.wd)
			})
		}()
		return -1, ctx.Err()
	}
}
