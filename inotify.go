// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package inotify

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

type state uint8

const (
	idle    state = iota // Created, never started.
	started              // Start succeeded, Close not called yet.
	closed               // Closed after being started; can Start again.
	failed               // Start failed; unusable.
)

// Watcher watches a set of paths with a single inotify instance, delivering
// events in the order the kernel reported them.
//
// Watches can be added before or after Start; events are read with Next or
// Events. Every watch has an alias (the path, unless WithAlias is given) that
// events are reported with and that Unwatch takes.
//
// A Watcher isn't safe for concurrent use: all methods must be called from
// the goroutine that owns it. Cancel a blocked Next with its context rather
// than calling Close from another goroutine.
//
// The fs.inotify.max_user_watches and fs.inotify.max_user_instances sysctls
// limit the number of watches and Watchers; reaching them results in "no
// space left on device" and "too many open files" errors respectively.
type Watcher struct {
	k       kernel
	stream  *fdStream // nil unless started
	reg     registry
	state   state
	bufSize int
	log     zerolog.Logger
	metrics *metrics
}

// WatchError is returned when the kernel rejects adding or removing a watch.
// It matches ErrWatch with errors.Is, and unwraps to the *os.SyscallError.
type WatchError struct {
	Op    string // "watch" or "unwatch"
	Alias string
	Path  string
	Err   error
}

func (e *WatchError) Error() string {
	s := "inotify: " + e.Op + " " + strconv.Quote(e.Path)
	if e.Alias != e.Path {
		s += " (alias " + strconv.Quote(e.Alias) + ")"
	}
	return s + ": " + e.Err.Error()
}

func (e *WatchError) Unwrap() error        { return e.Err }
func (e *WatchError) Is(target error) bool { return target == ErrWatch }

// NewWatcher creates an idle watcher; the inotify instance isn't created
// until Start.
func NewWatcher(opts ...Option) (*Watcher, error) {
	o, err := getOptions(opts...)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(o.reg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "inotify: registering metrics")
	}
	return &Watcher{
		k:       o.k,
		reg:     newRegistry(),
		bufSize: o.bufSize,
		log:     o.log,
		metrics: m,
	}, nil
}

// Start creates the inotify instance and adds a kernel watch for every
// registered request, in registration order.
//
// If any of them fails the instance is closed again, the error is returned,
// and the Watcher can't be used any more. Calling Start on a started watcher
// returns ErrAlreadyStarted.
func (w *Watcher) Start(ctx context.Context) (err error) {
	switch w.state {
	case started:
		return ErrAlreadyStarted
	case failed:
		return ErrFailed
	}

	fd, err := w.k.init()
	if err != nil {
		return pkgerrors.Wrap(err, "inotify: start")
	}
	w.stream, err = newStream(fd, "inotify", w.bufSize)
	if err != nil {
		_ = unix.Close(fd)
		return pkgerrors.Wrap(err, "inotify: start")
	}
	w.state = started
	defer func() {
		if err != nil {
			_ = w.stream.close()
			w.stream = nil
			w.reg.reset()
			w.state = failed
			w.metrics.watches.Set(0)
			w.log.Warn().Err(err).Msg("inotify watcher failed to start")
		}
	}()

	// No live watches to protect: if ctx ends the whole instance is closed.
	a := workerAdder{k: w.k}
	for _, req := range w.reg.pending() {
		if err := w.setup(ctx, a, req); err != nil {
			return err
		}
	}
	w.log.Debug().Int("watches", w.reg.activeCount()).Msg("inotify watcher started")
	return nil
}

// Close removes the inotify instance along with all watches, and forgets
// every registered request. It's a no-op if the watcher isn't started.
//
// After Close, Next returns ErrClosed. The watcher can be started again.
func (w *Watcher) Close() error {
	if w.state != started {
		return nil
	}
	err := w.stream.close()
	w.stream = nil
	w.reg.reset()
	w.state = closed
	w.metrics.watches.Set(0)
	w.log.Debug().Msg("inotify watcher closed")
	return err
}

// Closed reports if the watcher has no inotify instance; this is the case
// before Start and after Close.
func (w *Watcher) Closed() bool { return w.stream == nil }

// Watch registers path, with the inotify events in flags.
//
// If the watcher is started the kernel watch is added right away, on the
// calling goroutine; this can block on slow (e.g. network) filesystems. Use
// WatchContext to not wait for it.
//
// Returns an error wrapping ErrDuplicateAlias if the alias is already
// registered, and a *WatchError if the kernel refused the watch. A failed
// watch is not kept and doesn't affect other watches.
func (w *Watcher) Watch(path string, flags Flags, opts ...WatchOption) error {
	return w.watch(context.Background(), directAdder{w.k}, path, flags, opts)
}

// WatchContext is like Watch, but adds the kernel watch from a separate
// goroutine, returning when it's done or when ctx is.
//
// If ctx ends first the request is dropped and ctx.Err() returned. Once the
// kernel call finishes its effect is undone: a new watch is removed, and if
// the path turned out to be watched already under another alias, that
// watch's mask is put back.
func (w *Watcher) WatchContext(ctx context.Context, path string, flags Flags, opts ...WatchOption) error {
	return w.watch(ctx, workerAdder{k: w.k, live: w.reg.live()}, path, flags, opts)
}

func (w *Watcher) watch(ctx context.Context, a adder, path string, flags Flags, opts []WatchOption) error {
	if w.state == failed {
		return ErrFailed
	}
	req := WatchRequest{Path: path, Flags: flags, Alias: path}
	for _, o := range opts {
		o(&req)
	}
	if err := w.reg.add(req); err != nil {
		return err
	}
	if w.state != started {
		w.log.Debug().Str("alias", req.Alias).Str("path", path).Stringer("flags", flags).Msg("watch pending")
		return nil
	}
	if err := w.setup(ctx, a, req); err != nil {
		w.reg.drop(req.Alias)
		return err
	}
	return nil
}

// setup adds the kernel watch for req and records its watch descriptor.
func (w *Watcher) setup(ctx context.Context, a adder, req WatchRequest) error {
	// Never let a second alias silently take over an existing watch (same
	// inode through another path, hardlink, or symlink). Kernels before 4.18
	// ignore IN_MASK_CREATE, so the wd is checked below as well.
	mask := req.Flags
	if !mask.Has(MaskAdd) {
		mask |= MaskCreate
	}

	wd, err := a.add(ctx, w.stream.rc, req.Path, mask)
	if err != nil {
		switch {
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			return err
		case errors.Is(err, unix.EEXIST):
			return fmt.Errorf("%w: %q", ErrAlreadyWatched, req.Path)
		}
		w.metrics.errors.WithLabelValues("add").Inc()
		return &WatchError{Op: "watch", Alias: req.Alias, Path: req.Path, Err: err}
	}

	if other, ok := w.reg.alias(wd); ok && other != req.Alias {
		if prev, ok := w.reg.request(other); ok {
			directAdder{w.k}.restore(w.stream.rc, prev)
		}
		return fmt.Errorf("%w: %q is watched as %q", ErrAlreadyWatched, req.Path, other)
	}

	w.reg.activate(req.Alias, wd)
	w.metrics.watches.Set(float64(w.reg.activeCount()))
	w.log.Debug().Str("alias", req.Alias).Str("path", req.Path).Stringer("flags", req.Flags).Int("wd", wd).
		Msg("watch added")
	return nil
}

// Unwatch removes the watch registered as alias.
//
// Returns an error wrapping ErrUnknownAlias if alias has no active watch, and
// a *WatchError if the kernel refused to remove it; the watch is kept in that
// case. Events already queued for the watch are never delivered.
func (w *Watcher) Unwatch(alias string) error {
	wd, ok := w.reg.wd(alias)
	if !ok || w.state != started {
		return fmt.Errorf("%w: %q", ErrUnknownAlias, alias)
	}

	_, err := control(w.stream.rc, func(fd int) (int, error) {
		return 0, w.k.rmWatch(fd, wd)
	})
	if err != nil {
		w.metrics.errors.WithLabelValues("rm").Inc()
		req, _ := w.reg.request(alias)
		return &WatchError{Op: "unwatch", Alias: alias, Path: req.Path, Err: err}
	}

	w.reg.drop(alias)
	w.metrics.watches.Set(float64(w.reg.activeCount()))
	w.log.Debug().Str("alias", alias).Int("wd", wd).Msg("watch removed")
	return nil
}

// Watches returns all registered watches, pending or active, sorted by alias.
func (w *Watcher) Watches() []WatchRequest { return w.reg.snapshot() }

// Next waits for the next event.
//
// It returns ErrNotStarted if Start hasn't been called, ErrClosed after Close
// (or a failed Start), and ctx.Err() if ctx ends first; no event is lost in
// that case.
func (w *Watcher) Next(ctx context.Context) (Event, error) {
	switch w.state {
	case idle:
		return Event{}, ErrNotStarted
	case closed, failed:
		return Event{}, ErrClosed
	}
	return w.readEvent(ctx)
}

// Events returns an iterator over events, for use with range. Iteration stops
// after the first error, which is yielded with a zero Event.
//
//	for e, err := range w.Events(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(e)
//	}
func (w *Watcher) Events(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			e, err := w.Next(ctx)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}
