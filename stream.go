// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package inotify

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// defaultBufferSize is how much fdStream reads from the descriptor at once.
const defaultBufferSize = 4096

// fdStream is a buffered reader over a non-blocking descriptor. Waiting for
// the descriptor to become readable parks the goroutine in the runtime
// poller; no thread is blocked in read(2).
//
// The stream owns the descriptor: close is the only place it gets closed.
type fdStream struct {
	f   *os.File
	rc  syscall.RawConn
	buf []byte // buf[pos:] is unread
	pos int
	max int // Size of a single read.
}

func newStream(fd int, name string, size int) (*fdStream, error) {
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, os.ErrInvalid
	}
	rc, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fdStream{
		f:   f,
		rc:  rc,
		buf: make([]byte, 0, size),
		max: size,
	}, nil
}

func (s *fdStream) buffered() int { return len(s.buf) - s.pos }

// fill makes sure at least n unread bytes are buffered, reading from the
// descriptor as needed. Nothing is consumed; if ctx ends or the read fails the
// buffered bytes stay where they were.
func (s *fdStream) fill(ctx context.Context, n int) error {
	for s.buffered() < n {
		if s.f == nil {
			return ErrClosed
		}

		if s.pos > 0 {
			s.buf = s.buf[:copy(s.buf, s.buf[s.pos:])]
			s.pos = 0
		}
		if cap(s.buf)-len(s.buf) < s.max {
			nb := make([]byte, len(s.buf), len(s.buf)+s.max)
			copy(nb, s.buf)
			s.buf = nb
		}

		m, err := s.readChunk(ctx, s.buf[len(s.buf):len(s.buf)+s.max])
		s.buf = s.buf[:len(s.buf)+m]
		if err != nil {
			return err
		}
	}
	return nil
}

// peek returns the next n buffered bytes without consuming them. The slice is
// only valid until the next fill.
func (s *fdStream) peek(n int) []byte { return s.buf[s.pos : s.pos+n] }

// discard consumes n buffered bytes; the buffer is cleared once it's drained.
func (s *fdStream) discard(n int) {
	s.pos += n
	if s.pos >= len(s.buf) {
		s.buf = s.buf[:0]
		s.pos = 0
	}
}

// readChunk does a single read into p, waiting until the descriptor is
// readable or ctx is done.
func (s *fdStream) readChunk(ctx context.Context, p []byte) (int, error) {
	if ctx.Done() != nil {
		fired := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			_ = s.f.SetReadDeadline(time.Now())
			close(fired)
		})
		defer func() {
			if !stop() {
				<-fired
				_ = s.f.SetReadDeadline(time.Time{})
			}
		}()
	}

	n, err := s.f.Read(p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, os.ErrDeadlineExceeded) && ctx.Err() != nil:
		return n, ctx.Err()
	case errors.Is(err, os.ErrClosed):
		return n, ErrClosed
	}
	return n, pkgerrors.Wrap(err, "inotify: read")
}

// close closes the descriptor; calling it more than once is a no-op.
func (s *fdStream) close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f, s.rc = nil, nil
	s.buf, s.pos = nil, 0
	return err
}
