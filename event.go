// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package inotify

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/fsnotify/inotify/internal"
	"golang.org/x/sys/unix"
)

// Event is a single change reported by the kernel.
type Event struct {
	// Flags are the inotify bits reported for this event; this may include
	// bits that weren't asked for, such as IsDir or Ignored.
	Flags Flags

	// Cookie links the MovedFrom and MovedTo halves of a rename; it's 0 for
	// all other events.
	Cookie uint32

	// Name is the name of the file inside a watched directory, or "" if the
	// event is about the watched path itself. Invalid UTF-8 is replaced with
	// U+FFFD.
	Name string

	// Alias of the watch this event belongs to.
	Alias string
}

func (e Event) String() string {
	if e.Cookie != 0 {
		return fmt.Sprintf("%-13s %q: %s (cookie %d)", e.Alias, e.Name, e.Flags, e.Cookie)
	}
	return fmt.Sprintf("%-13s %q: %s", e.Alias, e.Name, e.Flags)
}

const (
	// Size of the fixed struct inotify_event header; the name follows it.
	headerSize = unix.SizeofInotifyEvent

	// The kernel pads names to a multiple of the header size, so anything
	// longer than PATH_MAX can only come from a corrupt stream.
	maxNameLen = unix.PathMax
)

// header is struct inotify_event without the name.
type header struct {
	wd     int32
	mask   uint32
	cookie uint32
	len    uint32 // Length of the name, including NUL padding.
}

func decodeHeader(b []byte) header {
	return header{
		wd:     int32(binary.NativeEndian.Uint32(b[0:4])),
		mask:   binary.NativeEndian.Uint32(b[4:8]),
		cookie: binary.NativeEndian.Uint32(b[8:12]),
		len:    binary.NativeEndian.Uint32(b[12:16]),
	}
}

// decodeName strips the NUL padding and replaces invalid UTF-8.
func decodeName(b []byte) string {
	return strings.ToValidUTF8(string(bytes.TrimRight(b, "\x00")), "\uFFFD")
}

// readEvent reads frames until one belongs to an active watch. Frames for
// watch descriptors we don't know about are dropped: that's what's left in
// the queue after Unwatch, and IN_Q_OVERFLOW (wd -1).
func (w *Watcher) readEvent(ctx context.Context) (Event, error) {
	for {
		if err := w.stream.fill(ctx, headerSize); err != nil {
			return Event{}, err
		}
		h := decodeHeader(w.stream.peek(headerSize))
		if h.len > maxNameLen {
			return Event{}, fmt.Errorf("inotify: invalid name length %d in event for wd %d", h.len, h.wd)
		}

		size := headerSize + int(h.len)
		if err := w.stream.fill(ctx, size); err != nil {
			return Event{}, err
		}
		name := decodeName(w.stream.peek(size)[headerSize:])
		w.stream.discard(size)

		if debug {
			internal.Debug(name, h.wd, h.mask, h.cookie)
		}

		alias, ok := w.reg.alias(int(h.wd))
		if !ok {
			w.metrics.discard(Flags(h.mask))
			w.log.Trace().Int32("wd", h.wd).Stringer("flags", Flags(h.mask)).Str("name", name).
				Msg("dropping event for unknown watch")
			continue
		}

		e := Event{
			Flags:  Flags(h.mask),
			Cookie: h.cookie,
			Name:   name,
			Alias:  alias,
		}
		if e.Flags.Has(Ignored) {
			// The kernel dropped the watch (path deleted, unmounted, or
			// Oneshot fired); nothing more will arrive for it.
			w.reg.drop(alias)
			w.metrics.watches.Set(float64(w.reg.activeCount()))
			w.log.Debug().Str("alias", alias).Msg("watch removed by kernel")
		}
		w.metrics.events.Inc()
		return e, nil
	}
}
