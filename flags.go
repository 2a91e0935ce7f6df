//go:build linux

package inotify

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Flags is an inotify event mask, as passed to inotify_add_watch(2) and
// reported in every event. See inotify(7) for the meaning of each bit.
type Flags uint32

// Events that can be watched for, and that are reported back.
const (
	Access       Flags = unix.IN_ACCESS        // File was accessed.
	Modify       Flags = unix.IN_MODIFY        // File was modified.
	Attrib       Flags = unix.IN_ATTRIB        // Metadata changed.
	CloseWrite   Flags = unix.IN_CLOSE_WRITE   // Writable file was closed.
	CloseNoWrite Flags = unix.IN_CLOSE_NOWRITE // Unwritable file closed.
	Open         Flags = unix.IN_OPEN          // File was opened.
	MovedFrom    Flags = unix.IN_MOVED_FROM    // File was moved from X.
	MovedTo      Flags = unix.IN_MOVED_TO      // File was moved to Y.
	Create       Flags = unix.IN_CREATE        // Subfile was created.
	Delete       Flags = unix.IN_DELETE        // Subfile was deleted.
	DeleteSelf   Flags = unix.IN_DELETE_SELF   // Self was deleted.
	MoveSelf     Flags = unix.IN_MOVE_SELF     // Self was moved.

	Close     = CloseWrite | CloseNoWrite
	Move      = MovedFrom | MovedTo
	AllEvents = Flags(unix.IN_ALL_EVENTS)
)

// Bits only set by the kernel in reported events.
const (
	Unmount   Flags = unix.IN_UNMOUNT    // Backing filesystem was unmounted.
	QOverflow Flags = unix.IN_Q_OVERFLOW // Event queue overflowed.
	Ignored   Flags = unix.IN_IGNORED    // Watch was removed.
	IsDir     Flags = unix.IN_ISDIR      // Subject of the event is a directory.
)

// Options for inotify_add_watch(2).
const (
	OnlyDir    Flags = unix.IN_ONLYDIR     // Only watch the path if it is a directory.
	DontFollow Flags = unix.IN_DONT_FOLLOW // Don't follow a symlink.
	ExclUnlink Flags = unix.IN_EXCL_UNLINK // Exclude events on unlinked objects.
	MaskCreate Flags = unix.IN_MASK_CREATE // Only create watches.
	MaskAdd    Flags = unix.IN_MASK_ADD    // Add to the mask of an already existing watch.
	Oneshot    Flags = unix.IN_ONESHOT     // Only send event once.
)

// Single-bit flags only; composite masks (Close, Move, AllEvents) must not be
// listed here.
var flagNames = []struct {
	f Flags
	n string
}{
	{Access, "ACCESS"},
	{Modify, "MODIFY"},
	{Attrib, "ATTRIB"},
	{CloseWrite, "CLOSE_WRITE"},
	{CloseNoWrite, "CLOSE_NOWRITE"},
	{Open, "OPEN"},
	{MovedFrom, "MOVED_FROM"},
	{MovedTo, "MOVED_TO"},
	{Create, "CREATE"},
	{Delete, "DELETE"},
	{DeleteSelf, "DELETE_SELF"},
	{MoveSelf, "MOVE_SELF"},
	{Unmount, "UNMOUNT"},
	{QOverflow, "Q_OVERFLOW"},
	{Ignored, "IGNORED"},
	{OnlyDir, "ONLYDIR"},
	{DontFollow, "DONT_FOLLOW"},
	{ExclUnlink, "EXCL_UNLINK"},
	{MaskCreate, "MASK_CREATE"},
	{MaskAdd, "MASK_ADD"},
	{IsDir, "ISDIR"},
	{Oneshot, "ONESHOT"},
}

// Has reports if f has all bits of h set.
func (f Flags) Has(h Flags) bool { return f&h == h }

// Split returns the individual flags set in f, in bit order.
func (f Flags) Split() []Flags {
	var l []Flags
	for _, n := range flagNames {
		if f.Has(n.f) {
			l = append(l, n.f)
		}
	}
	return l
}

// String returns the flags in f separated by "|", e.g. "CREATE|ISDIR".
// Unknown bits are printed in hex.
func (f Flags) String() string {
	var (
		b    strings.Builder
		left = f
	)
	for _, n := range flagNames {
		if f.Has(n.f) {
			if b.Len() > 0 {
				b.WriteByte('|')
			}
			b.WriteString(n.n)
			left &^= n.f
		}
	}
	if left != 0 {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%#x", uint32(left))
	}
	return b.String()
}

// ParseFlags parses a list of flag names separated by "|", "," or spaces;
// names are case-insensitive and the "IN_" prefix is optional. "CLOSE",
// "MOVE" and "ALL_EVENTS" are accepted as shorthands.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	}) {
		w = strings.TrimPrefix(strings.ToUpper(w), "IN_")
		switch w {
		case "CLOSE":
			f |= Close
			continue
		case "MOVE":
			f |= Move
			continue
		case "ALL_EVENTS", "ALL":
			f |= AllEvents
			continue
		}
		var found bool
		for _, n := range flagNames {
			if n.n == w {
				f |= n.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("inotify: unknown flag %q", w)
		}
	}
	return f, nil
}
