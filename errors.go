package inotify

import "errors"

// Common errors that can be reported.
var (
	// ErrDuplicateAlias is returned when an alias is already pending or
	// active on the watcher.
	ErrDuplicateAlias = errors.New("inotify: alias already registered")

	// ErrUnknownAlias is returned by Unwatch for an alias that isn't active.
	ErrUnknownAlias = errors.New("inotify: unknown watch alias")

	// ErrAlreadyWatched is returned when a path resolves to an inode that is
	// already watched under a different alias.
	ErrAlreadyWatched = errors.New("inotify: inode already watched under another alias")

	// ErrWatch marks a failure reported by the kernel while adding or
	// removing a watch. The underlying *os.SyscallError is also in the chain.
	ErrWatch = errors.New("inotify: watch failed")

	ErrAlreadyStarted = errors.New("inotify: watcher already started")
	ErrNotStarted     = errors.New("inotify: watcher not started")
	ErrClosed         = errors.New("inotify: watcher closed")

	// ErrFailed is returned by Start after an earlier Start failed; create a
	// new Watcher instead.
	ErrFailed = errors.New("inotify: watcher failed to start")
)
