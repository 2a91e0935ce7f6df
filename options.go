//go:build linux

package inotify

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Print every frame read from the kernel to stderr.
var debug = func() bool {
	v, ok := os.LookupEnv("INOTIFY_DEBUG")
	return ok && v != "" && v != "0"
}()

// The kernel returns EINVAL if a read can't hold at least one event with the
// longest possible name.
const minBufferSize = unix.SizeofInotifyEvent + unix.NAME_MAX + 1

type options struct {
	bufSize int
	log     zerolog.Logger
	reg     prometheus.Registerer
	k       kernel
}

// Option configures a Watcher.
type Option func(*options)

// WithBufferSize sets how many bytes are read from the inotify descriptor at
// once. The default is 4096; values below 272 (one event with a NAME_MAX name)
// are rejected by NewWatcher.
func WithBufferSize(n int) Option { return func(o *options) { o.bufSize = n } }

// WithLogger sets the logger for lifecycle and registration messages. The
// default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// WithRegisterer registers the watcher's Prometheus metrics on r.
//
// Metric names are fixed, so only one watcher can be registered on any given
// registry.
func WithRegisterer(r prometheus.Registerer) Option { return func(o *options) { o.reg = r } }

func withKernel(k kernel) Option { return func(o *options) { o.k = k } }

func getOptions(opts ...Option) (options, error) {
	o := options{
		bufSize: defaultBufferSize,
		log:     zerolog.Nop(),
		k:       unixKernel{},
	}
	for _, f := range opts {
		f(&o)
	}
	if o.bufSize < minBufferSize {
		return o, fmt.Errorf("inotify: buffer size %d too small; need at least %d", o.bufSize, minBufferSize)
	}
	return o, nil
}

// WatchOption configures a single watch.
type WatchOption func(*WatchRequest)

// WithAlias sets the alias that events for this watch are reported with, and
// that Unwatch takes. Without it the path is used.
func WithAlias(alias string) WatchOption { return func(r *WatchRequest) { r.Alias = alias } }
