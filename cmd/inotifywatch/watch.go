//go:build linux

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fsnotify/inotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type watchOpts struct {
	events      int
	flags       string
	config      string
	timeout     time.Duration
	metricsAddr string
}

func newWatchCmd(out io.Writer, logger func() zerolog.Logger) *cobra.Command {
	var o watchOpts
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "print events for paths until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), out, logger(), afero.NewOsFs(), args, o)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&o.events, "events", "n", 0, "exit after this many events; 0 means never")
	f.StringVarP(&o.flags, "flags", "f", "modify|create|delete", "events to watch for")
	f.StringVarP(&o.config, "config", "c", "", "YAML file with watches")
	f.DurationVarP(&o.timeout, "timeout", "t", 0, "exit if no event arrives within this time")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, log zerolog.Logger, fs afero.Fs, paths []string, o watchOpts) error {
	def, err := inotify.ParseFlags(o.flags)
	if err != nil {
		return err
	}
	var c config
	if o.config != "" {
		if c, err = loadConfig(fs, o.config); err != nil {
			return err
		}
	}
	reqs, err := c.requests(paths, def)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return errors.New("must specify at least one path to watch")
	}

	reg := prometheus.NewRegistry()
	if o.metricsAddr != "" {
		stop, err := serveMetrics(o.metricsAddr, reg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	w, err := inotify.NewWatcher(inotify.WithLogger(log), inotify.WithRegisterer(reg))
	if err != nil {
		return err
	}
	for _, r := range reqs {
		if err := w.Watch(r.Path, r.Flags, inotify.WithAlias(r.Alias)); err != nil {
			return err
		}
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Close()

	printTime(out, "ready; press ^C to exit")
	return watchLoop(ctx, out, w, o)
}

func watchLoop(ctx context.Context, out io.Writer, w *inotify.Watcher, o watchOpts) error {
	for i := 1; o.events == 0 || i <= o.events; i++ {
		ectx, cancel := ctx, context.CancelFunc(func() {})
		if o.timeout > 0 {
			ectx, cancel = context.WithTimeout(ctx, o.timeout)
		}
		e, err := w.Next(ectx)
		cancel()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			printTime(out, "no events for %s", o.timeout)
			return nil
		default:
			return err
		}

		// Just print the event nicely aligned, and keep track how many
		// events we've seen.
		printTime(out, "%3d %s", i, e)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) (func(), error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	log.Debug().Str("addr", l.Addr().String()).Msg("serving metrics")
	return func() { _ = srv.Close() }, nil
}
