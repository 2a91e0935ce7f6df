//go:build linux

// Command inotifywatch prints inotify events for a set of paths.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func exit(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, filepath.Base(os.Args[0])+": "+format+"\n", a...)
	os.Exit(1)
}

// Print line prefixed with the time (a bit shorter than log.Print; we don't
// really need the date and ms is useful here).
func printTime(w io.Writer, s string, args ...interface{}) {
	fmt.Fprintf(w, time.Now().Format("15:04:05.0000")+" "+s+"\n", args...)
}

func newLogger(verbose bool) zerolog.Logger {
	lvl := zerolog.WarnLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.0000"}).
		Level(lvl).
		With().Timestamp().Logger()
}

func newApp(out io.Writer) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "inotifywatch",
		Short:         "print inotify events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log watcher activity to stderr")
	cmd.AddCommand(
		newWatchCmd(out, func() zerolog.Logger { return newLogger(verbose) }),
		newLimitsCmd(out),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(os.Stdout).ExecuteContext(ctx); err != nil {
		exit("%s", err)
	}
}
