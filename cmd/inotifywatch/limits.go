//go:build linux

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fsnotify/inotify/internal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newLimitsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "show the inotify limits for this system",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			caps, err := internal.ProcessCapabilities()
			if err != nil {
				return err
			}
			return printLimits(out, afero.NewOsFs(), caps)
		},
	}
}

func printLimits(out io.Writer, fs afero.Fs, caps internal.Capabilities) error {
	l, err := internal.ReadLimits(fs)
	if err != nil {
		return err
	}
	yesno := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "fs.inotify.max_user_watches\t%d\n", l.MaxUserWatches)
	fmt.Fprintf(tw, "fs.inotify.max_user_instances\t%d\n", l.MaxUserInstances)
	fmt.Fprintf(tw, "fs.inotify.max_queued_events\t%d\n", l.MaxQueuedEvents)
	fmt.Fprintf(tw, "CAP_DAC_READ_SEARCH\t%s\n", yesno(caps.DACReadSearch))
	fmt.Fprintf(tw, "CAP_SYS_ADMIN\t%s\n", yesno(caps.SysAdmin))
	return tw.Flush()
}
