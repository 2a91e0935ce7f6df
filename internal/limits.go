package internal

import (
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// LimitsDir is where the kernel exposes the inotify sysctls.
const LimitsDir = "/proc/sys/fs/inotify"

// Limits are the fs.inotify.* sysctls.
type Limits struct {
	MaxUserWatches   int64 // Watches per user, across all instances.
	MaxUserInstances int64 // inotify instances per user.
	MaxQueuedEvents  int64 // Events queued per instance before IN_Q_OVERFLOW.
}

// ReadLimits reads the inotify limits from LimitsDir on fs.
func ReadLimits(fs afero.Fs) (Limits, error) {
	var (
		l   Limits
		err error
	)
	for _, f := range []struct {
		name string
		v    *int64
	}{
		{"max_user_watches", &l.MaxUserWatches},
		{"max_user_instances", &l.MaxUserInstances},
		{"max_queued_events", &l.MaxQueuedEvents},
	} {
		*f.v, err = readInt(fs, path.Join(LimitsDir, f.name))
		if err != nil {
			return Limits{}, err
		}
	}
	return l, nil
}

func readInt(fs afero.Fs, name string) (int64, error) {
	b, err := afero.ReadFile(fs, name)
	if err != nil {
		return 0, errors.Wrap(err, "reading inotify limit")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", name)
	}
	return n, nil
}
