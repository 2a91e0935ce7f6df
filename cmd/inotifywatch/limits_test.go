//go:build linux

package main

import (
	"bytes"
	"path"
	"testing"

	"github.com/fsnotify/inotify/internal"
	"github.com/shoenig/test/must"
	"github.com/spf13/afero"
)

func TestPrintLimits(t *testing.T) {
	fs := afero.NewMemMapFs()
	for name, v := range map[string]string{
		"max_user_watches":   "8192\n",
		"max_user_instances": "128\n",
		"max_queued_events":  "16384\n",
	} {
		must.NoError(t, afero.WriteFile(fs, path.Join(internal.LimitsDir, name), []byte(v), 0o644))
	}

	var out bytes.Buffer
	must.NoError(t, printLimits(&out, fs, internal.Capabilities{SysAdmin: true}))
	must.EqOp(t, ""+
		"fs.inotify.max_user_watches    8192\n"+
		"fs.inotify.max_user_instances  128\n"+
		"fs.inotify.max_queued_events   16384\n"+
		"CAP_DAC_READ_SEARCH            no\n"+
		"CAP_SYS_ADMIN                  yes\n",
		out.String())
}

func TestPrintLimitsMissing(t *testing.T) {
	var out bytes.Buffer
	err := printLimits(&out, afero.NewMemMapFs(), internal.Capabilities{})
	must.ErrorContains(t, err, "reading inotify limit")
	must.EqOp(t, "", out.String())
}
