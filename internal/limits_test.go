package internal

import (
	"path"
	"testing"

	"github.com/spf13/afero"
)

func TestReadLimits(t *testing.T) {
	write := func(fs afero.Fs, name, v string) {
		t.Helper()
		if err := afero.WriteFile(fs, path.Join(LimitsDir, name), []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fs := afero.NewMemMapFs()
	write(fs, "max_user_watches", "8192\n")
	write(fs, "max_user_instances", " 128\n")
	write(fs, "max_queued_events", "16384")

	have, err := ReadLimits(fs)
	if err != nil {
		t.Fatal(err)
	}
	want := Limits{MaxUserWatches: 8192, MaxUserInstances: 128, MaxQueuedEvents: 16384}
	if have != want {
		t.Errorf("\nhave: %+v\nwant: %+v", have, want)
	}

	write(fs, "max_queued_events", "lots")
	if _, err := ReadLimits(fs); err == nil {
		t.Error("no error for invalid number")
	}

	if _, err := ReadLimits(afero.NewMemMapFs()); err == nil {
		t.Error("no error for missing files")
	}
}

func TestReadLimitsOs(t *testing.T) {
	l, err := ReadLimits(afero.NewOsFs())
	if err != nil {
		t.Skipf("no inotify sysctls: %s", err)
	}
	if l.MaxUserWatches <= 0 || l.MaxUserInstances <= 0 || l.MaxQueuedEvents <= 0 {
		t.Errorf("unexpected limits: %+v", l)
	}
}
