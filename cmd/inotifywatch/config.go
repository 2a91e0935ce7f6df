//go:build linux

package main

import (
	"github.com/fsnotify/inotify"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// config is the file given with --config:
//
//	watches:
//	  - path: /var/log
//	    flags: create|modify   # optional; defaults to --flags
//	    alias: logs            # optional; defaults to path
type config struct {
	Watches []watchEntry `yaml:"watches"`
}

type watchEntry struct {
	Path  string `yaml:"path"`
	Flags string `yaml:"flags"`
	Alias string `yaml:"alias"`
}

func loadConfig(fs afero.Fs, name string) (config, error) {
	var c config
	b, err := afero.ReadFile(fs, name)
	if err != nil {
		return c, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, errors.Wrapf(err, "parsing %s", name)
	}
	return c, nil
}

// requests turns the config entries and the paths from the commandline into
// watch requests; def is used for entries without flags.
func (c config) requests(paths []string, def inotify.Flags) ([]inotify.WatchRequest, error) {
	reqs := make([]inotify.WatchRequest, 0, len(c.Watches)+len(paths))
	for i, e := range c.Watches {
		if e.Path == "" {
			return nil, errors.Errorf("watches[%d]: path is required", i)
		}
		r := inotify.WatchRequest{Path: e.Path, Flags: def, Alias: e.Alias}
		if e.Flags != "" {
			f, err := inotify.ParseFlags(e.Flags)
			if err != nil {
				return nil, errors.Wrapf(err, "watches[%d]", i)
			}
			r.Flags = f
		}
		if r.Alias == "" {
			r.Alias = r.Path
		}
		reqs = append(reqs, r)
	}
	for _, p := range paths {
		reqs = append(reqs, inotify.WatchRequest{Path: p, Flags: def, Alias: p})
	}
	return reqs, nil
}
