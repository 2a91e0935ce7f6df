//go:build linux

package inotify

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	r := newRegistry()
	check := func(active, aliases, requests int) {
		t.Helper()
		if len(r.active) != active {
			t.Errorf("active: want %d, have %d: %v", active, len(r.active), r.active)
		}
		if len(r.aliases) != aliases {
			t.Errorf("aliases: want %d, have %d: %v", aliases, len(r.aliases), r.aliases)
		}
		if len(r.requests) != requests || len(r.order) != requests {
			t.Errorf("requests: want %d, have %d/%d", requests, len(r.requests), len(r.order))
		}
	}

	for _, a := range []string{"c", "a", "b"} {
		if err := r.add(WatchRequest{Path: "/" + a, Flags: Create, Alias: a}); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.add(WatchRequest{Path: "/other", Alias: "a"}); !errors.Is(err, ErrDuplicateAlias) {
		t.Fatalf("wrong error: %v", err)
	}
	check(0, 0, 3)

	pending := func() []string {
		var l []string
		for _, p := range r.pending() {
			l = append(l, p.Alias)
		}
		return l
	}
	if d := cmp.Diff([]string{"c", "a", "b"}, pending()); d != "" {
		t.Error(d)
	}

	r.activate("c", 1)
	r.activate("a", 2)
	check(2, 2, 3)
	if d := cmp.Diff([]string{"b"}, pending()); d != "" {
		t.Error(d)
	}
	if a, ok := r.alias(2); !ok || a != "a" {
		t.Errorf("alias(2): %q %t", a, ok)
	}
	if wd, ok := r.wd("c"); !ok || wd != 1 {
		t.Errorf("wd(c): %d %t", wd, ok)
	}
	if _, ok := r.wd("b"); ok {
		t.Error("pending alias has a wd")
	}

	want := []WatchRequest{
		{Path: "/a", Flags: Create, Alias: "a"},
		{Path: "/b", Flags: Create, Alias: "b"},
		{Path: "/c", Flags: Create, Alias: "c"},
	}
	if d := cmp.Diff(want, r.snapshot()); d != "" {
		t.Error(d)
	}

	live := r.live()
	if d := cmp.Diff(map[int]WatchRequest{1: want[2], 2: want[0]}, live); d != "" {
		t.Error(d)
	}
	delete(live, 1)
	if _, ok := r.alias(1); !ok {
		t.Error("live isn't a copy")
	}

	r.drop("a")
	check(1, 1, 2)
	r.drop("b")
	check(1, 1, 1)
	r.drop("nonexistent")
	check(1, 1, 1)
	if _, ok := r.alias(2); ok {
		t.Error("dropped wd still mapped")
	}

	// Alias can be used again.
	if err := r.add(WatchRequest{Path: "/a", Alias: "a"}); err != nil {
		t.Fatal(err)
	}
	r.reset()
	check(0, 0, 0)
}
