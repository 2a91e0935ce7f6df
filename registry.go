//go:build linux

package inotify

import (
	"fmt"
	"slices"
	"strings"
)

// WatchRequest describes a registered watch.
type WatchRequest struct {
	Path  string
	Flags Flags
	Alias string // Defaults to Path.
}

// registry is the watcher's bookkeeping: every registered request, and for
// the ones the kernel accepted the alias ↔ watch descriptor mapping.
//
// An alias is in requests from Watch until Unwatch or Close; it's in active
// and aliases only while the watcher is started and the kernel has a watch
// for it.
type registry struct {
	order    []string // Aliases in registration order.
	requests map[string]WatchRequest
	active   map[string]int // alias → wd
	aliases  map[int]string // wd → alias
}

func newRegistry() registry {
	return registry{
		requests: make(map[string]WatchRequest),
		active:   make(map[string]int),
		aliases:  make(map[int]string),
	}
}

func (r *registry) add(req WatchRequest) error {
	if _, ok := r.requests[req.Alias]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAlias, req.Alias)
	}
	r.requests[req.Alias] = req
	r.order = append(r.order, req.Alias)
	return nil
}

func (r *registry) activate(alias string, wd int) {
	r.active[alias] = wd
	r.aliases[wd] = alias
}

// drop forgets alias entirely.
func (r *registry) drop(alias string) {
	if wd, ok := r.active[alias]; ok {
		delete(r.aliases, wd)
		delete(r.active, alias)
	}
	if _, ok := r.requests[alias]; ok {
		delete(r.requests, alias)
		r.order = slices.DeleteFunc(r.order, func(a string) bool { return a == alias })
	}
}

func (r *registry) wd(alias string) (int, bool) {
	wd, ok := r.active[alias]
	return wd, ok
}

func (r *registry) alias(wd int) (string, bool) {
	a, ok := r.aliases[wd]
	return a, ok
}

func (r *registry) request(alias string) (WatchRequest, bool) {
	req, ok := r.requests[alias]
	return req, ok
}

// pending returns the requests without a kernel watch, in registration
// order.
func (r *registry) pending() []WatchRequest {
	l := make([]WatchRequest, 0, len(r.order))
	for _, a := range r.order {
		if _, ok := r.active[a]; !ok {
			l = append(l, r.requests[a])
		}
	}
	return l
}

// live returns a copy of the active requests, keyed by watch descriptor.
func (r *registry) live() map[int]WatchRequest {
	m := make(map[int]WatchRequest, len(r.aliases))
	for wd, a := range r.aliases {
		m[wd] = r.requests[a]
	}
	return m
}

func (r *registry) activeCount() int { return len(r.active) }

// snapshot returns all requests sorted by alias.
func (r *registry) snapshot() []WatchRequest {
	l := make([]WatchRequest, 0, len(r.requests))
	for _, req := range r.requests {
		l = append(l, req)
	}
	slices.SortFunc(l, func(a, b WatchRequest) int { return strings.Compare(a.Alias, b.Alias) })
	return l
}

func (r *registry) reset() { *r = newRegistry() }
