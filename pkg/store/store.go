// Package store holds the session's authoritative in-memory collection of
// hosts.
//
// The collection is only ever swapped whole: every mutation builds a new
// slice and installs it under the lock, so a reader never observes a
// partially applied update. Read views (FilterAndSort, Snapshot, Stats)
// work on point-in-time copies and never mutate the store.
package store

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kylerisse/pingboard/pkg/host"
)

// Store is the in-memory host collection. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	hosts  []host.Host
	loaded bool
	lastID int64
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to generate host ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty, not yet loaded Store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Loaded reports whether a complete snapshot has been installed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the number of hosts in the collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hosts)
}

// ReplaceAll swaps the entire collection for a fetched snapshot. Any local
// state not yet confirmed by the backend is discarded.
func (s *Store) ReplaceAll(hosts []host.Host) {
	next := host.CloneAll(hosts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts = next
	s.loaded = true
	for _, h := range next {
		s.lastID = max(s.lastID, h.ID)
	}
}

// UpsertLocal applies an operator edit. If a host with h.ID exists, only its
// name and address are replaced. Otherwise a new host is appended with a
// fresh id, StatusCurrent false and an empty history. The stored record is
// returned. Invalid input yields a *host.ValidationError and leaves the
// store unchanged.
func (s *Store) UpsertLocal(h host.Host) (host.Host, error) {
	h.Name = strings.TrimSpace(h.Name)
	h.Address = strings.TrimSpace(h.Address)
	if err := h.Validate(); err != nil {
		return host.Host{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := host.CloneAll(s.hosts)
	if i := indexOf(next, h.ID); i >= 0 && h.ID != 0 {
		next[i].Name = h.Name
		next[i].Address = h.Address
		s.hosts = next
		return next[i].Clone(), nil
	}

	created := host.Host{
		ID:            s.nextID(),
		Name:          h.Name,
		Address:       h.Address,
		StatusCurrent: false,
		StatusHistory: []host.Liveness{},
	}
	s.hosts = append(next, created)
	return created.Clone(), nil
}

// RemoveLocal deletes the host with the given id. It reports whether a host
// was removed; removing an absent id is a no-op.
func (s *Store) RemoveLocal(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.hosts, id)
	if i < 0 {
		return false
	}
	next := make([]host.Host, 0, len(s.hosts)-1)
	next = append(next, s.hosts[:i]...)
	next = append(next, s.hosts[i+1:]...)
	s.hosts = next
	return true
}

// Get returns a copy of the host with the given id.
func (s *Store) Get(id int64) (host.Host, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.hosts, id)
	if i < 0 {
		return host.Host{}, false
	}
	return s.hosts[i].Clone(), true
}

// Snapshot returns a deep copy of the collection in insertion order. This
// is the payload pushed to the backend on save.
func (s *Store) Snapshot() []host.Host {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return host.CloneAll(s.hosts)
}

// FilterAndSort returns a restartable sequence of the hosts whose name
// contains query case-insensitively, ordered by id descending. The sequence
// reads from a copy taken at call time.
func (s *Store) FilterAndSort(query string) iter.Seq[host.Host] {
	return Filter(s.Snapshot(), query)
}

// Filter is FilterAndSort over an already taken snapshot. hosts is not
// modified.
func Filter(hosts []host.Host, query string) iter.Seq[host.Host] {
	sorted := slices.Clone(hosts)
	slices.SortStableFunc(sorted, func(a, b host.Host) int {
		return cmp.Compare(b.ID, a.ID)
	})
	q := strings.ToLower(query)

	return func(yield func(host.Host) bool) {
		for _, h := range sorted {
			if !strings.Contains(strings.ToLower(h.Name), q) {
				continue
			}
			if !yield(h.Clone()) {
				return
			}
		}
	}
}

// Stats summarizes the current collection.
func (s *Store) Stats() Stats {
	return ComputeStats(slices.Values(s.Snapshot()))
}

// ComputeUptime returns the rounded percentage of alive samples in the
// host's history, or 0 when the history is empty.
func ComputeUptime(h host.Host) int {
	return h.Uptime()
}

// nextID returns a creation-time id strictly greater than any id seen so
// far. Callers must hold s.mu.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func indexOf(hosts []host.Host, id int64) int {
	return slices.IndexFunc(hosts, func(h host.Host) bool {
		return h.ID == id
	})
}
