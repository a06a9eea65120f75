package app

import (
	ristretto "github.com/fiatjaf/generic-ristretto"
	"github.com/nbd-wtf/go-nostr"
	"github.com/puzpuzpuz/xsync/v2"
)

const (
	seenCacheCounters = 1_000_000
	seenCacheMaxCost  = 100_000
)

// Record is an admitted event together with its derived metadata. The event
// itself is never mutated after admission; all derived state lives in meta.
type Record struct {
	Event *nostr.Event
	meta  *Metadata
}

func (r *Record) Metadata() *Metadata { return r.meta }

// Store is the canonical deduplicated event table. The identifier-keyed map
// provides the per-identifier mutual exclusion admission needs; readers get
// lock-free lookups.
type Store struct {
	table *xsync.MapOf[string, *Record]
	// seen is a best-effort front cache that short-circuits duplicate
	// floods before they hit the table. A miss falls through to the
	// authoritative check-and-insert, so admission correctness never
	// depends on it.
	seen *ristretto.Cache[string, struct{}]
}

func NewStore() (s *Store) {
	seen, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: seenCacheCounters,
		MaxCost:     seenCacheMaxCost,
		BufferItems: 64,
	})
	if chk.E(err) {
		seen = nil
	}
	return &Store{
		table: xsync.NewMapOf[*Record](),
		seen:  seen,
	}
}

// Admit performs idempotent check-and-insert. The returned record is the
// stored one, which on a duplicate is the original admission, and inserted
// reports whether this call stored the event.
func (s *Store) Admit(ev *nostr.Event) (rec *Record, inserted bool) {
	if s.seen != nil {
		if _, hit := s.seen.Get(ev.ID); hit {
			if rec, ok := s.table.Load(ev.ID); ok {
				return rec, false
			}
		}
	}
	rec = &Record{Event: ev, meta: newMetadata()}
	actual, loaded := s.table.LoadOrStore(ev.ID, rec)
	if s.seen != nil {
		s.seen.Set(ev.ID, struct{}{}, 1)
	}
	return actual, !loaded
}

// Get looks up an admitted event by identifier.
func (s *Store) Get(id string) (rec *Record, ok bool) {
	rec, ok = s.table.Load(id)
	return
}

// Size returns the number of admitted events.
func (s *Store) Size() int { return s.table.Size() }

// Range calls fn for each admitted record until fn returns false.
func (s *Store) Range(fn func(id string, rec *Record) bool) {
	s.table.Range(fn)
}
