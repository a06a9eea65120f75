package app

import (
	"strings"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/exp/slices"
)

type feedEntry struct {
	id string
	at nostr.Timestamp
}

// cmpEntry orders entries most-recent-first, ties broken ascending by
// identifier for determinism.
func cmpEntry(a, b feedEntry) int {
	if a.at != b.at {
		if a.at > b.at {
			return -1
		}
		return 1
	}
	return strings.Compare(a.id, b.id)
}

// Feed is the sorted index of root-level, non-tombstoned event identifiers.
// It owns no event data; it is recomputable from the store at any time.
type Feed struct {
	mx      sync.RWMutex
	entries []feedEntry
}

func NewFeed() *Feed { return &Feed{} }

// Insert places id at its sort-correct position. A late arrival whose
// timestamp falls inside an already-rendered window lands mid-slice, not at
// the end; re-inserting a known identifier is a no-op.
func (f *Feed) Insert(id string, at nostr.Timestamp) {
	e := feedEntry{id: id, at: at}
	f.mx.Lock()
	defer f.mx.Unlock()
	pos, found := slices.BinarySearchFunc(f.entries, e, cmpEntry)
	if found {
		return
	}
	f.entries = slices.Insert(f.entries, pos, e)
}

// Remove drops id from the index, for tombstoning. The store keeps the
// event.
func (f *Feed) Remove(id string, at nostr.Timestamp) {
	e := feedEntry{id: id, at: at}
	f.mx.Lock()
	defer f.mx.Unlock()
	pos, found := slices.BinarySearchFunc(f.entries, e, cmpEntry)
	if !found {
		return
	}
	f.entries = slices.Delete(f.entries, pos, pos+1)
}

// Query returns identifiers with since <= created_at <= until, most recent
// first.
func (f *Feed) Query(since, until nostr.Timestamp) (ids []string) {
	f.mx.RLock()
	defer f.mx.RUnlock()
	// first entry at or below until
	start, _ := slices.BinarySearchFunc(f.entries,
		feedEntry{at: until}, cmpEntry)
	// first entry strictly below since
	end, _ := slices.BinarySearchFunc(f.entries,
		feedEntry{at: since - 1}, cmpEntry)
	for _, e := range f.entries[start:end] {
		ids = append(ids, e.id)
	}
	return
}

func (f *Feed) Len() int {
	f.mx.RLock()
	defer f.mx.RUnlock()
	return len(f.entries)
}

// Window computes the time range for page n of the feed: page 0 covers the
// most recent chunk, each further page reaches one chunk further back, and
// overlap widens the lower bound to absorb clock skew and late delivery.
func (s Settings) Window(page int, now time.Time) (since,
	until nostr.Timestamp) {

	if page < 0 {
		page = 0
	}
	upper := now.Add(-time.Duration(page) * s.FeedChunk)
	lower := upper.Add(-s.FeedChunk - s.Overlap)
	if page == 0 {
		// nothing is newer than now; leave headroom for skewed clocks
		upper = now.Add(s.Overlap)
	}
	return nostr.Timestamp(lower.Unix()), nostr.Timestamp(upper.Unix())
}
