package app

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"lukechampine.com/frand"
)

func TestFeedSortInvariant(t *testing.T) {
	f := NewFeed()
	ids := []string{"cc", "aa", "ee", "bb", "dd"}
	times := []nostr.Timestamp{30, 10, 50, 10, 40}
	for i := range ids {
		f.Insert(ids[i], times[i])
	}
	got := f.Query(0, 100)
	// descending by time, the two entries at t=10 tie-broken ascending by id
	want := []string{"ee", "dd", "cc", "aa", "bb"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFeedLateInsert(t *testing.T) {
	f := NewFeed()
	f.Insert("new", 300)
	f.Insert("old", 100)
	if got := f.Query(100, 300); len(got) != 2 {
		t.Fatalf("query = %v", got)
	}
	// an event inside the already-queried range must land mid-slice
	f.Insert("late", 200)
	got := f.Query(100, 300)
	want := []string{"new", "late", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFeedReinsertNoop(t *testing.T) {
	f := NewFeed()
	f.Insert("a", 100)
	f.Insert("a", 100)
	if f.Len() != 1 {
		t.Fatalf("feed length = %d after re-insert, want 1", f.Len())
	}
}

func TestFeedQueryBounds(t *testing.T) {
	f := NewFeed()
	for i := 1; i <= 10; i++ {
		f.Insert(string(rune('a'+i)), nostr.Timestamp(i*10))
	}
	got := f.Query(30, 70)
	if len(got) != 5 {
		t.Fatalf("query [30,70] returned %d entries, want 5", len(got))
	}
}

func TestFeedRemove(t *testing.T) {
	f := NewFeed()
	f.Insert("a", 100)
	f.Insert("b", 100)
	f.Remove("a", 100)
	got := f.Query(0, 200)
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("got %v, want [b]", got)
	}
	// removing an absent id is a no-op
	f.Remove("zz", 500)
	if f.Len() != 1 {
		t.Fatal("remove of unknown id changed the feed")
	}
}

func TestFeedRandomisedSort(t *testing.T) {
	f := NewFeed()
	src := frand.NewCustom(make([]byte, 32), 128, 20)
	type ins struct {
		id string
		at nostr.Timestamp
	}
	var all []ins
	for i := 0; i < 500; i++ {
		e := ins{
			id: string(rune('a'+src.Intn(26))) + string(rune('a'+src.Intn(26))),
			at: nostr.Timestamp(src.Intn(100)),
		}
		all = append(all, e)
		f.Insert(e.id, e.at)
	}
	got := f.Query(0, 100)
	f.mx.RLock()
	entries := append([]feedEntry(nil), f.entries...)
	f.mx.RUnlock()
	if len(got) != len(entries) {
		t.Fatal("query should cover the whole range")
	}
	for i := 1; i < len(entries); i++ {
		if cmpEntry(entries[i-1], entries[i]) >= 0 {
			t.Fatalf("sort invariant broken at %d: %v %v", i,
				entries[i-1], entries[i])
		}
	}
}

func TestSettingsWindow(t *testing.T) {
	s := DefaultSettings()
	s.FeedChunk = time.Hour
	s.Overlap = 5 * time.Minute
	now := time.Unix(100000, 0)
	since, until := s.Window(0, now)
	if until != nostr.Timestamp(now.Add(s.Overlap).Unix()) {
		t.Fatalf("page 0 upper bound = %d", until)
	}
	if since != nostr.Timestamp(now.Add(-s.FeedChunk-s.Overlap).Unix()) {
		t.Fatalf("page 0 lower bound = %d", since)
	}
	s1, u1 := s.Window(1, now)
	if u1 != nostr.Timestamp(now.Add(-s.FeedChunk).Unix()) {
		t.Fatalf("page 1 upper bound = %d", u1)
	}
	// consecutive windows overlap by the configured margin
	if s1 >= since {
		t.Fatal("page 1 should reach further back than page 0")
	}
	if nostr.Timestamp(now.Add(-s.FeedChunk).Unix()) <= since-1 {
		t.Fatal("windows should overlap, not leave a gap")
	}
}
