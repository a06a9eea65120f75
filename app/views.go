package app

import (
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// EventView composes an event with its current tombstone flag and reaction
// tally for the rendering boundary. Tombstoned events keep their identity
// but carry no content. Pending references are never exposed.
type EventView struct {
	Event      *nostr.Event
	Tombstoned bool
	Reactions  map[string]int
	ReplyCount int
}

// ThreadView is an EventView with its replies resolved recursively, in
// arrival order.
type ThreadView struct {
	EventView
	Replies []ThreadView
}

// PersonView is the rendering snapshot of a Person.
type PersonView struct {
	PubKey    string
	Name      string
	About     string
	Picture   string
	NIP05     string
	NIP05OK   bool
	DNSStale  bool
	Followed  bool
	LastCheck time.Time
}

func (a *Aggregator) eventView(rec *Record) (v EventView) {
	v = EventView{
		Event:      rec.Event,
		Tombstoned: rec.meta.Tombstoned(),
		Reactions:  rec.meta.Reactions(),
		ReplyCount: len(rec.meta.Replies()),
	}
	if v.Tombstoned {
		// content suppressed, identity retained
		cp := *rec.Event
		cp.Content = ""
		v.Event = &cp
	}
	return
}

// GetFeedWindow returns the feed page, most recent first, strictly sorted
// by creation time with identifier tie-breaks and no tombstoned entries.
func (a *Aggregator) GetFeedWindow(page int) (views []EventView) {
	since, until := a.Settings().Window(page, time.Now())
	for _, id := range a.Feed.Query(since, until) {
		rec, ok := a.Store.Get(id)
		if !ok {
			continue
		}
		views = append(views, a.eventView(rec))
	}
	return
}

// GetThread returns the reply tree rooted at id. Reference graphs can be
// cyclic, so traversal tracks visited identifiers.
func (a *Aggregator) GetThread(id string) (tv ThreadView, ok bool) {
	rec, ok := a.Store.Get(id)
	if !ok {
		return
	}
	return a.thread(rec, map[string]bool{id: true}), true
}

func (a *Aggregator) thread(rec *Record, visited map[string]bool) ThreadView {
	tv := ThreadView{EventView: a.eventView(rec)}
	for _, rid := range rec.meta.Replies() {
		if visited[rid] {
			continue
		}
		visited[rid] = true
		rrec, ok := a.Store.Get(rid)
		if !ok {
			continue
		}
		tv.Replies = append(tv.Replies, a.thread(rrec, visited))
	}
	return tv
}

// GetPerson returns the profile snapshot for pubkey.
func (a *Aggregator) GetPerson(pubkey string) (pv PersonView, ok bool) {
	p, ok := a.People.get(pubkey)
	if !ok {
		return
	}
	stale := p.NIP05LastCheck.IsZero() ||
		time.Since(p.NIP05LastCheck) > a.Settings().DNSRecheckAfter
	pv = PersonView{
		PubKey:    p.PubKey,
		Name:      p.Name,
		About:     p.About,
		Picture:   p.Picture,
		NIP05:     p.NIP05,
		NIP05OK:   p.NIP05Valid,
		DNSStale:  stale,
		Followed:  p.Followed,
		LastCheck: p.NIP05LastCheck,
	}
	return pv, true
}

// GetFollowedAuthors returns the followed pubkeys for subscription scoping.
func (a *Aggregator) GetFollowedAuthors() []string {
	return a.People.Followed()
}

// GetRelayStatus returns the connection status per source URL.
func (a *Aggregator) GetRelayStatus() map[string]Status {
	snap := a.Relays.Snapshot()
	out := make(map[string]Status, len(snap))
	for url, rl := range snap {
		out[url] = rl.Status
	}
	return out
}

// GetRelayRegistry returns the full per-source bookkeeping snapshot.
func (a *Aggregator) GetRelayRegistry() map[string]Relay {
	return a.Relays.Snapshot()
}
