package app

import (
	"sync/atomic"
	"time"

	"github.com/Hubmakerlabs/aggregatr/pkg/qu"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip10"
)

const (
	ingestBuffer         = 4096
	pendingSweepInterval = time.Minute
)

// Aggregator is the client-side aggregation core. Events delivered from any
// number of sources funnel through one ingest channel into a single
// aggregation worker, which preserves per-target ordering without any broad
// lock. Readers on the rendering boundary only ever see copy-out snapshots.
type Aggregator struct {
	Store  *Store
	People *Directory
	Relays *Registry
	Feed   *Feed

	pending  *pendingBuf
	settings atomic.Pointer[Settings]
	// owner is the pubkey whose contact lists define the followed set
	owner string

	ingest chan *nostr.Event
	flush  chan chan struct{}
	quit   qu.C
	done   qu.C
}

func New(cfg *Config) (a *Aggregator) {
	a = &Aggregator{
		Store:   NewStore(),
		People:  NewDirectory(),
		Relays:  NewRegistry(),
		Feed:    NewFeed(),
		pending: newPendingBuf(),
		ingest:  make(chan *nostr.Event, ingestBuffer),
		flush:   make(chan chan struct{}),
		quit:    qu.T(),
		done:    qu.T(),
	}
	s := DefaultSettings()
	if cfg != nil {
		s = cfg.Settings()
		a.owner = cfg.Pubkey
		for _, url := range cfg.Relays {
			a.Relays.Register(url)
		}
	}
	a.settings.Store(&s)
	return
}

// Start launches the aggregation worker.
func (a *Aggregator) Start() {
	go a.run()
}

// Shutdown stops the worker. Events still queued are discarded.
func (a *Aggregator) Shutdown() {
	a.quit.Q()
	<-a.done.Wait()
	log.D.Ln("aggregator stopped with", a.Store.Size(), "events,",
		a.pending.size(), "pending references")
}

// Deliver enqueues a validated event for aggregation. The input's signature
// is trusted; its logical consistency is not.
func (a *Aggregator) Deliver(ev *nostr.Event) {
	if ev == nil {
		return
	}
	select {
	case a.ingest <- ev:
	case <-a.quit.Wait():
	}
}

// Flush blocks until every event delivered before the call has been applied.
func (a *Aggregator) Flush() {
	ack := make(chan struct{})
	select {
	case a.flush <- ack:
		<-ack
	case <-a.quit.Wait():
	}
}

// SetFollowed is the identity collaborator's explicit follow toggle.
func (a *Aggregator) SetFollowed(pubkey string, followed bool) {
	a.People.SetFollowed(pubkey, followed)
}

// RecordDNSCheck stores a DNS identity verification outcome.
func (a *Aggregator) RecordDNSCheck(pubkey string, valid bool, at time.Time) {
	a.People.RecordDNSCheck(pubkey, valid, at)
}

func (a *Aggregator) run() {
	sweep := time.NewTicker(pendingSweepInterval)
	defer sweep.Stop()
	for {
		select {
		case ev := <-a.ingest:
			a.apply(ev)
		case <-sweep.C:
			if n := a.pending.sweep(a.Settings().PendingTTL); n > 0 {
				log.D.F("evicted %d dangling references", n)
			}
		case ack := <-a.flush:
			a.drain()
			close(ack)
		case <-a.quit.Wait():
			a.done.Q()
			return
		}
	}
}

func (a *Aggregator) drain() {
	for {
		select {
		case ev := <-a.ingest:
			a.apply(ev)
		default:
			return
		}
	}
}

// apply performs admission and all derived-view updates for one event. It
// runs only on the aggregation worker, so updates for a given target are
// applied in the order they were observed, and a target's own admission
// always precedes the replay of its queued references.
func (a *Aggregator) apply(ev *nostr.Event) {
	if ev == nil || ev.ID == "" || ev.PubKey == "" {
		log.D.Ln("discarding event without identifier or author")
		return
	}
	rec, inserted := a.Store.Admit(ev)
	if !inserted {
		log.T.F("duplicate admission of %s", ev.ID)
		return
	}
	a.People.Ensure(ev.PubKey)
	switch ev.Kind {
	case nostr.KindProfileMetadata:
		a.People.UpsertProfile(ev)
	case nostr.KindContactList:
		a.People.ApplyContacts(ev, a.owner, a.Settings().Autofollow)
	case nostr.KindReaction:
		a.applyReaction(ev)
	case nostr.KindDeletion:
		a.applyDeletion(ev)
	case nostr.KindTextNote, nostr.KindRepost:
		a.applyNote(ev, rec)
	default:
		log.T.F("kind %d stored without derived views", ev.Kind)
	}
	a.replayPending(rec)
}

func (a *Aggregator) applyNote(ev *nostr.Event, rec *Record) {
	var parent *nostr.Tag
	if ev.Kind == nostr.KindTextNote {
		parent = nip10.GetImmediateReply(ev.Tags)
	}
	if parent == nil {
		// a root note goes in the feed unless a deletion got here first
		if !rec.meta.Tombstoned() {
			a.Feed.Insert(ev.ID, ev.CreatedAt)
		}
		return
	}
	target := parent.Value()
	if target == "" || target == ev.ID {
		log.D.F("ignoring malformed reply reference on %s", ev.ID)
		return
	}
	if trec, ok := a.Store.Get(target); ok {
		trec.meta.appendReply(ev.ID)
		return
	}
	a.pending.add(target, pendingRef{
		kind:   refReply,
		id:     ev.ID,
		author: ev.PubKey,
	})
}

// reactionSymbol maps a kind 7 content to its tally symbol: empty content
// and "+" are upvotes, "-" is a downvote, anything else counts under its
// own symbol (emoji reactions).
func reactionSymbol(content string) string {
	if content == "" {
		return "+"
	}
	return content
}

func (a *Aggregator) applyReaction(ev *nostr.Event) {
	t := ev.Tags.GetLast([]string{"e"})
	if t == nil {
		log.D.F("reaction %s has no target", ev.ID)
		return
	}
	target := t.Value()
	if target == "" || target == ev.ID {
		log.D.F("ignoring malformed reaction reference on %s", ev.ID)
		return
	}
	symbol := reactionSymbol(ev.Content)
	if trec, ok := a.Store.Get(target); ok {
		trec.meta.applyReaction(ev.PubKey, symbol)
		return
	}
	a.pending.add(target, pendingRef{
		kind:   refReaction,
		id:     ev.ID,
		author: ev.PubKey,
		symbol: symbol,
	})
}

func (a *Aggregator) applyDeletion(ev *nostr.Event) {
	for _, t := range ev.Tags {
		if len(t) < 2 || t[0] != "e" || t[1] == "" {
			continue
		}
		target := t[1]
		if target == ev.ID {
			continue
		}
		a.applyTombstone(target, ev.PubKey)
	}
}

func (a *Aggregator) applyTombstone(target, author string) {
	trec, ok := a.Store.Get(target)
	if !ok {
		a.pending.add(target, pendingRef{kind: refDelete, author: author})
		return
	}
	a.tombstone(trec, author)
}

// tombstone suppresses the target if the deletion author is its author.
// Admission history is immutable; the event stays in the store.
func (a *Aggregator) tombstone(trec *Record, author string) {
	if trec.Event.PubKey != author {
		log.D.F("rejecting deletion of %s by non-author %s",
			trec.Event.ID, author)
		return
	}
	trec.meta.setTombstone()
	a.Feed.Remove(trec.Event.ID, trec.Event.CreatedAt)
}

// replayPending applies every reference that was waiting for this event, in
// original arrival order, then discards them. take removes the refs before
// replay so each is applied exactly once.
func (a *Aggregator) replayPending(rec *Record) {
	refs := a.pending.take(rec.Event.ID)
	for _, r := range refs {
		switch r.kind {
		case refReply:
			rec.meta.appendReply(r.id)
		case refReaction:
			rec.meta.applyReaction(r.author, r.symbol)
		case refDelete:
			a.tombstone(rec, r.author)
		}
	}
}
