package app

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip05"
)

// Person is the per-author state. Created on first reference, profile
// fields updated only by strictly newer kind 0 events (last-write-wins by
// event time, not arrival order).
type Person struct {
	PubKey   string
	Name     string
	About    string
	Picture  string
	NIP05    string
	Followed bool

	NIP05Valid     bool
	NIP05LastCheck time.Time

	profileAt  nostr.Timestamp
	contactsAt nostr.Timestamp
}

// profileContent is the kind 0 JSON payload.
type profileContent struct {
	Name    string `json:"name"`
	About   string `json:"about"`
	Picture string `json:"picture"`
	NIP05   string `json:"nip05"`
}

// Directory holds every Person seen so far, keyed by pubkey.
type Directory struct {
	mx     sync.RWMutex
	people map[string]*Person
}

func NewDirectory() *Directory {
	return &Directory{people: make(map[string]*Person)}
}

func (d *Directory) ensureLocked(pubkey string) (p *Person) {
	p, ok := d.people[pubkey]
	if !ok {
		p = &Person{PubKey: pubkey}
		d.people[pubkey] = p
	}
	return
}

// Ensure creates the Person on first reference.
func (d *Directory) Ensure(pubkey string) {
	if pubkey == "" {
		return
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.ensureLocked(pubkey)
}

// UpsertProfile applies a kind 0 event. Stale writes (created_at not
// strictly newer than what was applied before) are silently discarded:
// relays may deliver old metadata late and arrival order is not trusted.
func (d *Directory) UpsertProfile(ev *nostr.Event) (applied bool) {
	var pc profileContent
	if err := json.Unmarshal([]byte(ev.Content), &pc); chk.D(err) {
		return
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	p := d.ensureLocked(ev.PubKey)
	if ev.CreatedAt <= p.profileAt {
		log.T.F("stale profile for %s (%d <= %d)", ev.PubKey,
			ev.CreatedAt, p.profileAt)
		return
	}
	p.Name = pc.Name
	p.About = pc.About
	p.Picture = pc.Picture
	if pc.NIP05 != "" && strings.Contains(pc.NIP05, "@") {
		// identifiers are case insensitive, store them folded
		p.NIP05 = nip05.NormalizeIdentifier(strings.ToLower(pc.NIP05))
	} else {
		p.NIP05 = ""
	}
	p.profileAt = ev.CreatedAt
	return true
}

// SetFollowed flips the followed flag, independent of any profile data.
func (d *Directory) SetFollowed(pubkey string, followed bool) {
	if pubkey == "" {
		return
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	p := d.ensureLocked(pubkey)
	p.Followed = followed
}

// RecordDNSCheck stores the outcome of a DNS identity verification done by
// the identity collaborator.
func (d *Directory) RecordDNSCheck(pubkey string, valid bool, at time.Time) {
	if pubkey == "" {
		return
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	p := d.ensureLocked(pubkey)
	if at.Before(p.NIP05LastCheck) {
		return
	}
	p.NIP05Valid = valid
	p.NIP05LastCheck = at
}

// Followed returns the pubkeys currently followed, for subscription scoping
// by the source-selection collaborator.
func (d *Directory) Followed() (pubkeys []string) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	for pk, p := range d.people {
		if p.Followed {
			pubkeys = append(pubkeys, pk)
		}
	}
	return
}

func (d *Directory) followedCountLocked() (n int) {
	for _, p := range d.people {
		if p.Followed {
			n++
		}
	}
	return
}

// ApplyContacts applies a kind 3 contact list. A list authored by owner
// replaces the followed set outright; any other author's list contributes
// follows only up to the autofollow budget. Older lists than the last one
// applied for the same author are discarded.
func (d *Directory) ApplyContacts(ev *nostr.Event, owner string,
	autofollow int) (applied bool) {

	d.mx.Lock()
	defer d.mx.Unlock()
	author := d.ensureLocked(ev.PubKey)
	if ev.CreatedAt <= author.contactsAt {
		return
	}
	author.contactsAt = ev.CreatedAt
	listed := make(map[string]bool)
	for _, t := range ev.Tags {
		if len(t) >= 2 && t[0] == "p" && t[1] != "" {
			listed[t[1]] = true
		}
	}
	if owner != "" && ev.PubKey == owner {
		for pk := range listed {
			d.ensureLocked(pk).Followed = true
		}
		for pk, p := range d.people {
			if p.Followed && !listed[pk] && pk != owner {
				p.Followed = false
			}
		}
		return true
	}
	if autofollow <= 0 {
		return
	}
	budget := autofollow - d.followedCountLocked()
	for pk := range listed {
		if budget <= 0 {
			break
		}
		p := d.ensureLocked(pk)
		if !p.Followed {
			p.Followed = true
			budget--
			applied = true
		}
	}
	return
}

// get returns a copy of the Person, reporting whether it exists.
func (d *Directory) get(pubkey string) (p Person, ok bool) {
	d.mx.RLock()
	defer d.mx.RUnlock()
	stored, ok := d.people[pubkey]
	if !ok {
		return
	}
	p = *stored
	return
}
