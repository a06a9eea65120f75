package app

import (
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// Status is a relay connection state as reported by the transport
// collaborator.
type Status int

const (
	StatusUnknown Status = iota
	StatusDisconnected
	StatusConnecting
	StatusConnected
	StatusError
)

var statusStrings = []string{
	"unknown", "disconnected", "connecting", "connected", "error",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusStrings) {
		return statusStrings[0]
	}
	return statusStrings[s]
}

const (
	// maxRelayFailures before a relay is marked banned
	maxRelayFailures = 3
	// relayBanDuration is how long a failed relay stays banned
	relayBanDuration = 30 * time.Minute
	// relayFailureResetAge resets the failure count if the last failure
	// is older than this
	relayFailureResetAge = 10 * time.Minute
)

// Relay is per-source bookkeeping. An entry is never removed on error so
// the transport collaborator can make back-off and retry decisions from it.
type Relay struct {
	URL        string
	Status     Status
	LastActive time.Time
	Filters    []nostr.Filter

	failures    int
	lastFailure time.Time
	bannedUntil time.Time
}

// Registry tracks every source referenced by configuration or seen by the
// transport. A relay absent from the map is implicitly unknown.
type Registry struct {
	mx     sync.RWMutex
	relays map[string]*Relay
}

func NewRegistry() *Registry {
	return &Registry{relays: make(map[string]*Relay)}
}

func (r *Registry) ensureLocked(url string) (rl *Relay) {
	rl, ok := r.relays[url]
	if !ok {
		rl = &Relay{URL: url}
		r.relays[url] = rl
	}
	return
}

// Register creates or updates the entry for url with its subscription
// filters.
func (r *Registry) Register(url string, filters ...nostr.Filter) {
	url = nostr.NormalizeURL(url)
	if url == "" {
		return
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	rl := r.ensureLocked(url)
	if len(filters) > 0 {
		rl.Filters = filters
	}
}

// SetStatus records a transport state transition. A transition to error
// counts towards the ban window but never removes the entry.
func (r *Registry) SetStatus(url string, s Status) {
	url = nostr.NormalizeURL(url)
	if url == "" {
		return
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	rl := r.ensureLocked(url)
	rl.Status = s
	if s != StatusError {
		return
	}
	now := time.Now()
	if !rl.lastFailure.IsZero() &&
		now.Sub(rl.lastFailure) > relayFailureResetAge {
		rl.failures = 0
	}
	rl.failures++
	rl.lastFailure = now
	if rl.failures >= maxRelayFailures {
		rl.bannedUntil = now.Add(relayBanDuration)
		log.D.F("relay %s banned until %v after %d failures", url,
			rl.bannedUntil, rl.failures)
	}
}

// Touch records activity from url at the given time.
func (r *Registry) Touch(url string, at time.Time) {
	url = nostr.NormalizeURL(url)
	if url == "" {
		return
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	rl := r.ensureLocked(url)
	if at.After(rl.LastActive) {
		rl.LastActive = at
	}
}

// Banned reports whether url is inside its ban window.
func (r *Registry) Banned(url string) bool {
	url = nostr.NormalizeURL(url)
	r.mx.RLock()
	defer r.mx.RUnlock()
	rl, ok := r.relays[url]
	return ok && time.Now().Before(rl.bannedUntil)
}

// Snapshot returns a copy of every entry keyed by URL.
func (r *Registry) Snapshot() map[string]Relay {
	r.mx.RLock()
	defer r.mx.RUnlock()
	out := make(map[string]Relay, len(r.relays))
	for url, rl := range r.relays {
		cp := *rl
		cp.Filters = append([]nostr.Filter(nil), rl.Filters...)
		out[url] = cp
	}
	return out
}
