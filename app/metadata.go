package app

import (
	"sync"
	"time"
)

// Metadata is the derived per-event state: the reply sequence in arrival
// order, the reaction tally, and the tombstone flag. It is created with its
// Record and never removed while the event is stored. Writers are confined
// to the aggregation path; readers take copies under the read lock.
type Metadata struct {
	mx      sync.RWMutex
	replies []string
	// reactions tallies counts by symbol. reactors holds the last symbol
	// seen per reactor pubkey so a changed reaction rebalances the tally
	// instead of double counting.
	reactions map[string]int
	reactors  map[string]string
	tombstone bool
}

func newMetadata() *Metadata {
	return &Metadata{}
}

func (m *Metadata) appendReply(id string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for _, r := range m.replies {
		if r == id {
			return
		}
	}
	m.replies = append(m.replies, id)
}

func (m *Metadata) applyReaction(reactor, symbol string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	prev, ok := m.reactors[reactor]
	if ok && prev == symbol {
		return
	}
	if m.reactions == nil {
		m.reactions = make(map[string]int)
		m.reactors = make(map[string]string)
	}
	if ok {
		m.reactions[prev]--
		if m.reactions[prev] <= 0 {
			delete(m.reactions, prev)
		}
	}
	m.reactors[reactor] = symbol
	m.reactions[symbol]++
}

func (m *Metadata) setTombstone() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.tombstone = true
}

// Tombstoned reports whether the event's content is suppressed in derived
// views.
func (m *Metadata) Tombstoned() bool {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.tombstone
}

// Replies returns a copy of the reply identifier sequence in arrival order.
func (m *Metadata) Replies() (replies []string) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	replies = make([]string, len(m.replies))
	copy(replies, m.replies)
	return
}

// Reactions returns a copy of the reaction tally keyed by symbol.
func (m *Metadata) Reactions() (tally map[string]int) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	tally = make(map[string]int, len(m.reactions))
	for k, v := range m.reactions {
		tally[k] = v
	}
	return
}

// reference relationship kinds held while a target is unseen
const (
	refReply = iota
	refReaction
	refDelete
)

// pendingRef is a reference whose target has not arrived yet. It is held
// keyed by target identifier and replayed exactly once when the target is
// admitted.
type pendingRef struct {
	kind   int
	id     string // referencing event
	author string
	symbol string // reactions only
	seen   time.Time
}

type pendingBuf struct {
	mx   sync.Mutex
	refs map[string][]pendingRef
}

func newPendingBuf() *pendingBuf {
	return &pendingBuf{refs: make(map[string][]pendingRef)}
}

func (p *pendingBuf) add(target string, ref pendingRef) {
	p.mx.Lock()
	defer p.mx.Unlock()
	ref.seen = time.Now()
	p.refs[target] = append(p.refs[target], ref)
}

// take removes and returns all references held for target, in arrival
// order. The caller replays them; removal before replay is what makes the
// replay exactly-once.
func (p *pendingBuf) take(target string) (refs []pendingRef) {
	p.mx.Lock()
	defer p.mx.Unlock()
	refs = p.refs[target]
	delete(p.refs, target)
	return
}

// sweep drops references older than ttl. Dangling references are a resource
// concern, not a correctness one; a swept reference whose target arrives
// later is simply gone.
func (p *pendingBuf) sweep(ttl time.Duration) (dropped int) {
	cutoff := time.Now().Add(-ttl)
	p.mx.Lock()
	defer p.mx.Unlock()
	for target, refs := range p.refs {
		kept := refs[:0]
		for _, r := range refs {
			if r.seen.After(cutoff) {
				kept = append(kept, r)
			}
		}
		dropped += len(refs) - len(kept)
		if len(kept) == 0 {
			delete(p.refs, target)
		} else {
			p.refs[target] = kept
		}
	}
	return
}

func (p *pendingBuf) size() (n int) {
	p.mx.Lock()
	defer p.mx.Unlock()
	for _, refs := range p.refs {
		n += len(refs)
	}
	return
}
