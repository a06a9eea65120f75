package app

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

func TestRegistryRegisterAndStatus(t *testing.T) {
	r := NewRegistry()
	r.Register("wss://relay.example.com/", nostr.Filter{
		Kinds: []int{nostr.KindTextNote},
	})
	snap := r.Snapshot()
	rl, ok := snap["wss://relay.example.com"]
	if !ok {
		t.Fatalf("registered relay missing from snapshot: %v", snap)
	}
	if rl.Status != StatusUnknown {
		t.Fatalf("fresh relay status = %v, want unknown", rl.Status)
	}
	if len(rl.Filters) != 1 {
		t.Fatal("subscription filters not stored")
	}
	r.SetStatus("wss://relay.example.com", StatusConnected)
	if got := r.Snapshot()["wss://relay.example.com"].Status; got != StatusConnected {
		t.Fatalf("status = %v, want connected", got)
	}
}

func TestRegistryErrorKeepsEntry(t *testing.T) {
	r := NewRegistry()
	r.Register("wss://flaky.example.com")
	r.SetStatus("wss://flaky.example.com", StatusError)
	if _, ok := r.Snapshot()["wss://flaky.example.com"]; !ok {
		t.Fatal("error status must not remove the entry")
	}
	if r.Banned("wss://flaky.example.com") {
		t.Fatal("one failure should not ban")
	}
	for i := 0; i < maxRelayFailures; i++ {
		r.SetStatus("wss://flaky.example.com", StatusError)
	}
	if !r.Banned("wss://flaky.example.com") {
		t.Fatal("repeated failures should open the ban window")
	}
}

func TestRegistryTouch(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Touch("wss://relay.example.com", now)
	// an older activity report must not move the clock backwards
	r.Touch("wss://relay.example.com", now.Add(-time.Hour))
	if got := r.Snapshot()["wss://relay.example.com"].LastActive; !got.Equal(now) {
		t.Fatalf("last active = %v, want %v", got, now)
	}
}

func TestRegistryUnknownImplicit(t *testing.T) {
	r := NewRegistry()
	if r.Banned("wss://never.seen") {
		t.Fatal("unknown relays are implicitly unbanned")
	}
	if len(r.Snapshot()) != 0 {
		t.Fatal("lookups must not create entries")
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusUnknown:      "unknown",
		StatusDisconnected: "disconnected",
		StatusConnecting:   "connecting",
		StatusConnected:    "connected",
		StatusError:        "error",
		Status(99):         "unknown",
	}
	for st, want := range cases {
		if st.String() != want {
			t.Fatalf("Status(%d).String() = %q, want %q", st,
				st.String(), want)
		}
	}
}
