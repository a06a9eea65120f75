package app

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

func TestProfileLastWriteWins(t *testing.T) {
	secs, pubs := testKeypairs(t, 1)
	newer := signedEvent(t, secs[0], nostr.KindProfileMetadata,
		`{"name":"current","about":"now"}`, nil, 200)
	older := signedEvent(t, secs[0], nostr.KindProfileMetadata,
		`{"name":"stale","about":"then"}`, nil, 100)
	a := New(nil)
	// stale data delivered late must not clobber newer state
	a.apply(newer)
	a.apply(older)
	pv, ok := a.GetPerson(pubs[0])
	if !ok {
		t.Fatal("person not created")
	}
	if pv.Name != "current" {
		t.Fatalf("name = %q, want the timestamp-200 data", pv.Name)
	}
}

func TestProfileMalformedContent(t *testing.T) {
	secs, pubs := testKeypairs(t, 1)
	good := signedEvent(t, secs[0], nostr.KindProfileMetadata,
		`{"name":"good"}`, nil, 100)
	bad := signedEvent(t, secs[0], nostr.KindProfileMetadata,
		`{not json`, nil, 200)
	a := New(nil)
	a.apply(good)
	a.apply(bad)
	pv, _ := a.GetPerson(pubs[0])
	if pv.Name != "good" {
		t.Fatalf("malformed profile should be ignored, name = %q", pv.Name)
	}
}

func TestProfileNIP05Normalized(t *testing.T) {
	secs, pubs := testKeypairs(t, 1)
	ev := signedEvent(t, secs[0], nostr.KindProfileMetadata,
		`{"name":"n","nip05":"Bob@Example.COM"}`, nil, 100)
	a := New(nil)
	a.apply(ev)
	pv, _ := a.GetPerson(pubs[0])
	if pv.NIP05 != "bob@example.com" {
		t.Fatalf("nip05 = %q, want normalized form", pv.NIP05)
	}
}

func TestSetFollowedIndependentOfProfile(t *testing.T) {
	_, pubs := testKeypairs(t, 1)
	a := New(nil)
	a.SetFollowed(pubs[0], true)
	pv, ok := a.GetPerson(pubs[0])
	if !ok || !pv.Followed {
		t.Fatal("follow should create the person and set the flag")
	}
	follows := a.GetFollowedAuthors()
	if len(follows) != 1 || follows[0] != pubs[0] {
		t.Fatalf("followed authors = %v", follows)
	}
	a.SetFollowed(pubs[0], false)
	if got := a.GetFollowedAuthors(); len(got) != 0 {
		t.Fatalf("followed authors after unfollow = %v", got)
	}
}

func TestDNSCheckStaleness(t *testing.T) {
	_, pubs := testKeypairs(t, 1)
	a := New(nil)
	a.People.Ensure(pubs[0])
	pv, _ := a.GetPerson(pubs[0])
	if !pv.DNSStale {
		t.Fatal("an unchecked identity is stale")
	}
	a.RecordDNSCheck(pubs[0], true, time.Now())
	pv, _ = a.GetPerson(pubs[0])
	if !pv.NIP05OK || pv.DNSStale {
		t.Fatal("a fresh successful check should be valid and not stale")
	}
	// a check older than the recheck interval goes stale again
	old := time.Now().Add(-a.Settings().DNSRecheckAfter - time.Hour)
	a.People.RecordDNSCheck(pubs[0], true, old)
	pv, _ = a.GetPerson(pubs[0])
	if pv.DNSStale {
		// the older record must not have replaced the newer one
		t.Fatal("an out-of-order older check replaced a newer one")
	}
}

func TestContactListOwnerReplacesFollows(t *testing.T) {
	secs, pubs := testKeypairs(t, 4)
	owner, a1, a2, a3 := pubs[0], pubs[1], pubs[2], pubs[3]
	a := New(&Config{Pubkey: owner})
	a.SetFollowed(a3, true)
	contacts := signedEvent(t, secs[0], nostr.KindContactList, "",
		nostr.Tags{{"p", a1}, {"p", a2}}, 100)
	a.apply(contacts)
	follows := a.GetFollowedAuthors()
	if len(follows) != 2 {
		t.Fatalf("follows = %v, want exactly the listed two", follows)
	}
	for _, pk := range follows {
		if pk != a1 && pk != a2 {
			t.Fatalf("unexpected follow %s", pk)
		}
	}
	// an older list must not roll the set back
	older := signedEvent(t, secs[0], nostr.KindContactList, "",
		nostr.Tags{{"p", a3}}, 50)
	a.apply(older)
	if len(a.GetFollowedAuthors()) != 2 {
		t.Fatal("stale contact list was applied")
	}
}

func TestAutofollowBudget(t *testing.T) {
	secs, pubs := testKeypairs(t, 5)
	a := New(&Config{Autofollow: 2})
	contacts := signedEvent(t, secs[0], nostr.KindContactList, "",
		nostr.Tags{{"p", pubs[1]}, {"p", pubs[2]}, {"p", pubs[3]},
			{"p", pubs[4]}}, 100)
	a.apply(contacts)
	if got := len(a.GetFollowedAuthors()); got != 2 {
		t.Fatalf("autofollowed %d authors, want the budget of 2", got)
	}
}
