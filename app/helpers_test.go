package app

import (
	"encoding/hex"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"lukechampine.com/frand"
)

var testSeed = "4a7d2c9b14e8f3a605d1c2b3a4958677d1e2f3a4b5c6d7e8f90a1b2c3d4e5f60"

// testKeypairs generates deterministic random keypairs so test failures
// reproduce.
func testKeypairs(t *testing.T, n int) (secs, pubs []string) {
	t.Helper()
	seed, err := hex.DecodeString(testSeed)
	if err != nil {
		t.Fatal(err)
	}
	src := frand.NewCustom(seed, 128, 20)
	for len(secs) < n {
		sec := hex.EncodeToString(src.Bytes(32))
		pub, err := nostr.GetPublicKey(sec)
		if err != nil {
			continue
		}
		secs = append(secs, sec)
		pubs = append(pubs, pub)
	}
	return
}

func signedEvent(t *testing.T, sec string, kind int, content string,
	tags nostr.Tags, at nostr.Timestamp) (ev *nostr.Event) {

	t.Helper()
	ev = &nostr.Event{
		Kind:      kind,
		Content:   content,
		Tags:      tags,
		CreatedAt: at,
	}
	if err := ev.Sign(sec); err != nil {
		t.Fatal(err)
	}
	return
}

func replyTag(parent string) nostr.Tags {
	return nostr.Tags{{"e", parent, "", "reply"}}
}

func reactTag(target string) nostr.Tags {
	return nostr.Tags{{"e", target}}
}
