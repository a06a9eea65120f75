package app

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/minio/sha256-simd"
	"github.com/nbd-wtf/go-nostr"
)

const maxEventSize = 512 * 1024

// Import reads line structured JSON events from r and delivers the valid
// ones. This is the transport boundary of the replay path, so the
// content-derived identifier and the signature are verified here before
// admission; a bad line is skipped, never fatal.
func (a *Aggregator) Import(r io.Reader) (delivered int) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxEventSize), maxEventSize)
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		ev := &nostr.Event{}
		if err := json.Unmarshal(b, ev); chk.D(err) {
			log.D.S(string(b))
			continue
		}
		hash := sha256.Sum256(ev.Serialize())
		id := hex.EncodeToString(hash[:])
		if id != ev.ID {
			log.D.F("id mismatch got %s, expected %s", id, ev.ID)
			continue
		}
		if ok, err := ev.CheckSignature(); chk.D(err) {
			continue
		} else if !ok {
			log.D.F("invalid signature on %s", ev.ID)
			continue
		}
		a.Deliver(ev)
		delivered++
	}
	chk.E(scanner.Err())
	return
}

// ImportFiles runs Import over each named file, or stdin when none are
// given.
func (a *Aggregator) ImportFiles(files []string) (delivered int) {
	if len(files) == 0 {
		return a.Import(os.Stdin)
	}
	for _, name := range files {
		fh, err := os.OpenFile(name, os.O_RDONLY, 0755)
		if chk.D(err) {
			continue
		}
		delivered += a.Import(fh)
		chk.D(fh.Close())
	}
	return
}
