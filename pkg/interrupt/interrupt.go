// Package interrupt runs registered shutdown handlers on SIGINT or on a
// programmatic shutdown request.
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/Hubmakerlabs/aggregatr/pkg/qu"
	"github.com/Hubmakerlabs/aggregatr/pkg/slog"
)

var log, _ = slog.New(os.Stderr)

var (
	mx        sync.Mutex
	requested atomic.Bool
	handlers  []func()
	ch        chan os.Signal

	// ShutdownRequestChan can receive programmatic shutdown requests
	ShutdownRequestChan = qu.T()
	// HandlersDone is closed after all handlers have run
	HandlersDone = qu.T()
)

func listener() {
	select {
	case sig := <-ch:
		log.D.Ln("received interrupt signal", sig)
	case <-ShutdownRequestChan.Wait():
		log.D.Ln("received shutdown request")
	}
	requested.Store(true)
	mx.Lock()
	// run handlers in LIFO order
	for i := len(handlers) - 1; i >= 0; i-- {
		handlers[i]()
	}
	mx.Unlock()
	HandlersDone.Q()
}

// AddHandler adds a handler to call when a SIGINT (Ctrl+C) is received.
func AddHandler(handler func()) {
	mx.Lock()
	defer mx.Unlock()
	if ch == nil {
		ch = make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		go listener()
	}
	handlers = append(handlers, handler)
}

// Request programmatically requests a shutdown
func Request() {
	if requested.Load() {
		return
	}
	ShutdownRequestChan.Q()
}

// Requested returns true if an interrupt has been requested
func Requested() bool {
	return requested.Load()
}
