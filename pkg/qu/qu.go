// Package qu provides simple quit and trigger signalling channels.
package qu

import "sync"

// C is your basic empty struct signalling channel
type C chan struct{}

var mx sync.Mutex

// T creates an unbuffered chan struct{} for trigger and quit signalling
// (momentary and breaker switches)
func T() C {
	return make(C)
}

// Ts creates a buffered chan struct{} for repeated non-blocking signals
func Ts(n int) C {
	return make(C, n)
}

// Q closes the channel, which can only be done once, so a mutex guards
// against a panic from a double close
func (c C) Q() {
	mx.Lock()
	defer mx.Unlock()
	if !testClosed(c) {
		close(c)
	}
}

// Signal sends a momentary signal without blocking if nothing is listening
func (c C) Signal() {
	select {
	case c <- struct{}{}:
	default:
	}
}

// Wait returns the receiving side of the channel for select statements
func (c C) Wait() <-chan struct{} {
	return c
}

// IsClosed reports whether the channel has been Q'd
func (c C) IsClosed() bool {
	mx.Lock()
	defer mx.Unlock()
	return testClosed(c)
}

func testClosed(ch C) (o bool) {
	select {
	case _, ok := <-ch:
		if !ok {
			o = true
		}
	default:
	}
	return
}
