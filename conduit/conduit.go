// Package conduit implements the named, single-client, one-directional
// byte stream used to hand raw samples to the encoder process.
//
// A conduit is a named FIFO. The producer side (this package) creates the
// FIFO node and, on Connect, waits up to a bounded timeout for the consumer
// (the encoder process) to open the read end. Data is written only while
// connected. The conduit itself does not serialize writes; the pipeline
// guarantees at most one write is in flight per conduit.
package conduit

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrNoConsumer is returned by Connect when no consumer opened the read end
// of the FIFO within the timeout.
var ErrNoConsumer = errors.New("conduit: no consumer connected before timeout")

// ErrNotConnected is returned by WriteAsync when the conduit is not in the
// connected state.
var ErrNotConnected = errors.New("conduit: not connected")

// State describes the conduit handshake lifecycle.
type State int

const (
	StateCreated State = iota
	StateAwaitingConnection
	StateConnected
	StateClosed
	StateFaulted
)

// String returns a human-readable state name for logs.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAwaitingConnection:
		return "awaiting-connection"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// connectPollInterval is how often Connect re-tries the non-blocking open
// while waiting for a consumer.
const connectPollInterval = 10 * time.Millisecond

// Pipe is a producer-side named FIFO.
type Pipe struct {
	path string

	mu    sync.Mutex
	state State
	file  *os.File
}

// Path returns the filesystem path of the FIFO node. This is the name the
// consumer process opens for reading.
func (p *Pipe) Path() string {
	return p.path
}

// State returns the current handshake state.
func (p *Pipe) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Connect waits up to timeout for a consumer to open the read end of the
// FIFO. Returns ErrNoConsumer if nobody attached in time; any other failure
// faults the conduit.
func (p *Pipe) Connect(timeout time.Duration) error {
	p.mu.Lock()
	if p.state == StateConnected {
		p.mu.Unlock()
		return nil
	}
	if p.state != StateCreated {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("conduit: cannot connect in state %s", state)
	}
	p.state = StateAwaitingConnection
	p.mu.Unlock()

	file, err := openWriter(p.path, timeout)
	if err != nil {
		p.mu.Lock()
		if errors.Is(err, ErrNoConsumer) {
			// Connect may be retried; the FIFO node is still usable.
			p.state = StateCreated
		} else {
			p.state = StateFaulted
		}
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.file = file
	p.state = StateConnected
	p.mu.Unlock()
	return nil
}

// WriteAsync issues an asynchronous write of p's full contents and returns
// a completion token. The caller must not mutate buf until the token is
// received, and must wait on the previous token before issuing a new write.
func (p *Pipe) WriteAsync(buf []byte) <-chan error {
	done := make(chan error, 1)

	p.mu.Lock()
	file := p.file
	state := p.state
	p.mu.Unlock()

	if state != StateConnected || file == nil {
		done <- ErrNotConnected
		return done
	}

	go func() {
		_, err := file.Write(buf)
		done <- err
	}()
	return done
}

// Close closes the write end of the FIFO, which delivers EOF to a consumer
// blocked on reading, and removes the FIFO node. Safe to call more than
// once.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return nil
	}

	var closeErr error
	if p.file != nil {
		closeErr = p.file.Close()
		p.file = nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) && closeErr == nil {
		closeErr = err
	}
	p.state = StateClosed
	return closeErr
}
