package coordinator

import (
	"context"
	"sync"
)

// Observer is the single client of a coordinator session: it receives
// envelopes and supplies control messages.
type Observer interface {
	// Send delivers one envelope. It may block until the transport accepts it.
	Send(ctx context.Context, env Envelope) error
	// Messages yields control messages in arrival order.
	Messages() <-chan string
	// Done is closed once the observer is gone. The coordinator then returns.
	Done() <-chan struct{}
}

// ChanObserver is an in-memory Observer. Push hands a message to the
// coordinator and returns once the coordinator has received it; sent
// envelopes are read from Sent.
type ChanObserver struct {
	messages chan string
	sent     chan Envelope
	done     chan struct{}
	once     sync.Once
}

// NewChanObserver creates an observer buffering up to buffer sent envelopes.
func NewChanObserver(buffer int) *ChanObserver {
	return &ChanObserver{
		messages: make(chan string),
		sent:     make(chan Envelope, buffer),
		done:     make(chan struct{}),
	}
}

// Send implements Observer.
func (o *ChanObserver) Send(ctx context.Context, env Envelope) error {
	select {
	case o.sent <- env:
		return nil
	case <-o.done:
		return errObserverGone
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages implements Observer.
func (o *ChanObserver) Messages() <-chan string { return o.messages }

// Done implements Observer.
func (o *ChanObserver) Done() <-chan struct{} { return o.done }

// Push delivers msg to the coordinator. It returns false if the observer was
// closed first.
func (o *ChanObserver) Push(msg string) bool {
	select {
	case o.messages <- msg:
		return true
	case <-o.done:
		return false
	}
}

// Sent returns the envelopes the coordinator has sent.
func (o *ChanObserver) Sent() <-chan Envelope { return o.sent }

// Close ends the session.
func (o *ChanObserver) Close() {
	o.once.Do(func() { close(o.done) })
}

var _ Observer = (*ChanObserver)(nil)
