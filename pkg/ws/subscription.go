package ws

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/coachpo/coinbase-advanced/pkg/models"
)

// State is the lifecycle stage of a subscription.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateReceiving
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReceiving:
		return "receiving"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Closed or Errored.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

// Subscription is one live channel subscription.
type Subscription struct {
	Channel    models.Channel
	ProductIDs []string

	conn    *websocket.Conn
	stop    context.CancelFunc
	state   atomic.Int32
	closing atomic.Bool

	done     chan struct{}
	doneOnce sync.Once
	errMu    sync.Mutex
	err      error
}

func newSubscription(channel models.Channel, productIDs []string) *Subscription {
	ids := make([]string, len(productIDs))
	copy(ids, productIDs)
	return &Subscription{Channel: channel, ProductIDs: ids, done: make(chan struct{})}
}

// State reports the current lifecycle stage.
func (s *Subscription) State() State {
	return State(s.state.Load())
}

// Done is closed when the subscription reaches a terminal state.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the subscription, nil after a normal
// close or while it is still running.
func (s *Subscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close sends a normal closure and waits for the receive loop to stop.
func (s *Subscription) Close() error {
	if s.State().Terminal() {
		return nil
	}
	s.closing.Store(true)
	var err error
	if s.conn != nil {
		err = s.conn.Close(websocket.StatusNormalClosure, "")
	}
	if s.stop != nil {
		s.stop()
	}
	<-s.done
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		err = nil
	}
	return err
}

// setState moves to next unless the subscription already ended.
func (s *Subscription) setState(next State) {
	for {
		current := State(s.state.Load())
		if current.Terminal() || current == next {
			return
		}
		if s.state.CompareAndSwap(int32(current), int32(next)) {
			return
		}
	}
}

func (s *Subscription) finish(state State, err error) {
	s.doneOnce.Do(func() {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		s.state.Store(int32(state))
		close(s.done)
	})
}
