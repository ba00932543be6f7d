package store

import (
	"context"
	"sync"

	"devtycoon/internal/econ"
)

// Subscription delivers committed snapshots for a single player. Slow
// consumers lose intermediate snapshots, never the subscription.
type Subscription struct {
	ch     chan econ.State
	once   sync.Once
	detach func()
}

// Snapshots is the stream of committed states. The channel closes when the
// subscription is detached.
func (s *Subscription) Snapshots() <-chan econ.State {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.detach)
}

// broadcaster fans committed snapshots out to per-record subscriptions for
// the in-process backends, which publish directly from Commit.
type broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]string
}

func (b *broadcaster) subscribe(ctx context.Context, playerID string) *Subscription {
	sub := &Subscription{ch: make(chan econ.State, 8)}
	sub.detach = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		// publish holds the lock while sending, so nothing can write to
		// the channel once the entry is gone.
		close(sub.ch)
	}
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[*Subscription]string)
	}
	b.subs[sub] = playerID
	b.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub
}

func (b *broadcaster) publish(playerID string, st econ.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub, id := range b.subs {
		if id != playerID {
			continue
		}
		select {
		case sub.ch <- st.Clone():
		default:
		}
	}
}
