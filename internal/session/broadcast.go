package session

import (
	"sync"
	"time"
)

// Reason names why a session ended.
type Reason string

// Logout reasons.
const (
	ReasonIdle         Reason = "idle_timeout"
	ReasonExpired      Reason = "token_expired"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonLogout       Reason = "logout"
)

// LogoutEvent is published once when a session ends.
type LogoutEvent struct {
	Reason Reason
	At     time.Time
}

// Broadcaster fans logout events out to every subscribed view. Publishing
// never blocks; a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan LogoutEvent
	next int
}

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan LogoutEvent)}
}

// Subscribe returns a channel of logout events and a cancel function that
// closes it.
func (b *Broadcaster) Subscribe() (<-chan LogoutEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan LogoutEvent, 4)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber.
func (b *Broadcaster) Publish(ev LogoutEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
