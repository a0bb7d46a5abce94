package ipc

import (
	"sync"

	"github.com/clipvault/clipvault/internal/history"
	"github.com/clipvault/clipvault/internal/item"
	"github.com/clipvault/clipvault/internal/message"
)

// subscriberBuffer bounds the per-subscriber event queue. A subscriber
// that stops reading loses events rather than blocking the capture
// loop.
const subscriberBuffer = 32

// Broadcaster fans history-change notifications out to subscribed IPC
// connections. It implements history.Listener; the store invokes it
// synchronously from the daemon's event loop, so publishing never
// blocks.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan message.Event
	next int
}

var _ history.Listener = (*Broadcaster)(nil)

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan message.Event)}
}

// Subscribe registers a subscriber and returns its event channel along
// with a cancel func that must be called when the subscriber goes away.
func (b *Broadcaster) Subscribe() (<-chan message.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan message.Event, subscriberBuffer)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// ItemAdded implements history.Listener. The pushed item omits the
// image payload; subscribers fetch it with GET when they need it.
func (b *Broadcaster) ItemAdded(it *item.Item) {
	w := message.FromItem(it, false)
	b.publish(message.Event{Name: message.EventItemAdded, Item: &w})
}

// ItemRemoved implements history.Listener.
func (b *Broadcaster) ItemRemoved(id int64) {
	b.publish(message.Event{Name: message.EventItemRemoved, ID: id})
}

// Cleared implements history.Listener.
func (b *Broadcaster) Cleared() {
	b.publish(message.Event{Name: message.EventCleared})
}

func (b *Broadcaster) publish(ev message.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default: // subscriber is not keeping up
		}
	}
}
