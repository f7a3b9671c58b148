package engine

import "sync"

// EventType identifies the kind of engine notification.
type EventType string

const (
	EventItemAdded   EventType = "item_added"
	EventItemUpdated EventType = "item_updated"
	EventItemRemoved EventType = "item_removed"
	EventCleared     EventType = "cleared"
	EventMerged      EventType = "merged"
	EventMovedToCart EventType = "moved_to_cart"
)

// Event is published after every successful mutation so the UI layer can
// confirm the operation (toasts) and disclose merge drops without polling
// engine state.
type Event struct {
	Type       EventType
	Collection string
	ProductID  string
	Name       string
	// Dropped lists product names rejected during a merge because they no
	// longer resolve in the catalog. Only set on EventMerged.
	Dropped []string
}

// Notifier fans engine events out to subscribers. Subscribers run
// synchronously on the mutating goroutine and must return quickly.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Event))}
}

// Subscribe registers a callback and returns an unsubscribe function.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Publish delivers the event to all subscribers. Publishing on a nil
// notifier is a no-op so engines can run without one in tests.
func (n *Notifier) Publish(ev Event) {
	if n == nil {
		return
	}
	n.mu.Lock()
	subs := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
