package bus

import (
	"sort"
	"sync"
)

// MessageBus fans engine events out to subscribers (UI refresh,
// notification and achievement collaborators).
type MessageBus struct {
	subscribers map[string]EventHandler
	subMu       sync.RWMutex
}

func New() *MessageBus {
	return &MessageBus{
		subscribers: make(map[string]EventHandler),
	}
}

// Subscribe registers an event subscriber under id, replacing any previous
// handler with the same id.
func (mb *MessageBus) Subscribe(id string, handler EventHandler) {
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	mb.subscribers[id] = handler
}

// Unsubscribe removes an event subscriber.
func (mb *MessageBus) Unsubscribe(id string) {
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	delete(mb.subscribers, id)
}

// Broadcast delivers an event to all subscribers in id order. Handlers run
// outside the lock so they may subscribe or broadcast themselves; they
// should not block.
func (mb *MessageBus) Broadcast(event Event) {
	mb.subMu.RLock()
	ids := make([]string, 0, len(mb.subscribers))
	for id := range mb.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	handlers := make([]EventHandler, len(ids))
	for i, id := range ids {
		handlers[i] = mb.subscribers[id]
	}
	mb.subMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribers returns the number of registered handlers.
func (mb *MessageBus) Subscribers() int {
	mb.subMu.RLock()
	defer mb.subMu.RUnlock()
	return len(mb.subscribers)
}
