package chat

import (
	"sync"
)

// Hub fans messages out to every subscriber of a group. Delivery is
// at-most-once: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Subscription]struct{}
	buffer int
}

// Subscription is one connected client.
type Subscription struct {
	group string
	ch    chan any
	once  sync.Once
	hub   *Hub
}

// C receives broadcast payloads until the subscription is closed.
func (s *Subscription) C() <-chan any {
	return s.ch
}

// Close removes the subscription from its group.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{groups: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

// ThreadGroup names the group for a chat thread.
func ThreadGroup(threadID string) string {
	return "thread_" + threadID
}

func (h *Hub) Subscribe(group string) *Subscription {
	s := &Subscription{group: group, ch: make(chan any, h.buffer), hub: h}
	h.mu.Lock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Subscription]struct{})
		h.groups[group] = members
	}
	members[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.groups[s.group]
	delete(members, s)
	if len(members) == 0 {
		delete(h.groups, s.group)
	}
}

// Broadcast sends payload to the group and returns how many subscribers
// received it.
func (h *Hub) Broadcast(group string, payload any) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.groups[group] {
		select {
		case s.ch <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports the current group size.
func (h *Hub) Subscribers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
