package notify

import (
	"sync"
	"time"
)

// Notification is an in-app event fanned out to connected listeners: friend
// requests, new messages, status activity.
type Notification struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"sourceId"`
	DestID    string    `json:"destId"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	KindFriendRequest  = "friend_request"
	KindFriendAccepted = "friend_accepted"
	KindMessage        = "message"
	KindStatusLike     = "status_like"
	KindStatusReply    = "status_reply"
)

// Subscriber of the notification service
type Subscriber chan Notification

// Hub, store mutex and the subscribers map
type Hub struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
}

// Constructor method for the hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Method to subscribe into the hub
func (h *Hub) Subscribe() Subscriber {
	ch := make(Subscriber, 10) // buffered channel
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Method to unsubscribe from the hub
func (h *Hub) Unsubscribe(ch Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	close(ch)
	h.mu.Unlock()
}

// Method to publish notification to the hub
func (h *Hub) Publish(noti Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- noti:
		default: // avoid blocking if buffer full
		}
	}
}
