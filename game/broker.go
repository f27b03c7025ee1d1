package game

import "sync"

// ListingBroker is an in-process pub/sub for room-list updates, consumed
// by lobby viewers over SSE.
type ListingBroker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewListingBroker() *ListingBroker {
	return &ListingBroker{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel that receives encoded roomListUpdated events.
func (b *ListingBroker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *ListingBroker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish fans the listing out to every subscriber.
func (b *ListingBroker) Publish(listing []RoomSummary) {
	data := MakeEventRoomListUpdated(listing)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
