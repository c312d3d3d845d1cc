package engine

import (
	"context"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

type subscription struct {
	ch    chan Packet
	kinds map[protocol.PacketID]struct{}
}

func (s subscription) wants(id protocol.PacketID) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[id]
	return ok
}

// Hub fans decoded packets out to subscribers. A subscriber whose buffer is
// full misses the packet; publishers never wait on it.
type Hub struct {
	broadcast  chan Packet
	register   chan subscription
	unregister chan (<-chan Packet)
	clients    map[<-chan Packet]subscription
	clientBuf  int
	done       chan struct{}
}

type Option func(*Hub)

func WithBroadcastBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.broadcast = make(chan Packet, size)
		}
	}
}

func WithClientBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.clientBuf = size
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		broadcast:  make(chan Packet, 256),
		register:   make(chan subscription),
		unregister: make(chan (<-chan Packet)),
		clients:    make(map[<-chan Packet]subscription),
		clientBuf:  100,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves the hub until ctx is done, then closes every subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, sub := range h.clients {
				close(sub.ch)
			}
			return
		case sub := <-h.register:
			h.clients[sub.ch] = sub
		case ch := <-h.unregister:
			if sub, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(sub.ch)
			}
		case packet := <-h.broadcast:
			for _, sub := range h.clients {
				if !sub.wants(packet.ID) {
					continue
				}
				select {
				case sub.ch <- packet:
				default:
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Subscribe() <-chan Packet {
	return h.SubscribeWithBuffer(h.clientBuf)
}

// SubscribeWithBuffer registers a subscriber for the given kinds, or for every
// kind when none are named. After the hub stops it returns a closed channel.
func (h *Hub) SubscribeWithBuffer(size int, kinds ...protocol.PacketID) <-chan Packet {
	if size <= 0 {
		size = h.clientBuf
	}
	sub := subscription{ch: make(chan Packet, size)}
	if len(kinds) > 0 {
		sub.kinds = make(map[protocol.PacketID]struct{}, len(kinds))
		for _, id := range kinds {
			sub.kinds[id] = struct{}{}
		}
	}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.ch)
	}
	return sub.ch
}

func (h *Hub) Unsubscribe(ch <-chan Packet) {
	select {
	case h.unregister <- ch:
	case <-h.done:
	}
}

// Publish queues packet for delivery. It reports false once the hub has
// stopped.
func (h *Hub) Publish(packet Packet) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- packet:
		return true
	case <-h.done:
		return false
	}
}
