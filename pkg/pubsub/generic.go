package pubsub

import (
	"sync"
)

const DefaultBuffer = 16

type PubSub[T any] struct {
	mu     sync.Mutex
	buffer int
	subs   map[string]map[int]chan T
	nextID int
}

func NewPubSub[T any]() *PubSub[T] {
	return NewBufferedPubSub[T](DefaultBuffer)
}

func NewBufferedPubSub[T any](buffer int) *PubSub[T] {
	return &PubSub[T]{
		buffer: buffer,
		subs:   make(map[string]map[int]chan T),
	}
}

// Subscribe returns a channel receiving every message published on topic and a function that
// cancels the subscription and closes the channel.
func (ps *PubSub[T]) Subscribe(topic string) (<-chan T, func()) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan T, ps.buffer)
	id := ps.nextID
	ps.nextID++
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[int]chan T)
	}
	ps.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			delete(ps.subs[topic], id)
			if len(ps.subs[topic]) == 0 {
				delete(ps.subs, topic)
			}
			close(ch)
		})
	}
}

// Publish never blocks: subscribers whose buffer is full miss the message. It returns how many
// subscribers received it.
func (ps *PubSub[T]) Publish(topic string, data T) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delivered := 0
	for _, ch := range ps.subs[topic] {
		select {
		case ch <- data:
			delivered++
		default:
		}
	}
	return delivered
}

func (ps *PubSub[T]) Subscribers(topic string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return len(ps.subs[topic])
}
