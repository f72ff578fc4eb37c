package utils

import (
	"github.com/sasha-s/go-deadlock"
)

// Topic fans values out to all current subscribers. Subscriber channels are
// buffered; a subscriber that cannot keep up misses values rather than
// blocking the publisher.
type Topic[T any] struct {
	subscribers map[chan T]struct{}
	mutex       deadlock.Mutex
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
	}
}

func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for subscriber := range t.subscribers {
		select {
		case subscriber <- value:
		default:
		}
	}
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

// Subscribe registers a new subscriber with the given channel buffer.
func (t *Topic[T]) Subscribe(buffer int) *Subscriber[T] {
	channel := make(chan T, buffer)
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (s *Subscriber[T]) Recv() <-chan T {
	return s.channel
}

func (s *Subscriber[T]) Done() {
	topic := s.topic
	topic.mutex.Lock()
	delete(topic.subscribers, s.channel)
	topic.mutex.Unlock()
}
