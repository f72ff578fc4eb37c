package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicFanout(t *testing.T) {
	topic := NewTopic[int]()

	a := topic.Subscribe(4)
	b := topic.Subscribe(4)
	defer a.Done()
	defer b.Done()

	topic.Publish(42)

	require.Equal(t, 42, <-a.Recv())
	require.Equal(t, 42, <-b.Recv())
}

func TestTopicDoneUnsubscribes(t *testing.T) {
	topic := NewTopic[int]()

	sub := topic.Subscribe(4)
	sub.Done()

	topic.Publish(1)

	select {
	case value := <-sub.Recv():
		t.Fatalf("received %d after Done", value)
	default:
	}
}

func TestTopicSlowSubscriberDoesNotBlock(t *testing.T) {
	topic := NewTopic[int]()

	sub := topic.Subscribe(1)
	defer sub.Done()

	// The second publish overflows the buffer and is dropped rather than
	// blocking the publisher.
	topic.Publish(1)
	topic.Publish(2)

	require.Equal(t, 1, <-sub.Recv())
	select {
	case value := <-sub.Recv():
		t.Fatalf("unexpected value %d", value)
	default:
	}
}
