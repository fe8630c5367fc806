package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishScopedByUserID(t *testing.T) {
	hub := NewHub()
	streamA, cancelA := hub.Subscribe("user-a")
	defer cancelA()
	streamB, cancelB := hub.Subscribe("user-b")
	defer cancelB()

	hub.Publish(Event{Type: TypeTranscriptChanged, UserID: "user-a"})

	require.Len(t, streamA, 1)
	assert.Equal(t, TypeTranscriptChanged, (<-streamA).Type)
	assert.Empty(t, streamB)
}

func TestHubKeepsLatestPendingEvent(t *testing.T) {
	hub := NewHub()
	stream, cancel := hub.Subscribe("user-a")
	defer cancel()

	hub.Publish(Event{Type: TypeTranscriptChanged, UserID: "user-a", State: "sending"})
	hub.Publish(Event{Type: TypeStateChanged, UserID: "user-a", State: "sending"})
	hub.Publish(Event{Type: TypeStateChanged, UserID: "user-a", State: "ready"})

	require.Len(t, stream, 1)
	ev := <-stream
	assert.Equal(t, TypeStateChanged, ev.Type)
	assert.Equal(t, "ready", ev.State)
	assert.Empty(t, stream)
}

func TestHubFinalEventSurvivesConcurrentPublishers(t *testing.T) {
	hub := NewHub()
	stream, cancel := hub.Subscribe("user-a")
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hub.Publish(Event{Type: TypeTranscriptChanged, UserID: "user-a"})
			}
		}()
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-stream:
			case <-done:
				return
			}
		}
	}()
	wg.Wait()
	close(done)
	<-stopped

	hub.Publish(Event{Type: TypeStateChanged, UserID: "user-a", State: "ready"})
	ev := <-stream
	for len(stream) > 0 {
		ev = <-stream
	}
	assert.Equal(t, "ready", ev.State)
}

func TestHubCancelUnsubscribe(t *testing.T) {
	hub := NewHub()
	stream, cancel := hub.Subscribe("user-a")
	cancel()
	cancel()

	_, ok := <-stream
	assert.False(t, ok)
	assert.Empty(t, hub.boxes)
	hub.Publish(Event{Type: TypeStateChanged, UserID: "user-a"})
}

func TestNilHubAndEmptyUser(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{UserID: "user-a"})
	stream, cancel := hub.Subscribe("user-a")
	defer cancel()
	_, ok := <-stream
	assert.False(t, ok)

	stream, cancel = NewHub().Subscribe("  ")
	defer cancel()
	_, ok = <-stream
	assert.False(t, ok)
}
