package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, s *Session) Message {
	t.Helper()
	select {
	case m := <-s.Messages():
		return m
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestHubDeliverToAllSessions(t *testing.T) {
	hub := NewHub(4, nil)
	a := hub.Subscribe("u1")
	b := hub.Subscribe("u1")
	other := hub.Subscribe("u2")

	n := hub.Deliver("u1", Message{Event: EventNotification, Data: "hi"})
	assert.Equal(t, 2, n)
	assert.Equal(t, "hi", recv(t, a).Data)
	assert.Equal(t, "hi", recv(t, b).Data)

	select {
	case <-other.Messages():
		t.Fatal("u2 must not receive u1 messages")
	default:
	}
}

func TestHubDropsWithoutSession(t *testing.T) {
	hub := NewHub(1, nil)
	assert.Equal(t, 0, hub.Deliver("nobody", Message{Event: EventNotification}))
	assert.NoError(t, hub.Publish(context.Background(), "nobody", Message{}))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Subscribe("u1")

	assert.Equal(t, 1, hub.Deliver("u1", Message{Event: "a"}))
	assert.Equal(t, 0, hub.Deliver("u1", Message{Event: "b"}))
	assert.Equal(t, "a", recv(t, s).Event)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Subscribe("u1")
	assert.Equal(t, 1, hub.Connected("u1"))

	hub.Unsubscribe(s)
	hub.Unsubscribe(s)
	assert.Equal(t, 0, hub.Connected("u1"))

	_, ok := <-s.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Deliver("u1", Message{}))
}

func TestHubClose(t *testing.T) {
	hub := NewHub(1, nil)
	a := hub.Subscribe("u1")
	b := hub.Subscribe("u2")

	hub.Close()
	_, ok := <-a.Messages()
	assert.False(t, ok)
	_, ok = <-b.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Connected("u1"))

	// 关闭后退订不能重复 close
	hub.Unsubscribe(a)
}

func TestHubConcurrentUse(t *testing.T) {
	hub := NewHub(8, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := hub.Subscribe("u1")
			hub.Unsubscribe(s)
		}()
		go func() {
			defer wg.Done()
			hub.Deliver("u1", Message{Event: "x"})
		}()
	}
	wg.Wait()
	require.Equal(t, 0, hub.Connected("u1"))
}
