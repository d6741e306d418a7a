package chat

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func startHub(t *testing.T, client *redis.Client) *Hub {
	t.Helper()

	hub := NewHub(client)
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func receive(t *testing.T, ch chan []byte) []byte {
	t.Helper()

	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub delivery")
		return nil
	}
}

func TestHubLocalDelivery(t *testing.T) {
	hub := startHub(t, nil)

	userID := uuid.New()
	conn := &Connection{UserID: userID, Send: make(chan []byte, 4)}
	hub.Register(conn)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.SendToUser(userID, &WSEvent{Type: EventNewMessage, SenderID: uuid.New()})

	data := receive(t, conn.Send)
	assert.Contains(t, string(data), string(EventNewMessage))
}

func TestHubCrossInstanceDelivery(t *testing.T) {
	client := newTestRedis(t)
	sender := startHub(t, client)
	receiver := startHub(t, client)

	userID := uuid.New()
	conn := &Connection{UserID: userID, Send: make(chan []byte, 4)}
	receiver.Register(conn)

	require.Eventually(t, func() bool {
		return receiver.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Published on one instance, delivered on the other via Redis.
	sender.SendToUser(userID, &WSEvent{Type: EventNewMessage})

	data := receive(t, conn.Send)
	assert.Contains(t, string(data), string(EventNewMessage))
}

func TestHubPresence(t *testing.T) {
	client := newTestRedis(t)
	hub := startHub(t, client)

	userID := uuid.New()
	conn := &Connection{UserID: userID, Send: make(chan []byte, 4)}

	assert.False(t, hub.IsOnline(userID))

	hub.Register(conn)
	require.Eventually(t, func() bool {
		return hub.IsOnline(userID)
	}, time.Second, 10*time.Millisecond)

	hub.Unregister(conn)
	require.Eventually(t, func() bool {
		return !hub.IsOnline(userID)
	}, time.Second, 10*time.Millisecond)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := startHub(t, nil)

	userID := uuid.New()
	conn := &Connection{UserID: userID, Send: make(chan []byte, 1)}
	hub.Register(conn)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Second send must not block even though nobody drains the channel.
	hub.SendToUser(userID, &WSEvent{Type: EventNewMessage})
	hub.SendToUser(userID, &WSEvent{Type: EventNewMessage})

	assert.Len(t, conn.Send, 1)
}
