package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-mcsim/monitor"
)

func dial(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestHub_BroadcastsJobEvent(t *testing.T) {
	h := NewHub()
	conn, closeAll := dial(t, h)
	defer closeAll()

	// Give register() a moment to run before broadcasting.
	time.Sleep(20 * time.Millisecond)

	h.JobEvent(monitor.JobEvent{JobID: 1, TaskName: "T1", Kind: monitor.JobActivated, At: 5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "job", msg.Type)
	require.NotNil(t, msg.Job)
	assert.Equal(t, uint64(1), msg.Job.JobID)
	assert.Equal(t, monitor.JobActivated, msg.Job.Kind)
	assert.Nil(t, msg.Scheduler)
}

func TestHub_BroadcastsSchedulerEvent(t *testing.T) {
	h := NewHub()
	conn, closeAll := dial(t, h)
	defer closeAll()

	time.Sleep(20 * time.Millisecond)

	h.SchedulerEvent(monitor.SchedulerEvent{Kind: monitor.ModeSwitchUp, At: 10})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "scheduler", msg.Type)
	require.NotNil(t, msg.Scheduler)
	assert.Equal(t, monitor.ModeSwitchUp, msg.Scheduler.Kind)
}

func TestHub_UnregistersOnClientDisconnect(t *testing.T) {
	h := NewHub()
	conn, closeAll := dial(t, h)

	time.Sleep(20 * time.Millisecond)
	h.mu.Lock()
	assert.Len(t, h.clients, 1)
	h.mu.Unlock()

	conn.Close()
	closeAll()

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWithNoClientsDoesNotBlock(t *testing.T) {
	h := NewHub()

	// No dialed client at all: broadcast with zero registered clients must
	// still return immediately rather than blocking on a channel send.
	done := make(chan struct{})
	go func() {
		h.JobEvent(monitor.JobEvent{JobID: 1, Kind: monitor.JobActivated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no registered clients")
	}
}
