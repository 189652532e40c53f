package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicesvc/internal/app/presence"
)

func readRoster(t *testing.T, conn *websocket.Conn) presence.RosterMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg presence.RosterMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWatchParticipants_StreamsRoster(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.deps.Registry.RecordJoin("room1", "u1", "Alice")

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/participants/room1/watch"
	conn, httpResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, httpResp.StatusCode)

	initial := readRoster(t, conn)
	assert.Equal(t, "room1", initial.ChannelID)
	assert.Equal(t, 1, initial.Count)

	env.deps.Registry.RecordJoin("room1", "u2", "Bob")

	joined := readRoster(t, conn)
	assert.Equal(t, 2, joined.Count)
	assert.Greater(t, joined.Revision, initial.Revision)

	env.deps.Registry.RecordLeave("room1", "u1")
	env.deps.Registry.RecordLeave("room1", "u2")

	var last presence.RosterMessage
	for last.Revision < joined.Revision+2 {
		last = readRoster(t, conn)
	}
	assert.Equal(t, 0, last.Count)
	assert.Empty(t, last.Participants)
}

func TestWatchParticipants_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.deps.Config.Environment = "production"
	env.deps.Config.AllowedOrigins = []string{"https://chat.example.com"}
	env.router = Router(env.deps)

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/participants/room1/watch"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}

	_, httpResp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, httpResp)
	assert.Equal(t, http.StatusForbidden, httpResp.StatusCode)
	assert.Equal(t, 0, env.deps.Hub.WatcherCount("room1"))
}
