package matrix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHomeserver starts a fake homeserver whose whoami endpoint is served by h.
// The returned counter tracks how many whoami calls were received.
func newHomeserver(t *testing.T, h http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc(WhoAmIPath, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, calls
}

func TestClient_WhoAmI_Success(t *testing.T) {
	t.Parallel()

	server, calls := newHomeserver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer syt_alice_token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"@alice:example.com","device_id":"DEV1"}`))
	})

	client := NewClient(server.URL+"/", time.Second)
	whoami, err := client.WhoAmI(context.Background(), "syt_alice_token")
	require.NoError(t, err)

	assert.Equal(t, "@alice:example.com", whoami.UserID)
	assert.Equal(t, "DEV1", whoami.DeviceID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_WhoAmI_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "unknown token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"errcode":"M_UNKNOWN_TOKEN","error":"Invalid access token passed."}`))
			},
			wantErr: ErrNotAuthenticated,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantErr: ErrNotAuthenticated,
		},
		{
			name: "missing user id",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"device_id":"DEV1"}`))
			},
			wantErr: ErrNotAuthenticated,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: ErrUpstreamUnavailable,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>maintenance</html>`))
			},
			wantErr: ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, calls := newHomeserver(t, tt.handler)
			client := NewClient(server.URL, time.Second)

			whoami, err := client.WhoAmI(context.Background(), "token")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, whoami)
			assert.Equal(t, int32(1), calls.Load(), "no retries expected")
		})
	}
}

func TestClient_WhoAmI_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).WhoAmI(context.Background(), "token")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClient_WhoAmI_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server, _ := newHomeserver(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := NewClient(server.URL, 50*time.Millisecond).WhoAmI(context.Background(), "token")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_WhoAmI_CallerContextCancelled(t *testing.T) {
	t.Parallel()

	server, _ := newHomeserver(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"user_id":"@alice:example.com"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, 0).WhoAmI(ctx, "token")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClient_Verify(t *testing.T) {
	t.Parallel()

	server, calls := newHomeserver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user_id":"@bob:example.com"}`))
	})
	client := NewClient(server.URL, time.Second)

	principal, ok := client.Verify(context.Background(), "good")
	assert.True(t, ok)
	assert.Equal(t, Principal("@bob:example.com"), principal)

	principal, ok = client.Verify(context.Background(), "bad")
	assert.False(t, ok)
	assert.Empty(t, principal)

	principal, ok = client.Verify(context.Background(), "")
	assert.False(t, ok)
	assert.Empty(t, principal)

	assert.Equal(t, int32(2), calls.Load(), "empty token must not reach the homeserver")
}
