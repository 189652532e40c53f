package matrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicesvc/internal/pkg/errs"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	token     string
	principal Principal
	calls     int
}

func (s *stubVerifier) Verify(_ context.Context, accessToken string) (Principal, bool) {
	s.calls++
	if accessToken != s.token {
		return "", false
	}
	return s.principal, true
}

type recordedAuth struct {
	results []bool
}

func (r *recordedAuth) RecordAuth(_ context.Context, success bool) {
	r.results = append(r.results, success)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "valid", header: "Bearer abc123", want: "abc123", wantOK: true},
		{name: "lowercase scheme", header: "bearer abc123", want: "abc123", wantOK: true},
		{name: "missing", header: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "no token", header: "Bearer "},
		{name: "no separator", header: "Bearerabc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/token", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, ok := BearerToken(r)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		header        string
		wantStatus    int
		wantCode      int
		wantCalls     int
		wantRecorded  []bool
		wantPrincipal Principal
	}{
		{
			name:          "verified",
			header:        "Bearer good",
			wantStatus:    http.StatusOK,
			wantCalls:     1,
			wantRecorded:  []bool{true},
			wantPrincipal: "@alice:example.com",
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantCode:   errs.ErrMissingAuthHeader,
		},
		{
			name:       "wrong scheme",
			header:     "Token good",
			wantStatus: http.StatusUnauthorized,
			wantCode:   errs.ErrMissingAuthHeader,
		},
		{
			name:         "rejected token",
			header:       "Bearer bad",
			wantStatus:   http.StatusUnauthorized,
			wantCode:     errs.ErrInvalidIdentityToken,
			wantCalls:    1,
			wantRecorded: []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := &stubVerifier{token: "good", principal: "@alice:example.com"}
			recorder := &recordedAuth{}

			var reached bool
			var seen Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodPost, "/token", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			RequireIdentity(verifier, recorder)(next).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, verifier.calls)
			assert.Equal(t, tt.wantRecorded, recorder.results)

			if tt.wantStatus == http.StatusOK {
				assert.True(t, reached)
				assert.Equal(t, tt.wantPrincipal, seen)
				return
			}

			assert.False(t, reached, "downstream handler must not run for unauthenticated callers")
			var body struct {
				Error string `json:"error"`
				Code  int    `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRequireIdentity_NilRecorder(t *testing.T) {
	t.Parallel()

	verifier := &stubVerifier{token: "good", principal: "@alice:example.com"}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()

	RequireIdentity(verifier, nil)(next).ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPrincipalFromContext_Absent(t *testing.T) {
	t.Parallel()

	principal, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, principal)
}
