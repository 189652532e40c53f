/*
Package matrix verifies Matrix access tokens against a homeserver.

A token is trusted only if the homeserver's whoami endpoint answers for it. Every
call reaches the homeserver: results are never cached and failed calls are never
retried, so a revoked session stops working immediately.
*/
package matrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voicesvc/internal/pkg/logx"
)

// WhoAmIPath is the client-server API endpoint that resolves an access token to its owner.
const WhoAmIPath = "/_matrix/client/v3/account/whoami"

// maxResponseSize bounds how much of a whoami response is read.
const maxResponseSize = 64 * 1024

var (
	// ErrNotAuthenticated is returned when the homeserver does not vouch for a token.
	ErrNotAuthenticated = errors.New("matrix: access token not accepted")

	// ErrUpstreamUnavailable is returned when the homeserver cannot be reached or answers unusably.
	ErrUpstreamUnavailable = errors.New("matrix: homeserver unavailable")
)

// Principal is the Matrix user ID of a verified caller, e.g. "@alice:example.com".
type Principal string

// String returns the user ID.
func (p Principal) String() string {
	return string(p)
}

// WhoAmIResponse is the body of a successful whoami call.
type WhoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
	IsGuest  bool   `json:"is_guest,omitempty"`
}

// Client queries a single homeserver.
type Client struct {
	httpClient *http.Client
	whoAmIURL  string
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a Client for the homeserver at baseURL. timeout bounds each
// whoami call on top of whatever deadline the caller's context carries; zero
// means only the caller's deadline applies.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		whoAmIURL:  strings.TrimRight(baseURL, "/") + WhoAmIPath,
		timeout:    timeout,
		logger:     logx.Component("matrix"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WhoAmI performs one whoami request authenticated with accessToken.
// Errors wrap ErrNotAuthenticated or ErrUpstreamUnavailable.
func (c *Client) WhoAmI(ctx context.Context, accessToken string) (*WhoAmIResponse, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrNotAuthenticated)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.whoAmIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building whoami request: %v", ErrUpstreamUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to close whoami response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading whoami response: %v", ErrUpstreamUnavailable, err)
	}

	switch {
	case httpResp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: whoami returned status %d", ErrUpstreamUnavailable, httpResp.StatusCode)
	case httpResp.StatusCode < 200 || httpResp.StatusCode > 299:
		return nil, fmt.Errorf("%w: whoami returned status %d", ErrNotAuthenticated, httpResp.StatusCode)
	}

	var whoami WhoAmIResponse
	if err := json.Unmarshal(body, &whoami); err != nil {
		return nil, fmt.Errorf("%w: decoding whoami response: %v", ErrUpstreamUnavailable, err)
	}

	if whoami.UserID == "" {
		return nil, fmt.Errorf("%w: whoami response has no user_id", ErrNotAuthenticated)
	}

	return &whoami, nil
}

// Verify resolves accessToken to a Principal. Any failure is logged at warn
// level and reported as ok == false; it is never returned as an error.
func (c *Client) Verify(ctx context.Context, accessToken string) (Principal, bool) {
	whoami, err := c.WhoAmI(ctx, accessToken)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Bool("upstream_unavailable", errors.Is(err, ErrUpstreamUnavailable)).
			Msg("Matrix token verification failed")
		return "", false
	}

	c.logger.Debug().Str("user_id", whoami.UserID).Msg("Matrix token verified")
	return Principal(whoami.UserID), true
}
