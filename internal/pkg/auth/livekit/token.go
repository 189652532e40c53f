package livekit

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the validity window of a minted grant.
const DefaultTTL = 24 * time.Hour

// Grant is a freshly minted access token together with its bookkeeping fields.
type Grant struct {
	// Token is the signed JWT handed to the client.
	Token string

	// ID is the unique token id ("jti").
	ID string

	// ExpiresAt is when the token stops being accepted.
	ExpiresAt time.Time
}

// Minter signs room grants with a LiveKit API key pair. It keeps no record of
// what it issued.
type Minter struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// MinterOption configures a Minter.
type MinterOption func(*Minter)

// WithClock replaces time.Now as the issuance clock.
func WithClock(now func() time.Time) MinterOption {
	return func(m *Minter) {
		m.now = now
	}
}

// NewMinter returns a Minter for the given key pair. A ttl of zero selects DefaultTTL.
// Missing key material is a configuration error.
func NewMinter(apiKey, apiSecret string, ttl time.Duration, opts ...MinterOption) (*Minter, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("livekit: API key and secret are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m := &Minter{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		ttl:       ttl,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Mint issues a grant letting identity join room with full publish and subscribe
// rights. An empty name falls back to identity.
func (m *Minter) Mint(room, identity, name string) (*Grant, error) {
	if name == "" {
		name = identity
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	id := uuid.NewString()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.apiKey,
			Subject:   identity,
			ID:        id,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:  name,
		Video: fullRoomGrant(room),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.apiSecret)
	if err != nil {
		return nil, fmt.Errorf("livekit: signing grant: %w", err)
	}

	return &Grant{
		Token:     signed,
		ID:        id,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// Parse verifies a token minted with this key pair and returns its claims.
func (m *Minter) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.apiSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.apiKey),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("livekit: parsing grant: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("livekit: invalid or expired grant")
	}

	return claims, nil
}
