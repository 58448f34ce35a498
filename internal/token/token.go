// Package token signs and verifies the two JWT categories used by the API.
// Access tokens are short lived and carry the caller's identity; refresh
// tokens are long lived and carry only the user id and the opaque id of the
// stored refresh_tokens row. Each category has its own secret and audience
// so a token of one kind never verifies as the other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// ErrInvalidToken is returned for any token that fails signature, audience,
// algorithm or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID  uint64 `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	UserID  uint64 `json:"userId"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}

// Signed is a serialized token together with its expiry.
type Signed struct {
	Token string
	Exp   time.Time
}

// Options configure a Codec.
type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Codec issues and verifies tokens. It is safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewCodec builds a Codec. Both secrets are required and must differ.
func NewCodec(o Options) (*Codec, error) {
	if o.AccessSecret == "" || o.RefreshSecret == "" {
		return nil, errors.New("token: both secrets are required")
	}
	if o.AccessSecret == o.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if o.AccessTTL <= 0 || o.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		accessSecret:  []byte(o.AccessSecret),
		refreshSecret: []byte(o.RefreshSecret),
		accessTTL:     o.AccessTTL,
		refreshTTL:    o.RefreshTTL,
		now:           now,
	}, nil
}

// AccessTTL is the configured lifetime of access tokens.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL is the configured lifetime of refresh tokens.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs an HS256 access token for the user.
func (c *Codec) IssueAccess(userID uint64, email string, isAdmin bool) (Signed, error) {
	now := c.now().UTC()
	exp := now.Add(c.accessTTL)
	claims := AccessClaims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			Audience:  jwt.ClaimStrings{audienceAccess},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return Signed{}, fmt.Errorf("sign access token: %w", err)
	}
	return Signed{Token: signed, Exp: exp}, nil
}

// IssueRefresh signs a refresh token bound to tokenID. The caller persists
// tokenID; the signed string itself is only handed to the client.
func (c *Codec) IssueRefresh(userID uint64, tokenID string) (Signed, error) {
	if tokenID == "" {
		return Signed{}, errors.New("token: empty token id")
	}
	now := c.now().UTC()
	exp := now.Add(c.refreshTTL)
	claims := RefreshClaims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			Audience:  jwt.ClaimStrings{audienceRefresh},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return Signed{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Signed{Token: signed, Exp: exp}, nil
}

// VerifyAccess parses and validates an access token.
func (c *Codec) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(raw, claims, c.accessSecret, audienceAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (c *Codec) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(raw, claims, c.refreshSecret, audienceRefresh); err != nil {
		return nil, err
	}
	if claims.TokenID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, secret []byte, audience string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
