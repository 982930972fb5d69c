package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned by Verify when the signature is valid but
	// the expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every structural, algorithm or signature
	// failure.  Verification fails closed on anything unexpected.
	ErrTokenInvalid = errors.New("token invalid")
)

// IssuedToken is a signed session token together with its identifier and
// expiry.  The ID is the jti claim and is what the revocation list stores.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Claims is the verified content of a session token.  Only the subject
// is trusted for identity; the role is always re-read from the store.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HS256 session tokens.  The validity
// window is fixed at construction and is not configurable per call.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret and issuing tokens
// valid for ttl.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the codec that reads time from now.  Tests
// use it to move past the validity window without sleeping.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue builds and signs a token for userID.  The claims are the
// standard sub, iat, exp and jti; nothing else is embedded.
func (c *TokenCodec) Issue(userID string) (IssuedToken, error) {
	if userID == "" {
		return IssuedToken{}, errors.New("empty subject")
	}
	// JWT timestamps have second precision; truncate so that the value
	// returned to the caller matches what Verify will decode.
	iat := c.now().UTC().Truncate(time.Second)
	exp := iat.Add(c.ttl)
	id := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, ID: id, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
// Expired tokens yield ErrTokenExpired; everything else that is wrong
// yields ErrTokenInvalid.
func (c *TokenCodec) Verify(raw string) (Claims, error) {
	var rc jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &rc, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid || rc.Subject == "" || rc.ExpiresAt == nil {
		return Claims{}, ErrTokenInvalid
	}
	out := Claims{Subject: rc.Subject, ID: rc.ID, ExpiresAt: rc.ExpiresAt.Time}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	return out, nil
}
