package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
)

// Codec kinds accepted by NewCodec
const (
	CodecSecureCookie = "securecookie"
	CodecJWT          = "jwt"
)

// ErrMalformed is returned when a token cannot be decoded
var ErrMalformed = errors.New("malformed session token")

// Codec turns claims into an opaque signed token and back
type Codec interface {
	Encode(c Claims) (string, error)
	Decode(token string) (Claims, error)
}

// NewCodec builds the codec for the given kind
func NewCodec(kind string, secret []byte, clk clock.Clock, maxAge time.Duration) (Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	switch kind {
	case "", CodecSecureCookie:
		return NewSecureCookieCodec(secret), nil
	case CodecJWT:
		return NewJWTCodec(secret, clk, maxAge), nil
	default:
		return nil, fmt.Errorf("unknown session codec %q", kind)
	}
}

// SecureCookieCodec signs claims with gorilla/securecookie (HMAC-SHA256)
type SecureCookieCodec struct {
	sc *securecookie.SecureCookie
}

type cookiePayload struct {
	Username string `json:"u"`
	IssuedAt int64  `json:"iat"`
}

// NewSecureCookieCodec creates a codec with the given hash key
func NewSecureCookieCodec(hashKey []byte) *SecureCookieCodec {
	sc := securecookie.New(hashKey, nil)
	// Expiry is enforced by the Manager against its own clock
	sc.MaxAge(0)
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &SecureCookieCodec{sc: sc}
}

// Encode signs the claims
func (c *SecureCookieCodec) Encode(claims Claims) (string, error) {
	return c.sc.Encode(CookieName, cookiePayload{
		Username: claims.Username,
		IssuedAt: claims.IssuedAt.UnixMilli(),
	})
}

// Decode verifies the signature and returns the claims
func (c *SecureCookieCodec) Decode(token string) (Claims, error) {
	var p cookiePayload
	if err := c.sc.Decode(CookieName, token, &p); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Claims{Username: p.Username, IssuedAt: time.UnixMilli(p.IssuedAt).UTC()}, nil
}

// JWTCodec signs claims as an HS256 JSON Web Token
type JWTCodec struct {
	secret []byte
	clock  clock.Clock
	maxAge time.Duration
}

// NewJWTCodec creates a codec with the given HMAC secret
func NewJWTCodec(secret []byte, clk clock.Clock, maxAge time.Duration) *JWTCodec {
	return &JWTCodec{secret: secret, clock: clk, maxAge: maxAge}
}

// Encode signs the claims
func (c *JWTCodec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Username,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.IssuedAt.Add(c.maxAge)),
	})
	return token.SignedString(c.secret)
}

// Decode verifies the signature, algorithm and expiry and returns the claims
func (c *JWTCodec) Decode(token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rc.IssuedAt == nil {
		return Claims{}, ErrMalformed
	}
	return Claims{Username: rc.Subject, IssuedAt: rc.IssuedAt.UTC()}, nil
}

// Ensure both codecs implement Codec
var (
	_ Codec = (*SecureCookieCodec)(nil)
	_ Codec = (*JWTCodec)(nil)
)

