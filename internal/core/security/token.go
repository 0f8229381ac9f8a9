package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when a token is issued without a positive ttl.
const DefaultTokenTTL = 15 * time.Minute

// ErrInvalidToken is the only failure Decode reports. Tampered, malformed and
// expired tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// TokenSettings is the process-wide signing configuration, read once at
// startup.
type TokenSettings struct {
	Secret    string
	Algorithm string // HS256, HS384 or HS512
}

// TokenOption customises a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// TokenCodec issues and decodes signed JWTs carrying a single subject claim.
type TokenCodec struct {
	method jwt.SigningMethod
	secret []byte
	now    func() time.Time
}

// NewTokenCodec validates s and returns a codec. An empty secret or a
// non-HMAC algorithm is a configuration error.
func NewTokenCodec(s TokenSettings, opts ...TokenOption) (*TokenCodec, error) {
	if s.Secret == "" {
		return nil, errors.New("token codec: secret must not be empty")
	}
	alg := s.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token codec: unsupported signing algorithm %q", alg)
	}

	c := &TokenCodec{
		method: method,
		secret: []byte(s.Secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a session token for claim that expires ttl from now.
func (c *TokenCodec) Issue(claim string, ttl time.Duration) (string, error) {
	token, _, err := c.sign(claim, nil, ttl)
	return token, err
}

// IssueWithExpiry is Issue that also reports the exp claim written into the
// token, at the token's one-second precision.
func (c *TokenCodec) IssueWithExpiry(claim string, ttl time.Duration) (string, time.Time, error) {
	return c.sign(claim, nil, ttl)
}

// IssueFor signs a token scoped to audience, such as an email verification
// link. Such tokens are rejected by Decode.
func (c *TokenCodec) IssueFor(audience, claim string, ttl time.Duration) (string, error) {
	if audience == "" {
		return "", errors.New("token codec: audience must not be empty")
	}
	token, _, err := c.sign(claim, jwt.ClaimStrings{audience}, ttl)
	return token, err
}

// Decode verifies a session token and returns its claim.
func (c *TokenCodec) Decode(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if len(claims.Audience) > 0 {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// DecodeFor verifies a token issued by IssueFor with the same audience.
func (c *TokenCodec) DecodeFor(audience, token string) (string, error) {
	if audience == "" {
		return "", ErrInvalidToken
	}
	claims, err := c.parse(token, jwt.WithAudience(audience))
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTokenTTL
	}
	return ttl
}

func (c *TokenCodec) sign(claim string, audience jwt.ClaimStrings, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   claim,
		Audience:  audience,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttlOrDefault(ttl))),
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (c *TokenCodec) parse(token string, extra ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}, extra...)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
