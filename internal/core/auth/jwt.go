package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"obituary-service/internal/errs"
)

// DefaultTTL applies when Options.TTL is not set.
const DefaultTTL = 60 * time.Minute

type tokenClaims struct {
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
}

// Codec mints and verifies HS256 bearer tokens. It holds no per-token state.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

// Token is a minted credential together with its validity window.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func NewCodec(o Options) (*Codec, error) {
	if len(o.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	if o.Issuer == "" || o.Audience == "" {
		return nil, errors.New("auth: issuer and audience are required")
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Leeway < 0 {
		o.Leeway = 0
	}
	return &Codec{
		secret:   append([]byte(nil), o.Secret...),
		issuer:   o.Issuer,
		audience: o.Audience,
		ttl:      o.TTL,
		leeway:   o.Leeway,
	}, nil
}

func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint signs claims with iat=now and exp=now+TTL.
func (c *Codec) Mint(claims ClaimSet, now time.Time) (Token, error) {
	if !claims.Authenticated() {
		return Token{}, errors.New("auth: empty subject")
	}
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(c.ttl))
	tc := tokenClaims{
		Username: claims.Username,
		Email:    claims.Email,
		Roles:    normalizeRoles(claims.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  iat,
			ExpiresAt: exp,
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign: %w", err)
	}
	return Token{Value: s, IssuedAt: iat.Time, ExpiresAt: exp.Time}, nil
}

// Verify checks signature, issuer, audience and expiry as of now. Every
// failure wraps errs.ErrUnauthenticated.
func (c *Codec) Verify(tokenStr string, now time.Time) (ClaimSet, error) {
	var tc tokenClaims
	t, err := jwt.ParseWithClaims(tokenStr, &tc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return ClaimSet{}, fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}
	if !t.Valid || tc.Subject == "" {
		return ClaimSet{}, fmt.Errorf("%w: invalid token", errs.ErrUnauthenticated)
	}
	return NewClaimSet(tc.Subject, tc.Username, tc.Email, tc.Roles...), nil
}
