package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"obituary-service/internal/errs"
)

var t0 = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(Options{
		Secret:   []byte("test-secret-0123456789abcdef"),
		Issuer:   "obituary-service",
		Audience: "obituary-clients",
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	return c
}

func TestNewCodec_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(Options{Issuer: "i", Audience: "a"})
	require.Error(t, err)
	_, err = NewCodec(Options{Secret: []byte("k"), Audience: "a"})
	require.Error(t, err)

	c, err := NewCodec(Options{Secret: []byte("k"), Issuer: "i", Audience: "a"})
	require.NoError(t, err)
	require.Equal(t, DefaultTTL, c.TTL())
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	cases := []ClaimSet{
		NewClaimSet("u-1", "alice@example.com", "alice@example.com", RoleUser),
		NewClaimSet("u-2", "root", "root@example.com", RoleAdmin, RoleUser, RoleAdmin),
		NewClaimSet("u-3", "", ""),
		NewClaimSet("u-4", "ops", "ops@example.com", "Admin", "Auditor"),
	}
	for _, want := range cases {
		tok, err := c.Mint(want, t0)
		require.NoError(t, err)
		require.Equal(t, t0, tok.IssuedAt)
		require.Equal(t, t0.Add(time.Hour), tok.ExpiresAt)

		for _, at := range []time.Time{t0, t0.Add(30 * time.Minute), tok.ExpiresAt.Add(-time.Second)} {
			got, err := c.Verify(tok.Value, at)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestCodec_RejectsAtOrAfterExpiry(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	tok, err := c.Mint(NewClaimSet("u-1", "a", "a@x.io", RoleUser), t0)
	require.NoError(t, err)

	for _, at := range []time.Time{tok.ExpiresAt, tok.ExpiresAt.Add(time.Second), t0.Add(48 * time.Hour)} {
		_, err := c.Verify(tok.Value, at)
		require.ErrorIs(t, err, errs.ErrUnauthenticated)
	}
}

func TestCodec_RejectsAnySingleByteFlip(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	tok, err := c.Mint(NewClaimSet("u-1", "alice", "alice@example.com", RoleAdmin), t0)
	require.NoError(t, err)

	raw := []byte(tok.Value)
	for i := range raw {
		tampered := append([]byte(nil), raw...)
		tampered[i] ^= 0x01
		_, err := c.Verify(string(tampered), t0.Add(time.Minute))
		require.ErrorIsf(t, err, errs.ErrUnauthenticated, "byte %d flipped was accepted", i)
	}
}

func TestCodec_RejectsForeignTokens(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)
	claims := NewClaimSet("u-1", "alice", "alice@example.com", RoleUser)

	other, err := NewCodec(Options{Secret: []byte("another-secret"), Issuer: "obituary-service", Audience: "obituary-clients"})
	require.NoError(t, err)
	foreign, err := other.Mint(claims, t0)
	require.NoError(t, err)

	wrongIss, err := NewCodec(Options{Secret: []byte("test-secret-0123456789abcdef"), Issuer: "elsewhere", Audience: "obituary-clients"})
	require.NoError(t, err)
	issTok, err := wrongIss.Mint(claims, t0)
	require.NoError(t, err)

	wrongAud, err := NewCodec(Options{Secret: []byte("test-secret-0123456789abcdef"), Issuer: "obituary-service", Audience: "someone-else"})
	require.NoError(t, err)
	audTok, err := wrongAud.Mint(claims, t0)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u-1",
		Issuer:    "obituary-service",
		Audience:  jwt.ClaimStrings{"obituary-clients"},
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, s := range map[string]string{
		"wrong key":      foreign.Value,
		"wrong issuer":   issTok.Value,
		"wrong audience": audTok.Value,
		"alg none":       none,
		"empty":          "",
		"garbage":        "not.a.token",
		"truncated":      foreign.Value[:len(foreign.Value)/2],
	} {
		_, err := c.Verify(s, t0.Add(time.Minute))
		require.ErrorIsf(t, err, errs.ErrUnauthenticated, "%s accepted", name)
	}
}

func TestCodec_MintRequiresSubject(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	_, err := c.Mint(ClaimSet{Email: "x@y.z"}, t0)
	require.Error(t, err)
}
