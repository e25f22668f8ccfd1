package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-market-auth"
)

var testKey = []byte("test-signing-key-with-enough-entropy")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, clock *fakeClock, opts ...func(*auth.TokenServiceOptions)) *auth.TokenService {
	t.Helper()
	o := auth.TokenServiceOptions{
		SigningKey: testKey,
		Issuer:     "market-auth",
		Audience:   "market-api",
		TTL:        time.Hour,
		Now:        clock.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	ts, err := auth.NewTokenService(o)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	t.Run("requires a signing key", func(t *testing.T) {
		ts, err := auth.NewTokenService(auth.TokenServiceOptions{})

		assert.Nil(t, ts)
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeConfigurationMissing))
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		ts, err := auth.NewTokenService(auth.TokenServiceOptions{SigningKey: testKey})

		require.NoError(t, err)
		assert.NotNil(t, ts)
	})
}

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ts := newTestService(t, clock)

	for _, role := range auth.GetAllRoles() {
		t.Run(role, func(t *testing.T) {
			token, err := ts.Issue("user-123", role, 0)
			require.NoError(t, err)

			identity, err := ts.Verify(token)
			require.NoError(t, err)

			assert.Equal(t, "user-123", identity.Subject)
			assert.Equal(t, role, identity.Role)
			assert.WithinDuration(t, clock.now, identity.IssuedAt, 0)
			assert.WithinDuration(t, clock.now.Add(time.Hour), identity.ExpiresAt, 0)
			assert.Equal(t, role == auth.RoleAdmin, identity.IsAdmin())
		})
	}
}

func TestTokenService_Issue(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	ts := newTestService(t, clock)

	t.Run("rejects empty subject", func(t *testing.T) {
		_, err := ts.Issue("  ", auth.RoleBuyer, 0)
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeMalformed))
	})

	t.Run("rejects empty role", func(t *testing.T) {
		_, err := ts.Issue("user-1", "", 0)
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeMalformed))
	})

	t.Run("uses HS256 and sets registered claims", func(t *testing.T) {
		token, err := ts.Issue("user-1", auth.RoleSeller, 5*time.Minute)
		require.NoError(t, err)

		claims := &auth.JWTClaims{}
		parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
		require.NoError(t, err)

		assert.Equal(t, "HS256", parsed.Method.Alg())
		assert.Equal(t, "market-auth", claims.Issuer)
		assert.Equal(t, jwt.ClaimStrings{"market-api"}, claims.Audience)
		assert.NotEmpty(t, claims.ID)
		assert.Equal(t, auth.RoleSeller, claims.UserRole)
		assert.WithinDuration(t, clock.now.Add(5*time.Minute), claims.ExpiresAt.Time, time.Second)
	})
}

func TestTokenService_VerifyExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	ts := newTestService(t, clock)

	token, err := ts.Issue("user-1", auth.RoleAdmin, time.Minute)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = ts.Verify(token)
	require.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))
	assert.True(t, auth.IsTokenError(err))
}

func TestTokenService_VerifyMalformed(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	ts := newTestService(t, clock)

	cases := map[string]string{
		"empty":          "",
		"blank":          "   ",
		"garbage":        "not-a-token",
		"two segments":   "abc.def",
		"bad base64":     "###.###.###",
		"truncated json": "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOi.sig",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Verify(token)
			require.Error(t, err)
			assert.True(t, auth.IsMalformedError(err), "got %v", err)
		})
	}
}

func TestTokenService_VerifyInvalid(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	ts := newTestService(t, clock)

	t.Run("wrong key", func(t *testing.T) {
		other := newTestService(t, clock, func(o *auth.TokenServiceOptions) {
			o.SigningKey = []byte("some-other-signing-key")
		})
		token, err := other.Issue("user-1", auth.RoleAdmin, 0)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidTokenError(err))
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := ts.Issue("user-1", auth.RoleBuyer, 0)
		require.NoError(t, err)

		forged, err := ts.Issue("user-1", auth.RoleAdmin, 0)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		forgedParts := strings.Split(forged, ".")
		tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err = ts.Verify(tampered)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidTokenError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newTestService(t, clock, func(o *auth.TokenServiceOptions) {
			o.Issuer = "someone-else"
		})
		token, err := other.Issue("user-1", auth.RoleAdmin, 0)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidTokenError(err))
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "user-1",
			"role": auth.RoleAdmin,
			"iss":  "market-auth",
			"aud":  "market-api",
			"exp":  clock.now.Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testKey)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidTokenError(err))
		assert.False(t, auth.IsMalformedError(err))
	})

	t.Run("alg none", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "user-1",
			"role": auth.RoleAdmin,
			"iss":  "market-auth",
			"aud":  "market-api",
			"exp":  clock.now.Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		require.Error(t, err)
		assert.True(t, auth.IsInvalidTokenError(err))
		assert.False(t, auth.IsMalformedError(err))
	})

	t.Run("missing role", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub": "user-1",
			"iss": "market-auth",
			"aud": "market-api",
			"exp": clock.now.Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestTokenService_KeyRotation(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	oldKey := []byte("previous-signing-key")

	old := newTestService(t, clock, func(o *auth.TokenServiceOptions) {
		o.SigningKey = oldKey
	})
	token, err := old.Issue("user-1", auth.RoleAdmin, 0)
	require.NoError(t, err)

	rotated := newTestService(t, clock, func(o *auth.TokenServiceOptions) {
		o.PreviousKeys = [][]byte{oldKey}
	})

	identity, err := rotated.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.Subject)

	withoutPrevious := newTestService(t, clock)
	_, err = withoutPrevious.Verify(token)
	assert.True(t, auth.IsInvalidTokenError(err))
}

func TestTokenServiceImplementsValidator(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	ts := newTestService(t, clock)

	token, err := ts.Issue("user-1", auth.RoleBuyer, 0)
	require.NoError(t, err)

	var validator auth.TokenValidator = ts
	identity, err := validator.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleBuyer, identity.Role)
}
