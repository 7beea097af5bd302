package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/requestcontext"
)

const caller = domain.Address("0x00000000000000000000000000000000000000c4")

func newService() *JWTService {
	return NewJWTService("test-signing-key", "flightsurety-test", "flightsurety-api", time.Hour)
}

func Test_IssueAndValidate(t *testing.T) {
	svc := newService()
	svc.SetEnv("test")

	issued, err := svc.IssueCallerToken(context.Background(), caller, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, caller.String(), claims.Subject)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.Equal(t, "test", claims.Env)
}

func Test_ValidateToken_Expired(t *testing.T) {
	svc := newService()
	past := requestcontext.WithTime(context.Background(), time.Now().Add(-2*time.Hour))

	issued, err := svc.IssueCallerToken(past, caller, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(issued.Token)
	require.ErrorContains(t, err, "token expired")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_Rejections(t *testing.T) {
	svc := newService()
	issued, err := svc.IssueCallerToken(context.Background(), caller, 0)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.Error(t, err)
	})

	t.Run("other signing key", func(t *testing.T) {
		other := NewJWTService("another-key", "flightsurety-test", "flightsurety-api", time.Hour)
		_, err := other.ValidateToken(issued.Token)
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewJWTService("test-signing-key", "someone-else", "flightsurety-api", time.Hour)
		_, err := other.ValidateToken(issued.Token)
		assert.Error(t, err)
	})

	t.Run("other audience", func(t *testing.T) {
		other := NewJWTService("test-signing-key", "flightsurety-test", "another-api", time.Hour)
		_, err := other.ValidateToken(issued.Token)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, CallerTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   caller.String(),
				Issuer:    "flightsurety-test",
				Audience:  []string{"flightsurety-api"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(s)
		assert.Error(t, err)
	})
}

func Test_IssueCallerToken_RequiresCaller(t *testing.T) {
	_, err := newService().IssueCallerToken(context.Background(), "", 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_Adapter(t *testing.T) {
	svc := newService()
	issued, err := svc.IssueCallerToken(context.Background(), caller, 0)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(svc).ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, caller.String(), claims.Subject)
	assert.Equal(t, issued.JTI, claims.JTI)
}
