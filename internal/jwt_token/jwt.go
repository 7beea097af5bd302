package jwttoken

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/requestcontext"
)

// Audience is the aud claim every caller token carries.
const Audience = "flightsurety-api"

// CallerTokenClaims identifies an API caller. The subject is the caller
// address the access gate authorizes; the token itself grants nothing.
type CallerTokenClaims struct {
	Env string `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 caller tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
	env        string
}

func NewJWTService(signingKey, issuer, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// SetEnv annotates issued tokens with the deployment environment.
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// IssuedToken is a signed caller token and its expiry.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// IssueCallerToken signs a token whose subject is caller. ttl overrides the
// service default when positive.
func (s *JWTService) IssueCallerToken(ctx context.Context, caller domain.Address, ttl time.Duration) (*IssuedToken, error) {
	if caller == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "caller address is required")
	}
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, CallerTokenClaims{
		Env: s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign caller token")
	}
	return &IssuedToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ValidateToken checks signature, algorithm, expiry, issuer and audience.
func (s *JWTService) ValidateToken(tokenString string) (*CallerTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &CallerTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*CallerTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}
