package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*CallerClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*CallerClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockTokenValidator
	called    bool
	ctx       context.Context
	handler   http.Handler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.called = false
	s.ctx = nil
	s.handler = RequireCaller(s.validator, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.ctx = r.Context()
		w.WriteHeader(http.StatusOK)
	}))
}

func (s *AuthMiddlewareSuite) do(authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/policies", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestValidToken() {
	s.validator.On("ValidateToken", "good").Return(&CallerClaims{
		Subject: "0x00000000000000000000000000000000000000AB",
		JTI:     "jti-1",
	}, nil)

	w := s.do("Bearer good")

	s.Equal(http.StatusOK, w.Code)
	s.True(s.called)
	caller, ok := requestcontext.Caller(s.ctx)
	s.True(ok)
	s.Equal(domain.Address("0x00000000000000000000000000000000000000ab"), caller)
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareSuite) TestRejections() {
	s.Run("missing header", func() {
		s.SetupTest()
		w := s.do("")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.False(s.called)
	})

	s.Run("wrong scheme", func() {
		s.SetupTest()
		w := s.do("Basic abc")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.False(s.called)
	})

	s.Run("invalid token", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "bad").Return(nil, errors.New("signature is invalid"))
		w := s.do("Bearer bad")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.False(s.called)
	})

	s.Run("empty subject", func() {
		s.SetupTest()
		s.validator.On("ValidateToken", "anon").Return(&CallerClaims{Subject: " "}, nil)
		w := s.do("Bearer anon")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.False(s.called)
	})
}
