package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the error primitives every layer relies on to
// carry a stable code from store to HTTP response.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Equal("no credits to withdraw", New(CodeNoCreditsAvailable, "no credits to withdraw").Error())
	s.Equal("not_owner", (&Error{Code: CodeNotOwner}).Error(), "falls back to the code")
}

func (s *DomainErrorsSuite) TestChains() {
	cause := errors.New("settlement gateway 503")
	err := &Error{Code: CodeTransferFailed, Message: "transfer failed", Err: cause}

	s.Same(cause, errors.Unwrap(err))
	s.ErrorIs(err, cause)
	s.Nil((&Error{Code: CodeNotFound}).Unwrap())

	s.Run("errors.Is matches by code alone", func() {
		s.ErrorIs(New(CodeUnknownAirline, "airline 0xa1"), &Error{Code: CodeUnknownAirline})
		s.NotErrorIs(New(CodeUnknownAirline, "x"), &Error{Code: CodeUnknownCandidate})
		s.False((&Error{Code: CodeNotFound}).Is(errors.New("not_found")))
	})

	s.Run("errors.Is walks nested domain errors", func() {
		inner := New(CodeSystemNotOperational, "paused")
		outer := &Error{Code: CodeInternal, Message: "credit failed", Err: fmt.Errorf("tx: %w", inner)}
		s.ErrorIs(outer, &Error{Code: CodeSystemNotOperational})
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps an existing domain code", func() {
		wrapped := Wrap(New(CodeUnknownCandidate, "not a candidate"), CodeInternal, "record vote")
		s.Equal(CodeUnknownCandidate, CodeOf(wrapped))
		s.Equal("record vote", wrapped.Error())
	})

	s.Run("applies the given code to plain errors", func() {
		cause := errors.New("disk full")
		wrapped := Wrap(cause, CodeInternal, "append policy")
		s.Equal(CodeInternal, CodeOf(wrapped))
		s.ErrorIs(wrapped, cause)
	})
}

func (s *DomainErrorsSuite) TestHasCodeAndCodeOf() {
	tests := []struct {
		name string
		err  error
		code Code
		has  bool
	}{
		{"direct", New(CodeNoCreditsAvailable, "none"), CodeNoCreditsAvailable, true},
		{"through fmt wrap", fmt.Errorf("withdraw: %w", New(CodeNotAuthorized, "no")), CodeNotAuthorized, true},
		{"plain error is internal", errors.New("boom"), CodeInternal, false},
		{"nil has no code", nil, "", false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.code, CodeOf(tt.err))
			s.Equal(tt.has, HasCode(tt.err, tt.code))
		})
	}
}

func (s *DomainErrorsSuite) TestServerFault() {
	for _, c := range []Code{CodeInternal, CodeTimeout, CodeInvariantViolation, CodeTransferFailed} {
		s.True(c.ServerFault(), c)
	}
	for _, c := range []Code{CodeValidation, CodeNotAuthorized, CodeSystemNotOperational, CodeNoCreditsAvailable, CodeConflict} {
		s.False(c.ServerFault(), c)
	}
}
