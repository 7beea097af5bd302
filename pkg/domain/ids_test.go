package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "flightsurety/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the parsing invariant:
// "addresses are non-empty, bounded, whitespace free opaque keys"
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := ParseAddress(strings.Repeat("a", 129))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects embedded whitespace and path separators", func(t *testing.T) {
		for _, in := range []string{"air line", "air/line"} {
			_, err := ParseAddress(in)
			require.Error(t, err, in)
		}
	})

	t.Run("lowercases hex account addresses", func(t *testing.T) {
		addr, err := ParseAddress("0xF17f52151EbEF6C7334FAD080c5704D77216b732")
		require.NoError(t, err)
		assert.Equal(t, Address("0xf17f52151ebef6c7334fad080c5704d77216b732"), addr)
	})

	t.Run("keeps opaque identities verbatim", func(t *testing.T) {
		addr, err := ParseAddress("  Airline-ONE ")
		require.NoError(t, err)
		assert.Equal(t, Address("Airline-ONE"), addr)
	})
}

func TestParseWithdrawalID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseWithdrawalID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseWithdrawalID("not-a-uuid")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseWithdrawalID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, WithdrawalID(raw), id)
		assert.False(t, id.IsNil())
	})
}
