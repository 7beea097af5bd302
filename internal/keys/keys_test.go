package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "flightsurety/pkg/domain-errors"
)

func TestFlight_Deterministic(t *testing.T) {
	a := Flight("0xairline", "ND1309", 1700000000)
	b := Flight("0xairline", "ND1309", 1700000000)
	assert.Equal(t, a, b)
}

func TestFlight_DistinctTimestampsNeverCollide(t *testing.T) {
	a := Flight("0xairline", "ND1309", 1700000000)
	b := Flight("0xairline", "ND1309", 1700000001)
	assert.NotEqual(t, a, b)
}

func TestPolicy_IndependentOfTimestamp(t *testing.T) {
	p := Policy("0xairline", "ND1309")
	assert.Equal(t, p, Policy("0xairline", "ND1309"))
	assert.NotEqual(t, p, Flight("0xairline", "ND1309", 0))
}

func TestDigest_FieldBoundaries(t *testing.T) {
	assert.NotEqual(t, Policy("ab", "c"), Policy("a", "bc"))
}

func TestParse_RoundTrip(t *testing.T) {
	k := Policy("0xairline", "ND1309")

	parsed, err := Parse(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = Parse("0x1234")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
