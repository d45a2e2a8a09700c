package kms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCombineSeed(t *testing.T) {
	seed := testSeed(42)

	shares, err := SplitSeed(seed, 5, 3)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	// Any threshold-sized subset reconstructs the seed.
	recovered, err := CombineSeed([][]byte{shares[4], shares[0], shares[2]})
	require.NoError(t, err)
	assert.Equal(t, seed, recovered)

	// Below the threshold the reconstruction does not match.
	garbage, err := CombineSeed([][]byte{shares[0], shares[1]})
	if err == nil {
		assert.NotEqual(t, seed, garbage)
	}
}

func TestSplitSeedValidation(t *testing.T) {
	seed := testSeed(42)

	_, err := SplitSeed(seed[:16], 5, 3)
	require.Error(t, err, "short seed")

	_, err = SplitSeed(seed, 5, 1)
	require.Error(t, err, "threshold below 2")

	_, err = SplitSeed(seed, 2, 3)
	require.Error(t, err, "fewer shares than threshold")
}

func TestCombineSeedValidation(t *testing.T) {
	seed := testSeed(42)
	shares, err := SplitSeed(seed, 3, 2)
	require.NoError(t, err)

	_, err = CombineSeed([][]byte{shares[0]})
	require.Error(t, err, "a single share is never enough")

	_, err = CombineSeed([][]byte{shares[0], []byte("bogus")})
	require.Error(t, err, "malformed share")
}
