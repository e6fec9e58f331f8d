package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCostModelTupleFixedArity(t *testing.T) {
	opts, err := parseCostModelTuple("1000,0.5,1,2,3,4,5")
	require.NoError(t, err)
	require.Equal(t, 1000, opts.Iterations)
	require.Equal(t, 0.5, opts.PAssign)
	require.Equal(t, 1.0, opts.Weights.Renaming)
	require.Equal(t, 5.0, opts.Weights.Order)
}

func TestParseCostModelTupleWrongArityFails(t *testing.T) {
	_, err := parseCostModelTuple("1,2,3")
	require.Error(t, err)
}

func TestParseFixPercentTuple(t *testing.T) {
	lower, upper, err := parseFixPercentTuple("0.1, 0.3")
	require.NoError(t, err)
	require.Equal(t, 0.1, lower)
	require.Equal(t, 0.3, upper)
}

func TestParseSeedNoneIsNondeterministic(t *testing.T) {
	seed, fixed, err := parseSeed("none")
	require.NoError(t, err)
	require.False(t, fixed)
	require.Equal(t, int64(0), seed)
}

func TestParseSeedInteger(t *testing.T) {
	seed, fixed, err := parseSeed("42")
	require.NoError(t, err)
	require.True(t, fixed)
	require.Equal(t, int64(42), seed)
}
