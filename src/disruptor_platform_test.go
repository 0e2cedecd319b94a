package acme

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisruptorPlatformValidation(t *testing.T) {
	tests := []struct {
		name          string
		maxTokens     int
		numBins       int
		stepsPerEpoch int
		wantErr       bool
	}{
		{"valid", 4, 10, 10, false},
		{"negative max tokens", -1, 10, 10, true},
		{"zero bins", 4, 0, 10, true},
		{"zero steps per epoch", 4, 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDisruptorPlatform("d1", tt.maxTokens, tt.numBins, tt.stepsPerEpoch, r3.Vector{}, r3.Vector{}, r3.Vector{}, nil)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDisruptorDefaultsToBaselinePolicy(t *testing.T) {
	d, err := NewDisruptorPlatform("d1", 4, 10, 10, r3.Vector{}, r3.Vector{}, r3.Vector{}, nil)
	require.NoError(t, err)
	assert.IsType(t, DefaultDisruptionPolicy{}, d.policy)
}

func TestDisruptorEpochReset(t *testing.T) {
	d, err := NewDisruptorPlatform("d1", 4, 10, 10, r3.Vector{}, r3.Vector{}, r3.Vector{}, StaticBinPolicy{Bins: []int{0}})
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		d.Step(1.0)
		d.GetDisruptions()
	}

	d.Step(1.0) // 10th step: ElapsedSteps becomes 10, a new epoch begins
	assert.Equal(t, 4, d.TokensRemaining, "tokens_remaining must equal max_tokens at the first step of a new epoch, before get_disruptions runs")
}

func TestDisruptorTokensNeverNegative(t *testing.T) {
	d, err := NewDisruptorPlatform("d1", 1, 1, 100, r3.Vector{}, r3.Vector{}, r3.Vector{}, nil)
	require.NoError(t, err)

	d.Step(1.0)
	d.GetDisruptions()
	d.GetDisruptions() // a second call in the same step should not go negative

	assert.GreaterOrEqual(t, d.TokensRemaining, 0)
}

type overspendingPolicy struct{}

func (overspendingPolicy) Allocate(tokensRemaining, numBins int, observed *Snapshot, rng *rand.Rand) []int {
	return []int{0, 1, 2} // ignores the budget it was given, by construction
}

func TestGetDisruptionsPanicsOnPolicyOverBudget(t *testing.T) {
	d, err := NewDisruptorPlatform("d1", 1, 4, 10, r3.Vector{}, r3.Vector{}, r3.Vector{}, overspendingPolicy{})
	require.NoError(t, err)
	d.TokensRemaining = 1

	assert.Panics(t, func() {
		d.GetDisruptions()
	})
}

func TestGetDisruptionsBuildsDisruptionTokens(t *testing.T) {
	pos := r3.Vector{X: 7, Y: 8, Z: 9}
	d, err := NewDisruptorPlatform("d1", 4, 4, 10, pos, r3.Vector{}, r3.Vector{}, StaticBinPolicy{Bins: []int{2}})
	require.NoError(t, err)
	d.CommsDestIDs = []string{"c1", "c2"}

	bins := d.GetDisruptions()
	require.Len(t, bins, 4)
	require.NotNil(t, bins[2])

	token, ok := bins[2].(*DisruptionToken)
	require.True(t, ok)
	assert.Equal(t, "d1", token.SourceID)
	assert.Equal(t, SourceDisruptor, token.SourceKind)
	assert.Equal(t, []string{"c1", "c2"}, token.DestIDs)
	assert.Equal(t, 2, token.FreqBin, "token placed at bin 2 must be stamped with that bin index")
	assert.Equal(t, pos, token.Position, "token must be stamped with the disruptor's own position")
}

func TestPlatformSeedIsDeterministic(t *testing.T) {
	assert.Equal(t, platformSeed("d1"), platformSeed("d1"))
	assert.NotEqual(t, platformSeed("d1"), platformSeed("d2"))
}
