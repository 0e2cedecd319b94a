package acme

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Per-epoch token budget and per-step allocation of
 *		disruption tokens over frequency bins.
 *
 * Description:	At the start of every step where ElapsedSteps is a
 *		multiple of StepsPerEpoch, the token budget resets to
 *		MaxTokens. GetDisruptions then asks the configured
 *		DisruptionPolicy how to spend whatever remains.
 *
 *---------------------------------------------------------------*/

// DisruptorPlatform models an adversarial node that injects
// DisruptionTokens to block delivery of Packets on the bins it targets.
type DisruptorPlatform struct {
	Kinematics

	MaxTokens       int
	TokensRemaining int
	NumBins         int
	StepsPerEpoch   int
	CommsDestIDs    []string

	ObservedEnv *Snapshot

	policy DisruptionPolicy
	rng    *rand.Rand
}

// NewDisruptorPlatform constructs a DisruptorPlatform. policy defaults to
// DefaultDisruptionPolicy{} if nil.
func NewDisruptorPlatform(id string, maxTokens, numBins, stepsPerEpoch int, pos, vel, acc r3.Vector, policy DisruptionPolicy) (*DisruptorPlatform, error) {
	if maxTokens < 0 {
		return nil, configErrorf("max_tokens", "must be non-negative for disruptor %q", id)
	}
	if numBins < 1 {
		return nil, configErrorf("num_frequency_bins", "must be at least 1")
	}
	if stepsPerEpoch < 1 {
		return nil, configErrorf("steps_per_epoch", "must be at least 1 for disruptor %q", id)
	}
	if policy == nil {
		policy = DefaultDisruptionPolicy{}
	}
	return &DisruptorPlatform{
		Kinematics:      newKinematics(id, pos, vel, acc),
		MaxTokens:       maxTokens,
		TokensRemaining: maxTokens,
		NumBins:         numBins,
		StepsPerEpoch:   stepsPerEpoch,
		policy:          policy,
		rng:             rand.New(rand.NewSource(platformSeed(id))),
	}, nil
}

// Step advances kinematics and resets the token budget if a new epoch has
// begun.
func (d *DisruptorPlatform) Step(deltaT float64) {
	d.step(deltaT)
	if d.ElapsedSteps%d.StepsPerEpoch == 0 {
		d.TokensRemaining = d.MaxTokens
	}
}

// GetDisruptions asks the configured policy how to spend the remaining
// token budget and returns the resulting bin vector (nil entries are
// unoccupied). Called by the Environment once per step; not intended for
// direct user use.
func (d *DisruptorPlatform) GetDisruptions() []Emission {
	bins := make([]Emission, d.NumBins)

	indices := d.policy.Allocate(d.TokensRemaining, d.NumBins, d.ObservedEnv, d.rng)
	n := len(indices)
	if n > d.TokensRemaining {
		panic("acme: disruption policy requested more tokens than remain")
	}
	if n > d.NumBins {
		panic("acme: disruption policy requested more bins than exist")
	}
	d.TokensRemaining -= n

	for _, i := range indices {
		bins[i] = &DisruptionToken{EmissionHeader{
			SourceID:    d.ID,
			DestIDs:     append([]string(nil), d.CommsDestIDs...),
			SourceKind:  SourceDisruptor,
			CreatedTime: d.ElapsedTime,
			FreqBin:     i,
			Position:    d.Pos,
		}}
	}
	return bins
}

// platformSeed derives a deterministic seed from a platform id so that
// repeated runs with the same scenario are reproducible. This is not a
// cryptographic hash; it only needs to scatter distinct ids.
func platformSeed(id string) int64 {
	var h int64 = 1469598103934665603
	for _, c := range id {
		h ^= int64(c)
		h *= 1099511628211
	}
	return h
}
