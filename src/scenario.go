package acme

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Read a complete Environment description from a YAML
 *		scenario file: platforms, adjacency, MAC method, bin
 *		count, disruptor delay, and sliding window.
 *
 * Description:	The argument-parsing and adjacency-from-physical-range
 *		concerns are explicitly left to callers outside the
 *		engine (spec Non-goals); this is the concrete, testable
 *		form that glue takes in this repository. Adjacency is
 *		given as an edge list of platform id pairs rather than a
 *		dense boolean matrix, since that is what a human typing a
 *		scenario file actually wants to write. Comms and disruptor
 *		ids are unique only within their own kind, so an endpoint
 *		that names an id used by both must be qualified, e.g.
 *		"comms:alpha" / "disruptor:alpha"; an unqualified endpoint
 *		resolves against whichever namespace contains it.
 *
 *---------------------------------------------------------------*/

// ScenarioCommsPlatform describes one CommsPlatform entry in a scenario file.
type ScenarioCommsPlatform struct {
	ID            string     `yaml:"id"`
	QueueCapacity int        `yaml:"queue_capacity"`
	DoAck         bool       `yaml:"do_ack"`
	Position      [3]float64 `yaml:"position"`
	Velocity      [3]float64 `yaml:"velocity"`
	Acceleration  [3]float64 `yaml:"acceleration"`
}

// ScenarioDisruptorPlatform describes one DisruptorPlatform entry in a
// scenario file.
type ScenarioDisruptorPlatform struct {
	ID            string     `yaml:"id"`
	MaxTokens     int        `yaml:"max_tokens"`
	StepsPerEpoch int        `yaml:"steps_per_epoch"`
	Position      [3]float64 `yaml:"position"`
	Velocity      [3]float64 `yaml:"velocity"`
	Acceleration  [3]float64 `yaml:"acceleration"`
}

// Scenario is the YAML-parsed description of a complete Environment.
type Scenario struct {
	NumFrequencyBins   int                         `yaml:"num_frequency_bins"`
	DisruptorDelay     int                         `yaml:"disruptor_delay"`
	MediumAccessMethod string                      `yaml:"medium_access_method"`
	SlidingWindow      float64                     `yaml:"sliding_window"`
	CommsPlatforms     []ScenarioCommsPlatform     `yaml:"comms_platforms"`
	DisruptorPlatforms []ScenarioDisruptorPlatform `yaml:"disruptor_platforms"`
	Adjacency          [][]string                  `yaml:"adjacency"`
}

// LoadScenario parses and validates a scenario file. It does not build the
// live engine objects; call Build for that.
func LoadScenario(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.NumFrequencyBins < 1 {
		return configErrorf("num_frequency_bins", "must be at least 1")
	}
	if s.DisruptorDelay < 1 {
		return configErrorf("disruptor_delay", "must be at least 1")
	}
	if s.SlidingWindow < 0 {
		return configErrorf("sliding_window", "must be non-negative")
	}

	seenComms := make(map[string]bool, len(s.CommsPlatforms))
	for _, p := range s.CommsPlatforms {
		if seenComms[p.ID] {
			return configErrorf("comms_platforms", "duplicate id %q", p.ID)
		}
		seenComms[p.ID] = true
	}

	seenDisruptors := make(map[string]bool, len(s.DisruptorPlatforms))
	for _, p := range s.DisruptorPlatforms {
		if seenDisruptors[p.ID] {
			return configErrorf("disruptor_platforms", "duplicate id %q", p.ID)
		}
		seenDisruptors[p.ID] = true
	}

	for _, edge := range s.Adjacency {
		if len(edge) != 2 {
			return configErrorf("adjacency", "each entry must be a [source, dest] pair, got %v", edge)
		}
	}

	return nil
}

// Build constructs the live Environment plus lookup maps from id to
// platform, so callers can drive TxData/RxData after the scenario loads.
func (s *Scenario) Build() (*Environment, map[string]*CommsPlatform, map[string]*DisruptorPlatform, error) {
	commsByID := make(map[string]*CommsPlatform, len(s.CommsPlatforms))
	comms := make([]*CommsPlatform, 0, len(s.CommsPlatforms))
	for _, cfg := range s.CommsPlatforms {
		capacity := cfg.QueueCapacity
		if capacity == 0 {
			capacity = DefaultQueueCapacity
		}
		p, err := NewCommsPlatform(cfg.ID, capacity, cfg.DoAck, vecFromArray(cfg.Position), vecFromArray(cfg.Velocity), vecFromArray(cfg.Acceleration))
		if err != nil {
			return nil, nil, nil, err
		}
		comms = append(comms, p)
		commsByID[cfg.ID] = p
	}

	disruptorsByID := make(map[string]*DisruptorPlatform, len(s.DisruptorPlatforms))
	disruptors := make([]*DisruptorPlatform, 0, len(s.DisruptorPlatforms))
	for _, cfg := range s.DisruptorPlatforms {
		stepsPerEpoch := cfg.StepsPerEpoch
		if stepsPerEpoch == 0 {
			stepsPerEpoch = 1
		}
		p, err := NewDisruptorPlatform(cfg.ID, cfg.MaxTokens, s.NumFrequencyBins, stepsPerEpoch, vecFromArray(cfg.Position), vecFromArray(cfg.Velocity), vecFromArray(cfg.Acceleration), nil)
		if err != nil {
			return nil, nil, nil, err
		}
		disruptors = append(disruptors, p)
		disruptorsByID[cfg.ID] = p
	}

	adj, err := s.buildAdjacency(comms, disruptors)
	if err != nil {
		return nil, nil, nil, err
	}

	mac, err := ParseMACMethod(s.MediumAccessMethod)
	if err != nil {
		return nil, nil, nil, err
	}

	env, err := NewEnvironment(EnvironmentConfig{
		AdjMatrix:          adj,
		CommsPlatforms:     comms,
		DisruptorPlatforms: disruptors,
		NumFrequencyBins:   s.NumFrequencyBins,
		DisruptorDelay:     s.DisruptorDelay,
		MAC:                mac,
		SlidingWindow:      s.SlidingWindow,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return env, commsByID, disruptorsByID, nil
}

// buildAdjacency resolves each edge endpoint to a global row/column index.
// Comms and disruptor ids are unique only within their own kind (spec.md
// §3) and may collide across kinds, so resolution is keyed by (kind, id),
// not by bare id alone: an endpoint may be qualified as "comms:<id>" or
// "disruptor:<id>"; an unqualified endpoint resolves against whichever
// namespace contains it, and is rejected as ambiguous if both do.
func (s *Scenario) buildAdjacency(comms []*CommsPlatform, disruptors []*DisruptorPlatform) ([][]bool, error) {
	n := len(comms) + len(disruptors)

	commsIdx := make(map[string]int, len(comms))
	for i, p := range comms {
		commsIdx[p.ID] = i
	}
	disruptorIdx := make(map[string]int, len(disruptors))
	for i, p := range disruptors {
		disruptorIdx[p.ID] = len(comms) + i
	}

	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}

	for _, edge := range s.Adjacency {
		si, err := resolveAdjacencyRef(edge[0], commsIdx, disruptorIdx)
		if err != nil {
			return nil, err
		}
		di, err := resolveAdjacencyRef(edge[1], commsIdx, disruptorIdx)
		if err != nil {
			return nil, err
		}
		adj[si][di] = true
	}
	return adj, nil
}

// resolveAdjacencyRef resolves one adjacency edge endpoint, such as
// "alpha", "comms:alpha", or "disruptor:mallory", to a global index.
func resolveAdjacencyRef(ref string, commsIdx, disruptorIdx map[string]int) (int, error) {
	kind, id, qualified := strings.Cut(ref, ":")
	if !qualified {
		kind, id = "", ref
	}

	switch strings.ToLower(kind) {
	case "comms":
		if i, ok := commsIdx[id]; ok {
			return i, nil
		}
		return 0, configErrorf("adjacency", "unknown comms platform id %q", id)
	case "disruptor":
		if i, ok := disruptorIdx[id]; ok {
			return i, nil
		}
		return 0, configErrorf("adjacency", "unknown disruptor platform id %q", id)
	case "":
		ci, cok := commsIdx[id]
		di, dok := disruptorIdx[id]
		switch {
		case cok && dok:
			return 0, configErrorf("adjacency", "id %q names both a comms and a disruptor platform; qualify it as \"comms:%s\" or \"disruptor:%s\"", id, id, id)
		case cok:
			return ci, nil
		case dok:
			return di, nil
		default:
			return 0, configErrorf("adjacency", "unknown platform id %q", id)
		}
	default:
		return 0, configErrorf("adjacency", "unrecognized platform kind %q in %q; expected \"comms\" or \"disruptor\"", kind, ref)
	}
}

func vecFromArray(a [3]float64) r3.Vector {
	return r3.Vector{X: a[0], Y: a[1], Z: a[2]}
}
