package acme

import "fmt"

/*------------------------------------------------------------------
 *
 * Purpose:	Orchestrates the per-step simulation loop: routes
 *		emissions, enforces adjacency, maintains the disruptor
 *		observation delay queue, and the sliding-window traffic
 *		statistics.
 *
 * Description:	Step(deltaT) runs the eleven-stage loop, in order:
 *		kinematics, connectivity refresh, elapsed time, coordinator
 *		drain, delayed snapshot delivery to disruptors, disruptor
 *		action collection, snapshot enqueue, fan-out delivery,
 *		batch delivery, success accounting, and sliding-window
 *		pruning.
 *
 *---------------------------------------------------------------*/

// Grid is the emission bin matrix: one row per Coordinator followed by one
// row per DisruptorPlatform, each row NumBins wide. A nil cell is empty.
type Grid [][]Emission

func copyGrid(g Grid) Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]Emission(nil), row...)
	}
	return out
}

// Snapshot is the delayed, per-disruptor-filtered view of a past Grid that
// Environment.Step hands to DisruptorPlatform.ObservedEnv.
type Snapshot struct {
	CoordinatorRows Grid
	DisruptorRows   Grid
}

// EnvironmentConfig configures a new Environment. The zero MAC is
// round-robin and a zero SlidingWindow disables pruning. NumFrequencyBins
// and DisruptorDelay have no defaults: a zero value is rejected, so both
// must be set to at least 1.
type EnvironmentConfig struct {
	AdjMatrix          [][]bool
	CommsPlatforms     []*CommsPlatform
	DisruptorPlatforms []*DisruptorPlatform
	NumFrequencyBins   int
	DisruptorDelay     int
	MAC                MACMethod
	SlidingWindow      float64
}

// Environment is the central simulation authority: it owns the bin grid,
// the delay queue, and the traffic logs, and is the sole writer of
// Emission.EmissionTime.
type Environment struct {
	CommsPlatforms     []*CommsPlatform
	DisruptorPlatforms []*DisruptorPlatform

	commsIndex     map[string]int
	disruptorIndex map[string]int

	AdjMatrix [][]bool

	Coordinators []*Coordinator
	NumBins      int

	bins           Grid
	delayQueue     []Grid
	disruptorDelay int

	ElapsedTime float64
	WindowSize  float64

	txLog [][][]Emission
	rxLog [][][]Emission
}

// NewEnvironment validates cfg and constructs an Environment with its
// coordinator, bin grid, and delay queue primed.
func NewEnvironment(cfg EnvironmentConfig) (*Environment, error) {
	numComms := len(cfg.CommsPlatforms)
	numDisruptors := len(cfg.DisruptorPlatforms)

	commsIndex := make(map[string]int, numComms)
	for i, p := range cfg.CommsPlatforms {
		if _, dup := commsIndex[p.ID]; dup {
			return nil, configErrorf("comms_platforms", "duplicate id %q", p.ID)
		}
		commsIndex[p.ID] = i
	}
	disruptorIndex := make(map[string]int, numDisruptors)
	for i, p := range cfg.DisruptorPlatforms {
		if _, dup := disruptorIndex[p.ID]; dup {
			return nil, configErrorf("disruptor_platforms", "duplicate id %q", p.ID)
		}
		disruptorIndex[p.ID] = i
	}

	n := numComms + numDisruptors
	if len(cfg.AdjMatrix) != n {
		return nil, configErrorf("adj_matrix", "must have %d rows for %d comms + %d disruptor platforms, got %d", n, numComms, numDisruptors, len(cfg.AdjMatrix))
	}
	for i, row := range cfg.AdjMatrix {
		if len(row) != n {
			return nil, configErrorf("adj_matrix", "row %d must have %d columns, got %d", i, n, len(row))
		}
	}

	if cfg.NumFrequencyBins < 1 {
		return nil, configErrorf("num_frequency_bins", "must be at least 1")
	}
	if cfg.DisruptorDelay < 1 {
		return nil, configErrorf("disruptor_delay", "must be at least 1")
	}
	if cfg.SlidingWindow < 0 {
		return nil, configErrorf("sliding_window", "must be non-negative")
	}

	coordinator, err := NewCoordinator(cfg.CommsPlatforms, cfg.NumFrequencyBins, cfg.MAC)
	if err != nil {
		return nil, err
	}
	coordinators := []*Coordinator{coordinator}

	bins := make(Grid, len(coordinators)+numDisruptors)
	for i := range bins {
		bins[i] = make([]Emission, cfg.NumFrequencyBins)
	}

	delayQueue := make([]Grid, 0, cfg.DisruptorDelay)
	for i := 0; i < cfg.DisruptorDelay; i++ {
		delayQueue = append(delayQueue, copyGrid(bins))
	}

	txLog := make([][][]Emission, numComms)
	rxLog := make([][][]Emission, numComms)
	for i := range txLog {
		txLog[i] = make([][]Emission, numComms)
		rxLog[i] = make([][]Emission, numComms)
	}

	env := &Environment{
		CommsPlatforms:     cfg.CommsPlatforms,
		DisruptorPlatforms: cfg.DisruptorPlatforms,
		commsIndex:         commsIndex,
		disruptorIndex:     disruptorIndex,
		AdjMatrix:          cfg.AdjMatrix,
		Coordinators:       coordinators,
		NumBins:            cfg.NumFrequencyBins,
		bins:               bins,
		delayQueue:         delayQueue,
		disruptorDelay:     cfg.DisruptorDelay,
		WindowSize:         cfg.SlidingWindow,
		txLog:              txLog,
		rxLog:              rxLog,
	}
	env.updateConnectivity()
	return env, nil
}

// Step advances the simulation by deltaT seconds.
func (env *Environment) Step(deltaT float64) {
	for _, p := range env.CommsPlatforms {
		p.Step(deltaT)
	}
	for _, p := range env.DisruptorPlatforms {
		p.Step(deltaT)
	}

	env.updateConnectivity()

	env.ElapsedTime += deltaT

	for i, c := range env.Coordinators {
		env.bins[i] = c.Step()
	}

	env.deliverDelayedSnapshot()

	numCoord := len(env.Coordinators)
	for k, d := range env.DisruptorPlatforms {
		env.bins[numCoord+k] = d.GetDisruptions()
	}

	env.delayQueue = append(env.delayQueue, copyGrid(env.bins))
	if len(env.delayQueue) != env.disruptorDelay {
		panic("acme: disruptor delay queue is not full after enqueue")
	}

	txData := env.fanOut()

	for i, p := range env.CommsPlatforms {
		p.PutData(txData[i])
	}

	env.updateStatistics(txData)

	if env.WindowSize > 0 {
		env.prune()
	}
}

func (env *Environment) updateConnectivity() {
	numComms := len(env.CommsPlatforms)
	for i, p := range env.CommsPlatforms {
		p.DestIDs = env.adjacentCommsIDs(i)
	}
	for k, d := range env.DisruptorPlatforms {
		d.CommsDestIDs = env.adjacentCommsIDs(numComms + k)
	}
}

func (env *Environment) adjacentCommsIDs(rowIndex int) []string {
	numComms := len(env.CommsPlatforms)
	ids := make([]string, 0, numComms)
	row := env.AdjMatrix[rowIndex]
	for j := 0; j < numComms; j++ {
		if row[j] {
			ids = append(ids, env.CommsPlatforms[j].ID)
		}
	}
	return ids
}

// deliverDelayedSnapshot pops the oldest queued grid and, filtered by
// adjacency, assigns it as each disruptor's ObservedEnv. Invariant: the
// queue must be full both before and after this step's enqueue (checked
// in Step via the length comparison after append).
func (env *Environment) deliverDelayedSnapshot() {
	if len(env.delayQueue) == 0 {
		panic("acme: disruptor delay queue unexpectedly empty")
	}
	raw := env.delayQueue[0]
	env.delayQueue = env.delayQueue[1:]

	numCoord := len(env.Coordinators)
	for k := range env.DisruptorPlatforms {
		filtered := env.filterSnapshotForDisruptor(raw, k)
		env.DisruptorPlatforms[k].ObservedEnv = &Snapshot{
			CoordinatorRows: filtered[:numCoord],
			DisruptorRows:   filtered[numCoord:],
		}
	}
}

func (env *Environment) filterSnapshotForDisruptor(raw Grid, k int) Grid {
	out := copyGrid(raw)
	numComms := len(env.CommsPlatforms)
	numCoord := len(env.Coordinators)
	selfCol := numComms + k

	for r := 0; r < numCoord; r++ {
		for b, e := range out[r] {
			if e == nil {
				continue
			}
			h := e.emissionHeader()
			srcIdx, ok := env.commsIndex[h.SourceID]
			if !ok {
				continue
			}
			if !env.AdjMatrix[srcIdx][selfCol] {
				out[r][b] = nil
			}
		}
	}

	for dIdx := range env.DisruptorPlatforms {
		row := numCoord + dIdx
		for b, e := range out[row] {
			if e == nil || dIdx == k {
				continue
			}
			h := e.emissionHeader()
			srcIdx, ok := env.disruptorIndex[h.SourceID]
			if !ok || srcIdx == k {
				continue
			}
			if !env.AdjMatrix[numComms+srcIdx][selfCol] {
				out[row][b] = nil
			}
		}
	}

	return out
}

// fanOut stamps EmissionTime on every occupied cell, logs every
// comms-sourced emission into txLog unconditionally, and returns the
// per-comms-platform batch of emissions that adjacency actually allows
// through.
func (env *Environment) fanOut() [][]Emission {
	numComms := len(env.CommsPlatforms)
	txData := make([][]Emission, numComms)

	for _, row := range env.bins {
		for _, e := range row {
			if e == nil {
				continue
			}
			h := e.emissionHeader()
			h.EmissionTime = env.ElapsedTime

			var srcIdx int
			if h.SourceKind == SourceComms {
				idx, ok := env.commsIndex[h.SourceID]
				if !ok {
					continue
				}
				srcIdx = idx
			} else {
				idx, ok := env.disruptorIndex[h.SourceID]
				if !ok {
					continue
				}
				srcIdx = numComms + idx
			}

			for _, destID := range h.DestIDs {
				dstIdx, ok := env.commsIndex[destID]
				if !ok {
					continue
				}
				if h.SourceKind == SourceComms {
					env.txLog[srcIdx][dstIdx] = append(env.txLog[srcIdx][dstIdx], e)
				}
				if env.AdjMatrix[srcIdx][dstIdx] {
					txData[dstIdx] = append(txData[dstIdx], e)
				}
			}
		}
	}
	return txData
}

func (env *Environment) updateStatistics(txData [][]Emission) {
	for dst, batch := range txData {
		disrupted := false
		for _, e := range batch {
			if e.emissionHeader().SourceKind == SourceDisruptor {
				disrupted = true
				break
			}
		}
		if disrupted {
			continue
		}
		for _, e := range batch {
			h := e.emissionHeader()
			if h.SourceKind != SourceComms {
				continue
			}
			srcIdx, ok := env.commsIndex[h.SourceID]
			if !ok {
				continue
			}
			env.rxLog[srcIdx][dst] = append(env.rxLog[srcIdx][dst], e)
		}
	}
}

func (env *Environment) prune() {
	numComms := len(env.CommsPlatforms)
	for s := 0; s < numComms; s++ {
		for d := 0; d < numComms; d++ {
			env.txLog[s][d] = pruneLog(env.txLog[s][d], env.ElapsedTime, env.WindowSize)
			env.rxLog[s][d] = pruneLog(env.rxLog[s][d], env.ElapsedTime, env.WindowSize)
		}
	}
}

func pruneLog(log []Emission, elapsedTime, windowSize float64) []Emission {
	i := 0
	for i < len(log) && elapsedTime-log[i].emissionHeader().EmissionTime > windowSize {
		i++
	}
	return log[i:]
}

// TrafficStatistics returns the current C x C delivery-ratio matrix: entry
// (s, d) is len(rxLog[s][d]) / len(txLog[s][d]) when txLog[s][d] is
// non-empty, else 0.
func (env *Environment) TrafficStatistics() [][]float64 {
	numComms := len(env.CommsPlatforms)
	stats := make([][]float64, numComms)
	for s := 0; s < numComms; s++ {
		stats[s] = make([]float64, numComms)
		for d := 0; d < numComms; d++ {
			txCount := len(env.txLog[s][d])
			if txCount == 0 {
				continue
			}
			stats[s][d] = float64(len(env.rxLog[s][d])) / float64(txCount)
		}
	}
	return stats
}

// TxLog returns the logged attempted Packets/Acks from src to dst.
func (env *Environment) TxLog(srcID, dstID string) ([]Emission, error) {
	s, ok := env.commsIndex[srcID]
	if !ok {
		return nil, fmt.Errorf("acme: unknown comms platform %q", srcID)
	}
	d, ok := env.commsIndex[dstID]
	if !ok {
		return nil, fmt.Errorf("acme: unknown comms platform %q", dstID)
	}
	return env.txLog[s][d], nil
}

// RxLog returns the logged successfully-received Packets/Acks from src to dst.
func (env *Environment) RxLog(srcID, dstID string) ([]Emission, error) {
	s, ok := env.commsIndex[srcID]
	if !ok {
		return nil, fmt.Errorf("acme: unknown comms platform %q", srcID)
	}
	d, ok := env.commsIndex[dstID]
	if !ok {
		return nil, fmt.Errorf("acme: unknown comms platform %q", dstID)
	}
	return env.rxLog[s][d], nil
}
