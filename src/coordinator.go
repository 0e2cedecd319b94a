package acme

import "strings"

/*------------------------------------------------------------------
 *
 * Purpose:	Medium access control: selects at most one packet per
 *		frequency bin per step, from a group of CommsPlatforms.
 *
 * Description:	Three policies are supported: round-robin (RR), time
 *		division (TDMA, one bin only), and frequency division
 *		(FDMA, at least one bin per platform).
 *
 *---------------------------------------------------------------*/

// MACMethod names a medium access control policy.
type MACMethod int

const (
	MACRoundRobin MACMethod = iota
	MACTDMA
	MACFDMA
)

func (m MACMethod) String() string {
	switch m {
	case MACRoundRobin:
		return "rr"
	case MACTDMA:
		return "tdma"
	case MACFDMA:
		return "fdma"
	default:
		return "unknown"
	}
}

// ParseMACMethod parses the scenario-file spelling of a MAC method.
func ParseMACMethod(s string) (MACMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rr", "round-robin", "round_robin", "":
		return MACRoundRobin, nil
	case "tdma":
		return MACTDMA, nil
	case "fdma":
		return MACFDMA, nil
	default:
		return 0, configErrorf("medium_access_method", "unrecognized MAC method %q", s)
	}
}

// Coordinator multiplexes a group of CommsPlatforms onto a shared set of
// frequency bins, one coordinator per group. The simulator currently
// supports exactly one Coordinator spanning all CommsPlatforms; the
// adjacency and bin-grid data structures would accommodate more, but
// routing across coordinators is unspecified.
type Coordinator struct {
	Platforms   []*CommsPlatform
	PlatformIDs []string
	NumBins     int
	MAC         MACMethod

	tdmaIndex int
}

// NewCoordinator validates the MAC method's dimensional requirements
// against numBins and the platform count.
func NewCoordinator(platforms []*CommsPlatform, numBins int, mac MACMethod) (*Coordinator, error) {
	if numBins < 1 {
		return nil, configErrorf("num_frequency_bins", "must be at least 1")
	}
	if mac == MACTDMA && numBins != 1 {
		return nil, configErrorf("num_frequency_bins", "TDMA requires exactly one frequency bin, got %d", numBins)
	}
	if mac == MACFDMA && numBins < len(platforms) {
		return nil, configErrorf("num_frequency_bins", "FDMA requires at least %d bins for %d platforms, got %d", len(platforms), len(platforms), numBins)
	}

	ids := make([]string, len(platforms))
	for i, p := range platforms {
		ids[i] = p.ID
	}
	return &Coordinator{Platforms: platforms, PlatformIDs: ids, NumBins: numBins, MAC: mac}, nil
}

// Step drains exactly one item from each chosen platform's transmit queue
// and returns the resulting bin vector (length NumBins, nil for empty
// bins). Every filled cell has FreqBin and Position stamped to match its
// assigned index and source platform.
func (c *Coordinator) Step() []Emission {
	var bins []Emission
	switch c.MAC {
	case MACRoundRobin:
		bins = c.stepRoundRobin()
	case MACTDMA:
		bins = c.stepTDMA()
	case MACFDMA:
		bins = c.stepFDMA()
	default:
		panic("acme: coordinator has unknown MAC method")
	}

	for bin, e := range bins {
		if e == nil {
			continue
		}
		h := e.emissionHeader()
		h.FreqBin = bin
		if idx := indexOfString(c.PlatformIDs, h.SourceID); idx >= 0 {
			h.Position = c.Platforms[idx].Pos
		}
	}
	return bins
}

func (c *Coordinator) stepRoundRobin() []Emission {
	bins := make([]Emission, c.NumBins)
	idx := 0
	for _, p := range c.Platforms {
		if idx == c.NumBins {
			break
		}
		if e, ok := p.GetData(); ok {
			bins[idx] = e
			idx++
		}
	}
	return bins
}

func (c *Coordinator) stepTDMA() []Emission {
	bins := make([]Emission, 1)
	if len(c.Platforms) > 0 {
		p := c.Platforms[c.tdmaIndex]
		if e, ok := p.GetData(); ok {
			bins[0] = e
		}
		c.tdmaIndex = (c.tdmaIndex + 1) % len(c.Platforms)
	}
	return bins
}

func (c *Coordinator) stepFDMA() []Emission {
	bins := make([]Emission, c.NumBins)
	for i, p := range c.Platforms {
		if e, ok := p.GetData(); ok {
			bins[i] = e
		}
	}
	return bins
}

func indexOfString(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
