package acme

import "github.com/golang/geo/r3"

/*------------------------------------------------------------------
 *
 * Purpose:	Tagged record for every unit placed on the shared medium:
 *		data packets, acknowledgements, and disruption tokens.
 *
 * Description:	All three variants share a header (source, destination
 *		list, creation/emission time, frequency bin, position).
 *		They are mutated exactly twice after creation: once by
 *		a Coordinator or DisruptorPlatform (bin + position), and
 *		once by the Environment (emission time). Everything else
 *		about an Emission is immutable once it enters a bin.
 *
 *---------------------------------------------------------------*/

// SourceKind distinguishes which population of platform produced an
// Emission: a CommsPlatform or a DisruptorPlatform.
type SourceKind int

const (
	SourceComms SourceKind = iota
	SourceDisruptor
)

func (k SourceKind) String() string {
	switch k {
	case SourceComms:
		return "comms"
	case SourceDisruptor:
		return "disruptor"
	default:
		return "unknown"
	}
}

// EmissionHeader carries the fields common to every Emission variant.
type EmissionHeader struct {
	SourceID     string
	DestIDs      []string
	SourceKind   SourceKind
	CreatedTime  float64
	EmissionTime float64 // zero until stamped by Environment.Step
	FreqBin      int
	Position     r3.Vector
}

// Emission is the sum type of everything that can occupy a frequency bin:
// Packet, Ack, or DisruptionToken. Switch on the concrete type to recover
// the variant; emissionHeader gives uniform access to the shared fields.
type Emission interface {
	emissionHeader() *EmissionHeader
}

// Packet carries a user payload from one CommsPlatform toward one or more
// destination CommsPlatforms (multicast: dest_ids may name several ids,
// but only one Packet occupies the medium).
type Packet struct {
	EmissionHeader
	Payload any
	MsgID   int
}

func (p *Packet) emissionHeader() *EmissionHeader { return &p.EmissionHeader }

// Ack is structurally a Packet: its Payload carries the MsgID being
// acknowledged and its DestIDs names only the original sender. It is a
// distinct Go type so CommsPlatform.PutData can discriminate it from a
// data Packet without an extra tag field.
type Ack struct {
	Packet
}

// DisruptionToken carries no payload and no message id. Its mere presence
// in a recipient's inbound batch for a step discards that entire batch,
// regardless of how many other emissions the batch contains.
type DisruptionToken struct {
	EmissionHeader
}

func (d *DisruptionToken) emissionHeader() *EmissionHeader { return &d.EmissionHeader }

var (
	_ Emission = (*Packet)(nil)
	_ Emission = (*Ack)(nil)
	_ Emission = (*DisruptionToken)(nil)
)
