package acme

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/golang/geo/r3"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Maintains bounded tx/rx queues for a communications
 *		platform, generates acknowledgements, and issues
 *		monotonic message ids.
 *
 * Description:	TxData/RxData are the user-facing API. GetData/PutData
 *		are called by the Coordinator and Environment respectively
 *		and are not meant to be called directly by users.
 *
 *---------------------------------------------------------------*/

// DefaultQueueCapacity is used by scenario loading when a platform's
// queue_capacity is left unspecified.
const DefaultQueueCapacity = 100

// CommsPlatform models a node that exchanges Packets with other
// CommsPlatforms over the medium the Environment arbitrates.
type CommsPlatform struct {
	Kinematics

	DestIDs []string
	DoAck   bool

	txQueue []Emission
	rxQueue []any
	txCap   int
	rxCap   int

	nextMsgID int
}

// NewCommsPlatform constructs a CommsPlatform with the given queue
// capacity (applied to both tx and rx queues). queueCapacity must be at
// least 1.
func NewCommsPlatform(id string, queueCapacity int, doAck bool, pos, vel, acc r3.Vector) (*CommsPlatform, error) {
	if queueCapacity < 1 {
		return nil, configErrorf("queue_capacity", "must be at least 1 for platform %q", id)
	}
	return &CommsPlatform{
		Kinematics: newKinematics(id, pos, vel, acc),
		DoAck:      doAck,
		txCap:      queueCapacity,
		rxCap:      queueCapacity,
		nextMsgID:  1,
	}, nil
}

// Step advances this platform's kinematics by deltaT seconds.
func (p *CommsPlatform) Step(deltaT float64) {
	p.step(deltaT)
}

// TxData enqueues payload for transmission to destIDs, a multicast list.
// destIDs is not validated against connectivity: undeliverable
// destinations simply fail to be delivered downstream by the Environment.
// If the transmit queue is full, the packet is dropped and a warning is
// logged; the call otherwise never fails.
func (p *CommsPlatform) TxData(payload any, destIDs []string) {
	payloadCopy, err := deepCopy(payload)
	if err != nil {
		logger.Warn("payload is not deep-copyable, dropping", "platform_id", p.ID, "error", err)
		return
	}

	pkt := &Packet{
		EmissionHeader: EmissionHeader{
			SourceID:    p.ID,
			DestIDs:     append([]string(nil), destIDs...),
			SourceKind:  SourceComms,
			CreatedTime: p.ElapsedTime,
		},
		Payload: payloadCopy,
		MsgID:   p.nextMsgIDValue(),
	}
	p.enqueueTx(pkt)
}

// RxData pops the head of the receive queue, returning a deep copy of the
// payload and true, or (nil, false) if the queue is empty.
func (p *CommsPlatform) RxData() (any, bool) {
	if len(p.rxQueue) == 0 {
		return nil, false
	}
	payload := p.rxQueue[0]
	p.rxQueue = p.rxQueue[1:]
	payloadCopy, err := deepCopy(payload)
	if err != nil {
		// The payload was already accepted once; surface it undamaged
		// rather than dropping data the user is waiting on.
		return payload, true
	}
	return payloadCopy, true
}

// GetData pops the head of the transmit queue. Called by the Coordinator
// once per step per platform; not intended for direct user use.
func (p *CommsPlatform) GetData() (Emission, bool) {
	if len(p.txQueue) == 0 {
		return nil, false
	}
	e := p.txQueue[0]
	p.txQueue = p.txQueue[1:]
	return e, true
}

// PutData delivers a batch of emissions for this step. Called by the
// Environment once per step per platform; not intended for direct user use.
//
// If any element is a DisruptionToken, the entire batch is discarded: a
// single disruption in any bin that would arrive here nullifies reception
// from all bins for the step. Otherwise, Acks are silently dropped and
// Packet payloads are enqueued to the receive queue, generating a new Ack
// if DoAck is set.
func (p *CommsPlatform) PutData(batch []Emission) {
	for _, e := range batch {
		if _, ok := e.(*DisruptionToken); ok {
			return
		}
	}

	for _, e := range batch {
		if _, ok := e.(*Ack); ok {
			continue
		}
		pkt, ok := e.(*Packet)
		if !ok {
			continue
		}

		if len(p.rxQueue) >= p.rxCap {
			logger.Warn("receive queue full, dropping packet", "platform_id", p.ID)
			continue
		}
		p.rxQueue = append(p.rxQueue, pkt.Payload)

		if p.DoAck {
			ack := &Ack{Packet{
				EmissionHeader: EmissionHeader{
					SourceID:    p.ID,
					DestIDs:     []string{pkt.SourceID},
					SourceKind:  SourceComms,
					CreatedTime: p.ElapsedTime,
				},
				Payload: pkt.MsgID,
				MsgID:   p.nextMsgIDValue(),
			}}
			p.enqueueTx(ack)
		}
	}
}

func (p *CommsPlatform) enqueueTx(e Emission) {
	if len(p.txQueue) >= p.txCap {
		logger.Warn("transmit queue full, dropping emission", "platform_id", p.ID)
		return
	}
	p.txQueue = append(p.txQueue, e)
}

func (p *CommsPlatform) nextMsgIDValue() int {
	id := p.nextMsgID
	p.nextMsgID++
	return id
}

// deepCopy performs a structural duplication of v via a gob round-trip, so
// that mutation by the sender after TxData or by the receiver after
// RxData cannot be observed by the other side. Concrete payload types
// beyond gob's predeclared set (bool, numeric types, strings, and slices
// of those; maps are not included) must be registered with gob.Register by the caller;
// types that fail to encode return an error rather than panicking.
func deepCopy(v any) (any, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, fmt.Errorf("deep-copying payload: %w", err)
	}
	var out any
	if err := gob.NewDecoder(&buf).Decode(&out); err != nil {
		return nil, fmt.Errorf("deep-copying payload: %w", err)
	}
	return out, nil
}
