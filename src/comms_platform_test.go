package acme

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommsPlatform(t *testing.T, id string, capacity int, doAck bool) *CommsPlatform {
	t.Helper()
	p, err := NewCommsPlatform(id, capacity, doAck, r3.Vector{}, r3.Vector{}, r3.Vector{})
	require.NoError(t, err)
	return p
}

func TestNewCommsPlatformRejectsZeroCapacity(t *testing.T) {
	_, err := NewCommsPlatform("c1", 0, false, r3.Vector{}, r3.Vector{}, r3.Vector{})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestTxDataEnqueuesDeepCopy(t *testing.T) {
	p := newTestCommsPlatform(t, "c1", 10, false)

	payload := 0.7
	p.TxData(payload, []string{"c2"})

	e, ok := p.GetData()
	require.True(t, ok)
	pkt, ok := e.(*Packet)
	require.True(t, ok)
	assert.Equal(t, 0.7, pkt.Payload)
	assert.Equal(t, []string{"c2"}, pkt.DestIDs)
	assert.Equal(t, SourceComms, pkt.SourceKind)
}

func TestTxDataOverflowDropsIncomingPacket(t *testing.T) {
	p := newTestCommsPlatform(t, "c1", 1, false)

	p.TxData(1.0, []string{"c2"})
	p.TxData(2.0, []string{"c2"}) // queue full, should be dropped with a warning

	e, ok := p.GetData()
	require.True(t, ok)
	pkt := e.(*Packet)
	assert.Equal(t, 1.0, pkt.Payload, "the first enqueued packet should survive, not the second")

	_, ok = p.GetData()
	assert.False(t, ok)
}

func TestRxDataFIFO(t *testing.T) {
	p := newTestCommsPlatform(t, "c1", 10, false)

	p.PutData([]Emission{
		&Packet{EmissionHeader: EmissionHeader{SourceID: "c2", SourceKind: SourceComms}, Payload: "first"},
	})
	p.PutData([]Emission{
		&Packet{EmissionHeader: EmissionHeader{SourceID: "c2", SourceKind: SourceComms}, Payload: "second"},
	})

	v1, ok := p.RxData()
	require.True(t, ok)
	assert.Equal(t, "first", v1)

	v2, ok := p.RxData()
	require.True(t, ok)
	assert.Equal(t, "second", v2)

	_, ok = p.RxData()
	assert.False(t, ok)
}

func TestPutDataDiscardsWholeBatchOnDisruption(t *testing.T) {
	p := newTestCommsPlatform(t, "c2", 10, false)

	p.PutData([]Emission{
		&Packet{EmissionHeader: EmissionHeader{SourceID: "c1", SourceKind: SourceComms}, Payload: "payload"},
		&DisruptionToken{EmissionHeader{SourceID: "d1", SourceKind: SourceDisruptor}},
	})

	_, ok := p.RxData()
	assert.False(t, ok, "a disruption token anywhere in the batch must discard the entire batch")
}

func TestPutDataDropsAcksFromUserView(t *testing.T) {
	p := newTestCommsPlatform(t, "c1", 10, false)

	p.PutData([]Emission{
		&Ack{Packet{EmissionHeader: EmissionHeader{SourceID: "c2", SourceKind: SourceComms}, Payload: 1}},
	})

	_, ok := p.RxData()
	assert.False(t, ok, "an Ack must never reach the user-facing receive queue")
}

func TestPutDataGeneratesAckWhenEnabled(t *testing.T) {
	p := newTestCommsPlatform(t, "c1", 10, true)

	p.PutData([]Emission{
		&Packet{EmissionHeader: EmissionHeader{SourceID: "c2", SourceKind: SourceComms}, Payload: "hi", MsgID: 42},
	})

	e, ok := p.GetData()
	require.True(t, ok)
	ack, ok := e.(*Ack)
	require.True(t, ok)
	assert.Equal(t, 42, ack.Payload)
	assert.Equal(t, []string{"c2"}, ack.DestIDs)
}

func TestPutDataNoAckWhenDisabled(t *testing.T) {
	p := newTestCommsPlatform(t, "c1", 10, false)

	p.PutData([]Emission{
		&Packet{EmissionHeader: EmissionHeader{SourceID: "c2", SourceKind: SourceComms}, Payload: "hi", MsgID: 1},
	})

	_, ok := p.GetData()
	assert.False(t, ok)
}

func TestDeepCopySymmetry(t *testing.T) {
	orig := []int{1, 2, 3}

	copied, err := deepCopy(orig)
	require.NoError(t, err)

	got := copied.([]int)
	got[0] = 999

	assert.Equal(t, []int{1, 2, 3}, orig, "mutating the copy must never affect the original")
}

func TestDeepCopyRejectsUnencodableValue(t *testing.T) {
	_, err := deepCopy(func() {})
	assert.Error(t, err)
}
