// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	applog "liveplot/internal/log"
	"liveplot/internal/render"
)

// Kind identifies the payload of a packet.
type Kind uint8

const (
	KindLines Kind = 1 // Y values of the primary series.
	KindMesh  Kind = 2 // Vertex elevations, row-major.
)

// HeaderSize is the encoded size of a packet header.
const HeaderSize = 4 + 8 + 1 + 2

// MaxDatagramSize is the largest UDP payload over IPv4.
const MaxDatagramSize = 65507

// MaxValues is the most values one packet can carry.
const MaxValues = (MaxDatagramSize - HeaderSize) / 4

/*
Packet layout, big-endian:

	| seq uint32 | timestamp int64 (ns) | kind uint8 | count uint16 | count x float32 |
*/

// Packet is a decoded datagram.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Kind      Kind
	Values    []float32
}

// Encode appends the wire form of p to buf. More than MaxValues values are
// truncated.
func (p *Packet) Encode(buf *bytes.Buffer) error {
	values := p.Values
	if len(values) > MaxValues {
		values = values[:MaxValues]
	}
	err := binary.Write(buf, binary.BigEndian, p.Seq)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, p.Timestamp)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, p.Kind)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(values)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, values)
	}
	return err
}

// DecodePacket parses a datagram produced by Encode.
func DecodePacket(data []byte) (Packet, error) {
	var p Packet
	if len(data) < HeaderSize {
		return p, fmt.Errorf("packet too short: %d bytes", len(data))
	}
	r := bytes.NewReader(data)
	var count uint16
	for _, field := range []any{&p.Seq, &p.Timestamp, &p.Kind, &count} {
		if err := binary.Read(r, binary.BigEndian, field); err != nil {
			return p, err
		}
	}
	p.Values = make([]float32, count)
	if err := binary.Read(r, binary.BigEndian, p.Values); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return p, fmt.Errorf("packet truncated: want %d values", count)
		}
		return p, err
	}
	return p, nil
}

// PacketSender is satisfied by Sender.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

// Publisher is a render.Surface that sends one packet per flush: the mesh
// elevations when a mesh was set, otherwise the primary series. Payloads
// longer than MaxValues are decimated to fit one datagram.
type Publisher struct {
	sender  PacketSender
	primary []string // Series ids in order of preference.
	clock   func() time.Time

	lines map[string]render.Series
	mesh  *render.Mesh
	seq   uint32

	// Reused in the hot path.
	f32    []float32
	packet *bytes.Buffer
	closed bool
}

var _ render.Surface = (*Publisher)(nil)

// NewPublisher returns a publisher sending through sender. primary lists the
// preferred series ids; with none matching, the first id in sort order is
// sent.
func NewPublisher(sender PacketSender, primary ...string) *Publisher {
	return &Publisher{
		sender:  sender,
		primary: primary,
		clock:   time.Now,
		lines:   make(map[string]render.Series),
		packet:  new(bytes.Buffer),
	}
}

// SetLines implements render.Surface.
func (p *Publisher) SetLines(id string, s render.Series) { p.lines[id] = s }

// SetMesh implements render.Surface.
func (p *Publisher) SetMesh(m render.Mesh) { p.mesh = &m }

// Flush implements render.Surface. With nothing pending it sends nothing.
// Send errors are returned; a UDP surface never reports
// render.ErrDisplayClosed.
func (p *Publisher) Flush() error {
	kind, ok := p.collect()
	if !ok {
		return nil
	}

	p.seq++
	pkt := Packet{Seq: p.seq, Timestamp: p.clock().UnixNano(), Kind: kind, Values: p.f32}
	p.packet.Reset()
	if err := pkt.Encode(p.packet); err != nil {
		return fmt.Errorf("udp encode: %w", err)
	}
	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		return err
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.seq, p.packet.Len())
	return nil
}

// collect fills p.f32 from the pending update and clears it.
func (p *Publisher) collect() (Kind, bool) {
	p.f32 = p.f32[:0]
	if p.mesh != nil {
		for _, v := range p.mesh.Vertices {
			p.f32 = append(p.f32, float32(v.Z))
		}
		p.mesh = nil
		clear(p.lines)
		p.f32 = decimate(p.f32, MaxValues)
		return KindMesh, true
	}
	if len(p.lines) == 0 {
		return 0, false
	}

	id := ""
	for _, want := range p.primary {
		if _, ok := p.lines[want]; ok {
			id = want
			break
		}
	}
	if id == "" {
		ids := make([]string, 0, len(p.lines))
		for k := range p.lines {
			ids = append(ids, k)
		}
		id = slices.Min(ids)
	}
	for _, v := range p.lines[id].Y {
		p.f32 = append(p.f32, float32(v))
	}
	clear(p.lines)
	p.f32 = decimate(p.f32, MaxValues)
	return KindLines, true
}

// decimate keeps every n-th value so that at most limit remain.
func decimate(values []float32, limit int) []float32 {
	if len(values) <= limit {
		return values
	}
	step := (len(values) + limit - 1) / limit
	n := 0
	for i := 0; i < len(values); i += step {
		values[n] = values[i]
		n++
	}
	return values[:n]
}

// Close implements render.Surface and closes the sender.
func (p *Publisher) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	applog.Debugf("UDPPublisher: Closing after %d packets", p.seq)
	return p.sender.Close()
}
