package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/encodeous/routesim/state"
	"google.golang.org/protobuf/encoding/protowire"
)

// Messages use the protobuf wire format. Field 15 tags the protocol, the body lives in the
// protocol's own repeated field:
//
//	DV: 1 = repeated entry   {1: node, 2: cost}
//	LS: 2 = repeated ad      {1: owner, 2: version, 3: repeated entry}
//	PV: 3 = repeated path    {1: dest, 2: cost, 3: repeated hop}

var (
	ErrMalformed     = errors.New("codec: malformed message")
	ErrWrongProtocol = errors.New("codec: message belongs to another protocol")
)

const (
	fieldDVEntry  protowire.Number = 1
	fieldLSAd     protowire.Number = 2
	fieldPVRoute  protowire.Number = 3
	fieldProtocol protowire.Number = 15

	fieldEntryNode protowire.Number = 1
	fieldEntryCost protowire.Number = 2

	fieldAdOwner   protowire.Number = 1
	fieldAdVersion protowire.Number = 2
	fieldAdEntry   protowire.Number = 3

	fieldRouteDest protowire.Number = 1
	fieldRouteCost protowire.Number = 2
	fieldRouteHop  protowire.Number = 3
)

var protocolTags = map[Protocol]uint64{DV: 1, LS: 2, PV: 3}

type Message interface {
	Protocol() Protocol
	appendBody(b []byte) []byte
}

type CostEntry struct {
	Node state.NodeId
	Cost state.Cost
}

// DVMessage is a distance vector, already poisoned for its receiver
type DVMessage struct {
	Vector []CostEntry
}

type LinkStateAd struct {
	Owner   state.NodeId
	Version uint64
	Cost    []CostEntry
}

// LSMessage is a full link-state database
type LSMessage struct {
	Ads []LinkStateAd
}

type PathEntry struct {
	Dest state.NodeId
	Cost state.Cost
	Path []state.NodeId
}

type PVMessage struct {
	Routes []PathEntry
}

func (*DVMessage) Protocol() Protocol { return DV }
func (*LSMessage) Protocol() Protocol { return LS }
func (*PVMessage) Protocol() Protocol { return PV }

func Encode(m Message) []byte {
	b := protowire.AppendTag(nil, fieldProtocol, protowire.VarintType)
	b = protowire.AppendVarint(b, protocolTags[m.Protocol()])
	return m.appendBody(b)
}

func appendEntry(b []byte, num protowire.Number, e CostEntry) []byte {
	var sub []byte
	sub = protowire.AppendTag(sub, fieldEntryNode, protowire.BytesType)
	sub = protowire.AppendString(sub, string(e.Node))
	sub = protowire.AppendTag(sub, fieldEntryCost, protowire.VarintType)
	sub = protowire.AppendVarint(sub, uint64(e.Cost))
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}

func (m *DVMessage) appendBody(b []byte) []byte {
	for _, e := range m.Vector {
		b = appendEntry(b, fieldDVEntry, e)
	}
	return b
}

func (m *LSMessage) appendBody(b []byte) []byte {
	for _, ad := range m.Ads {
		var sub []byte
		sub = protowire.AppendTag(sub, fieldAdOwner, protowire.BytesType)
		sub = protowire.AppendString(sub, string(ad.Owner))
		sub = protowire.AppendTag(sub, fieldAdVersion, protowire.VarintType)
		sub = protowire.AppendVarint(sub, ad.Version)
		for _, e := range ad.Cost {
			sub = appendEntry(sub, fieldAdEntry, e)
		}
		b = protowire.AppendTag(b, fieldLSAd, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
	}
	return b
}

func (m *PVMessage) appendBody(b []byte) []byte {
	for _, r := range m.Routes {
		var sub []byte
		sub = protowire.AppendTag(sub, fieldRouteDest, protowire.BytesType)
		sub = protowire.AppendString(sub, string(r.Dest))
		sub = protowire.AppendTag(sub, fieldRouteCost, protowire.VarintType)
		sub = protowire.AppendVarint(sub, uint64(r.Cost))
		for _, hop := range r.Path {
			sub = protowire.AppendTag(sub, fieldRouteHop, protowire.BytesType)
			sub = protowire.AppendString(sub, string(hop))
		}
		b = protowire.AppendTag(b, fieldPVRoute, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
	}
	return b
}

// fieldFunc consumes the value of one field and returns the number of bytes read,
// or 0 to have the field skipped
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func consumeBytes(num protowire.Number, typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeVarint(num protowire.Number, typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeCost(num protowire.Number, typ protowire.Type, b []byte) (state.Cost, int, error) {
	v, n, err := consumeVarint(num, typ, b)
	if err != nil {
		return 0, 0, err
	}
	if v > math.MaxUint32 {
		return 0, 0, fmt.Errorf("%w: cost %d out of range", ErrMalformed, v)
	}
	return state.Cost(v), n, nil
}

func consumeNode(num protowire.Number, typ protowire.Type, b []byte) (state.NodeId, int, error) {
	v, n, err := consumeBytes(num, typ, b)
	if err != nil {
		return "", 0, err
	}
	if len(v) == 0 {
		return "", 0, fmt.Errorf("%w: empty node id", ErrMalformed)
	}
	return state.NodeId(v), n, nil
}

func decodeEntry(b []byte) (CostEntry, error) {
	var e CostEntry
	hasCost := false
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var n int
		var err error
		switch num {
		case fieldEntryNode:
			e.Node, n, err = consumeNode(num, typ, b)
		case fieldEntryCost:
			e.Cost, n, err = consumeCost(num, typ, b)
			hasCost = true
		}
		return n, err
	})
	if err != nil {
		return e, err
	}
	if e.Node == "" || !hasCost {
		return e, fmt.Errorf("%w: incomplete cost entry", ErrMalformed)
	}
	return e, nil
}

func decodeAd(b []byte) (LinkStateAd, error) {
	var ad LinkStateAd
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAdOwner:
			owner, n, err := consumeNode(num, typ, b)
			ad.Owner = owner
			return n, err
		case fieldAdVersion:
			v, n, err := consumeVarint(num, typ, b)
			ad.Version = v
			return n, err
		case fieldAdEntry:
			sub, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			e, err := decodeEntry(sub)
			if err != nil {
				return 0, err
			}
			ad.Cost = append(ad.Cost, e)
			return n, nil
		}
		return 0, nil
	})
	if err == nil && ad.Owner == "" {
		err = fmt.Errorf("%w: link-state ad without owner", ErrMalformed)
	}
	return ad, err
}

func decodeRoute(b []byte) (PathEntry, error) {
	var r PathEntry
	hasCost := false
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldRouteDest:
			dest, n, err := consumeNode(num, typ, b)
			r.Dest = dest
			return n, err
		case fieldRouteCost:
			c, n, err := consumeCost(num, typ, b)
			r.Cost = c
			hasCost = true
			return n, err
		case fieldRouteHop:
			hop, n, err := consumeNode(num, typ, b)
			if err != nil {
				return 0, err
			}
			if len(r.Path) >= state.MaxPathLen {
				return 0, fmt.Errorf("%w: path longer than %d", ErrMalformed, state.MaxPathLen)
			}
			r.Path = append(r.Path, hop)
			return n, nil
		}
		return 0, nil
	})
	if err == nil && (r.Dest == "" || !hasCost) {
		err = fmt.Errorf("%w: incomplete path entry", ErrMalformed)
	}
	return r, err
}

// Decode parses a message of any protocol
func Decode(b []byte) (Message, error) {
	var tag uint64
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldProtocol {
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		tag = v
		return n, err
	})
	if err != nil {
		return nil, err
	}
	var msg Message
	switch tag {
	case protocolTags[DV]:
		msg = &DVMessage{}
	case protocolTags[LS]:
		msg = &LSMessage{}
	case protocolTags[PV]:
		msg = &PVMessage{}
	default:
		return nil, fmt.Errorf("%w: unknown protocol tag %d", ErrMalformed, tag)
	}

	err = walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldProtocol {
			return 0, nil
		}
		var want protowire.Number
		switch msg.(type) {
		case *DVMessage:
			want = fieldDVEntry
		case *LSMessage:
			want = fieldLSAd
		case *PVMessage:
			want = fieldPVRoute
		}
		if num != want {
			return 0, nil
		}
		sub, n, err := consumeBytes(num, typ, b)
		if err != nil {
			return 0, err
		}
		switch m := msg.(type) {
		case *DVMessage:
			e, err := decodeEntry(sub)
			if err != nil {
				return 0, err
			}
			m.Vector = append(m.Vector, e)
		case *LSMessage:
			ad, err := decodeAd(sub)
			if err != nil {
				return 0, err
			}
			m.Ads = append(m.Ads, ad)
		case *PVMessage:
			r, err := decodeRoute(sub)
			if err != nil {
				return 0, err
			}
			m.Routes = append(m.Routes, r)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeAs[T Message](b []byte) (T, error) {
	var zero T
	msg, err := Decode(b)
	if err != nil {
		return zero, err
	}
	m, ok := msg.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %s", ErrWrongProtocol, msg.Protocol())
	}
	return m, nil
}

func DecodeDV(b []byte) (*DVMessage, error) {
	return decodeAs[*DVMessage](b)
}

func DecodeLS(b []byte) (*LSMessage, error) {
	return decodeAs[*LSMessage](b)
}

func DecodePV(b []byte) (*PVMessage, error) {
	return decodeAs[*PVMessage](b)
}
