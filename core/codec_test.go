package core

import (
	"strings"
	"testing"

	"github.com/encodeous/routesim/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestCodecRoundTrip(t *testing.T) {
	msgs := []Message{
		&DVMessage{Vector: vector("a", 0, "b", state.INF, "c", 12)},
		&LSMessage{Ads: []LinkStateAd{
			lsAd("a", 3, "a", 0, "b", 1),
			lsAd("b", 1<<40, "b", 0, "a", state.INF),
		}},
		&PVMessage{Routes: []PathEntry{
			pvRoute("a", 0, "a"),
			pvRoute("c", 2, "a", "b", "c"),
			pvRoute("d", state.INF),
		}},
	}
	for _, m := range msgs {
		t.Run(m.Protocol().String(), func(t *testing.T) {
			got, err := Decode(Encode(m))
			require.NoError(t, err)
			if diff := cmp.Diff(m, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecWrongProtocol(t *testing.T) {
	b := Encode(&DVMessage{Vector: vector("a", 1)})
	_, err := DecodeLS(b)
	assert.ErrorIs(t, err, ErrWrongProtocol)
	_, err = DecodePV(b)
	assert.ErrorIs(t, err, ErrWrongProtocol)
	_, err = DecodeDV(b)
	assert.NoError(t, err)
}

func TestCodecMalformed(t *testing.T) {
	valid := Encode(&PVMessage{Routes: []PathEntry{pvRoute("c", 2, "a", "b", "c")}})

	entry := func(fields ...[]byte) []byte {
		var sub []byte
		for _, f := range fields {
			sub = append(sub, f...)
		}
		b := protowire.AppendTag(nil, fieldProtocol, protowire.VarintType)
		b = protowire.AppendVarint(b, protocolTags[DV])
		b = protowire.AppendTag(b, fieldDVEntry, protowire.BytesType)
		return protowire.AppendBytes(b, sub)
	}
	node := func(id string) []byte {
		b := protowire.AppendTag(nil, fieldEntryNode, protowire.BytesType)
		return protowire.AppendString(b, id)
	}
	cost := func(v uint64) []byte {
		b := protowire.AppendTag(nil, fieldEntryCost, protowire.VarintType)
		return protowire.AppendVarint(b, v)
	}

	longPath := make([]state.NodeId, state.MaxPathLen+1)
	for i := range longPath {
		longPath[i] = "x"
	}

	tests := map[string][]byte{
		"empty":          {},
		"garbage":        {0xff, 0xff},
		"truncated":      valid[:len(valid)-1],
		"missing tag":    valid[2:],
		"unknown tag":    protowire.AppendVarint(protowire.AppendTag(nil, fieldProtocol, protowire.VarintType), 9),
		"cost overflow":  entry(node("a"), cost(1<<40)),
		"empty node":     entry(node(""), cost(1)),
		"missing cost":   entry(node("a")),
		"wire type":      entry(protowire.AppendVarint(protowire.AppendTag(nil, fieldEntryNode, protowire.VarintType), 1), cost(1)),
		"path too long":  Encode(&PVMessage{Routes: []PathEntry{{Dest: "x", Cost: 1, Path: longPath}}}),
		"ad missing own": Encode(&LSMessage{Ads: []LinkStateAd{{Version: 1}}}),
	}
	for name, b := range tests {
		t.Run(strings.ReplaceAll(name, " ", "-"), func(t *testing.T) {
			_, err := Decode(b)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCodecSkipsUnknownFields(t *testing.T) {
	b := Encode(&DVMessage{Vector: vector("a", 4)})
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 77)
	b = protowire.AppendTag(b, 10, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")

	msg, err := DecodeDV(b)
	require.NoError(t, err)
	assert.Equal(t, vector("a", 4), msg.Vector)
}
