// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"encoding/gob"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/ippan-network/dlc-consensus/types"
)

// Topic names the four gossip channels §4.11 names. The core treats
// every topic identically — it is the transport's job to route them.
type Topic string

const (
	TopicTx          Topic = "tx"
	TopicBlocks      Topic = "blocks"
	TopicTips        Topic = "tips"
	TopicDAGVertices Topic = "dag_vertices"
)

// TxAnnouncement carries one freshly seen transaction.
type TxAnnouncement struct {
	Tx types.Transaction
}

// BlockAnnouncement carries one freshly seen block, to be admitted via
// the consumer's own dag.DAG.Admit.
type BlockAnnouncement struct {
	Block types.Block
}

// TipAnnouncement carries a peer's current DAG tip set, used to detect
// missing parents and pull them within the bounded resolution window
// spec.md §4.5 names.
type TipAnnouncement struct {
	Tips []types.BlockID
}

// DAGVertexAnnouncement carries one block's causal metadata without
// its full transaction payload — enough for a peer to decide whether
// it already has the block or needs to fetch it.
type DAGVertexAnnouncement struct {
	BlockID types.BlockID
	Parents []types.BlockID
	Round   types.RoundID
}

// Envelope is the wire frame every publish/subscribe call carries.
// Payload is the gob encoding of one of the announcement types above,
// picked by Topic, matching storage's own record codec. PublishedAt is
// a real protobuf well-known Timestamp — see DESIGN.md for why this
// one field is carried as an actual google.golang.org/protobuf
// message. Loopback hands the Envelope to handlers in process without
// encoding it.
type Envelope struct {
	Topic       Topic
	From        string
	Payload     []byte
	PublishedAt *timestamppb.Timestamp
}

func init() {
	gob.Register(TxAnnouncement{})
	gob.Register(BlockAnnouncement{})
	gob.Register(TipAnnouncement{})
	gob.Register(DAGVertexAnnouncement{})
}

// EncodePayload gob-encodes one of the announcement types into an
// Envelope's Payload field.
func EncodePayload(v interface{}) ([]byte, error) {
	return gobEncode(v)
}

// DecodeTxAnnouncement decodes a TopicTx payload.
func DecodeTxAnnouncement(payload []byte) (TxAnnouncement, error) {
	var v TxAnnouncement
	err := gobDecode(payload, &v)
	return v, err
}

// DecodeBlockAnnouncement decodes a TopicBlocks payload.
func DecodeBlockAnnouncement(payload []byte) (BlockAnnouncement, error) {
	var v BlockAnnouncement
	err := gobDecode(payload, &v)
	return v, err
}

// DecodeTipAnnouncement decodes a TopicTips payload.
func DecodeTipAnnouncement(payload []byte) (TipAnnouncement, error) {
	var v TipAnnouncement
	err := gobDecode(payload, &v)
	return v, err
}

// DecodeDAGVertexAnnouncement decodes a TopicDAGVertices payload.
func DecodeDAGVertexAnnouncement(payload []byte) (DAGVertexAnnouncement, error) {
	var v DAGVertexAnnouncement
	err := gobDecode(payload, &v)
	return v, err
}
