// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import "context"

// Handler processes one delivered Envelope. A returned error marks
// the delivery attempt as failed — Loopback retries it with backoff;
// a real network transport would do the same for a dropped send.
type Handler func(Envelope) error

// Transport is the transport-agnostic publish/subscribe contract
// spec.md §6 names: the core only ever talks to this interface, never
// to a concrete network stack. A production deployment plugs in the
// teacher's own gRPC or ZeroMQ networking layers behind it; this tree
// ships Loopback for tests and single-node operation.
type Transport interface {
	// Publish best-effort delivers msg to every current subscriber of
	// topic. Failed deliveries are retried up to the transport's
	// configured timeout and then dropped rather than returned to the
	// caller — the core never assumes delivery.
	Publish(ctx context.Context, topic Topic, from string, payload []byte) error

	// Subscribe registers handler for topic and returns a function
	// that removes it.
	Subscribe(topic Topic, handler Handler) (unsubscribe func())
}
