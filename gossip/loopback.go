// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Loopback is an in-process Transport: every Publish is delivered
// directly to locally-registered Subscribe handlers, with no network
// hop. It is the transport used for single-node operation and for
// every test in this tree that exercises a round's gossip ingestion
// path. Grounded on utils/networking/zmq4.Transport's RWMutex-guarded
// handler map, generalized from one handler per message type to a
// subscriber list per topic.
type Loopback struct {
	nodeID  string
	timeout backoff.BackOff
	logger  *zap.Logger

	mu   sync.RWMutex
	subs map[Topic]map[int]Handler
	next int
}

// NewLoopback constructs a Loopback transport identified as nodeID,
// retrying a failed handler delivery with an exponential backoff
// bounded by maxElapsed before giving up on that one subscriber.
func NewLoopback(nodeID string, maxElapsed time.Duration, logger *zap.Logger) *Loopback {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	return &Loopback{
		nodeID:  nodeID,
		timeout: b,
		logger:  logger,
		subs:    make(map[Topic]map[int]Handler),
	}
}

// Publish fans the envelope out to every current subscriber of topic
// concurrently, retrying each subscriber's delivery independently with
// backoff. A subscriber that still errors after its backoff budget is
// logged and otherwise ignored — best-effort, never propagated to the
// caller. Publish returns once every subscriber's delivery has
// succeeded or used up its backoff budget.
func (l *Loopback) Publish(ctx context.Context, topic Topic, from string, payload []byte) error {
	env := Envelope{
		Topic:       topic,
		From:        from,
		Payload:     payload,
		PublishedAt: timestamppb.Now(),
	}

	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.subs[topic]))
	for _, h := range l.subs[topic] {
		handlers = append(handlers, h)
	}
	l.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handlers {
		h := h
		g.Go(func() error {
			deliver := func() error { return h(env) }
			if err := backoff.Retry(deliver, backoff.WithContext(l.cloneBackoff(), gctx)); err != nil {
				l.logger.Warn("gossip: delivery abandoned after retries",
					zap.String("topic", string(topic)), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// Subscribe registers handler for topic.
func (l *Loopback) Subscribe(topic Topic, handler Handler) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subs[topic] == nil {
		l.subs[topic] = make(map[int]Handler)
	}
	id := l.next
	l.next++
	l.subs[topic][id] = handler

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[topic], id)
	}
}

// cloneBackoff returns a fresh BackOff instance so concurrent
// deliveries within one Publish don't share retry state.
func (l *Loopback) cloneBackoff() backoff.BackOff {
	if eb, ok := l.timeout.(*backoff.ExponentialBackOff); ok {
		fresh := backoff.NewExponentialBackOff()
		fresh.MaxElapsedTime = eb.MaxElapsedTime
		return fresh
	}
	return l.timeout
}
