// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package eventbus

import (
	"context"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/recserve/recserve/internal/logging"
	"github.com/recserve/recserve/internal/metrics"
)

// AuditConsumer drains the bus, counts recorded events and writes an audit
// line per event. It runs as a supervised service: Serve blocks until the
// context is canceled or the bus closes.
type AuditConsumer struct {
	bus *Bus

	processed   atomic.Int64
	parseErrors atomic.Int64
}

func NewAuditConsumer(bus *Bus) *AuditConsumer {
	return &AuditConsumer{bus: bus}
}

// Serve consumes notifications until ctx is done. Malformed payloads are
// acked and counted; an unparseable message must not wedge the stream.
func (c *AuditConsumer) Serve(ctx context.Context) error {
	ch, err := c.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	logging.Info().Msg("event audit consumer started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt Event
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				c.parseErrors.Add(1)
				logging.Error().Err(err).Str("message_uuid", msg.UUID).
					Msg("dropping malformed event notification")
				msg.Ack()
				continue
			}

			c.processed.Add(1)
			metrics.EventsRecordedTotal.Inc()
			logging.Debug().
				Int64("user_id", evt.UserID).
				Int64("item_id", evt.ItemID).
				Time("recorded_at", evt.RecordedAt).
				Msg("event recorded")
			msg.Ack()
		}
	}
}

// String identifies the consumer in supervisor logs.
func (c *AuditConsumer) String() string {
	return "event-audit-consumer"
}

// Processed returns the number of successfully handled notifications.
func (c *AuditConsumer) Processed() int64 {
	return c.processed.Load()
}

// ParseErrors returns the number of dropped malformed notifications.
func (c *AuditConsumer) ParseErrors() int64 {
	return c.parseErrors.Load()
}
