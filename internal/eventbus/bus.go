// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

// Package eventbus carries recorded-event notifications over an in-process
// Watermill pub/sub channel. The event store write itself stays synchronous;
// the bus only fans the fact out to interested consumers, so a slow consumer
// never delays request handling.
package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/recserve/recserve/internal/logging"
)

// TopicEventRecorded carries one message per recorded interaction.
const TopicEventRecorded = "events.recorded"

// Event is the bus payload for one recorded interaction.
type Event struct {
	UserID     int64     `json:"user_id"`
	ItemID     int64     `json:"item_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Bus is an in-process publish/subscribe channel for recorded events.
// It satisfies recommend.EventNotifier on the publish side.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the bus with a buffered output channel so publishing does
// not block on consumers.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, NewWatermillLogger()),
	}
}

// EventRecorded publishes a notification for an already-stored event.
// Publish failures are logged, never propagated: the store write has
// succeeded and must not be reported as failed.
func (b *Bus) EventRecorded(userID, itemID int64) {
	evt := Event{UserID: userID, ItemID: itemID, RecordedAt: time.Now().UTC()}
	payload, err := json.Marshal(evt)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode event notification")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicEventRecorded, msg); err != nil {
		logging.Error().Err(err).Int64("user_id", userID).Int64("item_id", itemID).
			Msg("failed to publish event notification")
	}
}

// Subscribe returns the notification stream. Each consumer gets its own
// subscription; messages published before subscribing are not replayed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, TopicEventRecorded)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicEventRecorded, err)
	}
	return ch, nil
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
