// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package auth

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/adsgate/internal/logging"
)

// TokenTopic carries token lifecycle events.
const TokenTopic = "adsgate.tokens"

// Token event types.
const (
	EventTokenStored    = "token.stored"
	EventTokenRefreshed = "token.refreshed"
	EventTokenRevoked   = "token.revoked"
)

// TokenEvent never carries token material.
type TokenEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// NewEventBus returns the in-process pub/sub used for token events.
func NewEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewSlogLogger(logging.NewSlogLogger("events")),
	)
}

// DecodeTokenEvent parses a message published on TokenTopic.
func DecodeTokenEvent(msg *message.Message) (TokenEvent, error) {
	var ev TokenEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return TokenEvent{}, fmt.Errorf("decode token event %s: %w", msg.UUID, err)
	}
	return ev, nil
}

func (m *TokenManager) publish(eventType, userID string) {
	if m.events == nil {
		return
	}
	payload, err := json.Marshal(TokenEvent{Type: eventType, UserID: userID, At: m.now()})
	if err != nil {
		logging.Warn().Err(err).Str("event", eventType).Msg("Failed to encode token event")
		return
	}
	if err := m.events.Publish(TokenTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		logging.Warn().Err(err).Str("event", eventType).Str("user_id", userID).Msg("Failed to publish token event")
	}
}
