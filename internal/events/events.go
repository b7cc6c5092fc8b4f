// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Topics.
const (
	TopicCatalogChanged      = "shoprec.catalog.changed"
	TopicInteractionsChanged = "shoprec.interactions.changed"
)

// ChangeKind identifies what changed.
type ChangeKind string

const (
	// KindCatalog covers item and category changes.
	KindCatalog ChangeKind = "catalog"

	// KindInteractions covers newly recorded user interactions.
	KindInteractions ChangeKind = "interactions"
)

// ErrInvalidChange is returned for payloads that cannot be handled.
var ErrInvalidChange = errors.New("invalid change event")

// Change is the payload of every change notification.
type Change struct {
	Kind       ChangeKind `json:"kind"`
	IDs        []string   `json:"ids,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Topic returns the topic a change is published on.
func (c *Change) Topic() (string, error) {
	switch c.Kind {
	case KindCatalog:
		return TopicCatalogChanged, nil
	case KindInteractions:
		return TopicInteractionsChanged, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidChange, c.Kind)
	}
}

// NewMessage serializes c into a Watermill message.
func NewMessage(c *Change) (*message.Message, error) {
	if c.OccurredAt.IsZero() {
		c.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal change: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("kind", string(c.Kind))
	return msg, nil
}

// DecodeChange parses a message payload. The kind must be known.
func DecodeChange(msg *message.Message) (*Change, error) {
	var c Change
	if err := json.Unmarshal(msg.Payload, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	if _, err := c.Topic(); err != nil {
		return nil, err
	}
	return &c, nil
}
