// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package messenger holds the chat domain: users, messages, live
// subscriptions and the operations the web layer calls.
package messenger

import (
	"bytes"
	"time"

	"github.com/go-arcade/courier/pkg/id"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// UserID identifies a user.
type UserID = uuid.UUID

// MessageID identifies a message. IDs sort by creation time.
type MessageID = ulid.ULID

// User is a chat participant.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// Message is one chat message. Storage order is (Timestamp, ID).
type Message struct {
	ID        MessageID `json:"id"`
	From      UserID    `json:"from"`
	To        UserID    `json:"to"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a message with now, truncated to microseconds in UTC so
// it round-trips through every store unchanged.
func NewMessage(from, to UserID, text string, now time.Time) *Message {
	ts := now.UTC().Truncate(time.Microsecond)
	return &Message{
		ID:        id.NewULID(ts),
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: ts,
	}
}

// Before reports whether m sorts before other in storage order.
func (m *Message) Before(other *Message) bool {
	if !m.Timestamp.Equal(other.Timestamp) {
		return m.Timestamp.Before(other.Timestamp)
	}
	return bytes.Compare(m.ID[:], other.ID[:]) < 0
}

// Involves reports whether user sent or received m.
func (m *Message) Involves(user UserID) bool {
	return m.From == user || m.To == user
}

// ParseUserID parses the textual form of a user id.
func ParseUserID(s string) (UserID, error) {
	u, err := id.ParseUUID(s)
	if err != nil {
		return UserID{}, errors.Wrapf(err, "parse user id %q", s)
	}
	return u, nil
}

// ParseMessageID parses the textual form of a message id.
func ParseMessageID(s string) (MessageID, error) {
	m, err := id.ParseULID(s)
	if err != nil {
		return MessageID{}, errors.Wrapf(err, "parse message id %q", s)
	}
	return m, nil
}
