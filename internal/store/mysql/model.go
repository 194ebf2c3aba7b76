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

package mysql

import (
	"time"

	"github.com/go-arcade/courier/internal/messenger"
)

// User is a row of t_user. UsernameKey is the lowercased username and
// carries the uniqueness constraint.
type User struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	Username    string `gorm:"type:varchar(255);not null"`
	UsernameKey string `gorm:"type:varchar(255);not null;uniqueIndex"`
}

// Message is a row of t_message.
type Message struct {
	ID       string    `gorm:"type:char(26);primaryKey"`
	FromUser string    `gorm:"type:char(36);not null;index:idx_message_from,priority:1"`
	ToUser   string    `gorm:"type:char(36);not null;index:idx_message_to,priority:1"`
	Body     string    `gorm:"type:text;not null"`
	SentAt   time.Time `gorm:"type:datetime(6);not null;index:idx_message_from,priority:2;index:idx_message_to,priority:2"`
}

// Credential is a row of t_credential.
type Credential struct {
	UserID       string `gorm:"type:char(36);primaryKey"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
}

// SchemaVersion is the single row of t_schema_version.
type SchemaVersion struct {
	Version int `gorm:"primaryKey;autoIncrement:false"`
}

func models() []any {
	return []any{&User{}, &Message{}, &Credential{}, &SchemaVersion{}}
}

func toUser(row User) (messenger.User, error) {
	userID, err := messenger.ParseUserID(row.ID)
	if err != nil {
		return messenger.User{}, err
	}
	return messenger.User{ID: userID, Username: row.Username}, nil
}

func toUsers(rows []User) ([]messenger.User, error) {
	users := make([]messenger.User, 0, len(rows))
	for _, row := range rows {
		u, err := toUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func fromMessage(m *messenger.Message) Message {
	return Message{
		ID:       m.ID.String(),
		FromUser: m.From.String(),
		ToUser:   m.To.String(),
		Body:     m.Text,
		SentAt:   m.Timestamp,
	}
}

func toMessages(rows []Message) ([]messenger.Message, error) {
	messages := make([]messenger.Message, 0, len(rows))
	for _, row := range rows {
		var (
			m   messenger.Message
			err error
		)
		if m.ID, err = messenger.ParseMessageID(row.ID); err != nil {
			return nil, err
		}
		if m.From, err = messenger.ParseUserID(row.FromUser); err != nil {
			return nil, err
		}
		if m.To, err = messenger.ParseUserID(row.ToUser); err != nil {
			return nil, err
		}
		m.Text = row.Body
		m.Timestamp = row.SentAt.UTC()
		messages = append(messages, m)
	}
	return messages, nil
}
