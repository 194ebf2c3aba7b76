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

package messenger

import (
	"context"

	"github.com/pkg/errors"
)

// MessageLoadLimit is the page size of chat history.
const MessageLoadLimit = 50

var (
	// ErrNotFound is returned for a missing user or credential.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when a username exists, ignoring case.
	ErrUsernameTaken = errors.New("username taken")
)

// UserStore keeps the user directory.
type UserStore interface {
	FetchUsers(ctx context.Context) ([]User, error)
	// FetchUser returns ErrNotFound for an unknown id.
	FetchUser(ctx context.Context, id UserID) (*User, error)
	// FindUserByUsername matches ignoring case and returns ErrNotFound when
	// nobody matches.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	// FindUsersBySubstring matches ignoring case.
	FindUsersBySubstring(ctx context.Context, substring string) ([]User, error)
	// CreateUser returns ErrUsernameTaken when the name exists, ignoring case.
	CreateUser(ctx context.Context, username string) (*User, error)
	// FindUsersChats returns everyone user has exchanged messages with, most
	// recent conversation first.
	FindUsersChats(ctx context.Context, user UserID) ([]User, error)
}

// BacklogFetcher returns what a subscriber missed.
type BacklogFetcher interface {
	// FetchUsersMessagesSince returns the messages sent or received by user
	// that sort after since, in storage order. An unknown since yields none.
	FetchUsersMessagesSince(ctx context.Context, user UserID, since MessageID) ([]Message, error)
}

// MessageStore keeps messages.
type MessageStore interface {
	BacklogFetcher
	// FetchLastMessagesInChat returns up to MessageLoadLimit messages between
	// a and b, newest first, strictly before before when it names a known
	// message.
	FetchLastMessagesInChat(ctx context.Context, a, b UserID, before *MessageID) ([]Message, error)
	CreateMessage(ctx context.Context, message *Message) error
}

// CredentialStore keeps password hashes.
type CredentialStore interface {
	// FetchPasswordHash returns ErrNotFound when user has no password.
	FetchPasswordHash(ctx context.Context, user UserID) (string, error)
	UpdatePasswordHash(ctx context.Context, user UserID, hash string) error
}

// Store is a complete storage backend.
type Store interface {
	UserStore
	MessageStore
	CredentialStore
	Close() error
}
