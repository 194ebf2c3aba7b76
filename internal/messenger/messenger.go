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
	"strings"
	"time"

	"github.com/go-arcade/courier/pkg/log"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

// ProviderSet is the Wire provider set for the messenger package.
var ProviderSet = wire.NewSet(ProvideRegistry, New)

// ErrEmptyCredentials is returned when a username or password is empty.
var ErrEmptyCredentials = errors.New("username and password must not be empty")

// Authenticator checks and stores passwords.
type Authenticator interface {
	Verify(ctx context.Context, user UserID, password string) (bool, error)
	Register(ctx context.Context, user UserID, password string) error
}

// Messenger is the chat service the web layer talks to.
type Messenger struct {
	store    Store
	auth     Authenticator
	registry *Registry
	now      func() time.Time
}

// ProvideRegistry builds the registry on top of store. The cleanup stops its
// sweep.
func ProvideRegistry(store Store, conf RegistryConf) (*Registry, func(), error) {
	r, err := NewRegistry(store, conf)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

// New creates a messenger.
func New(store Store, auth Authenticator, registry *Registry) *Messenger {
	return &Messenger{
		store:    store,
		auth:     auth,
		registry: registry,
		now:      time.Now,
	}
}

// FetchUser returns ErrNotFound for an unknown id.
func (m *Messenger) FetchUser(ctx context.Context, id UserID) (*User, error) {
	user, err := m.store.FetchUser(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch user %s", id)
	}
	return user, nil
}

// FetchUsersChats lists the people user talks to, most recent first.
func (m *Messenger) FetchUsersChats(ctx context.Context, user UserID) ([]User, error) {
	chats, err := m.store.FindUsersChats(ctx, user)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch chats of %s", user)
	}
	return chats, nil
}

// FindUsersBySubstring searches usernames ignoring case.
func (m *Messenger) FindUsersBySubstring(ctx context.Context, substring string) ([]User, error) {
	users, err := m.store.FindUsersBySubstring(ctx, substring)
	if err != nil {
		return nil, errors.Wrapf(err, "search users by %q", substring)
	}
	return users, nil
}

// SendMessage stores a message from one user to another and hands it to the
// live subscribers of both. The recipient must exist.
func (m *Messenger) SendMessage(ctx context.Context, text string, from, to UserID) (*Message, error) {
	if _, err := m.store.FetchUser(ctx, to); err != nil {
		return nil, errors.Wrapf(err, "fetch recipient %s", to)
	}

	message := NewMessage(from, to, text, m.now())
	if err := m.store.CreateMessage(ctx, message); err != nil {
		return nil, errors.Wrapf(err, "create message from %s to %s", from, to)
	}

	m.registry.Publish(message)
	log.Debugw("message sent", "id", message.ID, "from", from, "to", to)
	return message, nil
}

// FetchLastMessages returns a page of the chat between current and other,
// newest first.
func (m *Messenger) FetchLastMessages(ctx context.Context, current, other UserID, before *MessageID) ([]Message, error) {
	messages, err := m.store.FetchLastMessagesInChat(ctx, current, other, before)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch last messages between %s and %s", current, other)
	}
	return messages, nil
}

// Subscribe streams the messages of user. See Registry.Subscribe.
func (m *Messenger) Subscribe(ctx context.Context, user UserID, resume *MessageID) (<-chan Message, error) {
	return m.registry.Subscribe(ctx, user, resume)
}

// VerifyUser checks a username and password. An unknown user or a wrong
// password yields (nil, nil).
func (m *Messenger) VerifyUser(ctx context.Context, username, password string) (*User, error) {
	user, err := m.store.FindUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find user %q", username)
	}

	ok, err := m.auth.Verify(ctx, user.ID, password)
	if err != nil {
		return nil, errors.Wrapf(err, "verify user %s", user.ID)
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}

// CreateUser registers a new user with a password. It returns
// ErrUsernameTaken when the name is in use, ignoring case.
func (m *Messenger) CreateUser(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	user, err := m.store.CreateUser(ctx, username)
	if err != nil {
		return nil, errors.Wrapf(err, "create user %q", username)
	}
	if err := m.auth.Register(ctx, user.ID, password); err != nil {
		return nil, errors.Wrapf(err, "register password of %s", user.ID)
	}

	log.Infow("user created", "id", user.ID, "username", user.Username)
	return user, nil
}
