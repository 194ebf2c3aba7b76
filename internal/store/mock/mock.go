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

// Package mock is an in-memory messenger.Store.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/id"
)

// Store keeps everything in memory. Messages are kept in storage order.
type Store struct {
	mu       sync.RWMutex
	users    []messenger.User
	messages []messenger.Message
	hashes   map[messenger.UserID]string
}

var _ messenger.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{hashes: make(map[messenger.UserID]string)}
}

func (s *Store) FetchUsers(_ context.Context) ([]messenger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]messenger.User(nil), s.users...), nil
}

func (s *Store) FetchUser(_ context.Context, userID messenger.UserID) (*messenger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.userByID(userID)
	if !ok {
		return nil, messenger.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*messenger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, messenger.ErrNotFound
}

func (s *Store) FindUsersBySubstring(_ context.Context, substring string) ([]messenger.User, error) {
	query := strings.ToLower(substring)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []messenger.User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Username), query) {
			res = append(res, u)
		}
	}
	return res, nil
}

func (s *Store) CreateUser(_ context.Context, username string) (*messenger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, messenger.ErrUsernameTaken
		}
	}
	u := messenger.User{ID: id.NewUUID(), Username: username}
	s.users = append(s.users, u)
	return &u, nil
}

func (s *Store) FindUsersChats(_ context.Context, user messenger.UserID) ([]messenger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[messenger.UserID]struct{})
	var res []messenger.User
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := &s.messages[i]
		if !m.Involves(user) {
			continue
		}
		peer := m.From
		if m.From == user {
			peer = m.To
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		u, ok := s.userByID(peer)
		if !ok {
			continue
		}
		res = append(res, u)
	}
	return res, nil
}

func (s *Store) FetchLastMessagesInChat(_ context.Context, a, b messenger.UserID, before *messenger.MessageID) ([]messenger.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	end := len(s.messages)
	if before != nil {
		if i, ok := s.indexOf(*before); ok {
			end = i
		}
	}

	var res []messenger.Message
	for i := end - 1; i >= 0 && len(res) < messenger.MessageLoadLimit; i-- {
		m := s.messages[i]
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			res = append(res, m)
		}
	}
	return res, nil
}

func (s *Store) FetchUsersMessagesSince(_ context.Context, user messenger.UserID, since messenger.MessageID) ([]messenger.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.indexOf(since)
	if !ok {
		return nil, nil
	}
	var res []messenger.Message
	for _, m := range s.messages[i+1:] {
		if m.Involves(user) {
			res = append(res, m)
		}
	}
	return res, nil
}

func (s *Store) CreateMessage(_ context.Context, message *messenger.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// almost always an append; out of order timestamps are placed by storage order
	i := sort.Search(len(s.messages), func(i int) bool {
		return message.Before(&s.messages[i])
	})
	s.messages = append(s.messages, messenger.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = *message
	return nil
}

func (s *Store) FetchPasswordHash(_ context.Context, user messenger.UserID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[user]
	if !ok {
		return "", messenger.ErrNotFound
	}
	return hash, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, user messenger.UserID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[user] = hash
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) userByID(userID messenger.UserID) (messenger.User, bool) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, true
		}
	}
	return messenger.User{}, false
}

func (s *Store) indexOf(messageID messenger.MessageID) (int, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == messageID {
			return i, true
		}
	}
	return 0, false
}
