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

package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/pkg/errors"
)

// Hasher turns a password into the stored hash.
type Hasher func(password string) (string, error)

const fillerUsers = 95

// NewSeeded returns a store with demo users and conversations. User1 and
// User2 can log in with their username as password.
func NewSeeded(ctx context.Context, hash Hasher) (*Store, error) {
	s := New()

	names := []string{"User1", "User2", "User3", "Пользователь1"}
	for i := 5; i < 5+fillerUsers; i++ {
		names = append(names, fmt.Sprintf("User %d", i))
	}
	users := make(map[string]messenger.UserID, len(names))
	for _, name := range names {
		u, err := s.CreateUser(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "seed user %q", name)
		}
		users[name] = u.ID
	}

	type seedMessage struct{ from, to, text string }
	messages := []seedMessage{
		{"User1", "User1", "Hello myself 1"},
		{"User1", "User1", "Hello myself 2"},
		{"User2", "User1", "Hello 1"},
		{"User1", "User2", "Hello 2"},
		{"User2", "User1", "Hello 3"},
		{"User1", "User2", "Hello 4 😊"},
		{"User1", "User3", "Hello 5"},
		{"User3", "User1", "Hello 6"},
	}
	for i := 0; i < 100; i++ {
		messages = append(messages, seedMessage{"Пользователь1", "User1", fmt.Sprintf("Привет! (%d)", i)})
	}
	for _, name := range names[4:] {
		messages = append(messages, seedMessage{name, "User1", "Привет"})
	}

	// one millisecond apart, ending now
	at := time.Now().Add(-time.Duration(len(messages)) * time.Millisecond)
	for _, m := range messages {
		at = at.Add(time.Millisecond)
		if err := s.CreateMessage(ctx, messenger.NewMessage(users[m.from], users[m.to], m.text, at)); err != nil {
			return nil, errors.Wrap(err, "seed message")
		}
	}

	for _, name := range []string{"User1", "User2"} {
		h, err := hash(name)
		if err != nil {
			return nil, errors.Wrapf(err, "hash password of %q", name)
		}
		if err := s.UpdatePasswordHash(ctx, users[name], h); err != nil {
			return nil, err
		}
	}
	return s, nil
}
