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

// Package storetest holds the fixture and the conformance suite every
// messenger.Store backend is tested against.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Base is the timestamp of the first fixture message. Later ones follow one
// second apart.
var Base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Fixture is three users and eight messages between them:
//
//	1 u1->u2  2 u2->u1  3 u1->u2  4 u2->u1
//	5 u1->u3  6 u2->u3  7 u3->u2  8 u3->u1
type Fixture struct {
	U1, U2, U3 messenger.User
	Messages   []messenger.Message
}

// Seed creates the fixture in s.
func Seed(t testing.TB, s messenger.Store) *Fixture {
	t.Helper()
	ctx := context.Background()

	f := &Fixture{}
	for _, u := range []struct {
		dst  *messenger.User
		name string
	}{{&f.U1, "u1"}, {&f.U2, "u2"}, {&f.U3, "u3"}} {
		created, err := s.CreateUser(ctx, u.name)
		require.NoError(t, err)
		*u.dst = *created
	}

	pairs := []struct{ from, to messenger.UserID }{
		{f.U1.ID, f.U2.ID},
		{f.U2.ID, f.U1.ID},
		{f.U1.ID, f.U2.ID},
		{f.U2.ID, f.U1.ID},
		{f.U1.ID, f.U3.ID},
		{f.U2.ID, f.U3.ID},
		{f.U3.ID, f.U2.ID},
		{f.U3.ID, f.U1.ID},
	}
	for i, p := range pairs {
		m := messenger.NewMessage(p.from, p.to, fmt.Sprintf("Message %d", i+1), Base.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.CreateMessage(ctx, m))
		f.Messages = append(f.Messages, *m)
	}
	return f
}

// Message returns fixture message n, counting from 1.
func (f *Fixture) Message(n int) messenger.Message {
	return f.Messages[n-1]
}

// IDs returns the fixture ids of messages ns, counting from 1.
func (f *Fixture) IDs(ns ...int) []messenger.MessageID {
	ids := make([]messenger.MessageID, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, f.Message(n).ID)
	}
	return ids
}

// IDsOf returns the ids of messages in order.
func IDsOf(messages []messenger.Message) []messenger.MessageID {
	ids := make([]messenger.MessageID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}

func usernames(users []messenger.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

// Run runs the conformance suite. open must return an empty store.
func Run(t *testing.T, open func(t *testing.T) messenger.Store) {
	ctx := context.Background()

	t.Run("CreateAndFetchUsers", func(t *testing.T) {
		s := open(t)
		alice, err := s.CreateUser(ctx, "Alice")
		require.NoError(t, err)
		_, err = s.CreateUser(ctx, "Пользователь1")
		require.NoError(t, err)

		got, err := s.FetchUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, *alice, *got)

		users, err := s.FetchUsers(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Alice", "Пользователь1"}, usernames(users))

		_, err = s.FetchUser(ctx, messenger.UserID{1})
		assert.ErrorIs(t, err, messenger.ErrNotFound)
	})

	t.Run("UsernamesIgnoreCase", func(t *testing.T) {
		s := open(t)
		created, err := s.CreateUser(ctx, "Пользователь1")
		require.NoError(t, err)

		found, err := s.FindUserByUsername(ctx, "пользователь1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "Пользователь1", found.Username)

		_, err = s.CreateUser(ctx, "ПОЛЬЗОВАТЕЛЬ1")
		assert.ErrorIs(t, err, messenger.ErrUsernameTaken)

		_, err = s.FindUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, messenger.ErrNotFound)
	})

	t.Run("FindUsersBySubstring", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"User1", "User 5", "admin", "100%_user"} {
			_, err := s.CreateUser(ctx, name)
			require.NoError(t, err)
		}

		users, err := s.FindUsersBySubstring(ctx, "USER")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"User1", "User 5", "100%_user"}, usernames(users))

		users, err = s.FindUsersBySubstring(ctx, "%_")
		require.NoError(t, err)
		assert.Equal(t, []string{"100%_user"}, usernames(users))

		users, err = s.FindUsersBySubstring(ctx, "zzz")
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("MessageRoundTrip", func(t *testing.T) {
		s := open(t)
		f := Seed(t, s)
		m := messenger.NewMessage(f.U1.ID, f.U2.ID, "Hello 4 😊\nsecond line", Base.Add(time.Hour+123456*time.Microsecond))
		require.NoError(t, s.CreateMessage(ctx, m))

		got, err := s.FetchLastMessagesInChat(ctx, f.U1.ID, f.U2.ID, nil)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, m.ID, got[0].ID)
		assert.Equal(t, m.From, got[0].From)
		assert.Equal(t, m.To, got[0].To)
		assert.Equal(t, m.Text, got[0].Text)
		assert.True(t, m.Timestamp.Equal(got[0].Timestamp), "%s != %s", m.Timestamp, got[0].Timestamp)
	})

	t.Run("FetchUsersMessagesSince", func(t *testing.T) {
		s := open(t)
		f := Seed(t, s)

		got, err := s.FetchUsersMessagesSince(ctx, f.U1.ID, f.Message(3).ID)
		require.NoError(t, err)
		assert.Equal(t, f.IDs(4, 5, 8), IDsOf(got))

		got, err = s.FetchUsersMessagesSince(ctx, f.U3.ID, f.Message(1).ID)
		require.NoError(t, err)
		assert.Equal(t, f.IDs(5, 6, 7, 8), IDsOf(got))

		got, err = s.FetchUsersMessagesSince(ctx, f.U1.ID, f.Message(8).ID)
		require.NoError(t, err)
		assert.Empty(t, got)

		unknown := messenger.NewMessage(f.U1.ID, f.U2.ID, "never stored", Base).ID
		got, err = s.FetchUsersMessagesSince(ctx, f.U1.ID, unknown)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("FetchLastMessagesInChat", func(t *testing.T) {
		s := open(t)
		f := Seed(t, s)

		got, err := s.FetchLastMessagesInChat(ctx, f.U1.ID, f.U2.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, f.IDs(4, 3, 2, 1), IDsOf(got))

		// argument order does not matter
		got, err = s.FetchLastMessagesInChat(ctx, f.U2.ID, f.U1.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, f.IDs(4, 3, 2, 1), IDsOf(got))

		before := f.Message(3).ID
		got, err = s.FetchLastMessagesInChat(ctx, f.U1.ID, f.U2.ID, &before)
		require.NoError(t, err)
		assert.Equal(t, f.IDs(2, 1), IDsOf(got))

		unknown := messenger.NewMessage(f.U1.ID, f.U2.ID, "never stored", Base).ID
		got, err = s.FetchLastMessagesInChat(ctx, f.U1.ID, f.U2.ID, &unknown)
		require.NoError(t, err)
		assert.Equal(t, f.IDs(4, 3, 2, 1), IDsOf(got))
	})

	t.Run("FetchLastMessagesInChatLimit", func(t *testing.T) {
		s := open(t)
		f := Seed(t, s)

		var sent []messenger.MessageID
		for i := 0; i < messenger.MessageLoadLimit+10; i++ {
			m := messenger.NewMessage(f.U1.ID, f.U1.ID, fmt.Sprintf("note %d", i), Base.Add(time.Hour+time.Duration(i)*time.Millisecond))
			require.NoError(t, s.CreateMessage(ctx, m))
			sent = append(sent, m.ID)
		}

		got, err := s.FetchLastMessagesInChat(ctx, f.U1.ID, f.U1.ID, nil)
		require.NoError(t, err)
		require.Len(t, got, messenger.MessageLoadLimit)
		assert.Equal(t, sent[len(sent)-1], got[0].ID)
		assert.Equal(t, sent[10], got[len(got)-1].ID)
	})

	t.Run("FindUsersChats", func(t *testing.T) {
		s := open(t)
		f := Seed(t, s)

		chats, err := s.FindUsersChats(ctx, f.U1.ID)
		require.NoError(t, err)
		assert.Equal(t, []messenger.User{f.U3, f.U2}, chats)

		chats, err = s.FindUsersChats(ctx, f.U2.ID)
		require.NoError(t, err)
		assert.Equal(t, []messenger.User{f.U3, f.U1}, chats)

		loner, err := s.CreateUser(ctx, "loner")
		require.NoError(t, err)
		chats, err = s.FindUsersChats(ctx, loner.ID)
		require.NoError(t, err)
		assert.Empty(t, chats)
	})

	t.Run("PasswordHashes", func(t *testing.T) {
		s := open(t)
		u, err := s.CreateUser(ctx, "u")
		require.NoError(t, err)

		_, err = s.FetchPasswordHash(ctx, u.ID)
		assert.ErrorIs(t, err, messenger.ErrNotFound)

		require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, "hash-1"))
		hash, err := s.FetchPasswordHash(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-1", hash)

		require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, "hash-2"))
		hash, err = s.FetchPasswordHash(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-2", hash)
	})
}
