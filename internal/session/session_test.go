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

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-arcade/courier/pkg/cache"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*Manager, cache.ICache) {
	t.Helper()
	c := cache.NewFastCache(cache.FastCacheConfig{})
	t.Cleanup(c.Clear)
	return NewManager(c, Conf{TTL: 3600}), c
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := uuid.New()

	s, err := m.Create(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, user, s.UserID)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, user, got.UserID)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, m.Delete(ctx, s.ID))
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, m.Delete(ctx, s.ID), "deleting twice")
	assert.NoError(t, m.Delete(ctx, ""))
}

func TestManagerGetMissing(t *testing.T) {
	ctx := context.Background()
	m, c := newManager(t)

	_, err := m.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = m.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, c.Set(ctx, keyPrefix+"garbage", "{not json", time.Hour).Err())
	_, err = m.Get(ctx, "garbage")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDefaultTTL(t *testing.T) {
	m := NewManager(cache.NewFastCache(cache.FastCacheConfig{}), Conf{})
	assert.Equal(t, DefaultTTL, m.ttl)
}

func TestCookieValue(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
		ok     bool
	}{
		{name: "single", cookie: "session_id=abc", want: "abc", ok: true},
		{name: "among others", cookie: "theme=dark; session_id=abc; lang=en", want: "abc", ok: true},
		{name: "other cookies only", cookie: "theme=dark"},
		{name: "empty value", cookie: "session_id="},
		{name: "missing header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := httpx.Header{}
			if tt.cookie != "" {
				header.Set("Cookie", tt.cookie)
			}
			got, ok := CookieValue(httpx.NewRequest(httpx.MethodGet, "/", header, ""))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromRequest(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	s, err := m.Create(ctx, uuid.New())
	require.NoError(t, err)

	req := httpx.NewRequest(httpx.MethodGet, "/json/chats", httpx.Header{"cookie": CookieName + "=" + s.ID}, "")
	got, err := m.FromRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)

	_, err = m.FromRequest(ctx, httpx.NewRequest(httpx.MethodGet, "/json/chats", nil, ""))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCookies(t *testing.T) {
	m, _ := newManager(t)

	set := m.SetCookie(&Session{ID: "abc"})
	assert.Equal(t, "Set-Cookie", set.Name)
	assert.True(t, strings.HasPrefix(set.Value, "session_id=abc"), set.Value)
	assert.Contains(t, set.Value, "Path=/")
	assert.Contains(t, set.Value, "Max-Age=3600")
	assert.Contains(t, set.Value, "HttpOnly")

	cleared := ClearCookie()
	assert.True(t, strings.HasPrefix(cleared.Value, "session_id=;"), cleared.Value)
	assert.Contains(t, cleared.Value, "Max-Age=0")
}
