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

// Package session keeps login sessions in the cache and maps them to
// cookies.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/cache"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/go-arcade/courier/pkg/id"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

const (
	// CookieName is the cookie carrying the session id.
	CookieName = "session_id"
	// DefaultTTL is how long an unused session lives.
	DefaultTTL = 7 * 24 * time.Hour

	keyPrefix = "session:"
)

// ErrNoSession is returned for a missing, expired or unreadable session.
var ErrNoSession = errors.New("no session")

// ProviderSet is the Wire provider set for the session package.
var ProviderSet = wire.NewSet(NewManager)

// Conf configures sessions.
type Conf struct {
	// TTL is in seconds. Every use of a session extends it.
	TTL int `mapstructure:"ttl"`
	// Backend is the cache backend, "memory" or "redis".
	Backend    string
	CacheBytes int `mapstructure:"cacheBytes"`
}

// Session binds a browser to a user.
type Session struct {
	ID        string           `json:"-"`
	UserID    messenger.UserID `json:"userId"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Manager creates and resolves sessions.
type Manager struct {
	cache cache.ICache
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a manager storing sessions in c.
func NewManager(c cache.ICache, conf Conf) *Manager {
	ttl := DefaultTTL
	if conf.TTL > 0 {
		ttl = time.Duration(conf.TTL) * time.Second
	}
	return &Manager{cache: c, ttl: ttl, now: time.Now}
}

// Create starts a session for user.
func (m *Manager) Create(ctx context.Context, user messenger.UserID) (*Session, error) {
	s := &Session{
		ID:        id.GetUUID(),
		UserID:    user,
		CreatedAt: m.now().UTC(),
	}
	data, err := sonic.MarshalString(s)
	if err != nil {
		return nil, errors.Wrap(err, "encode session")
	}
	if err := m.cache.Set(ctx, keyPrefix+s.ID, data, m.ttl).Err(); err != nil {
		return nil, errors.Wrap(err, "store session")
	}
	return s, nil
}

// Get resolves a session id and extends its lifetime.
func (m *Manager) Get(ctx context.Context, sid string) (*Session, error) {
	if sid == "" {
		return nil, ErrNoSession
	}
	data, err := m.cache.Get(ctx, keyPrefix+sid).Result()
	if errors.Is(err, cache.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}

	s := &Session{}
	if err := sonic.UnmarshalString(data, s); err != nil {
		return nil, errors.Wrapf(ErrNoSession, "decode session: %v", err)
	}
	s.ID = sid

	if err := m.cache.Expire(ctx, keyPrefix+sid, m.ttl).Err(); err != nil {
		return nil, errors.Wrap(err, "extend session")
	}
	return s, nil
}

// Delete ends a session. Deleting an unknown session is not an error.
func (m *Manager) Delete(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := m.cache.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// FromRequest resolves the session named by the request cookie.
func (m *Manager) FromRequest(ctx context.Context, req *httpx.Request) (*Session, error) {
	sid, ok := CookieValue(req)
	if !ok {
		return nil, ErrNoSession
	}
	return m.Get(ctx, sid)
}

// CookieValue returns the session id sent by the client, if any.
func CookieValue(req *httpx.Request) (string, bool) {
	line, ok := req.Header.Get("cookie")
	if !ok {
		return "", false
	}
	cookies, err := http.ParseCookie(line)
	if err != nil {
		return "", false
	}
	for _, c := range cookies {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// SetCookie is the header that stores s in the browser.
func (m *Manager) SetCookie(s *Session) httpx.Field {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return httpx.Field{Name: "Set-Cookie", Value: c.String()}
}

// ClearCookie is the header that removes the session cookie.
func ClearCookie() httpx.Field {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return httpx.Field{Name: "Set-Cookie", Value: c.String()}
}
