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

// Package router maps requests to messenger operations.
package router

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/session"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

// ProviderSet is the Wire provider set for the router package.
var ProviderSet = wire.NewSet(
	NewRouter,
	wire.Bind(new(httpx.Handler), new(*Router)),
)

//go:embed static
var web embed.FS

// Router is the request handler of the chat server.
type Router struct {
	messenger *messenger.Messenger
	sessions  *session.Manager
	retry     time.Duration
	pages     *template.Template
}

// NewRouter creates the router. conf.Retry is the reconnection hint sent on
// event streams.
func NewRouter(m *messenger.Messenger, sessions *session.Manager, conf httpx.Conf) (*Router, error) {
	pages, err := template.ParseFS(web, "static/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse pages")
	}
	return &Router{
		messenger: m,
		sessions:  sessions,
		retry:     time.Duration(conf.Retry) * time.Millisecond,
		pages:     pages,
	}, nil
}

// Handle routes one request. Failures are logged and answered with
// InternalServerError, so the connection always gets a response.
func (r *Router) Handle(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	resp, err := r.route(ctx, req)
	if err != nil {
		log.Errorw("request failed",
			"method", req.Method,
			"target", req.Target,
			"error", err,
		)
		return httpx.InternalServerError{}, nil
	}
	return resp, nil
}

func (r *Router) route(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	query, err := url.ParseQuery(req.RawQuery())
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	seg := segments(req.Path())

	switch req.Method {
	case httpx.MethodGet:
		switch {
		case len(seg) == 0:
			return httpx.Redirect{Location: "/chat"}, nil
		case len(seg) == 1 && seg[0] == "login":
			return r.page("login.html", loginView{})
		case len(seg) == 1 && seg[0] == "signup":
			return r.page("signup.html", nil)
		case seg[0] == "chat" && len(seg) <= 2:
			return r.chatPage(ctx, req, seg[1:])
		case len(seg) == 1 && seg[0] == "logout":
			return r.logout(ctx, req)
		case len(seg) == 2 && seg[0] == "subscribe" && seg[1] == "new_messages":
			return r.subscribe(ctx, req, query)
		case len(seg) == 3 && seg[0] == "json" && seg[1] == "messages":
			return r.messagesJSON(ctx, req, seg[2], query)
		case len(seg) == 2 && seg[0] == "json" && seg[1] == "chats":
			return r.chatsJSON(ctx, req)
		case len(seg) == 2 && seg[0] == "json" && seg[1] == "chatsearch":
			return r.chatSearchJSON(ctx, query)
		case len(seg) == 3 && seg[0] == "json" && seg[1] == "user":
			return r.userJSON(ctx, seg[2])
		case len(seg) == 2 && seg[0] == "json" && seg[1] == "me":
			return r.meJSON(ctx, req)
		case len(seg) == 2 && seg[0] == "tools" && seg[1] == "event_source":
			return r.page("event_source.html", nil)
		case len(seg) == 1 && seg[0] == "favicon.ico":
			return httpx.Empty{}, nil
		}
	case httpx.MethodPost:
		switch {
		case len(seg) == 1 && seg[0] == "signup":
			return r.signup(ctx, req)
		case len(seg) == 1 && seg[0] == "authorize":
			return r.authorize(ctx, req)
		case len(seg) == 2 && seg[0] == "message":
			return r.sendMessage(ctx, req, seg[1])
		}
	}
	return httpx.BadRequest{}, nil
}

// segments splits a path on '/' and drops empty parts.
func segments(path string) []string {
	parts := strings.Split(path, "/")
	seg := parts[:0]
	for _, p := range parts {
		if p != "" {
			seg = append(seg, p)
		}
	}
	return seg
}

// user resolves the session of req. A request without a valid session
// yields (nil, nil); a session of a user that no longer exists is treated
// the same way.
func (r *Router) user(ctx context.Context, req *httpx.Request) (*messenger.User, error) {
	s, err := r.sessions.FromRequest(ctx, req)
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user, err := r.messenger.FetchUser(ctx, s.UserID)
	if errors.Is(err, messenger.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Router) page(name string, data any) (httpx.Response, error) {
	var buf bytes.Buffer
	if err := r.pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrapf(err, "render %s", name)
	}
	return httpx.HTML{Content: buf.String()}, nil
}

func jsonResponse(v any, headers ...httpx.Field) (httpx.Response, error) {
	content, err := sonic.MarshalString(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode response")
	}
	return httpx.JSON{Content: content, Headers: headers}, nil
}

func loginRedirect(headers ...httpx.Field) httpx.Response {
	return httpx.Redirect{Location: "/login", Headers: headers}
}
