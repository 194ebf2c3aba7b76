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

package router

import (
	"context"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/session"
	"github.com/go-arcade/courier/pkg/chanx"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/sse"
	"github.com/pkg/errors"
)

const (
	signupUsernameTaken    = "UsernameTaken"
	signupEmptyCredentials = "EmptyCredentials"
)

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type signupResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

func (r *Router) signup(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	body, err := req.Body()
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	var params credentials
	if err := sonic.UnmarshalString(body, &params); err != nil {
		return httpx.BadRequest{}, nil
	}

	user, err := r.messenger.CreateUser(ctx, params.Login, params.Password)
	switch {
	case errors.Is(err, messenger.ErrUsernameTaken):
		return jsonResponse(signupResult{Errors: []string{signupUsernameTaken}})
	case errors.Is(err, messenger.ErrEmptyCredentials):
		return jsonResponse(signupResult{Errors: []string{signupEmptyCredentials}})
	case err != nil:
		return nil, err
	}

	s, err := r.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return jsonResponse(signupResult{Success: true, Errors: []string{}}, r.sessions.SetCookie(s))
}

// authorize takes a urlencoded login form.
func (r *Router) authorize(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	body, err := req.Body()
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	form, err := url.ParseQuery(body)
	if err != nil || !form.Has("login") || !form.Has("password") {
		return httpx.BadRequest{}, nil
	}

	user, err := r.messenger.VerifyUser(ctx, form.Get("login"), form.Get("password"))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return r.page("login.html", loginView{Failed: true})
	}

	s, err := r.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	log.Debugw("user logged in", "user", user.ID)
	return httpx.Redirect{Location: "/chat", Headers: []httpx.Field{r.sessions.SetCookie(s)}}, nil
}

func (r *Router) logout(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	sid, ok := session.CookieValue(req)
	if !ok {
		return loginRedirect(), nil
	}
	if err := r.sessions.Delete(ctx, sid); err != nil {
		return nil, err
	}
	return loginRedirect(session.ClearCookie()), nil
}

type sendMessageParams struct {
	Message string `json:"message"`
}

func (r *Router) sendMessage(ctx context.Context, req *httpx.Request, receiver string) (httpx.Response, error) {
	to, err := messenger.ParseUserID(receiver)
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	user, err := r.user(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return loginRedirect(), nil
	}

	body, err := req.Body()
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	var params sendMessageParams
	if err := sonic.UnmarshalString(body, &params); err != nil {
		return httpx.BadRequest{}, nil
	}

	_, err = r.messenger.SendMessage(ctx, params.Message, user.ID, to)
	if errors.Is(err, messenger.ErrNotFound) {
		return httpx.BadRequest{}, nil
	}
	if err != nil {
		return nil, err
	}
	return httpx.HTML{Content: "ok."}, nil
}

// subscribe opens the live message stream of the session user. The
// Last-Event-ID header a reconnecting browser sends wins over the
// last_message_id query parameter.
func (r *Router) subscribe(ctx context.Context, req *httpx.Request, query url.Values) (httpx.Response, error) {
	user, err := r.user(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return httpx.BadRequest{}, nil
	}

	var resume *messenger.MessageID
	if raw, ok := req.Header.Get("last-event-id"); ok {
		id, err := messenger.ParseMessageID(raw)
		if err != nil {
			return httpx.BadRequest{}, nil
		}
		resume = &id
	} else if query.Has("last_message_id") {
		id, err := messenger.ParseMessageID(query.Get("last_message_id"))
		if err != nil {
			return httpx.BadRequest{}, nil
		}
		resume = &id
	}

	ctx, cancel := context.WithCancel(ctx)
	messages, err := r.messenger.Subscribe(ctx, user.ID, resume)
	if err != nil {
		cancel()
		return nil, err
	}

	events := chanx.Pipe(ctx, messages, func(m messenger.Message) (sse.Event, bool) {
		data, err := sonic.MarshalString(m)
		if err != nil {
			log.Errorw("encode message event", "id", m.ID, "error", err)
			return sse.Event{}, false
		}
		return sse.Event{ID: m.ID.String(), Data: data}, true
	})
	log.Debugw("subscribed", "user", user.ID, "resume", resume)

	return httpx.EventSource{Retry: r.retry, Events: events, Close: cancel}, nil
}
