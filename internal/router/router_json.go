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
	"slices"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/pkg/errors"
)

const errUnauthorized = "Unauthorized"

type messagesResult struct {
	Success  bool                `json:"success"`
	Messages []messenger.Message `json:"messages"`
	Error    *string             `json:"error"`
}

type usersResult struct {
	Success bool             `json:"success"`
	Users   []messenger.User `json:"users"`
	Error   *string          `json:"error"`
}

type userResult struct {
	Success bool            `json:"success"`
	User    *messenger.User `json:"user"`
	Error   *string         `json:"error"`
}

func unauthorized() *string {
	s := errUnauthorized
	return &s
}

// messagesJSON returns a page of the chat with chatID, oldest first, ending
// just before the message named by from.
func (r *Router) messagesJSON(ctx context.Context, req *httpx.Request, chatID string, query url.Values) (httpx.Response, error) {
	chat, err := messenger.ParseUserID(chatID)
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	var before *messenger.MessageID
	if query.Has("from") {
		id, err := messenger.ParseMessageID(query.Get("from"))
		if err != nil {
			return httpx.BadRequest{}, nil
		}
		before = &id
	}

	user, err := r.user(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return jsonResponse(messagesResult{Messages: []messenger.Message{}, Error: unauthorized()})
	}

	messages, err := r.messenger.FetchLastMessages(ctx, user.ID, chat, before)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	if messages == nil {
		messages = []messenger.Message{}
	}
	return jsonResponse(messagesResult{Success: true, Messages: messages})
}

func (r *Router) chatsJSON(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	user, err := r.user(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return jsonResponse(usersResult{Users: []messenger.User{}, Error: unauthorized()})
	}
	chats, err := r.messenger.FetchUsersChats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return usersJSON(chats)
}

// chatSearchJSON answers without a q parameter with an empty response.
func (r *Router) chatSearchJSON(ctx context.Context, query url.Values) (httpx.Response, error) {
	if !query.Has("q") {
		return httpx.Empty{}, nil
	}
	users, err := r.messenger.FindUsersBySubstring(ctx, query.Get("q"))
	if err != nil {
		return nil, err
	}
	return usersJSON(users)
}

func usersJSON(users []messenger.User) (httpx.Response, error) {
	if users == nil {
		users = []messenger.User{}
	}
	return jsonResponse(usersResult{Success: true, Users: users})
}

func (r *Router) userJSON(ctx context.Context, userID string) (httpx.Response, error) {
	id, err := messenger.ParseUserID(userID)
	if err != nil {
		return httpx.BadRequest{}, nil
	}
	user, err := r.messenger.FetchUser(ctx, id)
	if errors.Is(err, messenger.ErrNotFound) {
		return httpx.BadRequest{}, nil
	}
	if err != nil {
		return nil, err
	}
	return jsonResponse(userResult{Success: true, User: user})
}

func (r *Router) meJSON(ctx context.Context, req *httpx.Request) (httpx.Response, error) {
	user, err := r.user(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return jsonResponse(userResult{Error: unauthorized()})
	}
	return jsonResponse(userResult{Success: true, User: user})
}
