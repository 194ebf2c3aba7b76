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

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/httpx"
)

type loginView struct {
	Failed bool
}

type chatView struct {
	Username string
	UserID   messenger.UserID
	ChatID   string
}

// chatPage serves the chat application. The optional segment names the
// chat to open; the page itself validates it.
func (r *Router) chatPage(ctx context.Context, req *httpx.Request, rest []string) (httpx.Response, error) {
	user, err := r.user(ctx, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return loginRedirect(), nil
	}

	page := chatView{Username: user.Username, UserID: user.ID}
	if len(rest) == 1 {
		chat, err := messenger.ParseUserID(rest[0])
		if err != nil {
			return httpx.BadRequest{}, nil
		}
		page.ChatID = chat.String()
	}
	return r.page("chat.html", page)
}
