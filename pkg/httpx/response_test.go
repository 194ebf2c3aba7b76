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

package httpx

import (
	"bytes"
	"testing"

	"github.com/go-arcade/courier/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "text",
			resp: Text{Content: "ok."},
			want: "HTTP/1.1 200 OK\r\n" +
				"Content-Type: text/plain; charset=utf-8\r\n" +
				"Content-Length: 3\r\n\r\nok.",
		},
		{
			name: "html with extra header",
			resp: HTML{Content: "<p>hi</p>", Headers: []Field{{Name: "Set-Cookie", Value: "session_id=abc"}}},
			want: "HTTP/1.1 200 OK\r\n" +
				"Set-Cookie: session_id=abc\r\n" +
				"Content-Type: text/html; charset=utf-8\r\n" +
				"Content-Length: 9\r\n\r\n<p>hi</p>",
		},
		{
			name: "json counts bytes not runes",
			resp: JSON{Content: `"Привет"`},
			want: "HTTP/1.1 200 OK\r\n" +
				"Content-Type: application/json; charset=utf-8\r\n" +
				"Content-Length: 14\r\n\r\n\"Привет\"",
		},
		{
			name: "redirect",
			resp: Redirect{Location: "/login", Headers: []Field{{Name: "Set-Cookie", Value: "session_id=; Max-Age=0"}}},
			want: "HTTP/1.1 303 See Other\r\n" +
				"Location: /login\r\n" +
				"Set-Cookie: session_id=; Max-Age=0\r\n\r\n",
		},
		{
			name: "bad request",
			resp: BadRequest{},
			want: "HTTP/1.1 400 Bad Request\r\n" +
				"Content-Type: text/plain; charset=utf-8\r\n" +
				"Content-Length: 11\r\n\r\nBad request",
		},
		{
			name: "internal server error",
			resp: InternalServerError{},
			want: "HTTP/1.1 500 Internal Server Error\r\n" +
				"Content-Type: text/plain; charset=utf-8\r\n" +
				"Content-Length: 21\r\n\r\nInternal Server Error",
		},
		{
			name: "empty",
			resp: Empty{},
			want: "HTTP/1.1 200 OK\r\n\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteResponse(&buf, tt.resp))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteResponse_EventSourceIsStreamed(t *testing.T) {
	var buf bytes.Buffer
	err := WriteResponse(&buf, EventSource{Events: make(chan sse.Event)})
	assert.ErrorIs(t, err, ErrStreamingResponse)
	assert.Zero(t, buf.Len())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 200, StatusCode(Text{}))
	assert.Equal(t, 200, StatusCode(Empty{}))
	assert.Equal(t, 200, StatusCode(EventSource{}))
	assert.Equal(t, 303, StatusCode(Redirect{Location: "/"}))
	assert.Equal(t, 400, StatusCode(BadRequest{}))
	assert.Equal(t, 500, StatusCode(InternalServerError{}))
}
