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
	"bufio"
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/courier/pkg/sse"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, handler Handler) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{Handler: handler, KeepAlive: time.Hour}
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()
	t.Cleanup(cancel)

	return ln.Addr().String(), cancel, errCh
}

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	out, _ := io.ReadAll(conn)
	return string(out)
}

func TestServer_RoundTrip(t *testing.T) {
	addr, _, _ := startServer(t, HandlerFunc(func(_ context.Context, req *Request) (Response, error) {
		body, err := req.Body()
		if err != nil {
			return BadRequest{}, nil
		}
		return Text{Content: req.Path() + ":" + body}, nil
	}))

	got := roundTrip(t, addr, "POST /echo?x=1 HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	assert.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"Content-Length: 11\r\n\r\n/echo:hello", got)
}

func TestServer_DropsUndecodableRequest(t *testing.T) {
	var called atomic.Bool
	addr, _, _ := startServer(t, HandlerFunc(func(context.Context, *Request) (Response, error) {
		called.Store(true)
		return Empty{}, nil
	}))

	assert.Empty(t, roundTrip(t, addr, "BREW /pot HTTP/1.1\r\n\r\n"))
	assert.False(t, called.Load())
}

func TestServer_DropsOnHandlerError(t *testing.T) {
	addr, _, _ := startServer(t, HandlerFunc(func(context.Context, *Request) (Response, error) {
		return nil, errors.New("storage unavailable")
	}))

	assert.Empty(t, roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n"))
}

func TestServer_CancelStopsListener(t *testing.T) {
	addr, cancel, errCh := startServer(t, HandlerFunc(func(context.Context, *Request) (Response, error) {
		return Empty{}, nil
	}))
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n"))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	_, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestServer_StreamOutlivesListener(t *testing.T) {
	events := make(chan sse.Event, 1)
	closed := make(chan struct{})
	handlerCtx := make(chan context.Context, 1)

	addr, cancel, errCh := startServer(t, HandlerFunc(func(ctx context.Context, _ *Request) (Response, error) {
		handlerCtx <- ctx
		return EventSource{
			Events: events,
			Close: func() {
				close(closed)
				close(events)
			},
		}, nil
	}))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = conn.Write([]byte("GET /subscribe/new_messages HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	readHead(t, r)

	cancel()
	require.NoError(t, <-errCh)
	assert.NoError(t, (<-handlerCtx).Err())

	events <- sse.Event{Data: "still here", ID: "1"}
	assert.Equal(t, "data: still here\nid: 1\n\n", readEvent(t, r))

	require.NoError(t, conn.Close())
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("stream producer was not closed")
	}
}
