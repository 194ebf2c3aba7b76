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
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/go-arcade/courier/pkg/safe"
	"github.com/pkg/errors"
)

const (
	// DefaultKeepAlive is the interval between keep-alive comments on idle
	// event streams.
	DefaultKeepAlive = time.Hour

	maxAcceptDelay = time.Second
)

// Conf is the listener configuration.
type Conf struct {
	Host string
	Port int
	// KeepAlive is the event stream keep-alive interval in seconds.
	KeepAlive int `mapstructure:"keepAlive"`
	// Retry is the reconnection hint sent to event stream clients, in
	// milliseconds. Zero sends none.
	Retry     int
	AccessLog bool `mapstructure:"accessLog"`
}

// Addr returns host:port.
func (c Conf) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Handler turns a request into exactly one response. A returned error drops
// the connection without a response.
type Handler interface {
	Handle(ctx context.Context, req *Request) (Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (Response, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (Response, error) {
	return f(ctx, req)
}

// Server accepts connections and runs one connection task per connection.
type Server struct {
	Addr      string
	Handler   Handler
	KeepAlive time.Duration
	AccessLog bool
}

// NewServer creates a server from its configuration.
func NewServer(conf Conf, handler Handler) *Server {
	keepAlive := DefaultKeepAlive
	if conf.KeepAlive > 0 {
		keepAlive = time.Duration(conf.KeepAlive) * time.Second
	}
	return &Server{
		Addr:      conf.Addr(),
		Handler:   handler,
		KeepAlive: keepAlive,
		AccessLog: conf.AccessLog,
	}
}

// Listen binds the server address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", s.Addr)
	}
	return ln, nil
}

// ListenAndServe binds the server address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes ln and
// returns nil. Connections already accepted keep running; their handlers see
// a context that is not canceled by ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	connCtx := context.WithoutCancel(ctx)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	log.Infow("listener started", "address", ln.Addr().String())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("listener stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Wrap(err, "accept")
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			log.Warnw("accept failed", "error", err, "retryIn", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		metrics.ConnectionsAcceptedTotal.Inc()
		safe.Go(func() { s.serveConn(connCtx, conn) })
	}
}
