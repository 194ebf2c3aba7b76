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
	"net"
	"time"

	"github.com/go-arcade/courier/pkg/id"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/go-arcade/courier/pkg/safe"
)

// serveConn runs one connection: decode, handle, respond. Event stream
// responses are handed to their own goroutine, which then owns conn.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	handedOff := false
	defer func() {
		if !handedOff {
			_ = conn.Close()
		}
	}()

	logger := log.With("conn", id.GetXid(), "remote", conn.RemoteAddr().String())

	r := bufio.NewReaderSize(conn, ReadBufferSize)
	req, err := ReadRequest(r)
	if err != nil {
		metrics.ConnectionsDroppedTotal.WithLabelValues("decode").Inc()
		logger.Debugw("dropping connection", "reason", "decode", "error", err)
		return
	}

	start := time.Now()
	resp, err := s.Handler.Handle(ctx, req)
	if err != nil {
		metrics.ConnectionsDroppedTotal.WithLabelValues("handler").Inc()
		logger.Errorw("request handler failed",
			"method", req.Method,
			"target", req.Target,
			"error", err,
		)
		return
	}
	s.accessLog(logger, req, resp, start)

	if stream, ok := resp.(EventSource); ok {
		handedOff = true
		safe.Go(func() { s.serveEventSource(conn, r, stream, logger) })
		return
	}

	if err := WriteResponse(conn, resp); err != nil {
		logger.Debugw("write response failed", "error", err)
		return
	}
	closeWrite(conn)
}

// closeWrite half-closes the connection so the peer sees EOF after the
// response.
func closeWrite(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}
