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
	"net"
	"time"

	"github.com/go-arcade/courier/pkg/chanx"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/go-arcade/courier/pkg/sse"
	"go.uber.org/zap"
)

// serveEventSource writes the stream preamble and then events until the
// producer closes the channel, the client sends anything or goes away, or a
// write fails. On the way out it closes the socket, tells the producer to
// stop and drains whatever is still queued.
func (s *Server) serveEventSource(conn net.Conn, r *bufio.Reader, stream EventSource, logger *zap.SugaredLogger) {
	metrics.EventStreamsActive.Inc()
	defer metrics.EventStreamsActive.Dec()

	defer func() {
		_ = conn.Close()
		if stream.Close != nil {
			stream.Close()
		}
		if stream.Events != nil {
			chanx.Drain(stream.Events)
		}
	}()

	w := bufio.NewWriter(conn)
	if err := writeEventSourceHead(w, stream.Retry); err != nil {
		logger.Debugw("event stream preamble failed", "error", err)
		return
	}

	// the client never sends anything on a stream; any read result ends it
	inbound := make(chan struct{})
	go func() {
		defer close(inbound)
		var b [1]byte
		_, _ = r.Read(b[:])
	}()

	keepAlive := s.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sse.WriteComment(w, "keep-alive"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				logger.Debugw("event stream closed", "reason", "keep-alive write", "error", err)
				return
			}
		case <-inbound:
			logger.Debugw("event stream closed", "reason", "client")
			return
		case event, ok := <-stream.Events:
			if !ok {
				logger.Debugw("event stream closed", "reason", "producer")
				return
			}
			if _, err := event.WriteTo(w); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				logger.Debugw("event stream closed", "reason", "write", "error", err)
				return
			}
		}
	}
}
