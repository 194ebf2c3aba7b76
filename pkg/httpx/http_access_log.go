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
	"strconv"
	"time"

	"github.com/go-arcade/courier/pkg/metrics"
	"go.uber.org/zap"
)

// accessLog records the outcome of one request. For event streams the
// latency covers the handler only.
func (s *Server) accessLog(logger *zap.SugaredLogger, req *Request, resp Response, start time.Time) {
	code := StatusCode(resp)
	metrics.ResponsesTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	if !s.AccessLog {
		return
	}
	logger.Infow("request",
		"method", req.Method,
		"target", req.Target,
		"status", code,
		"latency", time.Since(start),
	)
}
