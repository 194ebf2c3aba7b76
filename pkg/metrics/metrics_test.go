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

package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsServer_ExposesChatMetrics(t *testing.T) {
	server := NewMetricsServer(MetricsConfig{})

	MessagesPublishedTotal.Inc()
	RecordCronJobRun("subscription_gc", time.Millisecond, nil)
	RecordCronJobRun("subscription_gc", time.Millisecond, errors.New("boom"))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "courier_messages_published_total"))
	assert.True(t, strings.Contains(body, `courier_scheduled_job_runs_total{job="subscription_gc",result="error"} 1`))
}

func TestServer_DisabledStartIsNoop(t *testing.T) {
	server := NewServer(MetricsConfig{Enable: false})
	require.NoError(t, server.Start())
	require.NoError(t, server.Stop(context.Background()))
}

func TestServer_StartStop(t *testing.T) {
	server := NewServer(MetricsConfig{Enable: true, Host: "127.0.0.1", Port: 0})
	require.NoError(t, server.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
}

func TestServer_RoutesMountPprof(t *testing.T) {
	get := func(s *Server, path string) int {
		rec := httptest.NewRecorder()
		s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	plain := NewServer(MetricsConfig{Enable: true})
	assert.Equal(t, http.StatusOK, get(plain, "/metrics"))
	assert.Equal(t, http.StatusNotFound, get(plain, "/debug/pprof/heap"))

	profiled := NewServer(MetricsConfig{Enable: true, Pprof: true, PprofPath: "/debug/pprof"})
	assert.Equal(t, http.StatusOK, get(profiled, "/debug/pprof/heap?debug=1"))
}
