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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScheduledJobRunsTotal counts scheduled job runs by outcome.
	ScheduledJobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_scheduled_job_runs_total",
			Help: "Scheduled job runs, by job and result",
		},
		[]string{"job", "result"},
	)

	// ScheduledJobDurationSeconds measures how long scheduled jobs hold the
	// resources they sweep.
	ScheduledJobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courier_scheduled_job_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"job"},
	)

	// ScheduledJobLastRun is the unix time of the latest run.
	ScheduledJobLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courier_scheduled_job_last_run_timestamp_seconds",
			Help: "Unix time of the latest run of each scheduled job",
		},
		[]string{"job"},
	)
)

// RegisterCronMetrics registers the scheduled job metrics on registry.
func RegisterCronMetrics(registry prometheus.Registerer) {
	registry.MustRegister(
		ScheduledJobRunsTotal,
		ScheduledJobDurationSeconds,
		ScheduledJobLastRun,
	)
}

// RecordCronJobRun records one run of a scheduled job.
func RecordCronJobRun(job string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ScheduledJobRunsTotal.WithLabelValues(job, result).Inc()
	ScheduledJobDurationSeconds.WithLabelValues(job).Observe(duration.Seconds())
	ScheduledJobLastRun.WithLabelValues(job).SetToCurrentTime()
}
