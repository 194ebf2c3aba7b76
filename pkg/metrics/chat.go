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

import "github.com/prometheus/client_golang/prometheus"

var (
	// ConnectionsAcceptedTotal counts accepted TCP connections.
	ConnectionsAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_connections_accepted_total",
			Help: "Total number of accepted connections",
		},
	)

	// ConnectionsDroppedTotal counts connections closed without a response.
	ConnectionsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_connections_dropped_total",
			Help: "Connections dropped without a response, by reason",
		},
		[]string{"reason"},
	)

	// ResponsesTotal counts written responses by status code.
	ResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_responses_total",
			Help: "Responses written, by status code",
		},
		[]string{"code"},
	)

	// EventStreamsActive is the number of open event streams.
	EventStreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "courier_event_streams_active",
			Help: "Number of open server-sent event streams",
		},
	)

	// SubscriptionEntries is the number of per-user broadcast entries.
	SubscriptionEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "courier_subscription_entries",
			Help: "Number of per-user broadcast entries in the registry",
		},
	)

	// SubscriptionEntriesCollectedTotal counts entries removed by the sweep.
	SubscriptionEntriesCollectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_subscription_entries_collected_total",
			Help: "Broadcast entries removed because nobody listened",
		},
	)

	// MessagesPublishedTotal counts messages handed to the registry.
	MessagesPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_messages_published_total",
			Help: "Messages published to live subscribers",
		},
	)

	// SubscribersLaggedTotal counts receivers disconnected for falling behind.
	SubscribersLaggedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courier_subscribers_lagged_total",
			Help: "Subscribers disconnected because their buffer was full",
		},
	)
)

// RegisterChatMetrics registers the transport and fanout metrics on registry.
func RegisterChatMetrics(registry prometheus.Registerer) {
	registry.MustRegister(
		ConnectionsAcceptedTotal,
		ConnectionsDroppedTotal,
		ResponsesTotal,
		EventStreamsActive,
		SubscriptionEntries,
		SubscriptionEntriesCollectedTotal,
		MessagesPublishedTotal,
		SubscribersLaggedTotal,
	)
}
