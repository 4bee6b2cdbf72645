// Copyright 2024 Nokia
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

package tx

import "github.com/prometheus/client_golang/prometheus"

var (
	transactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netconf_client",
		Subsystem: "tx",
		Name:      "transactions_total",
		Help:      "Number of finished write transactions by kind and terminal state.",
	}, []string{"kind", "state"})

	commitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netconf_client",
		Subsystem: "tx",
		Name:      "commit_duration_seconds",
		Help:      "Time from submit to the terminal state of write transactions.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"kind"})

	chainsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netconf_client",
		Subsystem: "tx",
		Name:      "chains_total",
		Help:      "Number of closed transaction chains by outcome.",
	}, []string{"outcome"})
)

// Collectors returns the metrics of this package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{transactionsTotal, commitDuration, chainsTotal}
}
