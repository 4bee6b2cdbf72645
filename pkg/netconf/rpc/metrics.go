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

package rpc

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK      = "ok"
	resultError   = "error"
	resultAborted = "aborted"
)

var rpcDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "netconf_client",
	Subsystem: "rpc",
	Name:      "duration_seconds",
	Help:      "Duration of NETCONF operations by operation and result.",
	Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
}, []string{"operation", "result"})

// Collectors returns the metrics of this package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{rpcDuration}
}
