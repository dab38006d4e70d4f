// Copyright 2025 The relayd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/relayd/relayd/common"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	acceptedConns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "accepted_connections_total",
			Help:      "Accepted relay connections total",
		},
	)

	activeConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "active_connections",
			Help:      "Currently active relay connections",
		},
	)

	dialFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "dial_failures_total",
			Help:      "Failures dialing the remote endpoint total",
		},
	)

	coverBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "cover_bytes_total",
			Help:      "Cover-traffic bytes forwarded total, by direction",
		},
		[]string{"direction"},
	)

	covertExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "covert_exchanges_total",
			Help:      "Completed steganographic hide/reveal cycles total, by direction",
		},
		[]string{"direction"},
	)

	authFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "auth_failures_total",
			Help:      "Password authentication failures observed on the decode side total",
		},
	)
)
