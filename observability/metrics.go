// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's own Prometheus instruments
type Metrics struct {
	Registry *prometheus.Registry

	DeploymentsStarted  prometheus.Counter
	DeploymentsFinished *prometheus.CounterVec
	PhaseDuration       *prometheus.HistogramVec
	AppendConflicts     prometheus.Counter
}

// NewMetrics creates and registers the service metrics on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		DeploymentsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_manager_deployments_started_total",
			Help: "Number of deployment orchestrations started",
		}),
		DeploymentsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "app_manager_deployments_finished_total",
			Help: "Number of deployment orchestrations finished, by terminal status",
		}, []string{"status"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "app_manager_deployment_phase_duration_seconds",
			Help:    "Duration of individual deployment phases",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"phase"}),
		AppendConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_manager_event_append_conflicts_total",
			Help: "Number of optimistic-concurrency conflicts on event append",
		}),
	}
}
