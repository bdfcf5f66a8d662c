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

package prometheus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
)

// Query templates, parameterized by the service label. Error rate is a
// percentage to match the orchestrator's threshold semantics.
const (
	errorRateQuery   = `100 * sum(rate(http_requests_total{service=%q,status=~"5.."}[1m])) / sum(rate(http_requests_total{service=%q}[1m]))`
	latencyQuery     = `1000 * histogram_quantile(0.95, sum(rate(http_request_duration_seconds_bucket{service=%q}[1m])) by (le))`
	requestRateQuery = `sum(rate(http_requests_total{service=%q}[1m]))`
	cpuQuery         = `100 * avg(rate(container_cpu_usage_seconds_total{service=%q}[1m]))`
	memoryQuery      = `100 * avg(container_memory_working_set_bytes{service=%q} / container_spec_memory_limit_bytes{service=%q})`
)

// Adapter implements the MetricsBackend contract against a Prometheus server
type Adapter struct {
	api    promv1.API
	logger *slog.Logger
}

// NewAdapter creates a Prometheus-backed metrics adapter
func NewAdapter(serverURL string, logger *slog.Logger) (*Adapter, error) {
	client, err := promapi.NewClient(promapi.Config{Address: serverURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &Adapter{api: promv1.NewAPI(client), logger: logger}, nil
}

// SampleServiceMetrics queries one sample of the service's behavior
func (a *Adapter) SampleServiceMetrics(ctx context.Context, serviceName string) (orchestration.ServiceMetrics, error) {
	now := time.Now()

	errorRate, err := a.queryScalar(ctx, fmt.Sprintf(errorRateQuery, serviceName, serviceName), now)
	if err != nil {
		return orchestration.ServiceMetrics{}, err
	}
	latency, err := a.queryScalar(ctx, fmt.Sprintf(latencyQuery, serviceName), now)
	if err != nil {
		return orchestration.ServiceMetrics{}, err
	}
	requestRate, err := a.queryScalar(ctx, fmt.Sprintf(requestRateQuery, serviceName), now)
	if err != nil {
		return orchestration.ServiceMetrics{}, err
	}
	cpu, err := a.queryScalar(ctx, fmt.Sprintf(cpuQuery, serviceName), now)
	if err != nil {
		return orchestration.ServiceMetrics{}, err
	}
	memory, err := a.queryScalar(ctx, fmt.Sprintf(memoryQuery, serviceName, serviceName), now)
	if err != nil {
		return orchestration.ServiceMetrics{}, err
	}

	return orchestration.ServiceMetrics{
		ErrorRate:         errorRate,
		LatencyMs:         latency,
		RequestsPerSecond: requestRate,
		CPUUtilization:    cpu,
		MemoryUtilization: memory,
	}, nil
}

// queryScalar runs an instant query and returns the first vector sample.
// Missing series evaluate to zero: a service with no traffic yet has no
// error-rate series, and that must not read as a failure.
func (a *Adapter) queryScalar(ctx context.Context, query string, ts time.Time) (float64, error) {
	result, warnings, err := a.api.Query(ctx, query, ts)
	if err != nil {
		return 0, fmt.Errorf("prometheus query failed: %w", err)
	}
	for _, w := range warnings {
		a.logger.Warn("prometheus query warning", "warning", w, "query", query)
	}
	vector, ok := result.(model.Vector)
	if !ok {
		return 0, fmt.Errorf("unexpected prometheus result type %s", result.Type())
	}
	if len(vector) == 0 {
		return 0, nil
	}
	return float64(vector[0].Value), nil
}
