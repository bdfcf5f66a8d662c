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

package wiring

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/wso2/app-deployment-platform/app-manager-service/clients/aiadvisor"
	"github.com/wso2/app-deployment-platform/app-manager-service/config"
	"github.com/wso2/app-deployment-platform/app-manager-service/controllers"
	"github.com/wso2/app-deployment-platform/app-manager-service/middleware/jwtassertion"
	"github.com/wso2/app-deployment-platform/app-manager-service/observability"
	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
	dockeradapter "github.com/wso2/app-deployment-platform/app-manager-service/orchestration/adapter/docker"
	kubernetesadapter "github.com/wso2/app-deployment-platform/app-manager-service/orchestration/adapter/kubernetes"
	mockadapter "github.com/wso2/app-deployment-platform/app-manager-service/orchestration/adapter/mock"
	prometheusadapter "github.com/wso2/app-deployment-platform/app-manager-service/orchestration/adapter/prometheus"
	"github.com/wso2/app-deployment-platform/app-manager-service/repositories"
	"github.com/wso2/app-deployment-platform/app-manager-service/services"
)

// AppParams contains all wired application dependencies
type AppParams struct {
	// Middleware
	AuthMiddleware jwtassertion.Middleware
	Logger         *slog.Logger

	// Controllers
	ApplicationController controllers.ApplicationController
	DeploymentController  controllers.DeploymentController

	// Observability
	Metrics *observability.Metrics

	// Database
	DB *gorm.DB
}

// OrchestrationBackends bundles the three collaborator contracts so tests can
// inject fakes in one place
type OrchestrationBackends struct {
	Containers     orchestration.ContainerOrchestrator
	LoadBalancer   orchestration.LoadBalancer
	MetricsBackend orchestration.MetricsBackend
}

func ProvideConfigFromPtr(config *config.Config) config.Config {
	return *config
}

func ProvideAuthMiddleware(config config.Config) jwtassertion.Middleware {
	return jwtassertion.JWTAuthMiddleware(config.AuthHeader)
}

// ProvideLogger provides the configured slog.Logger instance
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

// ProvideAdvisorClient creates the AI advisor client
func ProvideAdvisorClient(cfg config.Config) aiadvisor.AdvisorClient {
	return aiadvisor.NewAdvisorClient(aiadvisor.Config{
		BaseURL: cfg.Advisor.BaseURL,
		Timeout: time.Duration(cfg.Advisor.TimeoutSeconds) * time.Second,
	})
}

// ProvideEventStore selects the event store backend. Local dev environments
// run on the in-memory store; everything else uses the PostgreSQL-backed one.
func ProvideEventStore(cfg config.Config, db *gorm.DB) repositories.EventStore {
	if cfg.IsLocalDevEnv {
		return repositories.NewMemoryEventStore()
	}
	return repositories.NewGormEventStore(db)
}

// ProvideOrchestrationBackends selects the container/load-balancer/metrics
// stack from configuration
func ProvideOrchestrationBackends(cfg config.Config, logger *slog.Logger) (OrchestrationBackends, error) {
	switch cfg.OrchestrationBackend {
	case "kubernetes":
		adapter, err := kubernetesadapter.NewAdapter(cfg.KubeConfig, cfg.KubernetesNamespace, logger)
		if err != nil {
			return OrchestrationBackends{}, fmt.Errorf("failed to create kubernetes adapter: %w", err)
		}
		metricsBackend, err := prometheusadapter.NewAdapter(cfg.Prometheus.BaseURL, logger)
		if err != nil {
			return OrchestrationBackends{}, fmt.Errorf("failed to create prometheus adapter: %w", err)
		}
		return OrchestrationBackends{
			Containers:     adapter,
			LoadBalancer:   adapter,
			MetricsBackend: metricsBackend,
		}, nil
	case "docker":
		adapter, err := dockeradapter.NewAdapter(logger)
		if err != nil {
			return OrchestrationBackends{}, fmt.Errorf("failed to create docker adapter: %w", err)
		}
		metricsBackend, err := prometheusadapter.NewAdapter(cfg.Prometheus.BaseURL, logger)
		if err != nil {
			return OrchestrationBackends{}, fmt.Errorf("failed to create prometheus adapter: %w", err)
		}
		return OrchestrationBackends{
			Containers:     adapter,
			LoadBalancer:   adapter,
			MetricsBackend: metricsBackend,
		}, nil
	case "mock":
		adapter := mockadapter.NewAdapter(logger)
		return OrchestrationBackends{
			Containers:     adapter,
			LoadBalancer:   adapter,
			MetricsBackend: adapter,
		}, nil
	default:
		return OrchestrationBackends{}, fmt.Errorf("unknown orchestration backend %q", cfg.OrchestrationBackend)
	}
}

func ProvideContainerOrchestrator(backends OrchestrationBackends) orchestration.ContainerOrchestrator {
	return backends.Containers
}

func ProvideLoadBalancer(backends OrchestrationBackends) orchestration.LoadBalancer {
	return backends.LoadBalancer
}

func ProvideMetricsBackend(backends OrchestrationBackends) orchestration.MetricsBackend {
	return backends.MetricsBackend
}

// ProvideOrchestratorConfig maps the environment tunables onto the
// orchestrator's config
func ProvideOrchestratorConfig(cfg config.Config) services.OrchestratorConfig {
	return services.OrchestratorConfig{
		HealthCheckTimeout:      time.Duration(cfg.Deployment.HealthCheckTimeoutSeconds) * time.Second,
		HealthCheckInterval:     time.Duration(cfg.Deployment.HealthCheckIntervalSeconds) * time.Second,
		StabilityWindow:         time.Duration(cfg.Deployment.StabilityWindowSeconds) * time.Second,
		StabilitySampleInterval: time.Duration(cfg.Deployment.StabilitySampleIntervalSeconds) * time.Second,
		ErrorRateThreshold:      cfg.Deployment.ErrorRateThresholdPercent,
	}
}
