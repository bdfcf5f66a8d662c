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

//go:build wireinject
// +build wireinject

package wiring

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/wso2/app-deployment-platform/app-manager-service/config"
	"github.com/wso2/app-deployment-platform/app-manager-service/controllers"
	"github.com/wso2/app-deployment-platform/app-manager-service/observability"
	"github.com/wso2/app-deployment-platform/app-manager-service/repositories"
	"github.com/wso2/app-deployment-platform/app-manager-service/services"
)

var configProviderSet = wire.NewSet(
	ProvideConfigFromPtr,
)

var loggerProviderSet = wire.NewSet(
	ProvideLogger,
)

var repositoryProviderSet = wire.NewSet(
	repositories.NewApplicationRepo,
	ProvideEventStore,
	repositories.NewDeploymentRepo,
)

var orchestrationProviderSet = wire.NewSet(
	ProvideOrchestrationBackends,
	ProvideContainerOrchestrator,
	ProvideLoadBalancer,
	ProvideMetricsBackend,
	ProvideOrchestratorConfig,
)

var serviceProviderSet = wire.NewSet(
	ProvideAdvisorClient,
	observability.NewMetrics,
	services.NewDeploymentOrchestrator,
	services.NewApplicationService,
)

var controllerProviderSet = wire.NewSet(
	controllers.NewApplicationController,
	controllers.NewDeploymentController,
)

func InitializeAppParams(cfg *config.Config, db *gorm.DB) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		repositoryProviderSet,
		orchestrationProviderSet,
		serviceProviderSet,
		controllerProviderSet,
		ProvideAuthMiddleware, wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}
