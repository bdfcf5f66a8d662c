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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/app-deployment-platform/app-manager-service/clients/aiadvisor"
	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/observability"
	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
	"github.com/wso2/app-deployment-platform/app-manager-service/repositories"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

const waitFor = 3 * time.Second
const tick = 5 * time.Millisecond

func testOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		HealthCheckTimeout:      100 * time.Millisecond,
		HealthCheckInterval:     10 * time.Millisecond,
		StabilityWindow:         100 * time.Millisecond,
		StabilitySampleInterval: 10 * time.Millisecond,
		ErrorRateThreshold:      5.0,
	}
}

func testResources() models.ResourceRequirements {
	return models.ResourceRequirements{CPUCores: 1, MemoryMB: 512, StorageGB: 10}
}

func testScalingConfig() models.ScalingConfiguration {
	return models.ScalingConfiguration{
		Strategy:             models.ScalingStrategyManual,
		MinInstances:         2,
		MaxInstances:         10,
		TargetCPUUtilization: 70,
	}
}

// newDeployingApp creates an application committed up to the DEPLOYING state,
// with its events in the store the same way the service layer leaves them.
func newDeployingApp(t *testing.T, appRepo *mockApplicationRepo, eventStore repositories.EventStore) *models.Application {
	t.Helper()
	ctx := context.Background()

	app, err := models.NewApplication("checkout", "user-1", testResources(), testScalingConfig())
	require.NoError(t, err)
	require.NoError(t, app.Deploy())

	require.NoError(t, eventStore.Append(ctx, app.ID, app.UncommittedEvents(), 0))
	app.ClearUncommittedEvents()
	require.NoError(t, appRepo.Save(ctx, app))
	return app
}

type orchestratorFixture struct {
	orchestrator DeploymentOrchestrator
	appRepo      *mockApplicationRepo
	depRepo      *mockDeploymentRepo
	eventStore   *repositories.MemoryEventStore
	infra        *fakeInfra
	advisor      *mockAdvisor
}

func newOrchestratorFixture(cfg OrchestratorConfig) *orchestratorFixture {
	appRepo := newMockApplicationRepo()
	depRepo := newMockDeploymentRepo()
	eventStore := repositories.NewMemoryEventStore()
	infra := newFakeInfra()
	advisor := &mockAdvisor{}

	orchestrator := NewDeploymentOrchestrator(
		depRepo, appRepo, eventStore, advisor,
		infra, infra, infra,
		observability.NewMetrics(), cfg, slog.Default())

	return &orchestratorFixture{
		orchestrator: orchestrator,
		appRepo:      appRepo,
		depRepo:      depRepo,
		eventStore:   eventStore,
		infra:        infra,
		advisor:      advisor,
	}
}

func waitForTerminal(t *testing.T, f *orchestratorFixture, dep *models.Deployment) models.Deployment {
	t.Helper()
	var final models.Deployment
	require.Eventually(t, func() bool {
		stored, ok := f.depRepo.stored(dep.DeploymentID)
		if !ok || !stored.Terminal() {
			return false
		}
		final = stored
		return true
	}, waitFor, tick, "deployment did not reach a terminal status")
	return final
}

func TestStartDeployment_RejectsUnimplementedStrategy(t *testing.T) {
	f := newOrchestratorFixture(testOrchestratorConfig())
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	_, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyRolling)
	assert.ErrorIs(t, err, utils.ErrStrategyNotImplemented)
	assert.Equal(t, 0, f.depRepo.createCalls, "no record for a rejected strategy")
}

func TestDeployment_HappyPath(t *testing.T) {
	f := newOrchestratorFixture(testOrchestratorConfig())
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", map[string]string{"ENV": "prod"}, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)

	final := waitForTerminal(t, f, dep)
	assert.Equal(t, models.DeploymentStatusCompleted, final.Status)
	assert.False(t, final.RollbackExecuted)
	assert.NotNil(t, final.CompletedAt)
	assert.NotEmpty(t, final.HealthCheckLog)
	assert.NotEmpty(t, final.StabilitySamples)

	require.NotNil(t, final.RiskAssessment)
	assert.False(t, final.RiskAssessment.FallbackUsed)
	assert.Equal(t, models.RiskLevelLow, final.RiskAssessment.RiskLevel)

	// exactly one forward switch, onto this deployment's target group
	switches := f.infra.recordedSwitches()
	require.Len(t, switches, 1)
	assert.True(t, strings.Contains(switches[0].To, "--"), "switch targets a named group")

	// aggregate landed on RUNNING through the event-sourced unit of work
	require.Eventually(t, func() bool {
		stored, ok := f.appRepo.stored(app.ID)
		return ok && stored.Status == models.ApplicationStatusRunning
	}, waitFor, tick)

	events, err := f.eventStore.GetEvents(context.Background(), app.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventDeploymentCompleted, events[2].EventType)
}

func TestDeployment_RiskFeaturesCarryTrafficAndImage(t *testing.T) {
	f := newOrchestratorFixture(testOrchestratorConfig())
	f.infra.imageSizeMB = 256
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)
	waitForTerminal(t, f, dep)

	features := f.advisor.recordedFeatures()
	require.Len(t, features, 1)
	assert.Equal(t, "registry/app:v2", features[0].ContainerImage)
	assert.Equal(t, 42.0, features[0].TrafficVolume, "traffic volume is the observed request rate")
	assert.Equal(t, 256.0, features[0].ImageSizeMB)
	assert.Equal(t, 0.5, features[0].RecentErrorRate)
	assert.Equal(t, app.CurrentInstanceCount, features[0].CurrentInstanceCount)
}

func TestDeployment_HealthGateTimeout(t *testing.T) {
	f := newOrchestratorFixture(testOrchestratorConfig())
	// green never reaches the desired count
	f.infra.describeFunc = func(string) (orchestration.ServiceCounts, error) {
		return orchestration.ServiceCounts{RunningCount: 1, DesiredCount: 2}, nil
	}
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)

	final := waitForTerminal(t, f, dep)
	assert.Equal(t, models.DeploymentStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "timeout")
	assert.False(t, final.RollbackExecuted)

	// traffic must never have moved, and green is preserved for inspection
	assert.Empty(t, f.infra.recordedSwitches())
	assert.Empty(t, f.infra.deleteCalls)

	require.Eventually(t, func() bool {
		stored, ok := f.appRepo.stored(app.ID)
		return ok && stored.Status == models.ApplicationStatusFailed
	}, waitFor, tick)

	events, err := f.eventStore.GetEvents(context.Background(), app.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventErrorOccurred, events[2].EventType)
}

func TestDeployment_StabilityRegressionRollsBack(t *testing.T) {
	cfg := testOrchestratorConfig()
	cfg.StabilityWindow = 500 * time.Millisecond
	f := newOrchestratorFixture(cfg)
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	// the green environment regresses on its third stability sample; the base
	// service sampled for risk features ("app-<id>") has one dash, the green
	// service ("app-<id>-<dep>") has two
	var stabilitySamples int32
	f.infra.sampleFunc = func(serviceName string) (orchestration.ServiceMetrics, error) {
		if strings.Count(serviceName, "-") < 2 {
			return orchestration.ServiceMetrics{}, nil
		}
		n := atomic.AddInt32(&stabilitySamples, 1)
		if n >= 3 {
			return orchestration.ServiceMetrics{ErrorRate: 12.0}, nil
		}
		return orchestration.ServiceMetrics{ErrorRate: 0.5}, nil
	}

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)

	final := waitForTerminal(t, f, dep)
	assert.Equal(t, models.DeploymentStatusRolledBack, final.Status)
	assert.True(t, final.RollbackExecuted)
	assert.Contains(t, final.ErrorMessage, "error rate")

	// exactly one forward switch and exactly one switch back, mirrored
	switches := f.infra.recordedSwitches()
	require.Len(t, switches, 2)
	assert.Equal(t, switches[0].To, switches[1].From)
	assert.Equal(t, switches[0].From, switches[1].To)

	require.Eventually(t, func() bool {
		stored, ok := f.appRepo.stored(app.ID)
		return ok && stored.Status == models.ApplicationStatusFailed
	}, waitFor, tick)
}

func TestDeployment_AdvisorDownUsesFallbackAndProceeds(t *testing.T) {
	f := newOrchestratorFixture(testOrchestratorConfig())
	f.advisor.assessRiskFunc = func(context.Context, aiadvisor.RiskFeatures) (*aiadvisor.RiskAssessmentResponse, error) {
		return nil, fmt.Errorf("%w: connection refused", utils.ErrAdvisorUnavailable)
	}
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)

	final := waitForTerminal(t, f, dep)
	assert.Equal(t, models.DeploymentStatusCompleted, final.Status, "advisor failure must never block the rollout")

	require.NotNil(t, final.RiskAssessment)
	assert.True(t, final.RiskAssessment.FallbackUsed)
	assert.Equal(t, 0.6, final.RiskAssessment.Confidence)
	// MEDIUM baseline de-escalated one level for blue/green
	assert.Equal(t, models.RiskLevelLow, final.RiskAssessment.RiskLevel)
}

func TestDeployment_FallbackEscalatesForLargeFleet(t *testing.T) {
	assessment := fallbackRiskAssessment(12, models.DeploymentStrategyBlueGreen)
	// HIGH for >10 instances, de-escalated one level for blue/green
	assert.Equal(t, models.RiskLevelMedium, assessment.RiskLevel)
	assert.True(t, assessment.FallbackUsed)

	assessment = fallbackRiskAssessment(3, models.DeploymentStrategyBlueGreen)
	assert.Equal(t, models.RiskLevelLow, assessment.RiskLevel)
}

func TestCancelDeployment_InterruptsHealthGate(t *testing.T) {
	cfg := testOrchestratorConfig()
	cfg.HealthCheckTimeout = 10 * time.Second // cancel, not timeout, ends this run
	f := newOrchestratorFixture(cfg)
	f.infra.describeFunc = func(string) (orchestration.ServiceCounts, error) {
		return orchestration.ServiceCounts{RunningCount: 0, DesiredCount: 2}, nil
	}
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, ok := f.depRepo.stored(dep.DeploymentID)
		return ok && stored.Status == models.DeploymentStatusInProgress
	}, waitFor, tick)

	require.NoError(t, f.orchestrator.CancelDeployment(dep.DeploymentID))

	final := waitForTerminal(t, f, dep)
	assert.Equal(t, models.DeploymentStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "canceled")
	assert.Empty(t, f.infra.recordedSwitches())
}

func TestCancelDeployment_FinishedDeploymentNotCancelable(t *testing.T) {
	f := newOrchestratorFixture(testOrchestratorConfig())
	app := newDeployingApp(t, f.appRepo, f.eventStore)

	dep, err := f.orchestrator.StartDeployment(context.Background(), app, "registry/app:v2", nil, models.DeploymentStrategyBlueGreen)
	require.NoError(t, err)
	waitForTerminal(t, f, dep)

	// the task has finished and deregistered itself
	require.Eventually(t, func() bool {
		return f.orchestrator.CancelDeployment(dep.DeploymentID) != nil
	}, waitFor, tick)
	assert.ErrorIs(t, f.orchestrator.CancelDeployment(dep.DeploymentID), utils.ErrDeploymentNotCancelable)
}
