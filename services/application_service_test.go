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
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/app-deployment-platform/app-manager-service/clients/aiadvisor"
	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/repositories"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

const testUserID = "user-1"

type serviceFixture struct {
	service      ApplicationService
	appRepo      *mockApplicationRepo
	depRepo      *mockDeploymentRepo
	eventStore   *repositories.MemoryEventStore
	orchestrator *mockOrchestrator
	advisor      *mockAdvisor
	infra        *fakeInfra
}

func newServiceFixture() *serviceFixture {
	appRepo := newMockApplicationRepo()
	depRepo := newMockDeploymentRepo()
	eventStore := repositories.NewMemoryEventStore()
	orchestrator := &mockOrchestrator{}
	advisor := &mockAdvisor{}
	infra := newFakeInfra()

	return &serviceFixture{
		service:      NewApplicationService(slog.Default(), appRepo, eventStore, depRepo, orchestrator, advisor, infra),
		appRepo:      appRepo,
		depRepo:      depRepo,
		eventStore:   eventStore,
		orchestrator: orchestrator,
		advisor:      advisor,
		infra:        infra,
	}
}

func validCreateRequest() *models.CreateApplicationRequest {
	return &models.CreateApplicationRequest{
		Name:          "checkout",
		Resources:     testResources(),
		ScalingConfig: testScalingConfig(),
	}
}

// seedRunningApp commits a RUNNING application (created, deployed, running;
// version 3) into the fixture's repo and event store.
func seedRunningApp(t *testing.T, f *serviceFixture) *models.Application {
	t.Helper()
	ctx := context.Background()

	app, err := models.NewApplication("checkout", testUserID, testResources(), testScalingConfig())
	require.NoError(t, err)
	require.NoError(t, app.Deploy())
	require.NoError(t, app.MarkAsRunning())

	require.NoError(t, f.eventStore.Append(ctx, app.ID, app.UncommittedEvents(), 0))
	app.ClearUncommittedEvents()
	require.NoError(t, f.appRepo.Save(ctx, app))
	return app
}

func eventCount(t *testing.T, f *serviceFixture, app *models.Application) int {
	t.Helper()
	events, err := f.eventStore.GetEvents(context.Background(), app.ID, 0)
	require.NoError(t, err)
	return len(events)
}

func TestCreateApplication(t *testing.T) {
	f := newServiceFixture()

	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, 1, app.Version)
	assert.Empty(t, app.UncommittedEvents(), "commit must clear the buffer")
	assert.Equal(t, 1, f.appRepo.saveCalls)

	events, err := f.eventStore.GetEvents(context.Background(), app.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventApplicationCreated, events[0].EventType)
}

func TestCreateApplication_InvalidInputWritesNothing(t *testing.T) {
	f := newServiceFixture()

	req := validCreateRequest()
	req.Resources.CPUCores = 0
	_, err := f.service.CreateApplication(context.Background(), testUserID, req)
	assert.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, 0, f.appRepo.saveCalls)
}

func TestDeployApplication(t *testing.T) {
	f := newServiceFixture()
	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)

	dep, err := f.service.DeployApplication(context.Background(), testUserID, app.ID, &models.DeployApplicationRequest{
		ContainerImage: "registry/app:v1",
		Strategy:       models.DeploymentStrategyBlueGreen,
	})
	require.NoError(t, err)
	require.NotNil(t, dep)

	assert.Equal(t, 1, f.orchestrator.startCalls)
	assert.Equal(t, "registry/app:v1", f.orchestrator.lastImage)

	stored, ok := f.appRepo.stored(app.ID)
	require.True(t, ok)
	assert.Equal(t, models.ApplicationStatusDeploying, stored.Status)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 2, eventCount(t, f, app))
}

func TestDeployApplication_EmptyImage(t *testing.T) {
	f := newServiceFixture()
	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)

	_, err = f.service.DeployApplication(context.Background(), testUserID, app.ID, &models.DeployApplicationRequest{
		Strategy: models.DeploymentStrategyBlueGreen,
	})
	assert.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, 0, f.orchestrator.startCalls)
}

func TestDeployApplication_UnimplementedStrategyLeavesNoTrace(t *testing.T) {
	f := newServiceFixture()
	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)
	savesBefore := f.appRepo.saveCalls

	_, err = f.service.DeployApplication(context.Background(), testUserID, app.ID, &models.DeployApplicationRequest{
		ContainerImage: "registry/app:v1",
		Strategy:       models.DeploymentStrategyCanary,
	})
	assert.ErrorIs(t, err, utils.ErrStrategyNotImplemented)

	assert.Equal(t, savesBefore, f.appRepo.saveCalls)
	assert.Equal(t, 1, eventCount(t, f, app))
	stored, _ := f.appRepo.stored(app.ID)
	assert.Equal(t, models.ApplicationStatusPending, stored.Status)
}

func TestDeployApplication_StartFailureMarksApplicationFailed(t *testing.T) {
	f := newServiceFixture()
	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)

	f.orchestrator.startErr = errors.New("deployment record store down")
	_, err = f.service.DeployApplication(context.Background(), testUserID, app.ID, &models.DeployApplicationRequest{
		ContainerImage: "registry/app:v1",
		Strategy:       models.DeploymentStrategyBlueGreen,
	})
	require.Error(t, err)

	// The aggregate must not stay wedged on DEPLOYING: with no orchestration
	// task running, FAILED is the only state something can still move it from.
	stored, ok := f.appRepo.stored(app.ID)
	require.True(t, ok)
	assert.Equal(t, models.ApplicationStatusFailed, stored.Status)
	assert.Equal(t, 3, stored.Version)

	events, err := f.eventStore.GetEvents(context.Background(), app.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.EventErrorOccurred, events[2].EventType)

	// FAILED is recoverable, so the deploy can be retried once the
	// orchestrator is healthy again.
	f.orchestrator.startErr = nil
	dep, err := f.service.DeployApplication(context.Background(), testUserID, app.ID, &models.DeployApplicationRequest{
		ContainerImage: "registry/app:v1",
		Strategy:       models.DeploymentStrategyBlueGreen,
	})
	require.NoError(t, err)
	require.NotNil(t, dep)
	stored, _ = f.appRepo.stored(app.ID)
	assert.Equal(t, models.ApplicationStatusDeploying, stored.Status)
}

func TestScaleApplication(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	scaled, err := f.service.ScaleApplication(context.Background(), testUserID, app.ID, &models.ScaleApplicationRequest{
		InstanceCount: 5,
		Reason:        "black friday",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusRunning, scaled.Status)
	assert.Equal(t, 5, scaled.CurrentInstanceCount)
	assert.Equal(t, 4, scaled.Version)

	events, err := f.eventStore.GetEvents(context.Background(), app.ID, 3)
	require.NoError(t, err)
	require.Len(t, events, 1, "scale and its completion are one unit of work with one event")
	assert.Equal(t, models.EventApplicationScaled, events[0].EventType)
}

func TestScaleApplication_SameTargetWritesNothing(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)
	savesBefore := f.appRepo.saveCalls

	scaled, err := f.service.ScaleApplication(context.Background(), testUserID, app.ID, &models.ScaleApplicationRequest{
		InstanceCount: app.CurrentInstanceCount,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusRunning, scaled.Status)
	assert.Equal(t, 3, scaled.Version)
	assert.Equal(t, savesBefore, f.appRepo.saveCalls)
	assert.Equal(t, 3, eventCount(t, f, app))
}

func TestScaleApplication_OutOfBounds(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	_, err := f.service.ScaleApplication(context.Background(), testUserID, app.ID, &models.ScaleApplicationRequest{InstanceCount: 11})
	assert.ErrorIs(t, err, utils.ErrOutOfRange)
	assert.Equal(t, 3, eventCount(t, f, app))
}

func TestScaleApplication_ConflictPropagatesAndSnapshotUntouched(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)
	savesBefore := f.appRepo.saveCalls

	// another writer advanced the stream after our snapshot was loaded
	rogue := models.NewApplicationEvent(app.ID, models.EventApplicationUpdated, 4, nil)
	require.NoError(t, f.eventStore.Append(context.Background(), app.ID, []models.ApplicationEvent{rogue}, 3))

	_, err := f.service.ScaleApplication(context.Background(), testUserID, app.ID, &models.ScaleApplicationRequest{InstanceCount: 5})
	assert.ErrorIs(t, err, utils.ErrConcurrencyConflict)

	assert.Equal(t, savesBefore, f.appRepo.saveCalls)
	stored, _ := f.appRepo.stored(app.ID)
	assert.Equal(t, 2, stored.CurrentInstanceCount)
	assert.Equal(t, 3, stored.Version)
}

func TestEvaluateScaling_RequiresRunning(t *testing.T) {
	f := newServiceFixture()
	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)

	_, err = f.service.EvaluateScaling(context.Background(), testUserID, app.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidStateTransition)
}

func TestEvaluateScaling_NoScaleRecommendationWritesNothing(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)
	f.advisor.predictFunc = func(context.Context, aiadvisor.ScalingPredictionRequest) (*aiadvisor.ScalingRecommendation, error) {
		return &aiadvisor.ScalingRecommendation{ShouldScale: false, Reason: "load within target"}, nil
	}

	result, err := f.service.EvaluateScaling(context.Background(), testUserID, app.ID)
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, 2, result.InstanceCount)
	assert.Equal(t, 3, eventCount(t, f, app))
}

func TestEvaluateScaling_AppliesRecommendationClampedToBounds(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)
	f.advisor.predictFunc = func(context.Context, aiadvisor.ScalingPredictionRequest) (*aiadvisor.ScalingRecommendation, error) {
		return &aiadvisor.ScalingRecommendation{
			ShouldScale:          true,
			RecommendedInstances: 50,
			Confidence:           0.82,
			Reason:               "sustained cpu pressure",
		}, nil
	}

	result, err := f.service.EvaluateScaling(context.Background(), testUserID, app.ID)
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, 10, result.InstanceCount, "recommendation clamps to the configured maximum")
	assert.Equal(t, 0.82, result.Confidence)

	stored, _ := f.appRepo.stored(app.ID)
	assert.Equal(t, 10, stored.CurrentInstanceCount)
	assert.Equal(t, models.ApplicationStatusRunning, stored.Status)
	assert.Equal(t, 4, eventCount(t, f, app))
}

func TestEvaluateScaling_ClampToCurrentWritesNothing(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f) // current count 2, minimum 2
	f.advisor.predictFunc = func(context.Context, aiadvisor.ScalingPredictionRequest) (*aiadvisor.ScalingRecommendation, error) {
		return &aiadvisor.ScalingRecommendation{ShouldScale: true, RecommendedInstances: 1, Reason: "scale in"}, nil
	}

	result, err := f.service.EvaluateScaling(context.Background(), testUserID, app.ID)
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, 2, result.InstanceCount)
	assert.Equal(t, 3, eventCount(t, f, app))
}

func TestEvaluateScaling_AdvisorErrorPropagates(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)
	f.advisor.predictFunc = func(context.Context, aiadvisor.ScalingPredictionRequest) (*aiadvisor.ScalingRecommendation, error) {
		return nil, fmt.Errorf("%w: scaling model timed out", utils.ErrAdvisorUnavailable)
	}

	_, err := f.service.EvaluateScaling(context.Background(), testUserID, app.ID)
	assert.ErrorIs(t, err, utils.ErrAdvisorUnavailable)
	assert.Equal(t, 3, eventCount(t, f, app))
}

func TestStopApplication(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	stopped, err := f.service.StopApplication(context.Background(), testUserID, app.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusStopped, stopped.Status)
	assert.Equal(t, 0, stopped.CurrentInstanceCount)
	assert.Equal(t, 4, stopped.Version)
	assert.Equal(t, 4, eventCount(t, f, app), "stop and its finalization produce one event")
}

func TestStopApplication_RequiresRunning(t *testing.T) {
	f := newServiceFixture()
	app, err := f.service.CreateApplication(context.Background(), testUserID, validCreateRequest())
	require.NoError(t, err)

	_, err = f.service.StopApplication(context.Background(), testUserID, app.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidStateTransition)
}

func TestDeleteApplication_OnlyWhenStopped(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	err := f.service.DeleteApplication(context.Background(), testUserID, app.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidStateTransition)
	_, ok := f.appRepo.stored(app.ID)
	assert.True(t, ok)

	_, err = f.service.StopApplication(context.Background(), testUserID, app.ID)
	require.NoError(t, err)
	require.NoError(t, f.service.DeleteApplication(context.Background(), testUserID, app.ID))

	_, ok = f.appRepo.stored(app.ID)
	assert.False(t, ok)
	// the event stream outlives the snapshot as the historical record
	assert.Equal(t, 4, eventCount(t, f, app))
}

func TestGetApplicationEvents(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	events, err := f.service.GetApplicationEvents(context.Background(), testUserID, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i+1, e.Version)
	}
}

func TestOwnership_ForeignApplicationReportedNotFound(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	_, err := f.service.GetApplication(context.Background(), "someone-else", app.ID)
	assert.ErrorIs(t, err, utils.ErrApplicationNotFound)

	_, err = f.service.ScaleApplication(context.Background(), "someone-else", app.ID, &models.ScaleApplicationRequest{InstanceCount: 5})
	assert.ErrorIs(t, err, utils.ErrApplicationNotFound)

	err = f.service.DeleteApplication(context.Background(), "someone-else", app.ID)
	assert.ErrorIs(t, err, utils.ErrApplicationNotFound)
}

func TestGetDeployment_EnforcesOwnershipThroughApplication(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	dep := models.NewDeployment(app.ID, models.DeploymentStrategyBlueGreen, "registry/app:v1", nil)
	require.NoError(t, f.depRepo.Create(context.Background(), dep))

	got, err := f.service.GetDeployment(context.Background(), testUserID, dep.DeploymentID)
	require.NoError(t, err)
	assert.Equal(t, dep.DeploymentID, got.DeploymentID)

	_, err = f.service.GetDeployment(context.Background(), "someone-else", dep.DeploymentID)
	assert.ErrorIs(t, err, utils.ErrApplicationNotFound)
}

func TestCancelDeployment(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	dep := models.NewDeployment(app.ID, models.DeploymentStrategyBlueGreen, "registry/app:v1", nil)
	dep.Status = models.DeploymentStatusInProgress
	require.NoError(t, f.depRepo.Create(context.Background(), dep))

	require.NoError(t, f.service.CancelDeployment(context.Background(), testUserID, dep.DeploymentID))
	require.Len(t, f.orchestrator.canceled, 1)
	assert.Equal(t, dep.DeploymentID, f.orchestrator.canceled[0])
}

func TestCancelDeployment_TerminalDeployment(t *testing.T) {
	f := newServiceFixture()
	app := seedRunningApp(t, f)

	dep := models.NewDeployment(app.ID, models.DeploymentStrategyBlueGreen, "registry/app:v1", nil)
	dep.Status = models.DeploymentStatusCompleted
	require.NoError(t, f.depRepo.Create(context.Background(), dep))

	err := f.service.CancelDeployment(context.Background(), testUserID, dep.DeploymentID)
	assert.ErrorIs(t, err, utils.ErrDeploymentNotCancelable)
	assert.Empty(t, f.orchestrator.canceled)
}
