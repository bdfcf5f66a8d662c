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

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/clients/aiadvisor"
	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
	"github.com/wso2/app-deployment-platform/app-manager-service/repositories"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// ApplicationService defines the interface for application lifecycle operations.
//
// Every mutating use-case follows the same unit of work: load the aggregate,
// invoke exactly one aggregate method, append the uncommitted events to the
// event store under the pre-mutation version, save the snapshot, clear the
// buffer. A concurrency conflict from the append propagates to the caller
// unchanged; the service never retries on the caller's behalf.
type ApplicationService interface {
	CreateApplication(ctx context.Context, userID string, req *models.CreateApplicationRequest) (*models.Application, error)
	GetApplication(ctx context.Context, userID string, appID uuid.UUID) (*models.Application, error)
	GetUserApplications(ctx context.Context, userID string) ([]*models.Application, error)
	DeployApplication(ctx context.Context, userID string, appID uuid.UUID, req *models.DeployApplicationRequest) (*models.Deployment, error)
	ScaleApplication(ctx context.Context, userID string, appID uuid.UUID, req *models.ScaleApplicationRequest) (*models.Application, error)
	EvaluateScaling(ctx context.Context, userID string, appID uuid.UUID) (*models.ScalingEvaluationResponse, error)
	UpdateResources(ctx context.Context, userID string, appID uuid.UUID, req *models.UpdateResourcesRequest) (*models.Application, error)
	StopApplication(ctx context.Context, userID string, appID uuid.UUID) (*models.Application, error)
	DeleteApplication(ctx context.Context, userID string, appID uuid.UUID) error
	GetApplicationEvents(ctx context.Context, userID string, appID uuid.UUID) ([]models.ApplicationEvent, error)
	GetDeployments(ctx context.Context, userID string, appID uuid.UUID) ([]*models.Deployment, error)
	GetDeployment(ctx context.Context, userID string, deploymentID uuid.UUID) (*models.Deployment, error)
	CancelDeployment(ctx context.Context, userID string, deploymentID uuid.UUID) error
}

type applicationService struct {
	logger         *slog.Logger
	appRepo        repositories.ApplicationRepository
	eventStore     repositories.EventStore
	deploymentRepo repositories.DeploymentRepository
	orchestrator   DeploymentOrchestrator
	advisor        aiadvisor.AdvisorClient
	metricsBackend orchestration.MetricsBackend
}

// NewApplicationService creates a new application service
func NewApplicationService(
	logger *slog.Logger,
	appRepo repositories.ApplicationRepository,
	eventStore repositories.EventStore,
	deploymentRepo repositories.DeploymentRepository,
	orchestrator DeploymentOrchestrator,
	advisor aiadvisor.AdvisorClient,
	metricsBackend orchestration.MetricsBackend,
) ApplicationService {
	return &applicationService{
		logger:         logger,
		appRepo:        appRepo,
		eventStore:     eventStore,
		deploymentRepo: deploymentRepo,
		orchestrator:   orchestrator,
		advisor:        advisor,
		metricsBackend: metricsBackend,
	}
}

// CreateApplication registers a new application in PENDING state
func (s *applicationService) CreateApplication(ctx context.Context, userID string, req *models.CreateApplicationRequest) (*models.Application, error) {
	app, err := models.NewApplication(req.Name, userID, req.Resources, req.ScalingConfig)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, app, 0); err != nil {
		return nil, err
	}
	s.logger.Info("application created", "applicationId", app.ID, "userId", userID, "name", app.Name)
	return app, nil
}

// GetApplication retrieves an application owned by the user
func (s *applicationService) GetApplication(ctx context.Context, userID string, appID uuid.UUID) (*models.Application, error) {
	return s.loadOwned(ctx, userID, appID)
}

// GetUserApplications lists the user's applications
func (s *applicationService) GetUserApplications(ctx context.Context, userID string) ([]*models.Application, error) {
	return s.appRepo.GetByUserID(ctx, userID)
}

// DeployApplication transitions the aggregate to DEPLOYING and hands the
// rollout to the orchestrator. The deployment record is returned immediately;
// orchestration runs in the background.
func (s *applicationService) DeployApplication(ctx context.Context, userID string, appID uuid.UUID, req *models.DeployApplicationRequest) (*models.Deployment, error) {
	if req.ContainerImage == "" {
		return nil, fmt.Errorf("%w: container image must not be empty", utils.ErrValidation)
	}
	// Validate the strategy before touching the aggregate so an unimplemented
	// strategy leaves no trace.
	if _, err := strategyFor(req.Strategy); err != nil {
		return nil, err
	}

	app, err := s.loadOwned(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	expectedVersion := app.Version
	if err := app.Deploy(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, app, expectedVersion); err != nil {
		return nil, err
	}

	deployment, err := s.orchestrator.StartDeployment(ctx, app, req.ContainerImage, req.EnvironmentVariables, req.Strategy)
	if err != nil {
		// The aggregate is already committed as DEPLOYING and no orchestration
		// task exists to move it. Compensate so it does not stay wedged.
		s.failStalledDeploy(ctx, app, err)
		return nil, err
	}
	s.logger.Info("deployment started", "applicationId", appID, "deploymentId", deployment.DeploymentID)
	return deployment, nil
}

// ScaleApplication performs a manual scale. The scale is applied and completed
// in one unit of work: the aggregate passes through SCALING and lands back on
// RUNNING with a single APPLICATION_SCALED event.
func (s *applicationService) ScaleApplication(ctx context.Context, userID string, appID uuid.UUID, req *models.ScaleApplicationRequest) (*models.Application, error) {
	app, err := s.loadOwned(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	expectedVersion := app.Version
	reason := req.Reason
	if reason == "" {
		reason = "manual scale"
	}
	if err := app.Scale(req.InstanceCount, reason, nil); err != nil {
		return nil, err
	}
	if len(app.UncommittedEvents()) == 0 {
		// Same target as current: nothing changed, nothing to persist.
		return app, nil
	}
	if err := app.CompleteScaling(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, app, expectedVersion); err != nil {
		return nil, err
	}
	s.logger.Info("application scaled", "applicationId", appID, "instanceCount", app.CurrentInstanceCount)
	return app, nil
}

// EvaluateScaling asks the advisor whether the application should scale and
// applies the recommendation clamped to the configured bounds. A recommendation
// of no change, or one that clamps to the current count, writes nothing.
func (s *applicationService) EvaluateScaling(ctx context.Context, userID string, appID uuid.UUID) (*models.ScalingEvaluationResponse, error) {
	app, err := s.loadOwned(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusRunning {
		return nil, fmt.Errorf("%w: scale is not legal from status %s", utils.ErrInvalidStateTransition, app.Status)
	}

	metrics, err := s.metricsBackend.SampleServiceMetrics(ctx, serviceBaseName(app.ID))
	if err != nil {
		s.logger.Warn("metrics sample for scaling evaluation failed, using zero sample", "applicationId", appID, "error", err)
		metrics = orchestration.ServiceMetrics{}
	}

	recommendation, err := s.advisor.PredictScalingNeed(ctx, aiadvisor.ScalingPredictionRequest{
		Application: aiadvisor.ApplicationSnapshot{
			ApplicationID:        app.ID.String(),
			CurrentInstanceCount: app.CurrentInstanceCount,
			MinInstances:         app.ScalingConfig.MinInstances,
			MaxInstances:         app.ScalingConfig.MaxInstances,
			TargetCPUUtilization: app.ScalingConfig.TargetCPUUtilization,
			ScalingStrategy:      string(app.ScalingConfig.Strategy),
		},
		Metrics: aiadvisor.CurrentMetrics{
			ErrorRate:         metrics.ErrorRate,
			LatencyMs:         metrics.LatencyMs,
			CPUUtilization:    metrics.CPUUtilization,
			MemoryUtilization: metrics.MemoryUtilization,
		},
	})
	if err != nil {
		return nil, err
	}

	if !recommendation.ShouldScale {
		return &models.ScalingEvaluationResponse{
			Applied:       false,
			InstanceCount: app.CurrentInstanceCount,
			Reason:        recommendation.Reason,
			Confidence:    recommendation.Confidence,
		}, nil
	}

	target := clamp(recommendation.RecommendedInstances, app.ScalingConfig.MinInstances, app.ScalingConfig.MaxInstances)
	if target == app.CurrentInstanceCount {
		return &models.ScalingEvaluationResponse{
			Applied:       false,
			InstanceCount: app.CurrentInstanceCount,
			Reason:        recommendation.Reason,
			Confidence:    recommendation.Confidence,
		}, nil
	}

	expectedVersion := app.Version
	confidence := recommendation.Confidence
	if err := app.Scale(target, recommendation.Reason, &confidence); err != nil {
		return nil, err
	}
	if err := app.CompleteScaling(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, app, expectedVersion); err != nil {
		return nil, err
	}
	s.logger.Info("application scaled by advisor recommendation",
		"applicationId", appID, "instanceCount", target, "confidence", confidence)
	return &models.ScalingEvaluationResponse{
		Applied:       true,
		InstanceCount: target,
		Reason:        recommendation.Reason,
		Confidence:    confidence,
	}, nil
}

// UpdateResources replaces the application's resource requirements
func (s *applicationService) UpdateResources(ctx context.Context, userID string, appID uuid.UUID, req *models.UpdateResourcesRequest) (*models.Application, error) {
	app, err := s.loadOwned(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	expectedVersion := app.Version
	if err := app.UpdateResourceRequirements(req.Resources); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, app, expectedVersion); err != nil {
		return nil, err
	}
	return app, nil
}

// StopApplication stops a running application. Stop and its finalization are
// one unit of work; the aggregate lands on STOPPED with a single event.
func (s *applicationService) StopApplication(ctx context.Context, userID string, appID uuid.UUID) (*models.Application, error) {
	app, err := s.loadOwned(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	expectedVersion := app.Version
	if err := app.Stop(); err != nil {
		return nil, err
	}
	if err := app.MarkAsStopped(); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, app, expectedVersion); err != nil {
		return nil, err
	}
	s.logger.Info("application stopped", "applicationId", appID)
	return app, nil
}

// DeleteApplication removes the snapshot of a STOPPED application. The event
// stream is retained as the historical record.
func (s *applicationService) DeleteApplication(ctx context.Context, userID string, appID uuid.UUID) error {
	app, err := s.loadOwned(ctx, userID, appID)
	if err != nil {
		return err
	}
	if !app.Deletable() {
		return fmt.Errorf("%w: delete is not legal from status %s", utils.ErrInvalidStateTransition, app.Status)
	}
	if _, err := s.appRepo.Delete(ctx, appID); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	s.logger.Info("application deleted", "applicationId", appID)
	return nil
}

// GetApplicationEvents returns the application's event stream in version order
func (s *applicationService) GetApplicationEvents(ctx context.Context, userID string, appID uuid.UUID) ([]models.ApplicationEvent, error) {
	if _, err := s.loadOwned(ctx, userID, appID); err != nil {
		return nil, err
	}
	return s.eventStore.GetEvents(ctx, appID, 0)
}

// GetDeployments returns the application's deployment history, newest first
func (s *applicationService) GetDeployments(ctx context.Context, userID string, appID uuid.UUID) ([]*models.Deployment, error) {
	if _, err := s.loadOwned(ctx, userID, appID); err != nil {
		return nil, err
	}
	return s.deploymentRepo.GetByApplicationID(ctx, appID)
}

// GetDeployment returns a single deployment record
func (s *applicationService) GetDeployment(ctx context.Context, userID string, deploymentID uuid.UUID) (*models.Deployment, error) {
	dep, err := s.deploymentRepo.GetByID(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, userID, dep.ApplicationID); err != nil {
		return nil, err
	}
	return dep, nil
}

// CancelDeployment interrupts an in-progress deployment owned by the user
func (s *applicationService) CancelDeployment(ctx context.Context, userID string, deploymentID uuid.UUID) error {
	dep, err := s.deploymentRepo.GetByID(ctx, deploymentID)
	if err != nil {
		return err
	}
	if _, err := s.loadOwned(ctx, userID, dep.ApplicationID); err != nil {
		return err
	}
	if dep.Terminal() {
		return fmt.Errorf("%w: deployment already %s", utils.ErrDeploymentNotCancelable, dep.Status)
	}
	return s.orchestrator.CancelDeployment(deploymentID)
}

// failStalledDeploy marks a DEPLOYING application FAILED after its
// orchestration task could not be started. FAILED is recoverable, so the
// caller can retry the deploy.
func (s *applicationService) failStalledDeploy(ctx context.Context, app *models.Application, cause error) {
	expectedVersion := app.Version
	if err := app.MarkAsFailed(fmt.Sprintf("deployment could not be started: %v", cause)); err != nil {
		s.logger.Error("failed to mark application as failed after start failure",
			"applicationId", app.ID, "error", err)
		return
	}
	if err := s.commit(ctx, app, expectedVersion); err != nil {
		s.logger.Error("failed to persist failure after deployment start error",
			"applicationId", app.ID, "error", err)
	}
}

// commit appends the aggregate's uncommitted events under the pre-mutation
// version, saves the snapshot and clears the buffer. Append goes first: a
// concurrency conflict must leave the snapshot untouched.
func (s *applicationService) commit(ctx context.Context, app *models.Application, expectedVersion int) error {
	events := app.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}
	if err := s.eventStore.Append(ctx, app.ID, events, expectedVersion); err != nil {
		return err
	}
	if err := s.appRepo.Save(ctx, app); err != nil {
		return fmt.Errorf("failed to save application snapshot: %w", err)
	}
	app.ClearUncommittedEvents()
	return nil
}

// loadOwned loads the aggregate and enforces ownership. A foreign application
// is reported as not found so existence is not leaked across users.
func (s *applicationService) loadOwned(ctx context.Context, userID string, appID uuid.UUID) (*models.Application, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, utils.ErrApplicationNotFound
	}
	return app, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
