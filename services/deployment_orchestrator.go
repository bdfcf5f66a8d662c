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
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/clients/aiadvisor"
	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/observability"
	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
	"github.com/wso2/app-deployment-platform/app-manager-service/repositories"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

const (
	defaultHealthCheckTimeout      = 300 * time.Second
	defaultHealthCheckInterval     = 10 * time.Second
	defaultStabilityWindow         = 300 * time.Second
	defaultStabilitySampleInterval = 30 * time.Second
	defaultErrorRateThreshold      = 5.0

	fallbackConfidence = 0.6

	persistTimeout       = 10 * time.Second
	aggregateSaveRetries = 3
)

// OrchestratorConfig holds the time-boxing and threshold tunables of the
// blue/green state machine
type OrchestratorConfig struct {
	HealthCheckTimeout      time.Duration
	HealthCheckInterval     time.Duration
	StabilityWindow         time.Duration
	StabilitySampleInterval time.Duration
	// ErrorRateThreshold is a percentage; a single stability sample above it
	// aborts the window immediately
	ErrorRateThreshold float64
}

func (c OrchestratorConfig) withDefaults() OrchestratorConfig {
	if c.HealthCheckTimeout == 0 {
		c.HealthCheckTimeout = defaultHealthCheckTimeout
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = defaultHealthCheckInterval
	}
	if c.StabilityWindow == 0 {
		c.StabilityWindow = defaultStabilityWindow
	}
	if c.StabilitySampleInterval == 0 {
		c.StabilitySampleInterval = defaultStabilitySampleInterval
	}
	if c.ErrorRateThreshold == 0 {
		c.ErrorRateThreshold = defaultErrorRateThreshold
	}
	return c
}

// DeploymentOrchestrator drives blue/green rollouts. StartDeployment returns
// as soon as the deployment record exists; all phases run in a background
// task per deployment that communicates only through the record.
type DeploymentOrchestrator interface {
	StartDeployment(ctx context.Context, app *models.Application, image string, env map[string]string, strategy models.DeploymentStrategy) (*models.Deployment, error)
	CancelDeployment(deploymentID uuid.UUID) error
}

type deploymentOrchestrator struct {
	deploymentRepo repositories.DeploymentRepository
	appRepo        repositories.ApplicationRepository
	eventStore     repositories.EventStore
	advisor        aiadvisor.AdvisorClient
	containers     orchestration.ContainerOrchestrator
	loadBalancer   orchestration.LoadBalancer
	metricsBackend orchestration.MetricsBackend
	metrics        *observability.Metrics
	cfg            OrchestratorConfig
	logger         *slog.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewDeploymentOrchestrator creates a new blue/green deployment orchestrator
func NewDeploymentOrchestrator(
	deploymentRepo repositories.DeploymentRepository,
	appRepo repositories.ApplicationRepository,
	eventStore repositories.EventStore,
	advisor aiadvisor.AdvisorClient,
	containers orchestration.ContainerOrchestrator,
	loadBalancer orchestration.LoadBalancer,
	metricsBackend orchestration.MetricsBackend,
	metrics *observability.Metrics,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) DeploymentOrchestrator {
	return &deploymentOrchestrator{
		deploymentRepo: deploymentRepo,
		appRepo:        appRepo,
		eventStore:     eventStore,
		advisor:        advisor,
		containers:     containers,
		loadBalancer:   loadBalancer,
		metricsBackend: metricsBackend,
		metrics:        metrics,
		cfg:            cfg.withDefaults(),
		logger:         logger,
		cancels:        make(map[uuid.UUID]context.CancelFunc),
	}
}

// StartDeployment validates the strategy, persists a PENDING record and
// launches the orchestration task. The record is the caller's only handle;
// completion is never reported back directly.
func (o *deploymentOrchestrator) StartDeployment(ctx context.Context, app *models.Application, image string, env map[string]string, strategy models.DeploymentStrategy) (*models.Deployment, error) {
	strat, err := strategyFor(strategy)
	if err != nil {
		return nil, err
	}

	deployment := models.NewDeployment(app.ID, strat.Name(), image, env)
	if err := o.deploymentRepo.Create(ctx, deployment); err != nil {
		return nil, fmt.Errorf("failed to create deployment record: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[deployment.DeploymentID] = cancel
	o.mu.Unlock()

	o.metrics.DeploymentsStarted.Inc()
	// Snapshot what the task needs so it never shares mutable state with the
	// caller's aggregate instance.
	appID := app.ID
	instanceCount := app.CurrentInstanceCount
	go o.run(runCtx, strat, deployment, appID, instanceCount)

	return deployment, nil
}

// CancelDeployment interrupts an in-progress orchestration at its next poll
// boundary. The task routes through the same failure branch as a detected
// regression.
func (o *deploymentOrchestrator) CancelDeployment(deploymentID uuid.UUID) error {
	o.mu.Lock()
	cancel, ok := o.cancels[deploymentID]
	o.mu.Unlock()
	if !ok {
		return utils.ErrDeploymentNotCancelable
	}
	cancel()
	return nil
}

// run executes the blue/green phases strictly in sequence. Any failure before
// the traffic switch terminates as FAILED with traffic untouched; any failure
// after the switch routes through rollback.
func (o *deploymentOrchestrator) run(ctx context.Context, strat rolloutStrategy, dep *models.Deployment, appID uuid.UUID, instanceCount int) {
	defer func() {
		o.mu.Lock()
		delete(o.cancels, dep.DeploymentID)
		o.mu.Unlock()
	}()

	log := o.logger.With("deploymentId", dep.DeploymentID, "applicationId", appID)

	dep.Status = models.DeploymentStatusInProgress
	o.persist(dep)

	base := serviceBaseName(appID)
	greenService := fmt.Sprintf("%s-%s", base, shortID(dep.DeploymentID))
	greenGroup := orchestration.TargetGroupName(base, shortID(dep.DeploymentID))
	blueService, blueGroup := o.currentBlue(appID, dep.DeploymentID, base)

	// Phase 1: risk assessment. Advisory only; advisor failure falls back to
	// the rule-based assessment and never aborts the rollout.
	phaseStart := time.Now()
	dep.RiskAssessment = o.assessRisk(ctx, appID, instanceCount, strat.Name(), dep.ContainerImage)
	o.persist(dep)
	o.observePhase("risk_assessment", phaseStart)
	log.Info("risk assessment recorded",
		"riskLevel", dep.RiskAssessment.RiskLevel,
		"confidence", dep.RiskAssessment.Confidence,
		"fallbackUsed", dep.RiskAssessment.FallbackUsed)

	// Phase 2: create the green environment as a secondary target.
	phaseStart = time.Now()
	_, err := o.containers.CreateServiceSet(ctx, greenService, dep.ContainerImage, instanceCount, dep.EnvironmentVariables, orchestration.LoadBalancerBinding{TargetGroup: greenGroup})
	o.observePhase("create_green", phaseStart)
	if err != nil {
		o.failBeforeSwitch(dep, appID, fmt.Errorf("green environment creation failed: %w", err), log)
		return
	}

	// Phase 3: health gate. On timeout the green environment is left in
	// place for inspection; cleanup is a manual follow-up.
	phaseStart = time.Now()
	if err := o.healthGate(ctx, dep, greenService, greenGroup); err != nil {
		o.observePhase("health_gate", phaseStart)
		o.failBeforeSwitch(dep, appID, err, log)
		return
	}
	o.observePhase("health_gate", phaseStart)

	// Phase 4: the single irreversible-without-rollback step.
	if err := o.loadBalancer.SwitchTarget(ctx, blueGroup, greenGroup); err != nil {
		// The switch failed atomically, so traffic is still on blue.
		o.failBeforeSwitch(dep, appID, fmt.Errorf("traffic switch failed: %w", err), log)
		return
	}
	log.Info("traffic switched to green", "from", blueGroup, "to", greenGroup)

	// Phase 5: stability window.
	phaseStart = time.Now()
	if err := o.stabilityWindow(ctx, dep, greenService); err != nil {
		o.observePhase("stability_window", phaseStart)
		o.rollback(dep, appID, strat, blueGroup, greenGroup, err, log)
		return
	}
	o.observePhase("stability_window", phaseStart)

	// Phase 7: stable outcome; decommission blue.
	if blueService != "" {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := o.containers.DeleteServiceSet(cleanupCtx, blueService); err != nil {
			log.Warn("failed to decommission blue environment", "service", blueService, "error", err)
		}
		cancel()
	}
	o.finish(dep, models.DeploymentStatusCompleted, "")
	o.markApplicationRunning(appID, log)
	log.Info("deployment completed", "greenService", greenService)
}

// healthGate polls the green environment until all desired instances are
// running and the target group is healthy, or the wall-clock timeout elapses.
func (o *deploymentOrchestrator) healthGate(ctx context.Context, dep *models.Deployment, greenService, greenGroup string) error {
	deadline := time.Now().Add(o.cfg.HealthCheckTimeout)
	for {
		counts, describeErr := o.containers.DescribeService(ctx, greenService)
		healthy := false
		if describeErr == nil {
			var healthErr error
			healthy, healthErr = o.loadBalancer.CheckTargetHealth(ctx, greenGroup)
			if healthErr != nil {
				healthy = false
			}
		}

		dep.HealthCheckLog = append(dep.HealthCheckLog, models.HealthCheckEntry{
			Timestamp:     time.Now().UTC(),
			RunningCount:  counts.RunningCount,
			DesiredCount:  counts.DesiredCount,
			TargetHealthy: healthy,
		})
		o.persist(dep)

		if describeErr == nil && healthy && counts.DesiredCount > 0 && counts.RunningCount == counts.DesiredCount {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: green environment not healthy after %s",
				utils.ErrHealthCheckTimeout, o.cfg.HealthCheckTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("deployment canceled during health gate: %w", ctx.Err())
		case <-time.After(o.cfg.HealthCheckInterval):
		}
	}
}

// stabilityWindow samples service metrics at a fixed cadence. A single sample
// above the error-rate threshold aborts immediately; otherwise the mean over
// the window decides.
func (o *deploymentOrchestrator) stabilityWindow(ctx context.Context, dep *models.Deployment, greenService string) error {
	windowEnd := time.Now().Add(o.cfg.StabilityWindow)
	var sum float64
	var count int

	for time.Now().Before(windowEnd) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("deployment canceled during stability window: %w", ctx.Err())
		case <-time.After(o.cfg.StabilitySampleInterval):
		}

		sample, err := o.metricsBackend.SampleServiceMetrics(ctx, greenService)
		if err != nil {
			// Unclassified failures route through the same branch as a
			// detected regression.
			return fmt.Errorf("stability sampling failed: %v", err)
		}

		dep.StabilitySamples = append(dep.StabilitySamples, models.MetricsSample{
			Timestamp:         time.Now().UTC(),
			ErrorRate:         sample.ErrorRate,
			LatencyMs:         sample.LatencyMs,
			CPUUtilization:    sample.CPUUtilization,
			MemoryUtilization: sample.MemoryUtilization,
		})
		o.persist(dep)

		sum += sample.ErrorRate
		count++
		if sample.ErrorRate > o.cfg.ErrorRateThreshold {
			return fmt.Errorf("%w: error rate %.2f%% exceeds threshold %.2f%%",
				utils.ErrDeploymentInstability, sample.ErrorRate, o.cfg.ErrorRateThreshold)
		}
	}

	if count > 0 {
		mean := sum / float64(count)
		if mean > o.cfg.ErrorRateThreshold {
			return fmt.Errorf("%w: mean error rate %.2f%% over window exceeds threshold %.2f%%",
				utils.ErrDeploymentInstability, mean, o.cfg.ErrorRateThreshold)
		}
	}
	return nil
}

// assessRisk invokes the advisor with a bounded timeout and falls back to the
// deterministic rule set when it is unreachable or answers garbage.
func (o *deploymentOrchestrator) assessRisk(ctx context.Context, appID uuid.UUID, instanceCount int, strategy models.DeploymentStrategy, image string) *models.RiskAssessment {
	features := o.buildRiskFeatures(ctx, appID, instanceCount, strategy, image)

	result, err := o.advisor.AssessDeploymentRisk(ctx, features)
	if err != nil {
		o.logger.Warn("risk advisor unavailable, using rule-based fallback", "error", err)
		return fallbackRiskAssessment(instanceCount, strategy)
	}

	level, ok := parseRiskLevel(result.RiskLevel)
	if !ok {
		o.logger.Warn("risk advisor returned unknown level, using rule-based fallback", "riskLevel", result.RiskLevel)
		return fallbackRiskAssessment(instanceCount, strategy)
	}
	return &models.RiskAssessment{
		RiskLevel:    level,
		Confidence:   result.Confidence,
		Factors:      result.Factors,
		FallbackUsed: false,
	}
}

func (o *deploymentOrchestrator) buildRiskFeatures(ctx context.Context, appID uuid.UUID, instanceCount int, strategy models.DeploymentStrategy, image string) aiadvisor.RiskFeatures {
	features := aiadvisor.RiskFeatures{
		CurrentInstanceCount: instanceCount,
		ContainerImage:       image,
		Strategy:             string(strategy),
	}

	if app, err := o.appRepo.GetByID(ctx, appID); err == nil {
		features.ApplicationAgeDays = time.Since(app.CreatedAt).Hours() / 24
		features.CPUCores = app.Resources.CPUCores
		features.MemoryMB = app.Resources.MemoryMB
	}
	if history, err := o.deploymentRepo.GetByApplicationID(ctx, appID); err == nil {
		recent := 0
		cutoff := time.Now().Add(-7 * 24 * time.Hour)
		for _, d := range history {
			if d.StartedAt.After(cutoff) {
				recent++
			}
		}
		features.RecentDeploymentCount = recent
	}
	// Best effort: a brand-new application has no live metrics yet.
	if sample, err := o.metricsBackend.SampleServiceMetrics(ctx, serviceBaseName(appID)); err == nil {
		features.RecentErrorRate = sample.ErrorRate
		features.TrafficVolume = sample.RequestsPerSecond
	}
	// Image size is only resolvable on backends with local image metadata;
	// the advisor always gets at least the image reference.
	if inspector, ok := o.containers.(orchestration.ImageInspector); ok {
		if size, err := inspector.ImageSizeMB(ctx, image); err == nil {
			features.ImageSizeMB = size
		}
	}
	return features
}

// fallbackRiskAssessment is the deterministic rule set used when the advisor
// is unavailable: MEDIUM baseline, escalated for large fleets, de-escalated
// one level for blue/green because rollback is instant.
func fallbackRiskAssessment(instanceCount int, strategy models.DeploymentStrategy) *models.RiskAssessment {
	level := models.RiskLevelMedium
	factors := []string{"advisor unavailable, rule-based assessment"}

	if instanceCount > 10 {
		level = models.RiskLevelHigh
		factors = append(factors, fmt.Sprintf("large fleet: %d instances", instanceCount))
	}
	if strategy == models.DeploymentStrategyBlueGreen {
		level = deescalate(level)
		factors = append(factors, "blue/green strategy with instant rollback")
	}

	return &models.RiskAssessment{
		RiskLevel:    level,
		Confidence:   fallbackConfidence,
		Factors:      factors,
		FallbackUsed: true,
	}
}

func deescalate(level models.RiskLevel) models.RiskLevel {
	switch level {
	case models.RiskLevelHigh:
		return models.RiskLevelMedium
	case models.RiskLevelMedium:
		return models.RiskLevelLow
	default:
		return models.RiskLevelLow
	}
}

func parseRiskLevel(s string) (models.RiskLevel, bool) {
	switch models.RiskLevel(strings.ToUpper(s)) {
	case models.RiskLevelLow:
		return models.RiskLevelLow, true
	case models.RiskLevelMedium:
		return models.RiskLevelMedium, true
	case models.RiskLevelHigh:
		return models.RiskLevelHigh, true
	}
	return "", false
}

// currentBlue resolves the live environment's service set and target group
// from the most recent completed deployment. A first deployment has no blue;
// the placeholder group gives the switch a stable "from" name.
func (o *deploymentOrchestrator) currentBlue(appID, currentDeploymentID uuid.UUID, base string) (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	history, err := o.deploymentRepo.GetByApplicationID(ctx, appID)
	if err != nil {
		o.logger.Warn("failed to resolve current blue environment", "applicationId", appID, "error", err)
		return "", orchestration.TargetGroupName(base, "blue")
	}
	for _, d := range history {
		if d.DeploymentID != currentDeploymentID && d.Status == models.DeploymentStatusCompleted {
			return fmt.Sprintf("%s-%s", base, shortID(d.DeploymentID)),
				orchestration.TargetGroupName(base, shortID(d.DeploymentID))
		}
	}
	return "", orchestration.TargetGroupName(base, "blue")
}

// failBeforeSwitch terminates a deployment whose failure left traffic on blue.
// No rollback is needed and the green environment is preserved as evidence.
func (o *deploymentOrchestrator) failBeforeSwitch(dep *models.Deployment, appID uuid.UUID, cause error, log *slog.Logger) {
	log.Error("deployment failed before traffic switch", "error", cause)
	o.finish(dep, models.DeploymentStatusFailed, cause.Error())
	o.markApplicationFailed(appID, cause.Error(), log)
}

// rollback repoints traffic back to blue when the strategy allows it;
// otherwise the record is marked FAILED and traffic is left where the switch
// put it.
func (o *deploymentOrchestrator) rollback(dep *models.Deployment, appID uuid.UUID, strat rolloutStrategy, blueGroup, greenGroup string, cause error, log *slog.Logger) {
	log.Error("deployment regressed after traffic switch", "error", cause)

	if !strat.RollbackEnabled() {
		o.finish(dep, models.DeploymentStatusFailed, cause.Error())
		o.markApplicationFailed(appID, cause.Error(), log)
		return
	}

	switchCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := o.loadBalancer.SwitchTarget(switchCtx, greenGroup, blueGroup); err != nil {
		log.Error("rollback traffic switch failed", "error", err)
	}
	dep.RollbackExecuted = true
	o.finish(dep, models.DeploymentStatusRolledBack, cause.Error())
	o.markApplicationFailed(appID, cause.Error(), log)
	log.Info("rolled back to blue", "blueGroup", blueGroup)
}

// finish records a terminal status. Collected health checks and stability
// samples stay on the record for diagnosis.
func (o *deploymentOrchestrator) finish(dep *models.Deployment, status models.DeploymentStatus, errorMessage string) {
	now := time.Now().UTC()
	dep.Status = status
	dep.CompletedAt = &now
	dep.ErrorMessage = errorMessage
	o.persist(dep)
	o.metrics.DeploymentsFinished.WithLabelValues(string(status)).Inc()
}

func (o *deploymentOrchestrator) observePhase(phase string, start time.Time) {
	o.metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// persist writes the record with a fresh context so a canceled orchestration
// can still record its terminal state.
func (o *deploymentOrchestrator) persist(dep *models.Deployment) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := o.deploymentRepo.Update(ctx, dep); err != nil {
		o.logger.Error("failed to persist deployment record", "deploymentId", dep.DeploymentID, "error", err)
	}
}

// markApplicationRunning moves the aggregate DEPLOYING -> RUNNING through the
// normal unit of work. The orchestrator is its own caller here, so it reloads
// and retries on a concurrency conflict.
func (o *deploymentOrchestrator) markApplicationRunning(appID uuid.UUID, log *slog.Logger) {
	o.updateAggregate(appID, log, func(app *models.Application) error {
		return app.MarkAsRunning()
	})
}

func (o *deploymentOrchestrator) markApplicationFailed(appID uuid.UUID, details string, log *slog.Logger) {
	o.updateAggregate(appID, log, func(app *models.Application) error {
		if app.Status == models.ApplicationStatusStopped || app.Status == models.ApplicationStatusFailed {
			return nil
		}
		return app.MarkAsFailed(details)
	})
}

func (o *deploymentOrchestrator) updateAggregate(appID uuid.UUID, log *slog.Logger, mutate func(*models.Application) error) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for attempt := 0; attempt < aggregateSaveRetries; attempt++ {
		app, err := o.appRepo.GetByID(ctx, appID)
		if err != nil {
			log.Error("failed to load application for post-deployment update", "error", err)
			return
		}
		expectedVersion := app.Version
		if err := mutate(app); err != nil {
			log.Warn("post-deployment aggregate update not applicable", "status", app.Status, "error", err)
			return
		}
		if len(app.UncommittedEvents()) == 0 {
			return
		}
		if err := o.eventStore.Append(ctx, app.ID, app.UncommittedEvents(), expectedVersion); err != nil {
			if errors.Is(err, utils.ErrConcurrencyConflict) {
				o.metrics.AppendConflicts.Inc()
				continue
			}
			log.Error("failed to append post-deployment events", "error", err)
			return
		}
		if err := o.appRepo.Save(ctx, app); err != nil {
			log.Error("failed to save application after deployment", "error", err)
			return
		}
		app.ClearUncommittedEvents()
		return
	}
	log.Error("gave up updating application after repeated concurrency conflicts", "applicationId", appID)
}

func serviceBaseName(appID uuid.UUID) string {
	return "app-" + shortID(appID)
}

func shortID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
