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
	"sync"

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/clients/aiadvisor"
	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// mockApplicationRepo is an in-memory ApplicationRepository with call recording
type mockApplicationRepo struct {
	mu        sync.Mutex
	apps      map[uuid.UUID]models.Application
	saveCalls int
	saveErr   error
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[uuid.UUID]models.Application)}
}

func (m *mockApplicationRepo) Save(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.apps[app.ID] = *app
	return nil
}

// GetByID returns a fresh copy so callers mutating the aggregate do not write
// through to the stored snapshot, same as a real reload.
func (m *mockApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, utils.ErrApplicationNotFound
	}
	copied := app
	return &copied, nil
}

func (m *mockApplicationRepo) GetByUserID(_ context.Context, userID string) ([]*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Application
	for _, app := range m.apps {
		if app.UserID == userID {
			copied := app
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockApplicationRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return false, nil
	}
	delete(m.apps, id)
	return true, nil
}

func (m *mockApplicationRepo) stored(id uuid.UUID) (models.Application, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	return app, ok
}

// mockDeploymentRepo is an in-memory DeploymentRepository with call recording
type mockDeploymentRepo struct {
	mu          sync.Mutex
	deployments map[uuid.UUID]models.Deployment
	createCalls int
	updateCalls int
}

func newMockDeploymentRepo() *mockDeploymentRepo {
	return &mockDeploymentRepo{deployments: make(map[uuid.UUID]models.Deployment)}
}

func (m *mockDeploymentRepo) Create(_ context.Context, dep *models.Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.deployments[dep.DeploymentID] = *dep
	return nil
}

func (m *mockDeploymentRepo) Update(_ context.Context, dep *models.Deployment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if _, ok := m.deployments[dep.DeploymentID]; !ok {
		return utils.ErrDeploymentNotFound
	}
	m.deployments[dep.DeploymentID] = *dep
	return nil
}

func (m *mockDeploymentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dep, ok := m.deployments[id]
	if !ok {
		return nil, utils.ErrDeploymentNotFound
	}
	copied := dep
	return &copied, nil
}

func (m *mockDeploymentRepo) GetByApplicationID(_ context.Context, appID uuid.UUID) ([]*models.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Deployment
	for _, dep := range m.deployments {
		if dep.ApplicationID == appID {
			copied := dep
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockDeploymentRepo) stored(id uuid.UUID) (models.Deployment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dep, ok := m.deployments[id]
	return dep, ok
}

// mockAdvisor is a test mock for the AdvisorClient interface
type mockAdvisor struct {
	mu              sync.Mutex
	assessRiskFunc   func(ctx context.Context, features aiadvisor.RiskFeatures) (*aiadvisor.RiskAssessmentResponse, error)
	predictFunc      func(ctx context.Context, req aiadvisor.ScalingPredictionRequest) (*aiadvisor.ScalingRecommendation, error)
	assessCalls      int
	assessedFeatures []aiadvisor.RiskFeatures
	predictRequests  []aiadvisor.ScalingPredictionRequest
}

func (m *mockAdvisor) AssessDeploymentRisk(ctx context.Context, features aiadvisor.RiskFeatures) (*aiadvisor.RiskAssessmentResponse, error) {
	m.mu.Lock()
	m.assessCalls++
	m.assessedFeatures = append(m.assessedFeatures, features)
	m.mu.Unlock()
	if m.assessRiskFunc != nil {
		return m.assessRiskFunc(ctx, features)
	}
	return &aiadvisor.RiskAssessmentResponse{RiskLevel: "LOW", Confidence: 0.9}, nil
}

func (m *mockAdvisor) recordedFeatures() []aiadvisor.RiskFeatures {
	m.mu.Lock()
	defer m.mu.Unlock()
	features := make([]aiadvisor.RiskFeatures, len(m.assessedFeatures))
	copy(features, m.assessedFeatures)
	return features
}

func (m *mockAdvisor) PredictScalingNeed(ctx context.Context, req aiadvisor.ScalingPredictionRequest) (*aiadvisor.ScalingRecommendation, error) {
	m.mu.Lock()
	m.predictRequests = append(m.predictRequests, req)
	m.mu.Unlock()
	if m.predictFunc != nil {
		return m.predictFunc(ctx, req)
	}
	return &aiadvisor.ScalingRecommendation{ShouldScale: false}, nil
}

// mockOrchestrator records StartDeployment/CancelDeployment calls without
// running any background task
type mockOrchestrator struct {
	mu          sync.Mutex
	startErr    error
	cancelErr   error
	startCalls  int
	canceled    []uuid.UUID
	lastImage   string
	lastEnv     map[string]string
	lastCreated *models.Deployment
}

func (m *mockOrchestrator) StartDeployment(_ context.Context, app *models.Application, image string, env map[string]string, strategy models.DeploymentStrategy) (*models.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.lastImage = image
	m.lastEnv = env
	m.lastCreated = models.NewDeployment(app.ID, strategy, image, env)
	return m.lastCreated, nil
}

func (m *mockOrchestrator) CancelDeployment(deploymentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = append(m.canceled, deploymentID)
	return m.cancelErr
}

type switchCall struct {
	From string
	To   string
}

// fakeInfra implements ContainerOrchestrator, LoadBalancer and MetricsBackend
// with injectable behavior and full call recording
type fakeInfra struct {
	mu sync.Mutex

	describeFunc func(name string) (orchestration.ServiceCounts, error)
	healthFunc   func(group string) (bool, error)
	sampleFunc   func(serviceName string) (orchestration.ServiceMetrics, error)
	createErr    error
	imageSizeMB  float64

	createCalls []string
	deleteCalls []string
	switchCalls []switchCall
	sampleCalls int
}

func newFakeInfra() *fakeInfra {
	return &fakeInfra{}
}

func (f *fakeInfra) CreateServiceSet(_ context.Context, name, _ string, _ int, _ map[string]string, _ orchestration.LoadBalancerBinding) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createCalls = append(f.createCalls, name)
	return name, nil
}

func (f *fakeInfra) DescribeService(_ context.Context, name string) (orchestration.ServiceCounts, error) {
	if f.describeFunc != nil {
		return f.describeFunc(name)
	}
	return orchestration.ServiceCounts{RunningCount: 2, DesiredCount: 2}, nil
}

func (f *fakeInfra) DeleteServiceSet(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, name)
	return nil
}

func (f *fakeInfra) SwitchTarget(_ context.Context, fromGroup, toGroup string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switchCalls = append(f.switchCalls, switchCall{From: fromGroup, To: toGroup})
	return nil
}

func (f *fakeInfra) CheckTargetHealth(_ context.Context, group string) (bool, error) {
	if f.healthFunc != nil {
		return f.healthFunc(group)
	}
	return true, nil
}

func (f *fakeInfra) SampleServiceMetrics(_ context.Context, serviceName string) (orchestration.ServiceMetrics, error) {
	f.mu.Lock()
	f.sampleCalls++
	f.mu.Unlock()
	if f.sampleFunc != nil {
		return f.sampleFunc(serviceName)
	}
	return orchestration.ServiceMetrics{ErrorRate: 0.5, RequestsPerSecond: 42}, nil
}

func (f *fakeInfra) ImageSizeMB(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imageSizeMB, nil
}

func (f *fakeInfra) recordedSwitches() []switchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]switchCall, len(f.switchCalls))
	copy(calls, f.switchCalls)
	return calls
}
