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

package models

import (
	"time"

	"github.com/google/uuid"
)

// DeploymentStrategy selects the rollout mechanics for a deployment attempt.
// Only BLUE_GREEN is implemented; the others are declared so a request naming
// them fails fast instead of silently no-opping.
type DeploymentStrategy string

const (
	DeploymentStrategyBlueGreen DeploymentStrategy = "BLUE_GREEN"
	DeploymentStrategyRolling   DeploymentStrategy = "ROLLING"
	DeploymentStrategyCanary    DeploymentStrategy = "CANARY"
	DeploymentStrategyRecreate  DeploymentStrategy = "RECREATE"
)

// DeploymentStatus is the lifecycle state of one deployment attempt.
// COMPLETED, FAILED and ROLLED_BACK are terminal.
type DeploymentStatus string

const (
	DeploymentStatusPending    DeploymentStatus = "PENDING"
	DeploymentStatusInProgress DeploymentStatus = "IN_PROGRESS"
	DeploymentStatusCompleted  DeploymentStatus = "COMPLETED"
	DeploymentStatusFailed     DeploymentStatus = "FAILED"
	DeploymentStatusRolledBack DeploymentStatus = "ROLLED_BACK"
)

// RiskLevel grades the assessed risk of a deployment
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// RiskAssessment records the advisor's (or the fallback's) verdict for one
// deployment. It is advisory only and never blocks a rollout by itself.
type RiskAssessment struct {
	RiskLevel    RiskLevel `json:"riskLevel"`
	Confidence   float64   `json:"confidence"`
	Factors      []string  `json:"factors,omitempty"`
	FallbackUsed bool      `json:"fallbackUsed"`
}

// HealthCheckEntry is one observation from the pre-switch health gate
type HealthCheckEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	RunningCount  int       `json:"runningCount"`
	DesiredCount  int       `json:"desiredCount"`
	TargetHealthy bool      `json:"targetHealthy"`
}

// MetricsSample is one observation from the post-switch stability window
type MetricsSample struct {
	Timestamp         time.Time `json:"timestamp"`
	ErrorRate         float64   `json:"errorRate"`
	LatencyMs         float64   `json:"latencyMs"`
	CPUUtilization    float64   `json:"cpuUtilization"`
	MemoryUtilization float64   `json:"memoryUtilization"`
}

// Deployment is the audit record for one deployment attempt. It is distinct
// from the application aggregate's versioned state: it is keyed by its own id,
// mutated only by the orchestration task that owns it, and retained after
// completion. It is never deleted by this service.
type Deployment struct {
	DeploymentID         uuid.UUID          `gorm:"column:deployment_id;primaryKey" json:"deploymentId"`
	ApplicationID        uuid.UUID          `gorm:"column:application_id;index" json:"applicationId"`
	Strategy             DeploymentStrategy `gorm:"column:strategy" json:"strategy"`
	Status               DeploymentStatus   `gorm:"column:status" json:"status"`
	RiskAssessment       *RiskAssessment    `gorm:"column:risk_assessment;type:text;serializer:json" json:"riskAssessment,omitempty"`
	ContainerImage       string             `gorm:"column:container_image" json:"containerImage"`
	EnvironmentVariables map[string]string  `gorm:"column:environment_variables;type:text;serializer:json" json:"environmentVariables,omitempty"`
	StartedAt            time.Time          `gorm:"column:started_at" json:"startedAt"`
	CompletedAt          *time.Time         `gorm:"column:completed_at" json:"completedAt,omitempty"`
	HealthCheckLog       []HealthCheckEntry `gorm:"column:health_check_log;type:text;serializer:json" json:"healthCheckLog,omitempty"`
	StabilitySamples     []MetricsSample    `gorm:"column:stability_samples;type:text;serializer:json" json:"stabilitySamples,omitempty"`
	RollbackExecuted     bool               `gorm:"column:rollback_executed" json:"rollbackExecuted"`
	ErrorMessage         string             `gorm:"column:error_message" json:"errorMessage,omitempty"`
}

// TableName returns the table name for the Deployment model
func (Deployment) TableName() string {
	return "deployments"
}

// NewDeployment creates a PENDING deployment record for one attempt
func NewDeployment(applicationID uuid.UUID, strategy DeploymentStrategy, image string, env map[string]string) *Deployment {
	return &Deployment{
		DeploymentID:         uuid.New(),
		ApplicationID:        applicationID,
		Strategy:             strategy,
		Status:               DeploymentStatusPending,
		ContainerImage:       image,
		EnvironmentVariables: env,
		StartedAt:            time.Now().UTC(),
	}
}

// Terminal reports whether the deployment has reached a final status
func (d *Deployment) Terminal() bool {
	switch d.Status {
	case DeploymentStatusCompleted, DeploymentStatusFailed, DeploymentStatusRolledBack:
		return true
	}
	return false
}
