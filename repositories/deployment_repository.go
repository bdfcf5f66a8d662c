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

package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// DeploymentRepository persists deployment attempt records. Records are
// append-mostly: created once, updated only by the orchestration task that
// owns them, and never deleted (retention is an external concern).
type DeploymentRepository interface {
	Create(ctx context.Context, deployment *models.Deployment) error
	Update(ctx context.Context, deployment *models.Deployment) error
	GetByID(ctx context.Context, deploymentID uuid.UUID) (*models.Deployment, error)
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) ([]*models.Deployment, error)
}

// DeploymentRepo implements DeploymentRepository using GORM
type DeploymentRepo struct {
	db *gorm.DB
}

// NewDeploymentRepo creates a new deployment repository
func NewDeploymentRepo(db *gorm.DB) DeploymentRepository {
	return &DeploymentRepo{db: db}
}

// Create inserts a new deployment record
func (r *DeploymentRepo) Create(ctx context.Context, deployment *models.Deployment) error {
	return r.db.WithContext(ctx).Create(deployment).Error
}

// Update persists the current state of a deployment record
func (r *DeploymentRepo) Update(ctx context.Context, deployment *models.Deployment) error {
	result := r.db.WithContext(ctx).
		Model(&models.Deployment{}).
		Where("deployment_id = ?", deployment.DeploymentID).
		Updates(map[string]interface{}{
			"status":            deployment.Status,
			"risk_assessment":   deployment.RiskAssessment,
			"completed_at":      deployment.CompletedAt,
			"health_check_log":  deployment.HealthCheckLog,
			"stability_samples": deployment.StabilitySamples,
			"rollback_executed": deployment.RollbackExecuted,
			"error_message":     deployment.ErrorMessage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrDeploymentNotFound
	}
	return nil
}

// GetByID retrieves a deployment record by id
func (r *DeploymentRepo) GetByID(ctx context.Context, deploymentID uuid.UUID) (*models.Deployment, error) {
	var deployment models.Deployment
	err := r.db.WithContext(ctx).Where("deployment_id = ?", deploymentID).First(&deployment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrDeploymentNotFound
		}
		return nil, err
	}
	return &deployment, nil
}

// GetByApplicationID retrieves all deployment attempts for an application,
// most recent first
func (r *DeploymentRepo) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) ([]*models.Deployment, error) {
	var deployments []*models.Deployment
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("started_at DESC").
		Find(&deployments).Error
	if err != nil {
		return nil, err
	}
	return deployments, nil
}
