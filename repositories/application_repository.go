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
	"gorm.io/gorm/clause"

	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// ApplicationRepository defines the interface for application snapshot persistence
type ApplicationRepository interface {
	Save(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Application, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ApplicationRepo implements ApplicationRepository using GORM
type ApplicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo creates a new application repository
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &ApplicationRepo{db: db}
}

// Save upserts the current application snapshot
func (r *ApplicationRepo) Save(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "status", "current_instance_count", "resources", "scaling_config", "version", "updated_at",
		}),
	}).Create(app).Error
}

// GetByID retrieves an application snapshot by id
func (r *ApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// GetByUserID retrieves all applications owned by a user
func (r *ApplicationRepo) GetByUserID(ctx context.Context, userID string) ([]*models.Application, error) {
	var apps []*models.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// Delete removes an application snapshot. Returns false when no row matched.
func (r *ApplicationRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Application{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
