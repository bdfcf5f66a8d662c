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
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// ApplicationStatus is the lifecycle state of an application
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusDeploying ApplicationStatus = "DEPLOYING"
	ApplicationStatusRunning   ApplicationStatus = "RUNNING"
	ApplicationStatusScaling   ApplicationStatus = "SCALING"
	ApplicationStatusStopping  ApplicationStatus = "STOPPING"
	ApplicationStatusStopped   ApplicationStatus = "STOPPED"
	ApplicationStatusFailed    ApplicationStatus = "FAILED"
)

// Application is the aggregate root for a deployable unit. All state changes
// go through its methods; every mutating method that changes persisted state
// appends exactly one event to the uncommitted buffer and increments Version.
//
// The uncommitted buffer is transient: the service layer appends it to the
// event store under the pre-mutation version and then clears it.
type Application struct {
	ID                   uuid.UUID            `gorm:"column:id;primaryKey" json:"id"`
	Name                 string               `gorm:"column:name" json:"name"`
	UserID               string               `gorm:"column:user_id;index" json:"userId"`
	Status               ApplicationStatus    `gorm:"column:status" json:"status"`
	CurrentInstanceCount int                  `gorm:"column:current_instance_count" json:"currentInstanceCount"`
	Resources            ResourceRequirements `gorm:"column:resources;type:text;serializer:json" json:"resources"`
	ScalingConfig        ScalingConfiguration `gorm:"column:scaling_config;type:text;serializer:json" json:"scalingConfig"`
	Version              int                  `gorm:"column:version" json:"version"`
	CreatedAt            time.Time            `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt            time.Time            `gorm:"column:updated_at" json:"updatedAt"`

	uncommitted []ApplicationEvent `gorm:"-"`
}

// TableName returns the table name for the Application model
func (Application) TableName() string {
	return "applications"
}

// NewApplication creates an application in PENDING state with the minimum
// instance count from its scaling configuration, and records the
// APPLICATION_CREATED event as version 1.
func NewApplication(name, userID string, resources ResourceRequirements, scalingConfig ScalingConfiguration) (*Application, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: application name must not be empty", utils.ErrValidation)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id must not be empty", utils.ErrValidation)
	}
	if err := resources.Validate(); err != nil {
		return nil, err
	}
	if err := scalingConfig.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := &Application{
		ID:                   uuid.New(),
		Name:                 name,
		UserID:               userID,
		Status:               ApplicationStatusPending,
		CurrentInstanceCount: scalingConfig.MinInstances,
		Resources:            resources,
		ScalingConfig:        scalingConfig,
		Version:              0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	app.recordEvent(EventApplicationCreated, map[string]interface{}{
		"name":          name,
		"userId":        userID,
		"instanceCount": app.CurrentInstanceCount,
	})
	return app, nil
}

// Deploy starts a deployment. Legal from PENDING, FAILED and STOPPED.
func (a *Application) Deploy() error {
	switch a.Status {
	case ApplicationStatusPending, ApplicationStatusFailed, ApplicationStatusStopped:
	default:
		return a.transitionError("deploy")
	}
	a.Status = ApplicationStatusDeploying
	a.recordEvent(EventDeploymentStarted, map[string]interface{}{
		"instanceCount": a.CurrentInstanceCount,
	})
	return nil
}

// MarkAsRunning completes a deployment. Legal only from DEPLOYING.
func (a *Application) MarkAsRunning() error {
	if a.Status != ApplicationStatusDeploying {
		return a.transitionError("markAsRunning")
	}
	a.Status = ApplicationStatusRunning
	a.recordEvent(EventDeploymentCompleted, map[string]interface{}{
		"instanceCount": a.CurrentInstanceCount,
	})
	return nil
}

// Scale changes the instance count. Legal only from RUNNING. A target equal
// to the current count is a no-op: no event is emitted and the version does
// not change. Targets outside the configured [min,max] bounds are rejected
// without mutating any state.
func (a *Application) Scale(newCount int, reason string, aiConfidence *float64) error {
	if a.Status != ApplicationStatusRunning {
		return a.transitionError("scale")
	}
	if newCount < a.ScalingConfig.MinInstances || newCount > a.ScalingConfig.MaxInstances {
		return fmt.Errorf("%w: instance count %d outside [%d,%d]",
			utils.ErrOutOfRange, newCount, a.ScalingConfig.MinInstances, a.ScalingConfig.MaxInstances)
	}
	if newCount == a.CurrentInstanceCount {
		return nil
	}

	previous := a.CurrentInstanceCount
	a.Status = ApplicationStatusScaling
	a.CurrentInstanceCount = newCount
	payload := map[string]interface{}{
		"previousInstanceCount": previous,
		"newInstanceCount":      newCount,
		"reason":                reason,
	}
	if aiConfidence != nil {
		payload["aiConfidence"] = *aiConfidence
	}
	a.recordEvent(EventApplicationScaled, payload)
	return nil
}

// CompleteScaling returns the application to RUNNING once the scale operation
// has been applied. Like MarkAsStopped, it records no event of its own; the
// scale's APPLICATION_SCALED event already covers the change.
func (a *Application) CompleteScaling() error {
	if a.Status != ApplicationStatusScaling {
		return a.transitionError("completeScaling")
	}
	a.Status = ApplicationStatusRunning
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateResourceRequirements replaces the resource shape. Legal from any
// status except PENDING.
func (a *Application) UpdateResourceRequirements(resources ResourceRequirements) error {
	if a.Status == ApplicationStatusPending {
		return a.transitionError("updateResourceRequirements")
	}
	if err := resources.Validate(); err != nil {
		return err
	}
	previous := a.Resources
	a.Resources = resources
	a.recordEvent(EventApplicationUpdated, map[string]interface{}{
		"change":            "resources",
		"previousResources": previous,
		"newResources":      resources,
	})
	return nil
}

// Stop begins shutting the application down. Legal only from RUNNING.
func (a *Application) Stop() error {
	if a.Status != ApplicationStatusRunning {
		return a.transitionError("stop")
	}
	a.Status = ApplicationStatusStopping
	a.recordEvent(EventApplicationUpdated, map[string]interface{}{
		"change": "stop",
	})
	return nil
}

// MarkAsStopped finalizes a stop. The instance count drops to zero; no event
// is recorded beyond the stop's own APPLICATION_UPDATED.
func (a *Application) MarkAsStopped() error {
	if a.Status != ApplicationStatusStopping {
		return a.transitionError("markAsStopped")
	}
	a.Status = ApplicationStatusStopped
	a.CurrentInstanceCount = 0
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAsFailed moves the application to FAILED from any non-terminal status.
// FAILED is recoverable: Deploy is legal from it.
func (a *Application) MarkAsFailed(details string) error {
	if a.Status == ApplicationStatusStopped || a.Status == ApplicationStatusFailed {
		return a.transitionError("markAsFailed")
	}
	a.Status = ApplicationStatusFailed
	event := NewApplicationEvent(a.ID, EventErrorOccurred, a.Version+1, map[string]interface{}{})
	event.Metadata["details"] = details
	a.Version++
	a.UpdatedAt = event.Timestamp
	a.uncommitted = append(a.uncommitted, event)
	return nil
}

// Deletable reports whether the delete use-case may proceed
func (a *Application) Deletable() bool {
	return a.Status == ApplicationStatusStopped
}

// UncommittedEvents returns the events recorded since the last clear, in the
// order they were produced.
func (a *Application) UncommittedEvents() []ApplicationEvent {
	return a.uncommitted
}

// ClearUncommittedEvents empties the transient event buffer after the events
// have been appended to the store.
func (a *Application) ClearUncommittedEvents() {
	a.uncommitted = nil
}

func (a *Application) recordEvent(eventType EventType, payload map[string]interface{}) {
	a.Version++
	event := NewApplicationEvent(a.ID, eventType, a.Version, payload)
	a.UpdatedAt = event.Timestamp
	a.uncommitted = append(a.uncommitted, event)
}

func (a *Application) transitionError(operation string) error {
	return fmt.Errorf("%w: %s is not legal from status %s", utils.ErrInvalidStateTransition, operation, a.Status)
}
