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

// EventType identifies the kind of domain event recorded for an application
type EventType string

const (
	EventApplicationCreated  EventType = "APPLICATION_CREATED"
	EventDeploymentStarted   EventType = "DEPLOYMENT_STARTED"
	EventDeploymentCompleted EventType = "DEPLOYMENT_COMPLETED"
	EventApplicationScaled   EventType = "APPLICATION_SCALED"
	EventApplicationUpdated  EventType = "APPLICATION_UPDATED"
	EventErrorOccurred       EventType = "ERROR_OCCURRED"
)

// ApplicationEvent is a single immutable domain event in an application's log.
// Events are ordered by monotonically increasing Version within one aggregate;
// the (aggregate_id, version) pair is unique in the store.
type ApplicationEvent struct {
	EventID     uuid.UUID              `gorm:"column:event_id;primaryKey" json:"eventId"`
	AggregateID uuid.UUID              `gorm:"column:aggregate_id;uniqueIndex:idx_application_events_aggregate_version" json:"aggregateId"`
	EventType   EventType              `gorm:"column:event_type" json:"eventType"`
	Version     int                    `gorm:"column:version;uniqueIndex:idx_application_events_aggregate_version" json:"version"`
	Timestamp   time.Time              `gorm:"column:timestamp" json:"timestamp"`
	Metadata    map[string]interface{} `gorm:"column:metadata;type:text;serializer:json" json:"metadata,omitempty"`
	Payload     map[string]interface{} `gorm:"column:payload;type:text;serializer:json" json:"payload,omitempty"`
}

// TableName returns the table name for the ApplicationEvent model
func (ApplicationEvent) TableName() string {
	return "application_events"
}

// NewApplicationEvent constructs an event with a fresh identity and timestamp
func NewApplicationEvent(aggregateID uuid.UUID, eventType EventType, version int, payload map[string]interface{}) ApplicationEvent {
	return ApplicationEvent{
		EventID:     uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Version:     version,
		Timestamp:   time.Now().UTC(),
		Metadata:    map[string]interface{}{},
		Payload:     payload,
	}
}
