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
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations
const pgUniqueViolation = "23505"

// EventStore is an append-only, per-aggregate event log with optimistic
// concurrency. Append fails with utils.ErrConcurrencyConflict when the store's
// current event count for the aggregate differs from expectedVersion; exactly
// one writer wins per version number. Events are never deleted or reordered.
type EventStore interface {
	Append(ctx context.Context, aggregateID uuid.UUID, events []models.ApplicationEvent, expectedVersion int) error
	GetEvents(ctx context.Context, aggregateID uuid.UUID, fromVersion int) ([]models.ApplicationEvent, error)
	GetAllEvents(ctx context.Context, eventType *models.EventType) ([]models.ApplicationEvent, error)
}

// GormEventStore implements EventStore on a PostgreSQL table with a unique
// (aggregate_id, version) index. The index is the serialization point: two
// writers racing past the count check collide on insert and the loser gets a
// unique violation, which is surfaced as a concurrency conflict.
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new database-backed event store
func NewGormEventStore(db *gorm.DB) EventStore {
	return &GormEventStore{db: db}
}

// Append writes events atomically under the expected-version check
func (s *GormEventStore) Append(ctx context.Context, aggregateID uuid.UUID, events []models.ApplicationEvent, expectedVersion int) error {
	if len(events) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ApplicationEvent{}).
			Where("aggregate_id = ?", aggregateID).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(expectedVersion) {
			return fmt.Errorf("%w: expected version %d, store has %d events",
				utils.ErrConcurrencyConflict, expectedVersion, count)
		}
		return tx.Create(events).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: concurrent append won version %d",
				utils.ErrConcurrencyConflict, expectedVersion+1)
		}
		return err
	}
	return nil
}

// GetEvents returns the events of one aggregate ordered by version, starting
// after fromVersion. It never mutates the log.
func (s *GormEventStore) GetEvents(ctx context.Context, aggregateID uuid.UUID, fromVersion int) ([]models.ApplicationEvent, error) {
	var events []models.ApplicationEvent
	err := s.db.WithContext(ctx).
		Where("aggregate_id = ? AND version > ?", aggregateID, fromVersion).
		Order("version ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetAllEvents returns events across all aggregates ordered by timestamp,
// optionally filtered by event type. Used for auditing and projection rebuilds.
func (s *GormEventStore) GetAllEvents(ctx context.Context, eventType *models.EventType) ([]models.ApplicationEvent, error) {
	query := s.db.WithContext(ctx).Model(&models.ApplicationEvent{})
	if eventType != nil {
		query = query.Where("event_type = ?", *eventType)
	}
	var events []models.ApplicationEvent
	if err := query.Order("timestamp ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
