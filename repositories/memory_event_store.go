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
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// MemoryEventStore is an in-memory EventStore for local development and tests.
// The mutex serializes appends, so the expected-version check gives the same
// exactly-one-winner guarantee as the database-backed store.
type MemoryEventStore struct {
	mu      sync.Mutex
	streams map[uuid.UUID][]models.ApplicationEvent
	all     []models.ApplicationEvent
}

// NewMemoryEventStore creates an empty in-memory event store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		streams: make(map[uuid.UUID][]models.ApplicationEvent),
	}
}

// Append writes events atomically under the expected-version check
func (s *MemoryEventStore) Append(_ context.Context, aggregateID uuid.UUID, events []models.ApplicationEvent, expectedVersion int) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	if len(stream) != expectedVersion {
		return fmt.Errorf("%w: expected version %d, store has %d events",
			utils.ErrConcurrencyConflict, expectedVersion, len(stream))
	}
	s.streams[aggregateID] = append(stream, events...)
	s.all = append(s.all, events...)
	return nil
}

// GetEvents returns the events of one aggregate ordered by version, starting
// after fromVersion
func (s *MemoryEventStore) GetEvents(_ context.Context, aggregateID uuid.UUID, fromVersion int) ([]models.ApplicationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []models.ApplicationEvent
	for _, e := range s.streams[aggregateID] {
		if e.Version > fromVersion {
			events = append(events, e)
		}
	}
	return events, nil
}

// GetAllEvents returns events across all aggregates in append (timestamp)
// order, optionally filtered by event type
func (s *MemoryEventStore) GetAllEvents(_ context.Context, eventType *models.EventType) ([]models.ApplicationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []models.ApplicationEvent
	for _, e := range s.all {
		if eventType == nil || e.EventType == *eventType {
			events = append(events, e)
		}
	}
	return events, nil
}
