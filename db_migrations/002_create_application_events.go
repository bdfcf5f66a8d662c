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

package dbmigrations

import (
	"gorm.io/gorm"
)

// create table application_events. The unique (aggregate_id, version) index is
// the optimistic-concurrency guard: a stale append violates it and surfaces as
// a conflict instead of corrupting the stream.
var migration002 = migration{
	ID: 2,
	Migrate: func(db *gorm.DB) error {
		createTable := `CREATE TABLE application_events
(
   event_id     UUID PRIMARY KEY,
   aggregate_id UUID         NOT NULL,
   event_type   VARCHAR(40)  NOT NULL,
   version      INT          NOT NULL,
   timestamp    TIMESTAMPTZ  NOT NULL,
   metadata     TEXT,
   payload      TEXT,
   CONSTRAINT application_events_type_enum CHECK (event_type IN
       ('APPLICATION_CREATED', 'DEPLOYMENT_STARTED', 'DEPLOYMENT_COMPLETED',
        'APPLICATION_SCALED', 'APPLICATION_UPDATED', 'ERROR_OCCURRED'))
)`

		createUniqueIndex := `CREATE UNIQUE INDEX idx_application_events_aggregate_version
    ON application_events(aggregate_id, version)`

		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createTable, createUniqueIndex)
		})
	},
}
