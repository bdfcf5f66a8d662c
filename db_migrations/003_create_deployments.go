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

// create table deployments
var migration003 = migration{
	ID: 3,
	Migrate: func(db *gorm.DB) error {
		createTable := `CREATE TABLE deployments
(
   deployment_id          UUID PRIMARY KEY,
   application_id         UUID         NOT NULL,
   strategy               VARCHAR(20)  NOT NULL,
   status                 VARCHAR(20)  NOT NULL,
   risk_assessment        TEXT,
   container_image        VARCHAR(500) NOT NULL,
   environment_variables  TEXT,
   started_at             TIMESTAMPTZ  NOT NULL,
   completed_at           TIMESTAMPTZ,
   health_check_log       TEXT,
   stability_samples      TEXT,
   rollback_executed      BOOLEAN      NOT NULL DEFAULT FALSE,
   error_message          TEXT,
   CONSTRAINT deployments_strategy_enum CHECK (strategy IN
       ('BLUE_GREEN', 'ROLLING', 'CANARY', 'RECREATE')),
   CONSTRAINT deployments_status_enum CHECK (status IN
       ('PENDING', 'IN_PROGRESS', 'COMPLETED', 'FAILED', 'ROLLED_BACK'))
)`

		createIndex := `CREATE INDEX idx_deployments_application_id ON deployments(application_id, started_at DESC)`

		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createTable, createIndex)
		})
	},
}
