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

// create table applications
var migration001 = migration{
	ID: 1,
	Migrate: func(db *gorm.DB) error {
		createTable := `CREATE TABLE applications
(
   id                      UUID PRIMARY KEY,
   name                    VARCHAR(100) NOT NULL,
   user_id                 VARCHAR(255) NOT NULL,
   status                  VARCHAR(20)  NOT NULL,
   current_instance_count  INT          NOT NULL,
   resources               TEXT         NOT NULL,
   scaling_config          TEXT         NOT NULL,
   version                 INT          NOT NULL,
   created_at              TIMESTAMPTZ  NOT NULL DEFAULT CURRENT_TIMESTAMP,
   updated_at              TIMESTAMPTZ  NOT NULL DEFAULT CURRENT_TIMESTAMP,
   CONSTRAINT applications_status_enum CHECK (status IN
       ('PENDING', 'DEPLOYING', 'RUNNING', 'SCALING', 'STOPPING', 'STOPPED', 'FAILED'))
)`

		createIndex := `CREATE INDEX idx_applications_user_id ON applications(user_id)`

		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createTable, createIndex)
		})
	},
}
