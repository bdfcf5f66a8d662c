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
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/wso2/app-deployment-platform/app-manager-service/db"
)

// migration is one schema change. IDs are ordered integers; gormigrate tracks
// the applied set in its own table.
type migration struct {
	ID      int
	Migrate func(db *gorm.DB) error
}

var migrations = []migration{
	migration001,
	migration002,
	migration003,
}

// Migrate applies all pending migrations in ID order
func Migrate() error {
	sorted := make([]migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	gms := make([]*gormigrate.Migration, 0, len(sorted))
	for _, m := range sorted {
		migrate := m.Migrate
		gms = append(gms, &gormigrate.Migration{
			ID:      fmt.Sprintf("%03d", m.ID),
			Migrate: migrate,
		})
	}

	migrator := gormigrate.New(db.GetDB(), gormigrate.DefaultOptions, gms)
	if err := migrator.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	slog.Info("database migrations applied", "count", len(gms))
	return nil
}

func runSQL(tx *gorm.DB, statements ...string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
