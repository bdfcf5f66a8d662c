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

package db

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wso2/app-deployment-platform/app-manager-service/config"
)

var (
	dbInstance *gorm.DB
	once       sync.Once
)

// GetDB returns the shared gorm handle, opening the connection on first use.
// Repositories attach their own context per operation.
func GetDB() *gorm.DB {
	once.Do(func() {
		cfg := config.GetConfig()
		db, err := open(cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		dbInstance = db
	})
	return dbInstance
}

func open(cfg *config.Config) (*gorm.DB, error) {
	pg := cfg.POSTGRESQL
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)

	logLevel := gormlogger.Warn
	if cfg.IsLocalDevEnv {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: pg.SkipDefaultTransaction,
		Logger: gormlogger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             time.Duration(pg.SlowThresholdMilliseconds) * time.Millisecond,
				LogLevel:                  logLevel,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	if pg.MaxIdleCount != nil {
		sqlDB.SetMaxIdleConns(int(*pg.MaxIdleCount))
	}
	if pg.MaxOpenCount != nil {
		sqlDB.SetMaxOpenConns(int(*pg.MaxOpenCount))
	}
	if pg.MaxIdleTimeSeconds != nil {
		sqlDB.SetConnMaxIdleTime(time.Duration(*pg.MaxIdleTimeSeconds) * time.Second)
	}
	if pg.MaxLifetimeSeconds != nil {
		sqlDB.SetConnMaxLifetime(time.Duration(*pg.MaxLifetimeSeconds) * time.Second)
	}

	return db, nil
}
