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

package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

var config *Config

func GetConfig() *Config {
	return config
}

func init() {
	loadEnvs()
}

func loadEnvs() {
	config = &Config{}

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath != "" {
		err := godotenv.Load(envFilePath)
		if err != nil {
			panic(err)
		}
	}

	r := &configReader{}
	config.ServerHost = r.readOptionalString("SERVER_HOST", "")
	config.ServerPort = int(r.readOptionalInt64("SERVER_PORT", 8080))
	config.AuthHeader = r.readOptionalString("AUTH_HEADER", "Authorization")
	config.AutoMaxProcsEnabled = r.readOptionalBool("AUTO_MAX_PROCS_ENABLED", true)
	config.CORSAllowedOrigin = r.readOptionalString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// Logging configuration
	config.LogLevel = r.readOptionalString("LOG_LEVEL", "INFO")

	// read database configs
	config.POSTGRESQL = POSTGRESQL{
		Host:     r.readRequiredString("DB_HOST"),
		Port:     int(r.readOptionalInt64("DB_PORT", 5432)),
		User:     r.readRequiredString("DB_USER"),
		Password: r.readRequiredString("DB_PASSWORD"),
		DBName:   r.readRequiredString("DB_NAME"),
	}
	config.POSTGRESQL.DbConfigs = DbConfigs{
		// gorm configs
		SkipDefaultTransaction:    r.readOptionalBool("GORM_SKIP_DEFAULT_TRANSACTION", true),
		SlowThresholdMilliseconds: r.readOptionalInt64("GORM_SLOW_THRESHOLD_MILLISECONDS", 200),

		// sql.DB configs
		MaxIdleCount:       r.readNullableInt64("DB_MAX_IDLE_COUNT"),
		MaxOpenCount:       r.readNullableInt64("DB_MAX_OPEN_COUNT"),
		MaxIdleTimeSeconds: r.readNullableInt64("DB_MAX_IDLE_TIME_SECONDS"),
		MaxLifetimeSeconds: r.readNullableInt64("DB_MAX_LIFETIME_SECONDS"),
	}

	// HTTP Server timeout configurations
	config.ReadTimeoutSeconds = int(r.readOptionalInt64("HTTP_READ_TIMEOUT_SECONDS", 10))
	config.WriteTimeoutSeconds = int(r.readOptionalInt64("HTTP_WRITE_TIMEOUT_SECONDS", 90))
	config.IdleTimeoutSeconds = int(r.readOptionalInt64("HTTP_IDLE_TIMEOUT_SECONDS", 60))
	config.MaxHeaderBytes = int(r.readOptionalInt64("HTTP_MAX_HEADER_BYTES", 65536)) // 1024 * 64

	// Database operation timeout configuration
	config.DbOperationTimeoutSeconds = int(r.readOptionalInt64("DB_OPERATION_TIMEOUT_SECONDS", 10))

	config.IsLocalDevEnv = r.readOptionalBool("IS_LOCAL_DEV_ENV", false)

	// Orchestration backend configuration
	config.OrchestrationBackend = r.readOptionalString("ORCHESTRATION_BACKEND", "kubernetes")
	config.KubeConfig = r.readOptionalString("KUBECONFIG", "")
	config.KubernetesNamespace = r.readOptionalString("KUBERNETES_NAMESPACE", "default")
	config.DockerHost = r.readOptionalString("DOCKER_HOST", "")

	config.Prometheus = PrometheusConfig{
		BaseURL: r.readOptionalString("PROMETHEUS_BASE_URL", "http://localhost:9090"),
	}

	config.Advisor = AdvisorConfig{
		BaseURL:        r.readOptionalString("AI_ADVISOR_BASE_URL", "http://localhost:8090"),
		TimeoutSeconds: int(r.readOptionalInt64("AI_ADVISOR_TIMEOUT_SECONDS", 5)),
	}

	config.Deployment = DeploymentConfig{
		HealthCheckTimeoutSeconds:      int(r.readOptionalInt64("DEPLOYMENT_HEALTH_CHECK_TIMEOUT_SECONDS", 300)),
		HealthCheckIntervalSeconds:     int(r.readOptionalInt64("DEPLOYMENT_HEALTH_CHECK_INTERVAL_SECONDS", 10)),
		StabilityWindowSeconds:         int(r.readOptionalInt64("DEPLOYMENT_STABILITY_WINDOW_SECONDS", 300)),
		StabilitySampleIntervalSeconds: int(r.readOptionalInt64("DEPLOYMENT_STABILITY_SAMPLE_INTERVAL_SECONDS", 30)),
		ErrorRateThresholdPercent:      r.readOptionalFloat64("DEPLOYMENT_ERROR_RATE_THRESHOLD_PERCENT", 5.0),
	}

	config.PackageVersion = r.readOptionalString("ADP_VERSION", Version)

	config.KeyManagerConfigurations = KeyManagerConfigurations{
		// Comma-separated list of allowed issuers and audiences
		Issuer:        r.readOptionalStringList("KEY_MANAGER_ISSUER", "App Deployment Platform Local"),
		Audience:      r.readOptionalStringList("KEY_MANAGER_AUDIENCE", "localhost"),
		JWKSUrl:       r.readOptionalString("KEY_MANAGER_JWKS_URL", ""),
		DefaultIssuer: r.readOptionalString("KEY_MANAGER_DEFAULT_ISSUER", "App Deployment Platform Local"),
	}

	validateHTTPServerConfigs(config, r)
	validateDeploymentConfigs(config, r)

	r.logAndExitIfErrorsFound()

	slog.Info("configReader: configs loaded")
}

func validateHTTPServerConfigs(cfg *Config, r *configReader) {
	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		r.errors = append(r.errors, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort))
	}
	if cfg.ReadTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.ReadTimeoutSeconds))
	}
	if cfg.WriteTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_WRITE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.WriteTimeoutSeconds))
	}
	if cfg.ReadTimeoutSeconds >= cfg.WriteTimeoutSeconds {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS (%d) must be < HTTP_WRITE_TIMEOUT_SECONDS (%d)",
			cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds))
	}
	if cfg.IdleTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_IDLE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.IdleTimeoutSeconds))
	}
	if cfg.MaxHeaderBytes < 1024 || cfg.MaxHeaderBytes > 1048576 { // 1KB to 1MB
		r.errors = append(r.errors, fmt.Errorf("HTTP_MAX_HEADER_BYTES must be between 1024 and 1048576, got %d", cfg.MaxHeaderBytes))
	}
}

func validateDeploymentConfigs(cfg *Config, r *configReader) {
	switch cfg.OrchestrationBackend {
	case "kubernetes", "docker", "mock":
	default:
		r.errors = append(r.errors, fmt.Errorf("ORCHESTRATION_BACKEND must be one of kubernetes, docker, mock; got %q", cfg.OrchestrationBackend))
	}
	if cfg.Deployment.HealthCheckTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("DEPLOYMENT_HEALTH_CHECK_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.Deployment.HealthCheckTimeoutSeconds))
	}
	if cfg.Deployment.HealthCheckIntervalSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("DEPLOYMENT_HEALTH_CHECK_INTERVAL_SECONDS must be greater than 0, got %d", cfg.Deployment.HealthCheckIntervalSeconds))
	}
	if cfg.Deployment.StabilityWindowSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("DEPLOYMENT_STABILITY_WINDOW_SECONDS must be greater than 0, got %d", cfg.Deployment.StabilityWindowSeconds))
	}
	if cfg.Deployment.StabilitySampleIntervalSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("DEPLOYMENT_STABILITY_SAMPLE_INTERVAL_SECONDS must be greater than 0, got %d", cfg.Deployment.StabilitySampleIntervalSeconds))
	}
	if cfg.Deployment.ErrorRateThresholdPercent <= 0 || cfg.Deployment.ErrorRateThresholdPercent > 100 {
		r.errors = append(r.errors, fmt.Errorf("DEPLOYMENT_ERROR_RATE_THRESHOLD_PERCENT must be in (0,100], got %f", cfg.Deployment.ErrorRateThresholdPercent))
	}
}
