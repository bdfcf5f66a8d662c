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

// Config holds all configuration for the application
type Config struct {
	PackageVersion      string
	ServerHost          string
	ServerPort          int
	AuthHeader          string
	AutoMaxProcsEnabled bool
	LogLevel            string
	POSTGRESQL          POSTGRESQL

	// HTTP Server timeout configurations
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
	MaxHeaderBytes      int

	// Database operation timeout configuration
	DbOperationTimeoutSeconds int

	// CORSAllowedOrigin is the single allowed origin for CORS; use "*" to allow all
	CORSAllowedOrigin string

	IsLocalDevEnv bool

	// Orchestration backend selection: "kubernetes", "docker" or "mock"
	OrchestrationBackend string
	KubeConfig           string
	KubernetesNamespace  string
	DockerHost           string

	// Prometheus backend used for deployment stability monitoring
	Prometheus PrometheusConfig

	// AI advisor configuration
	Advisor AdvisorConfig

	// Blue/green orchestrator tunables
	Deployment DeploymentConfig

	KeyManagerConfigurations KeyManagerConfigurations
}

type POSTGRESQL struct {
	Host     string
	Port     int
	User     string
	DBName   string
	Password string `json:"-"`
	DbConfigs
}

type DbConfigs struct {
	// gorm configs
	SlowThresholdMilliseconds int64
	SkipDefaultTransaction    bool

	// go sql configs
	MaxIdleCount       *int64 // zero means defaultMaxIdleConns (2); negative means 0
	MaxOpenCount       *int64 // <= 0 means unlimited
	MaxLifetimeSeconds *int64 // maximum amount of time a connection may be reused
	MaxIdleTimeSeconds *int64
}

// PrometheusConfig holds the metrics backend configuration
type PrometheusConfig struct {
	// BaseURL is the Prometheus server URL; empty disables live sampling
	BaseURL string
}

// AdvisorConfig holds the AI advisor client configuration
type AdvisorConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// DeploymentConfig holds the blue/green orchestration tunables
type DeploymentConfig struct {
	HealthCheckTimeoutSeconds      int
	HealthCheckIntervalSeconds     int
	StabilityWindowSeconds         int
	StabilitySampleIntervalSeconds int
	// ErrorRateThresholdPercent aborts the stability window when exceeded
	ErrorRateThresholdPercent float64
}

type KeyManagerConfigurations struct {
	Issuer        []string
	Audience      []string
	JWKSUrl       string
	DefaultIssuer string // Default issuer allowed to skip JWKS signature validation
}
