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
	"fmt"

	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// ScalingStrategy selects how scaling decisions are made for an application
type ScalingStrategy string

const (
	ScalingStrategyManual     ScalingStrategy = "MANUAL"
	ScalingStrategyReactive   ScalingStrategy = "REACTIVE"
	ScalingStrategyPredictive ScalingStrategy = "PREDICTIVE"
)

// ScalingConfiguration holds the scaling bounds and targets for an application.
// It is constructed once at application creation; invariants are validated at
// construction and never violated thereafter.
type ScalingConfiguration struct {
	Strategy                 ScalingStrategy `json:"strategy"`
	MinInstances             int             `json:"minInstances"`
	MaxInstances             int             `json:"maxInstances"`
	TargetCPUUtilization     float64         `json:"targetCpuUtilization"`
	TargetMemoryUtilization  *float64        `json:"targetMemoryUtilization,omitempty"`
	ScaleUpCooldownSeconds   int             `json:"scaleUpCooldownSeconds"`
	ScaleDownCooldownSeconds int             `json:"scaleDownCooldownSeconds"`
}

// NewScalingConfiguration validates and constructs a ScalingConfiguration
func NewScalingConfiguration(strategy ScalingStrategy, minInstances, maxInstances int, targetCPU float64, targetMemory *float64, scaleUpCooldown, scaleDownCooldown int) (ScalingConfiguration, error) {
	c := ScalingConfiguration{
		Strategy:                 strategy,
		MinInstances:             minInstances,
		MaxInstances:             maxInstances,
		TargetCPUUtilization:     targetCPU,
		TargetMemoryUtilization:  targetMemory,
		ScaleUpCooldownSeconds:   scaleUpCooldown,
		ScaleDownCooldownSeconds: scaleDownCooldown,
	}
	if err := c.Validate(); err != nil {
		return ScalingConfiguration{}, err
	}
	return c, nil
}

// Validate checks the construction-time invariants
func (c ScalingConfiguration) Validate() error {
	switch c.Strategy {
	case ScalingStrategyManual, ScalingStrategyReactive, ScalingStrategyPredictive:
	default:
		return fmt.Errorf("%w: unknown scaling strategy %q", utils.ErrValidation, c.Strategy)
	}
	if c.MinInstances < 1 {
		return fmt.Errorf("%w: minInstances must be >= 1, got %d", utils.ErrValidation, c.MinInstances)
	}
	if c.MaxInstances < c.MinInstances {
		return fmt.Errorf("%w: maxInstances (%d) must be >= minInstances (%d)", utils.ErrValidation, c.MaxInstances, c.MinInstances)
	}
	if c.TargetCPUUtilization < 0 || c.TargetCPUUtilization > 100 {
		return fmt.Errorf("%w: targetCpuUtilization must be in [0,100], got %v", utils.ErrValidation, c.TargetCPUUtilization)
	}
	if c.TargetMemoryUtilization != nil && (*c.TargetMemoryUtilization < 0 || *c.TargetMemoryUtilization > 100) {
		return fmt.Errorf("%w: targetMemoryUtilization must be in [0,100], got %v", utils.ErrValidation, *c.TargetMemoryUtilization)
	}
	if c.ScaleUpCooldownSeconds < 0 || c.ScaleDownCooldownSeconds < 0 {
		return fmt.Errorf("%w: cooldown periods must not be negative", utils.ErrValidation)
	}
	return nil
}
