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

package services

import (
	"fmt"

	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// rolloutStrategy describes the capabilities of a deployment strategy.
// Adding ROLLING or CANARY later means adding a new implementation here; the
// orchestrator consults capabilities instead of switching on the enum.
type rolloutStrategy interface {
	Name() models.DeploymentStrategy
	// RollbackEnabled reports whether a post-switch regression triggers an
	// automatic traffic switch back to the previous environment
	RollbackEnabled() bool
}

// blueGreenStrategy is the only implemented strategy: a full parallel
// environment with instant rollback by repointing the load balancer.
type blueGreenStrategy struct{}

func (blueGreenStrategy) Name() models.DeploymentStrategy { return models.DeploymentStrategyBlueGreen }
func (blueGreenStrategy) RollbackEnabled() bool           { return true }

// strategyFor resolves a strategy name. An empty name defaults to BLUE_GREEN.
// Declared-but-unimplemented strategies fail fast instead of silently
// no-opping.
func strategyFor(strategy models.DeploymentStrategy) (rolloutStrategy, error) {
	switch strategy {
	case "", models.DeploymentStrategyBlueGreen:
		return blueGreenStrategy{}, nil
	case models.DeploymentStrategyRolling, models.DeploymentStrategyCanary, models.DeploymentStrategyRecreate:
		return nil, fmt.Errorf("%w: %s", utils.ErrStrategyNotImplemented, strategy)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", utils.ErrValidation, strategy)
	}
}
