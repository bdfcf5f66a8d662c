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

package utils

import "errors"

var (
	// Domain invariant errors
	ErrValidation             = errors.New("validation failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrOutOfRange             = errors.New("value out of allowed range")

	// Event store errors
	ErrConcurrencyConflict = errors.New("concurrency conflict: stale expected version")

	// Resource not found errors
	ErrApplicationNotFound = errors.New("application not found")
	ErrDeploymentNotFound  = errors.New("deployment not found")

	// Deployment orchestration errors
	ErrHealthCheckTimeout      = errors.New("health check timeout")
	ErrDeploymentInstability   = errors.New("deployment instability detected")
	ErrStrategyNotImplemented  = errors.New("deployment strategy not implemented")
	ErrDeploymentNotCancelable = errors.New("deployment is not in a cancelable state")

	// Advisor errors
	ErrAdvisorUnavailable = errors.New("ai advisor unavailable")

	// Request errors
	ErrBadRequest = errors.New("bad request")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
)
