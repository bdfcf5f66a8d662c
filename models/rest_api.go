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

// CreateApplicationRequest is the payload for registering an application
type CreateApplicationRequest struct {
	Name          string               `json:"name"`
	Resources     ResourceRequirements `json:"resources"`
	ScalingConfig ScalingConfiguration `json:"scalingConfig"`
}

// DeployApplicationRequest is the payload for starting a deployment
type DeployApplicationRequest struct {
	ContainerImage       string             `json:"containerImage"`
	EnvironmentVariables map[string]string  `json:"environmentVariables,omitempty"`
	Strategy             DeploymentStrategy `json:"strategy,omitempty"`
}

// ScaleApplicationRequest is the payload for a manual scale operation
type ScaleApplicationRequest struct {
	InstanceCount int    `json:"instanceCount"`
	Reason        string `json:"reason,omitempty"`
}

// UpdateResourcesRequest is the payload for replacing resource requirements
type UpdateResourcesRequest struct {
	Resources ResourceRequirements `json:"resources"`
}

// ScalingEvaluationResponse reports the outcome of an AI-driven scaling
// evaluation. Applied is false when the advisor recommended no change or the
// clamped recommendation equals the current count.
type ScalingEvaluationResponse struct {
	Applied       bool    `json:"applied"`
	InstanceCount int     `json:"instanceCount"`
	Reason        string  `json:"reason,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}
