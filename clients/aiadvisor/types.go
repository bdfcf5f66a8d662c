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

package aiadvisor

// RiskFeatures is the feature vector scored by the risk model
type RiskFeatures struct {
	ApplicationAgeDays    float64 `json:"applicationAgeDays"`
	CurrentInstanceCount  int     `json:"currentInstanceCount"`
	CPUCores              float64 `json:"cpuCores"`
	MemoryMB              int     `json:"memoryMb"`
	RecentDeploymentCount int     `json:"recentDeploymentCount"`
	RecentErrorRate       float64 `json:"recentErrorRate"`
	TrafficVolume         float64 `json:"trafficVolume"`
	ContainerImage        string  `json:"containerImage"`
	ImageSizeMB           float64 `json:"imageSizeMb,omitempty"`
	Strategy              string  `json:"strategy"`
}

// RiskAssessmentResponse is the risk model's verdict
type RiskAssessmentResponse struct {
	RiskLevel  string   `json:"riskLevel"`
	Confidence float64  `json:"confidence"`
	Factors    []string `json:"factors,omitempty"`
}

// ApplicationSnapshot carries the application state the scaling model needs
type ApplicationSnapshot struct {
	ApplicationID        string  `json:"applicationId"`
	CurrentInstanceCount int     `json:"currentInstanceCount"`
	MinInstances         int     `json:"minInstances"`
	MaxInstances         int     `json:"maxInstances"`
	TargetCPUUtilization float64 `json:"targetCpuUtilization"`
	ScalingStrategy      string  `json:"scalingStrategy"`
}

// CurrentMetrics is the live sample accompanying a scaling prediction request
type CurrentMetrics struct {
	ErrorRate         float64 `json:"errorRate"`
	LatencyMs         float64 `json:"latencyMs"`
	CPUUtilization    float64 `json:"cpuUtilization"`
	MemoryUtilization float64 `json:"memoryUtilization"`
}

// ScalingPredictionRequest is the payload for the scaling model
type ScalingPredictionRequest struct {
	Application ApplicationSnapshot `json:"application"`
	Metrics     CurrentMetrics      `json:"metrics"`
}

// ScalingRecommendation is the scaling model's verdict. ShouldScale false
// means the caller must not emit any scaling event.
type ScalingRecommendation struct {
	ShouldScale          bool    `json:"shouldScale"`
	RecommendedInstances int     `json:"recommendedInstances"`
	Confidence           float64 `json:"confidence"`
	Reason               string  `json:"reason"`
}
