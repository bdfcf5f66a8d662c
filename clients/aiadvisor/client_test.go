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

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

func TestAssessDeploymentRisk(t *testing.T) {
	var gotPath, gotContentType string
	var gotFeatures RiskFeatures
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFeatures))
		json.NewEncoder(w).Encode(RiskAssessmentResponse{
			RiskLevel:  "HIGH",
			Confidence: 0.87,
			Factors:    []string{"recent error rate elevated"},
		})
	}))
	defer server.Close()

	client := NewAdvisorClient(Config{BaseURL: server.URL})
	result, err := client.AssessDeploymentRisk(context.Background(), RiskFeatures{
		CurrentInstanceCount: 4,
		Strategy:             "BLUE_GREEN",
		RecentErrorRate:      3.2,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/risk-assessments", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, 4, gotFeatures.CurrentInstanceCount)
	assert.Equal(t, "BLUE_GREEN", gotFeatures.Strategy)

	assert.Equal(t, "HIGH", result.RiskLevel)
	assert.Equal(t, 0.87, result.Confidence)
	assert.Len(t, result.Factors, 1)
}

func TestPredictScalingNeed(t *testing.T) {
	var gotPath string
	var gotRequest ScalingPredictionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(ScalingRecommendation{
			ShouldScale:          true,
			RecommendedInstances: 6,
			Confidence:           0.91,
			Reason:               "cpu above target for 10m",
		})
	}))
	defer server.Close()

	client := NewAdvisorClient(Config{BaseURL: server.URL})
	result, err := client.PredictScalingNeed(context.Background(), ScalingPredictionRequest{
		Application: ApplicationSnapshot{
			ApplicationID:        "a7e2",
			CurrentInstanceCount: 3,
			MinInstances:         2,
			MaxInstances:         10,
		},
		Metrics: CurrentMetrics{CPUUtilization: 88.5},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/scaling-predictions", gotPath)
	assert.Equal(t, 3, gotRequest.Application.CurrentInstanceCount)
	assert.Equal(t, 88.5, gotRequest.Metrics.CPUUtilization)

	assert.True(t, result.ShouldScale)
	assert.Equal(t, 6, result.RecommendedInstances)
}

func TestAdvisorClient_NonOKStatusIsUnavailable(t *testing.T) {
	// 4xx is not retried by the transport, so the error surfaces immediately
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad features", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewAdvisorClient(Config{BaseURL: server.URL})
	_, err := client.AssessDeploymentRisk(context.Background(), RiskFeatures{})
	assert.ErrorIs(t, err, utils.ErrAdvisorUnavailable)
}

func TestAdvisorClient_InvalidBodyIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewAdvisorClient(Config{BaseURL: server.URL})
	_, err := client.PredictScalingNeed(context.Background(), ScalingPredictionRequest{})
	assert.ErrorIs(t, err, utils.ErrAdvisorUnavailable)
}

func TestAdvisorClient_UnreachableServerIsUnavailable(t *testing.T) {
	// grab a port that is guaranteed closed
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := NewAdvisorClient(Config{BaseURL: baseURL, Timeout: 200 * time.Millisecond})
	_, err := client.AssessDeploymentRisk(ctx, RiskFeatures{})
	assert.ErrorIs(t, err, utils.ErrAdvisorUnavailable)
}
