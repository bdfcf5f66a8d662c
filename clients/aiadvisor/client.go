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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

const (
	riskAssessmentPath    = "/v1/risk-assessments"
	scalingPredictionPath = "/v1/scaling-predictions"

	defaultTimeout  = 5 * time.Second
	defaultRetryMax = 2
)

// AdvisorClient is the AI risk/scaling advisor contract. Both calls are
// bounded by the configured timeout; any transport or server failure is
// returned wrapped in utils.ErrAdvisorUnavailable so the caller can apply
// its deterministic fallback.
type AdvisorClient interface {
	AssessDeploymentRisk(ctx context.Context, features RiskFeatures) (*RiskAssessmentResponse, error)
	PredictScalingNeed(ctx context.Context, req ScalingPredictionRequest) (*ScalingRecommendation, error)
}

// Config holds advisor client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type advisorClient struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewAdvisorClient creates an HTTP advisor client with bounded retries
func NewAdvisorClient(cfg Config) AdvisorClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetryMax
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	return &advisorClient{
		baseURL: cfg.BaseURL,
		client:  client,
	}
}

// AssessDeploymentRisk scores a proposed deployment
func (c *advisorClient) AssessDeploymentRisk(ctx context.Context, features RiskFeatures) (*RiskAssessmentResponse, error) {
	var result RiskAssessmentResponse
	if err := c.post(ctx, riskAssessmentPath, features, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PredictScalingNeed scores a proposed scaling action
func (c *advisorClient) PredictScalingNeed(ctx context.Context, req ScalingPredictionRequest) (*ScalingRecommendation, error) {
	var result ScalingRecommendation
	if err := c.post(ctx, scalingPredictionPath, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *advisorClient) post(ctx context.Context, path string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal advisor request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build advisor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrAdvisorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: advisor returned status %d", utils.ErrAdvisorUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: invalid advisor response: %v", utils.ErrAdvisorUnavailable, err)
	}
	return nil
}
