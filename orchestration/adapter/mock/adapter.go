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

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
)

// Adapter is an in-memory implementation of all three collaborator contracts
// for tests and throwaway environments. Created service sets become running
// and healthy immediately unless ShouldFail is set.
type Adapter struct {
	ShouldFail  bool
	FailMessage string
	Metrics     orchestration.ServiceMetrics
	ImageSize   float64

	logger *slog.Logger

	mu       sync.Mutex
	services map[string]orchestration.ServiceCounts
	groups   map[string]bool
	active   map[string]string
}

// NewAdapter creates a new mock adapter instance
func NewAdapter(logger *slog.Logger) *Adapter {
	return &Adapter{
		FailMessage: "mock adapter failure",
		Metrics:     orchestration.ServiceMetrics{ErrorRate: 0.5, LatencyMs: 20, RequestsPerSecond: 15, CPUUtilization: 30, MemoryUtilization: 40},
		ImageSize:   128,
		logger:      logger,
		services:    make(map[string]orchestration.ServiceCounts),
		groups:      make(map[string]bool),
		active:      make(map[string]string),
	}
}

// CreateServiceSet records the set and marks its target group healthy
func (m *Adapter) CreateServiceSet(_ context.Context, name, image string, desiredCount int, _ map[string]string, binding orchestration.LoadBalancerBinding) (string, error) {
	if m.ShouldFail {
		return "", fmt.Errorf("%s: create %s", m.FailMessage, name)
	}
	m.mu.Lock()
	m.services[name] = orchestration.ServiceCounts{RunningCount: desiredCount, DesiredCount: desiredCount}
	m.groups[binding.TargetGroup] = true
	m.mu.Unlock()
	m.logger.Debug("mock service set created", "name", name, "image", image)
	return name, nil
}

// DescribeService reports the recorded counts
func (m *Adapter) DescribeService(_ context.Context, name string) (orchestration.ServiceCounts, error) {
	if m.ShouldFail {
		return orchestration.ServiceCounts{}, fmt.Errorf("%s: describe %s", m.FailMessage, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts, ok := m.services[name]
	if !ok {
		return orchestration.ServiceCounts{}, fmt.Errorf("mock: service %s not found", name)
	}
	return counts, nil
}

// DeleteServiceSet removes the recorded set
func (m *Adapter) DeleteServiceSet(_ context.Context, name string) error {
	if m.ShouldFail {
		return fmt.Errorf("%s: delete %s", m.FailMessage, name)
	}
	m.mu.Lock()
	delete(m.services, name)
	m.mu.Unlock()
	return nil
}

// SwitchTarget flips the recorded active group
func (m *Adapter) SwitchTarget(_ context.Context, fromGroup, toGroup string) error {
	if m.ShouldFail {
		return fmt.Errorf("%s: switch %s -> %s", m.FailMessage, fromGroup, toGroup)
	}
	m.mu.Lock()
	m.active[orchestration.BaseServiceName(toGroup)] = toGroup
	m.mu.Unlock()
	return nil
}

// CheckTargetHealth reports whether the group was created
func (m *Adapter) CheckTargetHealth(_ context.Context, group string) (bool, error) {
	if m.ShouldFail {
		return false, fmt.Errorf("%s: health %s", m.FailMessage, group)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groups[group], nil
}

// SampleServiceMetrics returns the configured metrics sample
func (m *Adapter) SampleServiceMetrics(_ context.Context, serviceName string) (orchestration.ServiceMetrics, error) {
	if m.ShouldFail {
		return orchestration.ServiceMetrics{}, fmt.Errorf("%s: metrics %s", m.FailMessage, serviceName)
	}
	return m.Metrics, nil
}

// ImageSizeMB returns the configured image size
func (m *Adapter) ImageSizeMB(_ context.Context, image string) (float64, error) {
	if m.ShouldFail {
		return 0, fmt.Errorf("%s: image %s", m.FailMessage, image)
	}
	return m.ImageSize, nil
}
