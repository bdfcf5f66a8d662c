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

package orchestration

import "context"

// ServiceCounts reports the instance counts of a service set
type ServiceCounts struct {
	RunningCount int
	DesiredCount int
}

// LoadBalancerBinding attaches a service set to a load-balancer target group.
// A newly created set joins as a secondary target and receives no traffic
// until the balancer is switched to its group.
type LoadBalancerBinding struct {
	TargetGroup string
}

// ServiceMetrics is one sample of a service's observed behavior
type ServiceMetrics struct {
	ErrorRate         float64
	LatencyMs         float64
	RequestsPerSecond float64
	CPUUtilization    float64
	MemoryUtilization float64
}

// ContainerOrchestrator is the container-orchestration provider contract.
// Only ONE implementation is active at runtime based on deployment
// configuration.
type ContainerOrchestrator interface {
	// CreateServiceSet provisions desiredCount instances of image under the
	// given service name and attaches them to the load-balancer binding.
	// Returns an opaque service handle.
	CreateServiceSet(ctx context.Context, name, image string, desiredCount int, env map[string]string, binding LoadBalancerBinding) (string, error)

	// DescribeService reports running/desired instance counts for a service set
	DescribeService(ctx context.Context, name string) (ServiceCounts, error)

	// DeleteServiceSet decommissions a service set and its instances
	DeleteServiceSet(ctx context.Context, name string) error
}

// LoadBalancer is the ingress/traffic-switching contract
type LoadBalancer interface {
	// SwitchTarget atomically repoints live traffic from one target group to
	// another
	SwitchTarget(ctx context.Context, fromGroup, toGroup string) error

	// CheckTargetHealth reports whether every instance in a target group is
	// healthy
	CheckTargetHealth(ctx context.Context, group string) (bool, error)
}

// MetricsBackend is the metrics/observability collaborator contract
type MetricsBackend interface {
	SampleServiceMetrics(ctx context.Context, serviceName string) (ServiceMetrics, error)
}

// ImageInspector is an optional ContainerOrchestrator capability: backends
// with local access to image metadata report the image size. Backends without
// it (a remote cluster has no registry-agnostic size API) simply don't
// implement this interface.
type ImageInspector interface {
	ImageSizeMB(ctx context.Context, image string) (float64, error)
}
