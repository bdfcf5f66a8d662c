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

package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
)

const (
	serviceLabel     = "app-platform.service"
	targetGroupLabel = "app-platform.target-group"
)

// Adapter implements the container-orchestration and load-balancer contracts
// on a local Docker daemon, for development environments. A service set is a
// group of labelled containers; the "load balancer" is an in-adapter table of
// active target groups, which is enough for single-node development.
type Adapter struct {
	cli    *client.Client
	logger *slog.Logger

	mu            sync.Mutex
	desiredCounts map[string]int
	activeTargets map[string]string
}

// NewAdapter creates a Docker adapter from the environment (DOCKER_HOST etc.)
func NewAdapter(logger *slog.Logger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{
		cli:           cli,
		logger:        logger,
		desiredCounts: make(map[string]int),
		activeTargets: make(map[string]string),
	}, nil
}

// CreateServiceSet pulls the image and starts desiredCount labelled containers
func (a *Adapter) CreateServiceSet(ctx context.Context, name, image string, desiredCount int, env map[string]string, binding orchestration.LoadBalancerBinding) (string, error) {
	reader, err := a.cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	// Drain the pull progress stream; the daemon finishes the pull only once
	// the stream is consumed.
	_, _ = io.Copy(io.Discard, reader)
	_ = reader.Close()

	envPairs := make([]string, 0, len(env))
	for k, v := range env {
		envPairs = append(envPairs, fmt.Sprintf("%s=%s", k, v))
	}

	for i := 0; i < desiredCount; i++ {
		created, err := a.cli.ContainerCreate(ctx, &container.Config{
			Image: image,
			Env:   envPairs,
			Labels: map[string]string{
				serviceLabel:     name,
				targetGroupLabel: binding.TargetGroup,
			},
		}, nil, nil, nil, fmt.Sprintf("%s-%d", name, i))
		if err != nil {
			return "", fmt.Errorf("failed to create container %d for %s: %w", i, name, err)
		}
		if err := a.cli.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
			return "", fmt.Errorf("failed to start container %s: %w", created.ID, err)
		}
	}

	a.mu.Lock()
	a.desiredCounts[name] = desiredCount
	a.mu.Unlock()

	a.logger.Info("created service set", "name", name, "image", image, "desiredCount", desiredCount, "targetGroup", binding.TargetGroup)
	return name, nil
}

// DescribeService reports running/desired counts for a labelled container group
func (a *Adapter) DescribeService(ctx context.Context, name string) (orchestration.ServiceCounts, error) {
	containers, err := a.listByLabel(ctx, serviceLabel, name)
	if err != nil {
		return orchestration.ServiceCounts{}, err
	}

	running := 0
	for _, c := range containers {
		if c.State == "running" {
			running++
		}
	}

	a.mu.Lock()
	desired := a.desiredCounts[name]
	a.mu.Unlock()

	return orchestration.ServiceCounts{RunningCount: running, DesiredCount: desired}, nil
}

// DeleteServiceSet stops and removes all containers in the set
func (a *Adapter) DeleteServiceSet(ctx context.Context, name string) error {
	containers, err := a.listByLabel(ctx, serviceLabel, name)
	if err != nil {
		return err
	}
	for _, c := range containers {
		if err := a.cli.ContainerStop(ctx, c.ID, container.StopOptions{}); err != nil {
			a.logger.Warn("failed to stop container", "id", c.ID, "error", err)
		}
		if err := a.cli.ContainerRemove(ctx, c.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", c.ID, err)
		}
	}

	a.mu.Lock()
	delete(a.desiredCounts, name)
	a.mu.Unlock()

	a.logger.Info("deleted service set", "name", name)
	return nil
}

// SwitchTarget flips the active target group for the service
func (a *Adapter) SwitchTarget(_ context.Context, fromGroup, toGroup string) error {
	base := orchestration.BaseServiceName(toGroup)
	a.mu.Lock()
	a.activeTargets[base] = toGroup
	a.mu.Unlock()
	a.logger.Info("switched traffic", "service", base, "from", fromGroup, "to", toGroup)
	return nil
}

// CheckTargetHealth reports whether every container in a target group is
// running. An empty group is unhealthy.
func (a *Adapter) CheckTargetHealth(ctx context.Context, group string) (bool, error) {
	containers, err := a.listByLabel(ctx, targetGroupLabel, group)
	if err != nil {
		return false, err
	}
	if len(containers) == 0 {
		return false, nil
	}
	for _, c := range containers {
		if c.State != "running" {
			return false, nil
		}
	}
	return true, nil
}

// ImageSizeMB resolves the image size from the local daemon. The image has
// been pulled by CreateServiceSet by the time risk features are rebuilt, but
// a not-yet-pulled image is still a normal miss, not a failure.
func (a *Adapter) ImageSizeMB(ctx context.Context, image string) (float64, error) {
	inspect, _, err := a.cli.ImageInspectWithRaw(ctx, image)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect image %s: %w", image, err)
	}
	return float64(inspect.Size) / (1024 * 1024), nil
}

func (a *Adapter) listByLabel(ctx context.Context, label, value string) ([]types.Container, error) {
	containers, err := a.cli.ContainerList(ctx, types.ContainerListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", fmt.Sprintf("%s=%s", label, value))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers for %s=%s: %w", label, value, err)
	}
	return containers, nil
}
