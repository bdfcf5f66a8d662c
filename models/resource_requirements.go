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
	"math"

	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// ResourceRequirements describes the compute shape of a single application
// instance. Values are immutable; Scale returns a new instance.
type ResourceRequirements struct {
	CPUCores             float64 `json:"cpuCores"`
	MemoryMB             int     `json:"memoryMb"`
	StorageGB            int     `json:"storageGb"`
	NetworkBandwidthMbps *int    `json:"networkBandwidthMbps,omitempty"`
	GPUCount             *int    `json:"gpuCount,omitempty"`
}

// NewResourceRequirements validates and constructs a ResourceRequirements value.
// All present numeric fields must be strictly positive.
func NewResourceRequirements(cpuCores float64, memoryMB, storageGB int, networkBandwidthMbps, gpuCount *int) (ResourceRequirements, error) {
	r := ResourceRequirements{
		CPUCores:             cpuCores,
		MemoryMB:             memoryMB,
		StorageGB:            storageGB,
		NetworkBandwidthMbps: networkBandwidthMbps,
		GPUCount:             gpuCount,
	}
	if err := r.Validate(); err != nil {
		return ResourceRequirements{}, err
	}
	return r, nil
}

// Validate checks the strict-positivity invariant on all present fields
func (r ResourceRequirements) Validate() error {
	if r.CPUCores <= 0 {
		return fmt.Errorf("%w: cpuCores must be positive, got %v", utils.ErrValidation, r.CPUCores)
	}
	if r.MemoryMB <= 0 {
		return fmt.Errorf("%w: memoryMb must be positive, got %d", utils.ErrValidation, r.MemoryMB)
	}
	if r.StorageGB <= 0 {
		return fmt.Errorf("%w: storageGb must be positive, got %d", utils.ErrValidation, r.StorageGB)
	}
	if r.NetworkBandwidthMbps != nil && *r.NetworkBandwidthMbps <= 0 {
		return fmt.Errorf("%w: networkBandwidthMbps must be positive, got %d", utils.ErrValidation, *r.NetworkBandwidthMbps)
	}
	if r.GPUCount != nil && *r.GPUCount <= 0 {
		return fmt.Errorf("%w: gpuCount must be positive, got %d", utils.ErrValidation, *r.GPUCount)
	}
	return nil
}

// Scale returns a new ResourceRequirements with every numeric field multiplied
// by factor. Integer fields are rounded up so the positivity invariant holds
// for any factor > 0.
func (r ResourceRequirements) Scale(factor float64) (ResourceRequirements, error) {
	if factor <= 0 {
		return ResourceRequirements{}, fmt.Errorf("%w: scale factor must be positive, got %v", utils.ErrValidation, factor)
	}
	scaled := ResourceRequirements{
		CPUCores:  r.CPUCores * factor,
		MemoryMB:  scaleInt(r.MemoryMB, factor),
		StorageGB: scaleInt(r.StorageGB, factor),
	}
	if r.NetworkBandwidthMbps != nil {
		v := scaleInt(*r.NetworkBandwidthMbps, factor)
		scaled.NetworkBandwidthMbps = &v
	}
	if r.GPUCount != nil {
		v := scaleInt(*r.GPUCount, factor)
		scaled.GPUCount = &v
	}
	if err := scaled.Validate(); err != nil {
		return ResourceRequirements{}, err
	}
	return scaled, nil
}

func scaleInt(v int, factor float64) int {
	return int(math.Ceil(float64(v) * factor))
}
