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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

func validResources() ResourceRequirements {
	return ResourceRequirements{
		CPUCores:  1.5,
		MemoryMB:  512,
		StorageGB: 10,
	}
}

func validScalingConfig() ScalingConfiguration {
	return ScalingConfiguration{
		Strategy:             ScalingStrategyManual,
		MinInstances:         2,
		MaxInstances:         10,
		TargetCPUUtilization: 70,
	}
}

func newRunningApplication(t *testing.T) *Application {
	t.Helper()
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)
	require.NoError(t, app.Deploy())
	require.NoError(t, app.MarkAsRunning())
	app.ClearUncommittedEvents()
	return app
}

func TestNewApplication_StartsPendingWithCreatedEvent(t *testing.T) {
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)

	assert.Equal(t, ApplicationStatusPending, app.Status)
	assert.Equal(t, 2, app.CurrentInstanceCount, "instance count starts at MinInstances")
	assert.Equal(t, 1, app.Version)

	events := app.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventApplicationCreated, events[0].EventType)
	assert.Equal(t, 1, events[0].Version)
	assert.Equal(t, app.ID, events[0].AggregateID)
}

func TestNewApplication_RejectsInvalidInput(t *testing.T) {
	_, err := NewApplication("", "user-1", validResources(), validScalingConfig())
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = NewApplication("checkout", "", validResources(), validScalingConfig())
	assert.ErrorIs(t, err, utils.ErrValidation)

	badResources := validResources()
	badResources.CPUCores = 0
	_, err = NewApplication("checkout", "user-1", badResources, validScalingConfig())
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestDeploy_LegalFromPendingFailedStopped(t *testing.T) {
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)

	require.NoError(t, app.Deploy())
	assert.Equal(t, ApplicationStatusDeploying, app.Status)

	require.NoError(t, app.MarkAsFailed("green environment creation failed"))
	assert.Equal(t, ApplicationStatusFailed, app.Status)
	require.NoError(t, app.Deploy(), "FAILED is recoverable")

	require.NoError(t, app.MarkAsRunning())
	require.NoError(t, app.Stop())
	require.NoError(t, app.MarkAsStopped())
	require.NoError(t, app.Deploy(), "STOPPED application can be redeployed")
}

func TestDeploy_IllegalFromRunning(t *testing.T) {
	app := newRunningApplication(t)

	err := app.Deploy()
	assert.ErrorIs(t, err, utils.ErrInvalidStateTransition)
	assert.Equal(t, ApplicationStatusRunning, app.Status, "failed transition must not mutate state")
	assert.Empty(t, app.UncommittedEvents())
}

func TestMarkAsRunning_OnlyFromDeploying(t *testing.T) {
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, app.MarkAsRunning(), utils.ErrInvalidStateTransition)

	require.NoError(t, app.Deploy())
	require.NoError(t, app.MarkAsRunning())
	assert.Equal(t, ApplicationStatusRunning, app.Status)
}

func TestScale_EmitsSingleEventAndBumpsVersion(t *testing.T) {
	app := newRunningApplication(t)
	versionBefore := app.Version

	require.NoError(t, app.Scale(5, "load increase", nil))

	assert.Equal(t, ApplicationStatusScaling, app.Status)
	assert.Equal(t, 5, app.CurrentInstanceCount)
	assert.Equal(t, versionBefore+1, app.Version)

	events := app.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventApplicationScaled, events[0].EventType)
	assert.Equal(t, 2, events[0].Payload["previousInstanceCount"])
	assert.Equal(t, 5, events[0].Payload["newInstanceCount"])
	assert.Equal(t, "load increase", events[0].Payload["reason"])
}

func TestScale_NoOpWhenTargetEqualsCurrent(t *testing.T) {
	app := newRunningApplication(t)
	versionBefore := app.Version

	require.NoError(t, app.Scale(app.CurrentInstanceCount, "no change", nil))

	assert.Equal(t, ApplicationStatusRunning, app.Status, "no-op scale must not enter SCALING")
	assert.Equal(t, versionBefore, app.Version)
	assert.Empty(t, app.UncommittedEvents())
}

func TestScale_RejectsOutOfBoundsWithoutMutating(t *testing.T) {
	app := newRunningApplication(t)
	versionBefore := app.Version

	assert.ErrorIs(t, app.Scale(1, "below min", nil), utils.ErrOutOfRange)
	assert.ErrorIs(t, app.Scale(11, "above max", nil), utils.ErrOutOfRange)

	assert.Equal(t, 2, app.CurrentInstanceCount)
	assert.Equal(t, versionBefore, app.Version)
	assert.Empty(t, app.UncommittedEvents())
}

func TestScale_RecordsAIConfidenceWhenPresent(t *testing.T) {
	app := newRunningApplication(t)
	confidence := 0.87

	require.NoError(t, app.Scale(4, "cpu above target", &confidence))

	events := app.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, 0.87, events[0].Payload["aiConfidence"])
}

func TestCompleteScaling_ReturnsToRunningWithoutEvent(t *testing.T) {
	app := newRunningApplication(t)
	require.NoError(t, app.Scale(5, "load increase", nil))
	versionAfterScale := app.Version
	eventsAfterScale := len(app.UncommittedEvents())

	require.NoError(t, app.CompleteScaling())

	assert.Equal(t, ApplicationStatusRunning, app.Status)
	assert.Equal(t, versionAfterScale, app.Version)
	assert.Len(t, app.UncommittedEvents(), eventsAfterScale)
}

func TestUpdateResourceRequirements_IllegalFromPending(t *testing.T) {
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)

	err = app.UpdateResourceRequirements(validResources())
	assert.ErrorIs(t, err, utils.ErrInvalidStateTransition)
}

func TestUpdateResourceRequirements_EmitsUpdatedEvent(t *testing.T) {
	app := newRunningApplication(t)
	newResources := validResources()
	newResources.MemoryMB = 1024

	require.NoError(t, app.UpdateResourceRequirements(newResources))

	assert.Equal(t, 1024, app.Resources.MemoryMB)
	events := app.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventApplicationUpdated, events[0].EventType)
	assert.Equal(t, "resources", events[0].Payload["change"])
}

func TestStopAndMarkAsStopped(t *testing.T) {
	app := newRunningApplication(t)

	require.NoError(t, app.Stop())
	assert.Equal(t, ApplicationStatusStopping, app.Status)
	require.Len(t, app.UncommittedEvents(), 1)

	require.NoError(t, app.MarkAsStopped())
	assert.Equal(t, ApplicationStatusStopped, app.Status)
	assert.Equal(t, 0, app.CurrentInstanceCount)
	assert.Len(t, app.UncommittedEvents(), 1, "MarkAsStopped records no event of its own")
}

func TestStop_IllegalUnlessRunning(t *testing.T) {
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, app.Stop(), utils.ErrInvalidStateTransition)
}

func TestMarkAsFailed_RecordsErrorEventWithDetails(t *testing.T) {
	app := newRunningApplication(t)
	versionBefore := app.Version

	require.NoError(t, app.MarkAsFailed("health check timeout after 300s"))

	assert.Equal(t, ApplicationStatusFailed, app.Status)
	assert.Equal(t, versionBefore+1, app.Version)
	events := app.UncommittedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventErrorOccurred, events[0].EventType)
	assert.Equal(t, "health check timeout after 300s", events[0].Metadata["details"])
}

func TestMarkAsFailed_IllegalFromTerminalStates(t *testing.T) {
	app := newRunningApplication(t)
	require.NoError(t, app.Stop())
	require.NoError(t, app.MarkAsStopped())

	assert.ErrorIs(t, app.MarkAsFailed("late failure"), utils.ErrInvalidStateTransition)

	app2 := newRunningApplication(t)
	require.NoError(t, app2.MarkAsFailed("first failure"))
	assert.ErrorIs(t, app2.MarkAsFailed("second failure"), utils.ErrInvalidStateTransition)
}

func TestDeletable_OnlyWhenStopped(t *testing.T) {
	app := newRunningApplication(t)
	assert.False(t, app.Deletable())

	require.NoError(t, app.Stop())
	require.NoError(t, app.MarkAsStopped())
	assert.True(t, app.Deletable())
}

func TestEventVersions_AreConsecutiveAcrossLifecycle(t *testing.T) {
	app, err := NewApplication("checkout", "user-1", validResources(), validScalingConfig())
	require.NoError(t, err)
	require.NoError(t, app.Deploy())
	require.NoError(t, app.MarkAsRunning())
	require.NoError(t, app.Scale(5, "growth", nil))
	require.NoError(t, app.CompleteScaling())
	require.NoError(t, app.Stop())
	require.NoError(t, app.MarkAsStopped())

	events := app.UncommittedEvents()
	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, i+1, event.Version)
	}
	assert.Equal(t, 5, app.Version)
}
