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

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/middleware/jwtassertion"
	"github.com/wso2/app-deployment-platform/app-manager-service/middleware/logger"
	"github.com/wso2/app-deployment-platform/app-manager-service/models"
	"github.com/wso2/app-deployment-platform/app-manager-service/services"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// ApplicationController defines the interface for application HTTP handlers
type ApplicationController interface {
	CreateApplication(w http.ResponseWriter, r *http.Request)
	GetApplication(w http.ResponseWriter, r *http.Request)
	ListApplications(w http.ResponseWriter, r *http.Request)
	DeployApplication(w http.ResponseWriter, r *http.Request)
	ScaleApplication(w http.ResponseWriter, r *http.Request)
	EvaluateScaling(w http.ResponseWriter, r *http.Request)
	UpdateResources(w http.ResponseWriter, r *http.Request)
	StopApplication(w http.ResponseWriter, r *http.Request)
	DeleteApplication(w http.ResponseWriter, r *http.Request)
	GetApplicationEvents(w http.ResponseWriter, r *http.Request)
	GetApplicationDeployments(w http.ResponseWriter, r *http.Request)
}

type applicationController struct {
	applicationService services.ApplicationService
}

// NewApplicationController creates a new application controller
func NewApplicationController(applicationService services.ApplicationService) ApplicationController {
	return &applicationController{
		applicationService: applicationService,
	}
}

// handleApplicationErrors maps domain errors onto HTTP status codes. The
// error's own message is returned so the caller sees which invariant failed.
func handleApplicationErrors(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, utils.ErrApplicationNotFound):
		utils.WriteErrorResponse(w, http.StatusNotFound, "Application not found")
	case errors.Is(err, utils.ErrDeploymentNotFound):
		utils.WriteErrorResponse(w, http.StatusNotFound, "Deployment not found")
	case errors.Is(err, utils.ErrValidation), errors.Is(err, utils.ErrOutOfRange):
		utils.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, utils.ErrInvalidStateTransition):
		utils.WriteErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, utils.ErrConcurrencyConflict):
		utils.WriteErrorResponse(w, http.StatusConflict, "Application was modified concurrently, retry the operation")
	case errors.Is(err, utils.ErrDeploymentNotCancelable):
		utils.WriteErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, utils.ErrStrategyNotImplemented):
		utils.WriteErrorResponse(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, utils.ErrAdvisorUnavailable):
		utils.WriteErrorResponse(w, http.StatusBadGateway, "AI advisor unavailable")
	default:
		utils.WriteErrorResponse(w, http.StatusInternalServerError, fallbackMsg)
	}
}

// requireUserAndAppID extracts the authenticated user and the application id
// path parameter, writing the error response itself on failure.
func requireUserAndAppID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID := jwtassertion.GetUserID(r.Context())
	if userID == "" {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return "", uuid.Nil, false
	}
	raw := r.PathValue(utils.PathParamApplicationID)
	appID, err := uuid.Parse(raw)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid application id")
		return "", uuid.Nil, false
	}
	return userID, appID, true
}

func (c *applicationController) CreateApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID := jwtassertion.GetUserID(ctx)
	if userID == "" {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req models.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("CreateApplication: failed to decode request", "error", err)
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	app, err := c.applicationService.CreateApplication(ctx, userID, &req)
	if err != nil {
		log.Error("CreateApplication: failed to create application", "error", err)
		handleApplicationErrors(w, err, "Failed to create application")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, app)
}

func (c *applicationController) GetApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	app, err := c.applicationService.GetApplication(ctx, userID, appID)
	if err != nil {
		log.Error("GetApplication: failed to get application", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to get application")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, app)
}

func (c *applicationController) ListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID := jwtassertion.GetUserID(ctx)
	if userID == "" {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	apps, err := c.applicationService.GetUserApplications(ctx, userID)
	if err != nil {
		log.Error("ListApplications: failed to list applications", "error", err)
		handleApplicationErrors(w, err, "Failed to list applications")
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}

	utils.WriteJSONResponse(w, http.StatusOK, apps)
}

func (c *applicationController) DeployApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	var req models.DeployApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("DeployApplication: failed to decode request", "error", err)
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deployment, err := c.applicationService.DeployApplication(ctx, userID, appID, &req)
	if err != nil {
		log.Error("DeployApplication: failed to start deployment", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to start deployment")
		return
	}

	utils.WriteJSONResponse(w, http.StatusAccepted, deployment)
}

func (c *applicationController) ScaleApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	var req models.ScaleApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("ScaleApplication: failed to decode request", "error", err)
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	app, err := c.applicationService.ScaleApplication(ctx, userID, appID, &req)
	if err != nil {
		log.Error("ScaleApplication: failed to scale application", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to scale application")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, app)
}

func (c *applicationController) EvaluateScaling(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	result, err := c.applicationService.EvaluateScaling(ctx, userID, appID)
	if err != nil {
		log.Error("EvaluateScaling: failed to evaluate scaling", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to evaluate scaling")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, result)
}

func (c *applicationController) UpdateResources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	var req models.UpdateResourcesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("UpdateResources: failed to decode request", "error", err)
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	app, err := c.applicationService.UpdateResources(ctx, userID, appID, &req)
	if err != nil {
		log.Error("UpdateResources: failed to update resources", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to update resources")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, app)
}

func (c *applicationController) StopApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	app, err := c.applicationService.StopApplication(ctx, userID, appID)
	if err != nil {
		log.Error("StopApplication: failed to stop application", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to stop application")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, app)
}

func (c *applicationController) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	if err := c.applicationService.DeleteApplication(ctx, userID, appID); err != nil {
		log.Error("DeleteApplication: failed to delete application", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to delete application")
		return
	}

	utils.WriteJSONResponse(w, http.StatusNoContent, nil)
}

func (c *applicationController) GetApplicationEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	events, err := c.applicationService.GetApplicationEvents(ctx, userID, appID)
	if err != nil {
		log.Error("GetApplicationEvents: failed to get events", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to get application events")
		return
	}
	if events == nil {
		events = []models.ApplicationEvent{}
	}

	utils.WriteJSONResponse(w, http.StatusOK, events)
}

func (c *applicationController) GetApplicationDeployments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, appID, ok := requireUserAndAppID(w, r)
	if !ok {
		return
	}

	deployments, err := c.applicationService.GetDeployments(ctx, userID, appID)
	if err != nil {
		log.Error("GetApplicationDeployments: failed to get deployments", "applicationId", appID, "error", err)
		handleApplicationErrors(w, err, "Failed to get deployments")
		return
	}
	if deployments == nil {
		deployments = []*models.Deployment{}
	}

	utils.WriteJSONResponse(w, http.StatusOK, deployments)
}
