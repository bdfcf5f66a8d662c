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
	"net/http"

	"github.com/google/uuid"

	"github.com/wso2/app-deployment-platform/app-manager-service/middleware/jwtassertion"
	"github.com/wso2/app-deployment-platform/app-manager-service/middleware/logger"
	"github.com/wso2/app-deployment-platform/app-manager-service/services"
	"github.com/wso2/app-deployment-platform/app-manager-service/utils"
)

// DeploymentController defines the interface for deployment HTTP handlers
type DeploymentController interface {
	GetDeployment(w http.ResponseWriter, r *http.Request)
	CancelDeployment(w http.ResponseWriter, r *http.Request)
}

type deploymentController struct {
	applicationService services.ApplicationService
}

// NewDeploymentController creates a new deployment controller
func NewDeploymentController(applicationService services.ApplicationService) DeploymentController {
	return &deploymentController{
		applicationService: applicationService,
	}
}

func requireUserAndDeploymentID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID := jwtassertion.GetUserID(r.Context())
	if userID == "" {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "unauthenticated")
		return "", uuid.Nil, false
	}
	raw := r.PathValue(utils.PathParamDeploymentID)
	deploymentID, err := uuid.Parse(raw)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid deployment id")
		return "", uuid.Nil, false
	}
	return userID, deploymentID, true
}

func (c *deploymentController) GetDeployment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, deploymentID, ok := requireUserAndDeploymentID(w, r)
	if !ok {
		return
	}

	deployment, err := c.applicationService.GetDeployment(ctx, userID, deploymentID)
	if err != nil {
		log.Error("GetDeployment: failed to get deployment", "deploymentId", deploymentID, "error", err)
		handleApplicationErrors(w, err, "Failed to get deployment")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, deployment)
}

func (c *deploymentController) CancelDeployment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	userID, deploymentID, ok := requireUserAndDeploymentID(w, r)
	if !ok {
		return
	}

	if err := c.applicationService.CancelDeployment(ctx, userID, deploymentID); err != nil {
		log.Error("CancelDeployment: failed to cancel deployment", "deploymentId", deploymentID, "error", err)
		handleApplicationErrors(w, err, "Failed to cancel deployment")
		return
	}

	utils.WriteJSONResponse(w, http.StatusAccepted, map[string]string{"status": "canceling"})
}
