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

package api

import (
	"net/http"

	"github.com/wso2/app-deployment-platform/app-manager-service/controllers"
)

func registerDeploymentRoutes(mux *http.ServeMux, controller controllers.DeploymentController) {
	// GET /deployments/{deploymentId} - Get a deployment record
	mux.HandleFunc("GET /deployments/{deploymentId}", controller.GetDeployment)

	// POST /deployments/{deploymentId}/cancel - Cancel an in-progress deployment
	mux.HandleFunc("POST /deployments/{deploymentId}/cancel", controller.CancelDeployment)
}
