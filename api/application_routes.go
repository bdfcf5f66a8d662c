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

func registerApplicationRoutes(mux *http.ServeMux, controller controllers.ApplicationController) {
	// POST /applications - Register a new application
	mux.HandleFunc("POST /applications", controller.CreateApplication)

	// GET /applications - List the caller's applications
	mux.HandleFunc("GET /applications", controller.ListApplications)

	// GET /applications/{id} - Get a specific application
	mux.HandleFunc("GET /applications/{id}", controller.GetApplication)

	// DELETE /applications/{id} - Delete a stopped application
	mux.HandleFunc("DELETE /applications/{id}", controller.DeleteApplication)

	// POST /applications/{id}/deployments - Start a deployment
	mux.HandleFunc("POST /applications/{id}/deployments", controller.DeployApplication)

	// GET /applications/{id}/deployments - List the application's deployments
	mux.HandleFunc("GET /applications/{id}/deployments", controller.GetApplicationDeployments)

	// POST /applications/{id}/scale - Manually scale the application
	mux.HandleFunc("POST /applications/{id}/scale", controller.ScaleApplication)

	// POST /applications/{id}/scaling-evaluations - Run an AI scaling evaluation
	mux.HandleFunc("POST /applications/{id}/scaling-evaluations", controller.EvaluateScaling)

	// PUT /applications/{id}/resources - Replace resource requirements
	mux.HandleFunc("PUT /applications/{id}/resources", controller.UpdateResources)

	// POST /applications/{id}/stop - Stop the application
	mux.HandleFunc("POST /applications/{id}/stop", controller.StopApplication)

	// GET /applications/{id}/events - Get the application's event stream
	mux.HandleFunc("GET /applications/{id}/events", controller.GetApplicationEvents)
}
