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

import "strings"

// targetGroupSeparator joins a base service name and a color into a target
// group name. Double dash keeps single-dash service names unambiguous.
const targetGroupSeparator = "--"

// TargetGroupName builds the target group name for a base service and color
// (e.g. "app-3f2a", "green" -> "app-3f2a--green").
func TargetGroupName(baseService, color string) string {
	return baseService + targetGroupSeparator + color
}

// BaseServiceName extracts the base service name from a target group name.
// Returns the input unchanged when no separator is present.
func BaseServiceName(targetGroup string) string {
	if i := strings.LastIndex(targetGroup, targetGroupSeparator); i >= 0 {
		return targetGroup[:i]
	}
	return targetGroup
}
