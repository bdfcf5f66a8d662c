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

package kubernetes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/wso2/app-deployment-platform/app-manager-service/orchestration"
)

const (
	serviceLabel     = "app-platform/service"
	targetGroupLabel = "app-platform/target-group"

	containerName = "app"
	containerPort = 8080
	servicePort   = 80
)

// Adapter implements the container-orchestration and load-balancer contracts
// on Kubernetes. A service set is an apps/v1 Deployment whose pods carry a
// target-group label; the "load balancer" is a core/v1 Service whose selector
// is repointed between target groups for the atomic traffic switch.
type Adapter struct {
	clientset kubernetes.Interface
	namespace string
	logger    *slog.Logger
}

// NewAdapter creates a Kubernetes adapter. An empty kubeconfig path selects
// in-cluster configuration.
func NewAdapter(kubeconfigPath, namespace string, logger *slog.Logger) (*Adapter, error) {
	var cfg *rest.Config
	var err error
	if kubeconfigPath == "" {
		cfg, err = rest.InClusterConfig()
	} else {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return &Adapter{clientset: clientset, namespace: namespace, logger: logger}, nil
}

// NewAdapterWithClientset creates an adapter around an existing clientset.
// Used by tests with a fake clientset.
func NewAdapterWithClientset(clientset kubernetes.Interface, namespace string, logger *slog.Logger) *Adapter {
	return &Adapter{clientset: clientset, namespace: namespace, logger: logger}
}

// CreateServiceSet provisions a Deployment for the service set
func (a *Adapter) CreateServiceSet(ctx context.Context, name, image string, desiredCount int, env map[string]string, binding orchestration.LoadBalancerBinding) (string, error) {
	replicas := int32(desiredCount)
	labels := map[string]string{
		serviceLabel:     name,
		targetGroupLabel: binding.TargetGroup,
	}

	deployment := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: a.namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  containerName,
							Image: image,
							Env:   envVars(env),
							Ports: []corev1.ContainerPort{{ContainerPort: containerPort}},
						},
					},
				},
			},
		},
	}

	created, err := a.clientset.AppsV1().Deployments(a.namespace).Create(ctx, deployment, metav1.CreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create service set %s: %w", name, err)
	}
	a.logger.Info("created service set", "name", name, "image", image, "desiredCount", desiredCount, "targetGroup", binding.TargetGroup)
	return string(created.UID), nil
}

// DescribeService reports running/desired instance counts for a service set
func (a *Adapter) DescribeService(ctx context.Context, name string) (orchestration.ServiceCounts, error) {
	deployment, err := a.clientset.AppsV1().Deployments(a.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return orchestration.ServiceCounts{}, fmt.Errorf("failed to describe service set %s: %w", name, err)
	}
	desired := 0
	if deployment.Spec.Replicas != nil {
		desired = int(*deployment.Spec.Replicas)
	}
	return orchestration.ServiceCounts{
		RunningCount: int(deployment.Status.ReadyReplicas),
		DesiredCount: desired,
	}, nil
}

// DeleteServiceSet removes a service set's Deployment
func (a *Adapter) DeleteServiceSet(ctx context.Context, name string) error {
	err := a.clientset.AppsV1().Deployments(a.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete service set %s: %w", name, err)
	}
	a.logger.Info("deleted service set", "name", name)
	return nil
}

// SwitchTarget repoints the application's Service selector to the new target
// group. A Service update is a single API call, so the switch is atomic from
// the traffic's point of view. The Service is created on first switch.
func (a *Adapter) SwitchTarget(ctx context.Context, fromGroup, toGroup string) error {
	baseName := orchestration.BaseServiceName(toGroup)
	services := a.clientset.CoreV1().Services(a.namespace)

	svc, err := services.Get(ctx, baseName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = services.Create(ctx, a.ingressService(baseName, toGroup), metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("failed to create ingress service %s: %w", baseName, err)
		}
		a.logger.Info("created ingress service", "service", baseName, "targetGroup", toGroup)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ingress service %s: %w", baseName, err)
	}

	svc.Spec.Selector = map[string]string{targetGroupLabel: toGroup}
	if _, err := services.Update(ctx, svc, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to switch traffic from %s to %s: %w", fromGroup, toGroup, err)
	}
	a.logger.Info("switched traffic", "service", baseName, "from", fromGroup, "to", toGroup)
	return nil
}

// CheckTargetHealth reports whether every pod in a target group is ready.
// An empty group is unhealthy.
func (a *Adapter) CheckTargetHealth(ctx context.Context, group string) (bool, error) {
	pods, err := a.clientset.CoreV1().Pods(a.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", targetGroupLabel, group),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list pods for target group %s: %w", group, err)
	}
	if len(pods.Items) == 0 {
		return false, nil
	}
	for _, pod := range pods.Items {
		if !podReady(&pod) {
			return false, nil
		}
	}
	return true, nil
}

func (a *Adapter) ingressService(name, targetGroup string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: a.namespace,
			Labels:    map[string]string{serviceLabel: name},
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{targetGroupLabel: targetGroup},
			Ports: []corev1.ServicePort{
				{Port: servicePort, TargetPort: intstr.FromInt32(containerPort)},
			},
		},
	}
}

func podReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

func envVars(env map[string]string) []corev1.EnvVar {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vars := make([]corev1.EnvVar, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, corev1.EnvVar{Name: k, Value: env[k]})
	}
	return vars
}
