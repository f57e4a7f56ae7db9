package model

import (
	"io/fs"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Workload is a Deployment together with the objects in its namespace that
// production-readiness checks look at. Docs is the service's documentation
// directory, when one is available.
type Workload struct {
	Namespace                string
	Name                     string
	Deployment               *appsv1.Deployment
	Services                 []corev1.Service
	PodDisruptionBudgets     []policyv1.PodDisruptionBudget
	HorizontalPodAutoscalers []autoscalingv2.HorizontalPodAutoscaler
	NetworkPolicies          []networkingv1.NetworkPolicy
	ServiceMonitors          []unstructured.Unstructured
	PrometheusRules          []unstructured.Unstructured
	Docs                     fs.FS
}

// PodLabels returns the labels of the Deployment's pod template
func (w *Workload) PodLabels() map[string]string {
	if w.Deployment == nil {
		return nil
	}
	return w.Deployment.Spec.Template.Labels
}

// PodSpec returns the Deployment's pod template spec
func (w *Workload) PodSpec() *corev1.PodSpec {
	if w.Deployment == nil {
		return nil
	}
	return &w.Deployment.Spec.Template.Spec
}

// Replicas returns the desired replica count. An unset field means 1.
func (w *Workload) Replicas() int32 {
	if w.Deployment == nil || w.Deployment.Spec.Replicas == nil {
		return 1
	}
	return *w.Deployment.Spec.Replicas
}
