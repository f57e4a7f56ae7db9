package usecase

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Verdict is the outcome of a single predicate
type Verdict struct {
	Passed  bool
	Message string
	Details string
}

func pass(format string, args ...any) Verdict {
	return Verdict{Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(details, format string, args ...any) Verdict {
	return Verdict{Message: fmt.Sprintf(format, args...), Details: details}
}

// Predicate evaluates one requirement against a workload. An error means the
// requirement could not be evaluated, for example because of a bad parameter.
type Predicate func(w *model.Workload, req *model.Requirement) (Verdict, error)

// CheckRegistry maps check names used in the requirement table to predicates
type CheckRegistry map[string]Predicate

// Names returns the registered check names in sorted order
func (r CheckRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultChecks returns the built-in predicates
func DefaultChecks() CheckRegistry {
	return CheckRegistry{
		"min-replicas":              checkMinReplicas,
		"resource-requests":         checkResourceRequests,
		"resource-limits":           checkResourceLimits,
		"liveness-probe":            checkLivenessProbe,
		"readiness-probe":           checkReadinessProbe,
		"pod-disruption-budget":     checkPodDisruptionBudget,
		"horizontal-autoscaler":     checkHorizontalAutoscaler,
		"pod-anti-affinity":         checkPodAntiAffinity,
		"image-tag-pinned":          checkImageTagPinned,
		"run-as-non-root":           checkRunAsNonRoot,
		"rolling-update":            checkRollingUpdate,
		"required-labels":           checkRequiredLabels,
		"network-policy":            checkNetworkPolicy,
		"metrics-scraping":          checkMetricsScraping,
		"graceful-shutdown":         checkGracefulShutdown,
		"service-exposed":           checkServiceExposed,
		"metrics-port":              checkMetricsPort,
		"read-only-root-filesystem": checkReadOnlyRootFilesystem,
		"no-plaintext-secrets":      checkNoPlaintextSecrets,
		"prometheus-rule":           checkPrometheusRule,
		"doc-file":                  checkDocFile,
	}
}

var noContainers = fail("Add at least one container to the pod template", "pod template has no containers")

// eachContainer fails with the offending container names when bad reports
// a problem for any of them.
func eachContainer(w *model.Workload, details, okMsg string, bad func(c *corev1.Container) string) Verdict {
	spec := w.PodSpec()
	if spec == nil || len(spec.Containers) == 0 {
		return noContainers
	}
	var problems []string
	for i := range spec.Containers {
		c := &spec.Containers[i]
		if p := bad(c); p != "" {
			problems = append(problems, c.Name+": "+p)
		}
	}
	if len(problems) > 0 {
		return fail(details, "%s", strings.Join(problems, "; "))
	}
	return pass("%s", okMsg)
}

func checkMinReplicas(w *model.Workload, req *model.Requirement) (Verdict, error) {
	minReplicas, err := req.IntParam("min", 2)
	if err != nil {
		return Verdict{}, err
	}
	replicas := w.Replicas()
	if int(replicas) < minReplicas {
		return fail(fmt.Sprintf("Set spec.replicas to at least %d", minReplicas),
			"%d replica(s), minimum is %d", replicas, minReplicas), nil
	}
	return pass("%d replicas (minimum %d)", replicas, minReplicas), nil
}

func checkResourceRequests(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	return eachContainer(w, "Set resources.requests.cpu and resources.requests.memory", "all containers request cpu and memory",
		func(c *corev1.Container) string {
			var missing []string
			for _, name := range []corev1.ResourceName{corev1.ResourceCPU, corev1.ResourceMemory} {
				if _, ok := c.Resources.Requests[name]; !ok {
					missing = append(missing, string(name))
				}
			}
			if len(missing) == 0 {
				return ""
			}
			return "no request for " + strings.Join(missing, ", ")
		}), nil
}

func checkResourceLimits(w *model.Workload, req *model.Requirement) (Verdict, error) {
	resources, err := req.StringsParam("resources", []string{"memory"})
	if err != nil {
		return Verdict{}, err
	}
	return eachContainer(w, "Set resources.limits for "+strings.Join(resources, ", "), "all containers set limits for "+strings.Join(resources, ", "),
		func(c *corev1.Container) string {
			var missing []string
			for _, name := range resources {
				if _, ok := c.Resources.Limits[corev1.ResourceName(name)]; !ok {
					missing = append(missing, name)
				}
			}
			if len(missing) == 0 {
				return ""
			}
			return "no limit for " + strings.Join(missing, ", ")
		}), nil
}

func checkLivenessProbe(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	return eachContainer(w, "Add a livenessProbe to every container", "all containers define a liveness probe",
		func(c *corev1.Container) string {
			if c.LivenessProbe == nil {
				return "no liveness probe"
			}
			return ""
		}), nil
}

func checkReadinessProbe(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	return eachContainer(w, "Add a readinessProbe to every container", "all containers define a readiness probe",
		func(c *corev1.Container) string {
			if c.ReadinessProbe == nil {
				return "no readiness probe"
			}
			return ""
		}), nil
}

func selects(selector *metav1.LabelSelector, podLabels map[string]string) (bool, error) {
	if selector == nil {
		return false, nil
	}
	sel, err := metav1.LabelSelectorAsSelector(selector)
	if err != nil {
		return false, err
	}
	return sel.Matches(labels.Set(podLabels)), nil
}

func checkPodDisruptionBudget(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	for _, pdb := range w.PodDisruptionBudgets {
		ok, err := selects(pdb.Spec.Selector, w.PodLabels())
		if err != nil {
			return Verdict{}, err
		}
		if ok {
			return pass("covered by PodDisruptionBudget %s", pdb.Name), nil
		}
	}
	return fail("Create a PodDisruptionBudget whose selector matches the pod labels",
		"no PodDisruptionBudget selects the pods"), nil
}

func checkHorizontalAutoscaler(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	for _, hpa := range w.HorizontalPodAutoscalers {
		ref := hpa.Spec.ScaleTargetRef
		if ref.Kind == "Deployment" && ref.Name == w.Name {
			return pass("scaled by HorizontalPodAutoscaler %s (%d-%d replicas)", hpa.Name, minReplicasOf(hpa.Spec.MinReplicas), hpa.Spec.MaxReplicas), nil
		}
	}
	return fail("Create a HorizontalPodAutoscaler targeting the Deployment",
		"no HorizontalPodAutoscaler targets deployment %s", w.Name), nil
}

func minReplicasOf(n *int32) int32 {
	if n == nil {
		return 1
	}
	return *n
}

func checkPodAntiAffinity(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	spec := w.PodSpec()
	if spec == nil {
		return noContainers, nil
	}
	if a := spec.Affinity; a != nil && a.PodAntiAffinity != nil {
		anti := a.PodAntiAffinity
		if len(anti.RequiredDuringSchedulingIgnoredDuringExecution)+len(anti.PreferredDuringSchedulingIgnoredDuringExecution) > 0 {
			return pass("pod anti-affinity configured"), nil
		}
	}
	if len(spec.TopologySpreadConstraints) > 0 {
		return pass("%d topology spread constraint(s) configured", len(spec.TopologySpreadConstraints)), nil
	}
	return fail("Add podAntiAffinity or topologySpreadConstraints so replicas land on different nodes",
		"no anti-affinity or topology spread constraints"), nil
}

// imageTag returns the tag of an image reference and whether it is pinned by digest
func imageTag(image string) (string, bool) {
	if strings.Contains(image, "@") {
		return "", true
	}
	name := image[strings.LastIndex(image, "/")+1:]
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:], false
	}
	return "", false
}

func checkImageTagPinned(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	spec := w.PodSpec()
	if spec == nil || len(spec.Containers) == 0 {
		return noContainers, nil
	}
	var problems []string
	for _, c := range slices.Concat(spec.InitContainers, spec.Containers) {
		tag, digest := imageTag(c.Image)
		switch {
		case digest:
		case tag == "":
			problems = append(problems, fmt.Sprintf("%s: image %s has no tag", c.Name, c.Image))
		case tag == "latest":
			problems = append(problems, fmt.Sprintf("%s: image %s uses latest", c.Name, c.Image))
		}
	}
	if len(problems) > 0 {
		return fail("Pin images to a version tag or digest", "%s", strings.Join(problems, "; ")), nil
	}
	return pass("all images are pinned"), nil
}

func checkRunAsNonRoot(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	spec := w.PodSpec()
	if spec == nil || len(spec.Containers) == 0 {
		return noContainers, nil
	}
	podLevel := spec.SecurityContext != nil && spec.SecurityContext.RunAsNonRoot != nil && *spec.SecurityContext.RunAsNonRoot

	var problems []string
	for _, c := range spec.Containers {
		var setting *bool
		if c.SecurityContext != nil {
			setting = c.SecurityContext.RunAsNonRoot
		}
		switch {
		case setting != nil && !*setting:
			problems = append(problems, c.Name+": runAsNonRoot is false")
		case setting == nil && !podLevel:
			problems = append(problems, c.Name+": runAsNonRoot not set")
		}
	}
	if len(problems) > 0 {
		return fail("Set securityContext.runAsNonRoot: true on the pod or every container", "%s", strings.Join(problems, "; ")), nil
	}
	return pass("containers run as non-root"), nil
}

func checkRollingUpdate(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	strategy := w.Deployment.Spec.Strategy
	if strategy.Type == appsv1.RecreateDeploymentStrategyType {
		return fail("Use the RollingUpdate strategy", "deployment uses the Recreate strategy"), nil
	}

	replicas := int(w.Replicas())
	if ru := strategy.RollingUpdate; ru != nil && ru.MaxUnavailable != nil {
		unavailable, err := intstr.GetScaledValueFromIntOrPercent(ru.MaxUnavailable, replicas, false)
		if err != nil {
			return Verdict{}, err
		}
		if replicas > 0 && unavailable >= replicas {
			return fail("Lower rollingUpdate.maxUnavailable below the replica count",
				"maxUnavailable %s allows all %d replicas to be down", ru.MaxUnavailable.String(), replicas), nil
		}
	}
	return pass("rolling update strategy"), nil
}

func checkRequiredLabels(w *model.Workload, req *model.Requirement) (Verdict, error) {
	required, err := req.StringsParam("labels", []string{"app", "team"})
	if err != nil {
		return Verdict{}, err
	}
	podLabels := w.PodLabels()
	var missing []string
	for _, key := range required {
		if _, ok := podLabels[key]; ok {
			continue
		}
		if _, ok := w.Deployment.Labels[key]; ok {
			continue
		}
		missing = append(missing, key)
	}
	if len(missing) > 0 {
		return fail("Add the labels to the Deployment or its pod template",
			"missing label(s): %s", strings.Join(missing, ", ")), nil
	}
	return pass("labels present: %s", strings.Join(required, ", ")), nil
}

func checkNetworkPolicy(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	for _, np := range w.NetworkPolicies {
		sel, err := metav1.LabelSelectorAsSelector(&np.Spec.PodSelector)
		if err != nil {
			return Verdict{}, err
		}
		if sel.Matches(labels.Set(w.PodLabels())) {
			return pass("covered by NetworkPolicy %s", np.Name), nil
		}
	}
	return fail(fmt.Sprintf("Create a NetworkPolicy for %s", w.Name), "no NetworkPolicy selects the pods"), nil
}

// exposingServices returns the Services whose selector matches the pods
func exposingServices(w *model.Workload) []corev1.Service {
	var out []corev1.Service
	for _, svc := range w.Services {
		if len(svc.Spec.Selector) == 0 {
			continue
		}
		if labels.SelectorFromSet(svc.Spec.Selector).Matches(labels.Set(w.PodLabels())) {
			out = append(out, svc)
		}
	}
	return out
}

func serviceMonitorSelector(sm *unstructured.Unstructured) (*metav1.LabelSelector, error) {
	raw, found, err := unstructured.NestedMap(sm.Object, "spec", "selector")
	if err != nil || !found {
		return nil, err
	}
	var selector metav1.LabelSelector
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(raw, &selector); err != nil {
		return nil, err
	}
	return &selector, nil
}

func checkMetricsScraping(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	if w.Deployment.Spec.Template.Annotations["prometheus.io/scrape"] == "true" {
		return pass("pod template has prometheus.io/scrape annotation"), nil
	}

	services := exposingServices(w)
	for i := range w.ServiceMonitors {
		sm := &w.ServiceMonitors[i]
		selector, err := serviceMonitorSelector(sm)
		if err != nil {
			return Verdict{}, err
		}
		for _, svc := range services {
			ok, err := selects(selector, svc.Labels)
			if err != nil {
				return Verdict{}, err
			}
			if ok {
				return pass("scraped by ServiceMonitor %s via Service %s", sm.GetName(), svc.Name), nil
			}
		}
	}
	return fail(fmt.Sprintf("Create a ServiceMonitor for %s", w.Name), "no ServiceMonitor selects a Service of the pods"), nil
}

func checkGracefulShutdown(w *model.Workload, req *model.Requirement) (Verdict, error) {
	minSeconds, err := req.IntParam("min_seconds", 30)
	if err != nil {
		return Verdict{}, err
	}
	spec := w.PodSpec()
	if spec == nil || len(spec.Containers) == 0 {
		return noContainers, nil
	}

	for _, c := range spec.Containers {
		if c.Lifecycle != nil && c.Lifecycle.PreStop != nil {
			return pass("container %s has a preStop hook", c.Name), nil
		}
	}

	grace := int64(corev1.DefaultTerminationGracePeriodSeconds)
	if spec.TerminationGracePeriodSeconds != nil {
		grace = *spec.TerminationGracePeriodSeconds
	}
	if grace < int64(minSeconds) {
		return fail(fmt.Sprintf("Raise terminationGracePeriodSeconds to %d or add a preStop hook", minSeconds),
			"termination grace period %ds is below %ds", grace, minSeconds), nil
	}
	return pass("termination grace period %ds", grace), nil
}

func checkServiceExposed(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	services := exposingServices(w)
	if len(services) == 0 {
		return fail("Create a Service whose selector matches the pod labels", "no Service selects the pods"), nil
	}
	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = svc.Name
	}
	return pass("exposed by Service %s", strings.Join(names, ", ")), nil
}

func checkMetricsPort(w *model.Workload, req *model.Requirement) (Verdict, error) {
	names, err := req.StringsParam("port_name", []string{"metrics"})
	if err != nil {
		return Verdict{}, err
	}
	spec := w.PodSpec()
	if spec == nil || len(spec.Containers) == 0 {
		return noContainers, nil
	}
	for _, c := range spec.Containers {
		for _, port := range c.Ports {
			if slices.Contains(names, port.Name) {
				return pass("metrics port found: %d", port.ContainerPort), nil
			}
		}
	}
	return fail("Add a container port named "+strings.Join(names, " or ")+" (typically 8080 or 9090)",
		"no port named %s", strings.Join(names, " or ")), nil
}

func checkReadOnlyRootFilesystem(w *model.Workload, _ *model.Requirement) (Verdict, error) {
	return eachContainer(w, "Set securityContext.readOnlyRootFilesystem: true", "all containers use a read-only root filesystem",
		func(c *corev1.Container) string {
			if c.SecurityContext == nil || c.SecurityContext.ReadOnlyRootFilesystem == nil || !*c.SecurityContext.ReadOnlyRootFilesystem {
				return "readOnlyRootFilesystem not set"
			}
			return ""
		}), nil
}

var defaultSecretPatterns = []string{"password", "secret", "token", "key", "api"}

func checkNoPlaintextSecrets(w *model.Workload, req *model.Requirement) (Verdict, error) {
	patterns, err := req.StringsParam("patterns", defaultSecretPatterns)
	if err != nil {
		return Verdict{}, err
	}
	spec := w.PodSpec()
	if spec == nil || len(spec.Containers) == 0 {
		return noContainers, nil
	}

	var suspicious []string
	for _, c := range slices.Concat(spec.InitContainers, spec.Containers) {
		for _, env := range c.Env {
			if env.Value == "" || env.ValueFrom != nil {
				continue
			}
			name := strings.ToLower(env.Name)
			if slices.ContainsFunc(patterns, func(p string) bool { return strings.Contains(name, strings.ToLower(p)) }) {
				suspicious = append(suspicious, c.Name+"/"+env.Name)
			}
		}
	}
	if len(suspicious) > 0 {
		return fail("Use Kubernetes Secrets or valueFrom with secretKeyRef",
			"potential plaintext secrets: %s", strings.Join(suspicious, ", ")), nil
	}
	return pass("no plaintext secrets detected"), nil
}

// alertCount counts the alerting rules of a PrometheusRule across all groups
func alertCount(rule *unstructured.Unstructured) (int, error) {
	groups, _, err := unstructured.NestedSlice(rule.Object, "spec", "groups")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		rules, _, err := unstructured.NestedSlice(group, "rules")
		if err != nil {
			return 0, err
		}
		for _, r := range rules {
			if entry, ok := r.(map[string]any); ok {
				if alert, _ := entry["alert"].(string); alert != "" {
					count++
				}
			}
		}
	}
	return count, nil
}

func checkPrometheusRule(w *model.Workload, req *model.Requirement) (Verdict, error) {
	suffix, err := req.StringParam("name_suffix", "-alerts")
	if err != nil {
		return Verdict{}, err
	}
	name := w.Name + suffix

	for i := range w.PrometheusRules {
		rule := &w.PrometheusRules[i]
		if rule.GetName() != name {
			continue
		}
		alerts, err := alertCount(rule)
		if err != nil {
			return Verdict{}, goerr.Wrap(err, "malformed PrometheusRule", goerr.V("name", name))
		}
		if alerts == 0 {
			return fail("Add alerting rules to PrometheusRule "+name, "PrometheusRule %s has no alerts defined", name), nil
		}
		return pass("PrometheusRule %s found with %d alert(s)", name, alerts), nil
	}
	return fail("Create a PrometheusRule resource named "+name, "PrometheusRule %s not found", name), nil
}

func checkDocFile(w *model.Workload, req *model.Requirement) (Verdict, error) {
	path, err := req.StringParam("path", "README.md")
	if err != nil {
		return Verdict{}, err
	}
	minBytes, err := req.IntParam("min_bytes", 100)
	if err != nil {
		return Verdict{}, err
	}
	if w.Docs == nil {
		return Verdict{}, goerr.New("no documentation directory to check", goerr.V("path", path))
	}

	info, err := fs.Stat(w.Docs, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail(fmt.Sprintf("Create %s with comprehensive documentation", path), "%s not found", path), nil
	case err != nil:
		return Verdict{}, goerr.Wrap(err, "failed to inspect documentation file", goerr.V("path", path))
	case info.IsDir():
		return fail(fmt.Sprintf("Replace the %s directory with a file", path), "%s is a directory", path), nil
	case info.Size() < int64(minBytes):
		return fail("Ensure documentation is comprehensive",
			"%s exists but appears too short (%d bytes)", path, info.Size()), nil
	}
	return pass("%s exists (%d bytes)", path, info.Size()), nil
}
