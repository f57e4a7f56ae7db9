package kubectl_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/brendanbecker/ce101/pkg/service/kubectl"
	"github.com/m-mizutani/gt"
)

type fakeResponse struct {
	stdout string
	stderr string
	err    error
}

// fakeRunner answers by the resource argument of `kubectl get <resource>`
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))

	resp, ok := f.responses[args[1]]
	if !ok {
		return []byte(`{"apiVersion":"v1","kind":"List","items":[]}`), nil, nil
	}
	return []byte(resp.stdout), []byte(resp.stderr), resp.err
}

const deploymentJSON = `{
  "apiVersion": "apps/v1",
  "kind": "Deployment",
  "metadata": {"name": "checkout", "namespace": "payments", "labels": {"app": "checkout"}},
  "spec": {
    "replicas": 3,
    "selector": {"matchLabels": {"app": "checkout"}},
    "template": {
      "metadata": {"labels": {"app": "checkout"}},
      "spec": {"containers": [{"name": "app", "image": "registry/checkout:1.2.3"}]}
    }
  }
}`

const pdbListJSON = `{
  "apiVersion": "v1",
  "kind": "List",
  "items": [{
    "apiVersion": "policy/v1",
    "kind": "PodDisruptionBudget",
    "metadata": {"name": "checkout"},
    "spec": {"minAvailable": 1, "selector": {"matchLabels": {"app": "checkout"}}}
  }]
}`

const monitorListJSON = `{
  "apiVersion": "v1",
  "kind": "List",
  "items": [{
    "apiVersion": "monitoring.coreos.com/v1",
    "kind": "ServiceMonitor",
    "metadata": {"name": "checkout"},
    "spec": {"selector": {"matchLabels": {"app": "checkout"}}}
  }]
}`

const ruleListJSON = `{
  "apiVersion": "v1",
  "kind": "List",
  "items": [{
    "apiVersion": "monitoring.coreos.com/v1",
    "kind": "PrometheusRule",
    "metadata": {"name": "checkout-alerts"},
    "spec": {"groups": [{"name": "checkout", "rules": [{"alert": "CheckoutDown", "expr": "up == 0"}]}]}
  }]
}`

func TestClient_FetchWorkload(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		kubectl.ResourceDeployment:           {stdout: deploymentJSON},
		kubectl.ResourcePodDisruptionBudgets: {stdout: pdbListJSON},
		kubectl.ResourceServiceMonitors:      {stdout: monitorListJSON},
		kubectl.ResourcePrometheusRules:      {stdout: ruleListJSON},
	}}

	client := kubectl.New(runner, kubectl.WithContext("prod"), kubectl.WithBinary("/usr/local/bin/kubectl"))
	w, err := client.FetchWorkload(context.Background(), "payments", "checkout")
	gt.NoError(t, err).Required()

	gt.Value(t, w.Name).Equal("checkout")
	gt.Value(t, w.Replicas()).Equal(int32(3))
	gt.Array(t, w.PodDisruptionBudgets).Length(1)
	gt.Array(t, w.ServiceMonitors).Length(1)
	gt.Value(t, w.ServiceMonitors[0].GetKind()).Equal("ServiceMonitor")
	gt.Array(t, w.PrometheusRules).Length(1)
	gt.Value(t, w.PrometheusRules[0].GetName()).Equal("checkout-alerts")
	gt.Array(t, w.Services).Length(0)

	gt.Array(t, runner.calls).Length(7)
	first := runner.calls[0]
	gt.Value(t, first[0]).Equal("/usr/local/bin/kubectl")
	gt.Bool(t, slices.Contains(first, "prod")).True()
	gt.Value(t, strings.Join(first[1:8], " ")).Equal("get deployment checkout -n payments -o json")
}

func TestClient_FetchWorkloadNotFound(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		kubectl.ResourceDeployment: {
			stderr: `Error from server (NotFound): deployments.apps "checkout" not found`,
			err:    errors.New("exit status 1"),
		},
	}}

	_, err := kubectl.New(runner).FetchWorkload(context.Background(), "payments", "checkout")
	gt.Error(t, err).Is(kubectl.ErrWorkloadNotFound)
	gt.Array(t, runner.calls).Length(1)
}

func TestClient_UnknownResourceIsEmpty(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		kubectl.ResourceDeployment: {stdout: deploymentJSON},
		kubectl.ResourceServiceMonitors: {
			stderr: `error: the server doesn't have a resource type "servicemonitors"`,
			err:    errors.New("exit status 1"),
		},
	}}

	w, err := kubectl.New(runner).FetchWorkload(context.Background(), "payments", "checkout")
	gt.NoError(t, err).Required()
	gt.Array(t, w.ServiceMonitors).Length(0)
}

func TestClient_CommandFailure(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		kubectl.ResourceDeployment: {stdout: deploymentJSON},
		kubectl.ResourceServices: {
			stderr: "Unable to connect to the server",
			err:    errors.New("exit status 1"),
		},
	}}

	_, err := kubectl.New(runner).FetchWorkload(context.Background(), "payments", "checkout")
	gt.Error(t, err).Is(kubectl.ErrCommandFailed)
}

func TestClient_TokenIsPassed(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		kubectl.ResourceDeployment: {stdout: deploymentJSON},
	}}

	_, err := kubectl.New(runner, kubectl.WithToken("s3cr3t"), kubectl.WithKubeconfig("/tmp/kc")).
		FetchWorkload(context.Background(), "payments", "checkout")
	gt.NoError(t, err)

	args := runner.calls[0]
	gt.Bool(t, slices.Contains(args, "--token")).True()
	gt.Bool(t, slices.Contains(args, "/tmp/kc")).True()
}
