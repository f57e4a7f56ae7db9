package kubectl

import (
	"context"
	"errors"
	"strings"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

// Resource names passed to kubectl get
const (
	ResourceDeployment              = "deployment"
	ResourceServices                = "services"
	ResourcePodDisruptionBudgets    = "poddisruptionbudgets"
	ResourceHorizontalPodAutoscaler = "horizontalpodautoscalers"
	ResourceNetworkPolicies         = "networkpolicies"
	ResourceServiceMonitors         = "servicemonitors.monitoring.coreos.com"
	ResourcePrometheusRules         = "prometheusrules.monitoring.coreos.com"
)

// Client is a Cluster backed by the kubectl binary
type Client struct {
	runner     CommandRunner
	binary     string
	kubeCtx    string
	kubeconfig string
	token      string
}

var _ interfaces.Cluster = &Client{}

// Option configures a Client
type Option func(*Client)

// WithBinary overrides the kubectl executable
func WithBinary(path string) Option {
	return func(c *Client) {
		c.binary = path
	}
}

// WithContext selects the kubeconfig context
func WithContext(name string) Option {
	return func(c *Client) {
		c.kubeCtx = name
	}
}

// WithKubeconfig sets the kubeconfig path
func WithKubeconfig(path string) Option {
	return func(c *Client) {
		c.kubeconfig = path
	}
}

// WithToken sets a bearer token for the API server
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a kubectl-backed Cluster
func New(runner CommandRunner, opts ...Option) *Client {
	c := &Client{
		runner: runner,
		binary: "kubectl",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) globalArgs() []string {
	var args []string
	if c.kubeCtx != "" {
		args = append(args, "--context", c.kubeCtx)
	}
	if c.kubeconfig != "" {
		args = append(args, "--kubeconfig", c.kubeconfig)
	}
	if c.token != "" {
		args = append(args, "--token", c.token)
	}
	return args
}

// get runs `kubectl get <resource> [name] -n <namespace> -o json`
func (c *Client) get(ctx context.Context, namespace, resource, name string) ([]byte, error) {
	args := []string{"get", resource}
	if name != "" {
		args = append(args, name)
	}
	args = append(args, "-n", namespace, "-o", "json")
	args = append(args, c.globalArgs()...)

	logging.From(ctx).Debug("running kubectl",
		"resource", resource,
		"namespace", namespace,
		"name", name,
	)

	stdout, stderr, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if isNotFound(msg) {
			return nil, goerr.Wrap(ErrWorkloadNotFound, "kubectl reported not found",
				goerr.V(NamespaceKey, namespace), goerr.V(ResourceKey, resource), goerr.V(NameKey, name))
		}
		if isUnknownResource(msg) {
			return nil, errUnknownResource
		}
		return nil, goerr.Wrap(ErrCommandFailed, err.Error(),
			goerr.V(NamespaceKey, namespace), goerr.V(ResourceKey, resource), goerr.V(StderrKey, msg))
	}
	return stdout, nil
}

var errUnknownResource = goerr.New("resource type is not served by the cluster")

func isNotFound(stderr string) bool {
	return strings.Contains(stderr, "(NotFound)")
}

func isUnknownResource(stderr string) bool {
	return strings.Contains(stderr, "the server doesn't have a resource type")
}

// getList fetches a namespaced list into out. Resource types the cluster does
// not serve (for example a missing CRD) leave out empty.
func (c *Client) getList(ctx context.Context, namespace, resource string, out any) error {
	data, err := c.get(ctx, namespace, resource, "")
	if err != nil {
		if errors.Is(err, errUnknownResource) {
			logging.From(ctx).Debug("resource type not served, treating as empty", "resource", resource)
			return nil
		}
		return err
	}
	if err := decode(data, out); err != nil {
		return goerr.Wrap(err, "failed to decode list", goerr.V(ResourceKey, resource))
	}
	return nil
}

func decode(data []byte, out any) error {
	if u, ok := out.(*unstructured.UnstructuredList); ok {
		if err := u.UnmarshalJSON(data); err != nil {
			return goerr.Wrap(ErrDecode, err.Error())
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return goerr.Wrap(ErrDecode, err.Error())
	}
	return nil
}

// FetchWorkload fetches the Deployment, then its related objects concurrently
func (c *Client) FetchWorkload(ctx context.Context, namespace, name string) (*model.Workload, error) {
	data, err := c.get(ctx, namespace, ResourceDeployment, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get deployment")
	}

	var deploy appsv1.Deployment
	if err := decode(data, &deploy); err != nil {
		return nil, goerr.Wrap(err, "failed to decode deployment", goerr.V(NameKey, name))
	}

	var (
		services  corev1.ServiceList
		pdbs      policyv1.PodDisruptionBudgetList
		hpas      autoscalingv2.HorizontalPodAutoscalerList
		netpols   networkingv1.NetworkPolicyList
		monitors  unstructured.UnstructuredList
		rules     unstructured.UnstructuredList
		eg, egCtx = errgroup.WithContext(ctx)
	)

	lists := []struct {
		resource string
		out      any
	}{
		{ResourceServices, &services},
		{ResourcePodDisruptionBudgets, &pdbs},
		{ResourceHorizontalPodAutoscaler, &hpas},
		{ResourceNetworkPolicies, &netpols},
		{ResourceServiceMonitors, &monitors},
		{ResourcePrometheusRules, &rules},
	}
	for _, l := range lists {
		eg.Go(func() error {
			return c.getList(egCtx, namespace, l.resource, l.out)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "failed to get related objects", goerr.V(NamespaceKey, namespace))
	}

	return &model.Workload{
		Namespace:                namespace,
		Name:                     name,
		Deployment:               &deploy,
		Services:                 services.Items,
		PodDisruptionBudgets:     pdbs.Items,
		HorizontalPodAutoscalers: hpas.Items,
		NetworkPolicies:          netpols.Items,
		ServiceMonitors:          monitors.Items,
		PrometheusRules:          rules.Items,
	}, nil
}
