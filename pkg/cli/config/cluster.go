package config

import (
	"log/slog"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
	"github.com/brendanbecker/ce101/pkg/service/kubectl"
	"github.com/brendanbecker/ce101/pkg/service/manifest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Cluster selects where PRR workloads are read from: kubectl, or manifest
// files when --manifests is given
type Cluster struct {
	binary     string
	context    string
	kubeconfig string
	token      string
	manifests  []string
}

// Flags returns CLI flags for the workload source
func (c *Cluster) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "kubectl",
			Usage:       "kubectl executable",
			Value:       "kubectl",
			Category:    "Cluster",
			Sources:     cli.EnvVars("CE101_KUBECTL"),
			Destination: &c.binary,
		},
		&cli.StringFlag{
			Name:        "context",
			Usage:       "kubeconfig context",
			Category:    "Cluster",
			Sources:     cli.EnvVars("CE101_KUBE_CONTEXT"),
			Destination: &c.context,
		},
		&cli.StringFlag{
			Name:        "kubeconfig",
			Usage:       "Path to the kubeconfig file",
			Category:    "Cluster",
			Sources:     cli.EnvVars("CE101_KUBECONFIG"),
			Destination: &c.kubeconfig,
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Bearer token for the API server",
			Category:    "Cluster",
			Sources:     cli.EnvVars("CE101_KUBE_TOKEN"),
			Destination: &c.token,
		},
		&cli.StringSliceFlag{
			Name:        "manifests",
			Aliases:     []string{"f"},
			Usage:       "Read workloads from YAML/JSON manifest files or directories instead of a cluster",
			Category:    "Cluster",
			Destination: &c.manifests,
		},
	}
}

// LogValue implements slog.LogValuer
func (c Cluster) LogValue() slog.Value {
	if len(c.manifests) > 0 {
		return slog.GroupValue(slog.Any("manifests", c.manifests))
	}
	return slog.GroupValue(
		slog.String("kubectl", c.binary),
		slog.String("context", c.context),
		slog.String("kubeconfig", c.kubeconfig),
		slog.Int("token.len", len(c.token)),
	)
}

// Configure returns the workload source
func (c *Cluster) Configure() (interfaces.Cluster, error) {
	if len(c.manifests) > 0 {
		if c.context != "" || c.token != "" {
			return nil, goerr.Wrap(ErrConflictingFlags, "--manifests cannot be combined with cluster flags",
				goerr.V(FlagKey, "manifests"))
		}
		src, err := manifest.Load(c.manifests...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load manifests")
		}
		return src, nil
	}

	var opts []kubectl.Option
	if c.binary != "" {
		opts = append(opts, kubectl.WithBinary(c.binary))
	}
	if c.context != "" {
		opts = append(opts, kubectl.WithContext(c.context))
	}
	if c.kubeconfig != "" {
		opts = append(opts, kubectl.WithKubeconfig(c.kubeconfig))
	}
	if c.token != "" {
		opts = append(opts, kubectl.WithToken(c.token))
	}
	return kubectl.New(&kubectl.ExecRunner{}, opts...), nil
}
