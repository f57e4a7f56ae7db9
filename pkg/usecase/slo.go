package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/brendanbecker/ce101/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"sigs.k8s.io/yaml"
)

// StdoutPath selects standard output as the SLO output destination
const StdoutPath = "-"

// SLOUseCase renders SLO templates into Sloth specs
type SLOUseCase struct{}

// NewSLOUseCase creates a new SLOUseCase
func NewSLOUseCase() *SLOUseCase {
	return &SLOUseCase{}
}

// SLOInput describes one SLO build
type SLOInput struct {
	Table       *model.SLOTemplateTable
	Service     string
	Namespace   string
	Team        string
	ServiceType types.ServiceType
	Tier        types.Tier
	// Output is the destination file. Empty means <service>-slo.yaml and
	// StdoutPath writes to Stdout.
	Output string
	Force  bool
	Stdout io.Writer
}

// DefaultSLOOutput returns the file an SLO spec for service is written to by default
func DefaultSLOOutput(service string) string {
	return service + "-slo.yaml"
}

// Lookup returns the template for (serviceType, tier) or ErrTemplateNotFound
// listing what is available
func (uc *SLOUseCase) Lookup(table *model.SLOTemplateTable, serviceType types.ServiceType, tier types.Tier) (*model.SLOTemplate, error) {
	tmpl, ok := table.Lookup(serviceType, tier)
	if ok {
		return tmpl, nil
	}

	available := make([]string, 0)
	for _, key := range table.Keys() {
		available = append(available, fmt.Sprintf("%s/%s", key.ServiceType, key.Tier))
	}
	return nil, goerr.Wrap(ErrTemplateNotFound, "no template for service type and tier",
		goerr.V(ServiceTypeKey, serviceType),
		goerr.V(TierKey, tier),
		goerr.V("available", strings.Join(available, ", ")))
}

// Render looks up and renders the SLO spec without writing it
func (uc *SLOUseCase) Render(input SLOInput) (*model.SLOSpec, error) {
	if input.Service == "" {
		return nil, goerr.Wrap(model.ErrMissingName, "service name is required")
	}
	if input.Namespace == "" {
		return nil, goerr.Wrap(ErrMissingNamespace, "namespace is required", goerr.V(ServiceKey, input.Service))
	}
	if err := input.ServiceType.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := uc.Lookup(input.Table, input.ServiceType, input.Tier)
	if err != nil {
		return nil, err
	}
	spec, err := tmpl.Render(input.Service, input.Namespace, input.Team, input.ServiceType, input.Tier)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render SLO template",
			goerr.V(ServiceTypeKey, input.ServiceType), goerr.V(TierKey, input.Tier))
	}
	return spec, nil
}

// Build renders the SLO spec and writes it as YAML. It returns the path written,
// or StdoutPath. An existing file is only replaced when Force is set.
func (uc *SLOUseCase) Build(ctx context.Context, input SLOInput) (string, error) {
	spec, err := uc.Render(input)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(spec)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal SLO spec")
	}

	output := input.Output
	if output == "" {
		output = DefaultSLOOutput(input.Service)
	}

	if output == StdoutPath {
		w := input.Stdout
		if w == nil {
			w = os.Stdout
		}
		if _, err := w.Write(data); err != nil {
			return "", goerr.Wrap(err, "failed to write SLO spec")
		}
		return StdoutPath, nil
	}

	if err := writeNewFile(ctx, output, data, input.Force); err != nil {
		return "", err
	}

	logging.From(ctx).Info("SLO spec written",
		"path", output,
		"service", input.Service,
		"namespace", input.Namespace,
		"service_type", input.ServiceType,
		"tier", input.Tier,
		"slos", len(spec.SLOs),
	)
	return output, nil
}

func writeNewFile(ctx context.Context, path string, data []byte, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create output directory", goerr.V(PathKey, dir))
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	// #nosec G304 - path is provided by CLI flag
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return goerr.Wrap(ErrOutputExists, "refusing to overwrite without --force", goerr.V(PathKey, path))
		}
		return goerr.Wrap(err, "failed to open output file", goerr.V(PathKey, path))
	}
	if _, err := f.Write(data); err != nil {
		safe.Close(ctx, f, "path", path)
		return goerr.Wrap(err, "failed to write output file", goerr.V(PathKey, path))
	}
	if err := f.Close(); err != nil {
		return goerr.Wrap(err, "failed to close output file", goerr.V(PathKey, path))
	}
	return nil
}

// List writes the available (service type, tier) pairs, one per line
func (uc *SLOUseCase) List(w io.Writer, table *model.SLOTemplateTable) error {
	p := &errWriter{w: w}
	for _, key := range table.Keys() {
		tmpl, _ := table.Lookup(key.ServiceType, key.Tier)
		if tmpl.Description != "" {
			p.printf("%-10s %-7s %s\n", key.ServiceType, key.Tier, tmpl.Description)
		} else {
			p.printf("%-10s %s\n", key.ServiceType, key.Tier)
		}
	}
	return p.err
}

// Explain writes the objectives of a template with their error budgets
func (uc *SLOUseCase) Explain(w io.Writer, table *model.SLOTemplateTable, serviceType types.ServiceType, tier types.Tier) error {
	tmpl, err := uc.Lookup(table, serviceType, tier)
	if err != nil {
		return err
	}

	p := &errWriter{w: w}
	p.printf("SLO template %s/%s\n", serviceType, tier)
	p.printf("%s\n\n", strings.Repeat("=", 60))
	if tmpl.Description != "" {
		p.printf("%s\n\n", tmpl.Description)
	}

	days := int(model.ErrorBudgetPeriod.Hours() / 24)
	for _, slo := range tmpl.SLOs {
		p.printf("SLO: %s\n", slo.Name)
		p.printf("  Target:       %g%%\n", slo.Objective)
		p.printf("  Error budget: %.4g%% (%s per %d days)\n", slo.ErrorBudget(), slo.AllowedDowntime(model.ErrorBudgetPeriod), days)
		if slo.Alerting.PageSeverity != "" || slo.Alerting.TicketSeverity != "" {
			p.printf("  Alerts:       page=%s ticket=%s\n", orNone(slo.Alerting.PageSeverity), orNone(slo.Alerting.TicketSeverity))
		}
		p.printf("\n")
	}
	return p.err
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
