package model

import (
	"regexp"
	"slices"
	"sort"
	"time"

	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// SLOSpecVersion is the Sloth spec version emitted by the builder
const SLOSpecVersion = "prometheus/v1"

// Template variables substituted by Render
const (
	VarService   = "service"
	VarNamespace = "namespace"
	VarTeam      = "team"
)

// ErrUnknownVariable is returned when a template references a variable other
// than service, namespace or team
var ErrUnknownVariable = goerr.New("unknown template variable")

// SLOTemplateTable holds SLO templates keyed by service type, then tier
type SLOTemplateTable struct {
	Templates map[types.ServiceType]map[types.Tier]SLOTemplate `yaml:"templates"`
}

// SLOTemplateKey names one entry of the table
type SLOTemplateKey struct {
	ServiceType types.ServiceType
	Tier        types.Tier
}

// SLOTemplate is the set of objectives generated for one (service type, tier)
type SLOTemplate struct {
	Description string                 `yaml:"description,omitempty"`
	Labels      map[string]string      `yaml:"labels,omitempty"`
	SLOs        []SLOObjectiveTemplate `yaml:"slos"`
}

// SLOObjectiveTemplate describes a single objective before substitution
type SLOObjectiveTemplate struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Objective   float64           `yaml:"objective"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	SLI         SLITemplate       `yaml:"sli"`
	Alerting    AlertingTemplate  `yaml:"alerting"`
}

// SLITemplate holds PromQL queries with ${service}/${namespace} placeholders
type SLITemplate struct {
	ErrorQuery string `yaml:"error_query"`
	TotalQuery string `yaml:"total_query"`
}

// AlertingTemplate configures the generated multi-window alerts
type AlertingTemplate struct {
	Name           string            `yaml:"name"`
	Annotations    map[string]string `yaml:"annotations,omitempty"`
	PageSeverity   string            `yaml:"page_severity,omitempty"`
	TicketSeverity string            `yaml:"ticket_severity,omitempty"`
}

// Validate checks every template in the table
func (t *SLOTemplateTable) Validate() error {
	for serviceType, tiers := range t.Templates {
		if err := serviceType.Validate(); err != nil {
			return goerr.Wrap(err, "invalid service type in template table")
		}
		for tier, tmpl := range tiers {
			if !tier.IsValid() {
				return goerr.Wrap(ErrInvalidTier, "unknown tier in template table",
					goerr.V(ServiceTypeKey, serviceType), goerr.V(TierKey, tier))
			}
			if err := tmpl.Validate(); err != nil {
				return goerr.Wrap(err, "invalid SLO template",
					goerr.V(ServiceTypeKey, serviceType), goerr.V(TierKey, tier))
			}
		}
	}
	return nil
}

// Keys returns every (service type, tier) pair sorted by service type then tier
func (t *SLOTemplateTable) Keys() []SLOTemplateKey {
	var keys []SLOTemplateKey
	for serviceType, tiers := range t.Templates {
		for tier := range tiers {
			keys = append(keys, SLOTemplateKey{ServiceType: serviceType, Tier: tier})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ServiceType != keys[j].ServiceType {
			return keys[i].ServiceType < keys[j].ServiceType
		}
		return keys[i].Tier < keys[j].Tier
	})
	return keys
}

// Lookup returns the template for (serviceType, tier)
func (t *SLOTemplateTable) Lookup(serviceType types.ServiceType, tier types.Tier) (*SLOTemplate, bool) {
	tiers, ok := t.Templates[serviceType]
	if !ok {
		return nil, false
	}
	tmpl, ok := tiers[tier]
	if !ok {
		return nil, false
	}
	return &tmpl, true
}

// Validate checks if the SLOTemplate is valid
func (t *SLOTemplate) Validate() error {
	if len(t.SLOs) == 0 {
		return goerr.New("template has no SLOs")
	}
	names := make(map[string]bool, len(t.SLOs))
	for _, slo := range t.SLOs {
		if slo.Name == "" {
			return goerr.Wrap(ErrMissingName, "SLO name is required")
		}
		if names[slo.Name] {
			return goerr.Wrap(ErrDuplicateSLOName, "SLO name appears twice", goerr.V(SLONameKey, slo.Name))
		}
		names[slo.Name] = true
		if slo.Objective <= 0 || slo.Objective >= 100 {
			return goerr.Wrap(ErrInvalidObjective, "objective out of range",
				goerr.V(SLONameKey, slo.Name), goerr.V("objective", slo.Objective))
		}
		if slo.SLI.ErrorQuery == "" || slo.SLI.TotalQuery == "" {
			return goerr.New("SLI requires error_query and total_query", goerr.V(SLONameKey, slo.Name))
		}
		if slo.Alerting.Name == "" {
			return goerr.New("alerting name is required", goerr.V(SLONameKey, slo.Name))
		}
	}
	return nil
}

// SLOSpec is a Sloth prometheus/v1 service level document
type SLOSpec struct {
	Version string            `json:"version"`
	Service string            `json:"service"`
	Labels  map[string]string `json:"labels,omitempty"`
	SLOs    []SLO             `json:"slos"`
}

// SLO is one rendered objective
type SLO struct {
	Name        string            `json:"name"`
	Objective   float64           `json:"objective"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	SLI         SLI               `json:"sli"`
	Alerting    Alerting          `json:"alerting"`
}

// SLI selects the events-based indicator
type SLI struct {
	Events SLIEvents `json:"events"`
}

// SLIEvents holds the error and total queries
type SLIEvents struct {
	ErrorQuery string `json:"errorQuery"`
	TotalQuery string `json:"totalQuery"`
}

// Alerting configures the page and ticket alerts
type Alerting struct {
	Name        string            `json:"name"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	PageAlert   *AlertMeta        `json:"pageAlert,omitempty"`
	TicketAlert *AlertMeta        `json:"ticketAlert,omitempty"`
}

// AlertMeta carries labels for one alert kind
type AlertMeta struct {
	Disable bool              `json:"disable,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
}

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute replaces ${name} placeholders with values from vars. Any
// placeholder without a value is an error.
func Substitute(s string, vars map[string]string) (string, error) {
	var missing []string
	out := variablePattern.ReplaceAllStringFunc(s, func(m string) string {
		name := variablePattern.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", goerr.Wrap(ErrUnknownVariable, "template references unknown variable",
			goerr.V("variables", missing), goerr.V("text", s))
	}
	return out, nil
}

func substituteMap(m map[string]string, vars map[string]string) (map[string]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		rendered, err := Substitute(v, vars)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to render map value", goerr.V("key", k))
		}
		out[k] = rendered
	}
	return out, nil
}

// Render substitutes the service, namespace and team variables into every
// string of the template and returns the resulting spec. Spec-level labels
// always carry namespace, tier and service_type, plus team when given.
func (t *SLOTemplate) Render(service, namespace, team string, serviceType types.ServiceType, tier types.Tier) (*SLOSpec, error) {
	vars := map[string]string{
		VarService:   service,
		VarNamespace: namespace,
		VarTeam:      team,
	}

	labels, err := substituteMap(t.Labels, vars)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		labels = make(map[string]string, 4)
	}
	labels["namespace"] = namespace
	if team != "" {
		labels["team"] = team
	}
	labels["tier"] = tier.String()
	labels["service_type"] = serviceType.String()

	spec := &SLOSpec{
		Version: SLOSpecVersion,
		Service: service,
		Labels:  labels,
		SLOs:    make([]SLO, 0, len(t.SLOs)),
	}

	for _, tmpl := range t.SLOs {
		slo, err := tmpl.render(vars)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to render SLO", goerr.V(SLONameKey, tmpl.Name))
		}
		spec.SLOs = append(spec.SLOs, *slo)
	}

	return spec, nil
}

func (o *SLOObjectiveTemplate) render(vars map[string]string) (*SLO, error) {
	fields := []string{o.Name, o.Description, o.SLI.ErrorQuery, o.SLI.TotalQuery, o.Alerting.Name}
	rendered := make([]string, len(fields))
	for i, f := range fields {
		v, err := Substitute(f, vars)
		if err != nil {
			return nil, err
		}
		rendered[i] = v
	}

	labels, err := substituteMap(o.Labels, vars)
	if err != nil {
		return nil, err
	}
	annotations, err := substituteMap(o.Alerting.Annotations, vars)
	if err != nil {
		return nil, err
	}

	slo := &SLO{
		Name:        rendered[0],
		Objective:   o.Objective,
		Description: rendered[1],
		Labels:      labels,
		SLI: SLI{Events: SLIEvents{
			ErrorQuery: rendered[2],
			TotalQuery: rendered[3],
		}},
		Alerting: Alerting{
			Name:        rendered[4],
			Annotations: annotations,
		},
	}

	slo.Alerting.PageAlert = alertMeta(o.Alerting.PageSeverity)
	slo.Alerting.TicketAlert = alertMeta(o.Alerting.TicketSeverity)

	return slo, nil
}

// alertMeta maps a severity label to an alert. "none" disables the alert kind.
func alertMeta(severity string) *AlertMeta {
	switch severity {
	case "":
		return nil
	case "none":
		return &AlertMeta{Disable: true}
	default:
		return &AlertMeta{Labels: map[string]string{"severity": severity}}
	}
}

// TemplateKeysFor lists the tiers available for serviceType
func (t *SLOTemplateTable) TemplateKeysFor(serviceType types.ServiceType) []types.Tier {
	var tiers []types.Tier
	for tier := range t.Templates[serviceType] {
		tiers = append(tiers, tier)
	}
	slices.Sort(tiers)
	return tiers
}

// ErrorBudgetPeriod is the rolling window error budgets are reported over
const ErrorBudgetPeriod = 30 * 24 * time.Hour

// ErrorBudget returns the percentage of events allowed to fail
func (o *SLOObjectiveTemplate) ErrorBudget() float64 {
	return 100 - o.Objective
}

// AllowedDowntime returns the error budget as time within period, rounded to
// the second
func (o *SLOObjectiveTemplate) AllowedDowntime(period time.Duration) time.Duration {
	return time.Duration(float64(period) * o.ErrorBudget() / 100).Round(time.Second)
}
