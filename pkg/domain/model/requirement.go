package model

import (
	"fmt"
	"slices"

	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Requirement is one row of the production-readiness table. Check names the
// predicate that evaluates it; Params tunes that predicate.
//
// Tiers and Levels both scope a requirement to tiers. Tiers is a plain list
// of tiers where the requirement is required. Levels assigns a level per tier.
// TierParams overrides Params for a single tier.
type Requirement struct {
	ID          string                        `yaml:"id"`
	Name        string                        `yaml:"name"`
	Description string                        `yaml:"description,omitempty"`
	Severity    types.Severity                `yaml:"severity"`
	Tiers       []types.Tier                  `yaml:"tiers,omitempty"`
	Levels      map[types.Tier]types.Level    `yaml:"levels,omitempty"`
	Check       string                        `yaml:"check"`
	Params      map[string]any                `yaml:"params,omitempty"`
	TierParams  map[types.Tier]map[string]any `yaml:"tier_params,omitempty"`
}

// LevelFor returns how strictly the requirement is enforced for tier. With
// Levels set, a tier missing from the map is optional. Otherwise a requirement
// is required for the listed Tiers, or for every tier when none are listed.
func (r *Requirement) LevelFor(tier types.Tier) types.Level {
	if len(r.Levels) > 0 {
		if level, ok := r.Levels[tier]; ok {
			return level
		}
		return types.LevelOptional
	}
	if len(r.Tiers) == 0 || slices.Contains(r.Tiers, tier) {
		return types.LevelRequired
	}
	return types.LevelOptional
}

// AppliesTo reports whether the requirement is evaluated for tier
func (r *Requirement) AppliesTo(tier types.Tier) bool {
	return r.LevelFor(tier) != types.LevelOptional
}

// Resolve returns a copy of the requirement whose Params include the
// overrides of tier
func (r *Requirement) Resolve(tier types.Tier) *Requirement {
	out := *r
	overrides := r.TierParams[tier]
	if len(overrides) == 0 {
		return &out
	}
	out.Params = make(map[string]any, len(r.Params)+len(overrides))
	for k, v := range r.Params {
		out.Params[k] = v
	}
	for k, v := range overrides {
		out.Params[k] = v
	}
	return &out
}

// Validate checks if the Requirement is valid
func (r *Requirement) Validate() error {
	if r.ID == "" {
		return ErrEmptyRequirementID
	}
	if r.Name == "" {
		return goerr.Wrap(ErrMissingName, "requirement name is required", goerr.V(RequirementIDKey, r.ID))
	}
	if !r.Severity.IsValid() {
		return goerr.Wrap(ErrInvalidSeverity, "unknown severity",
			goerr.V(RequirementIDKey, r.ID), goerr.V("severity", r.Severity))
	}
	for _, tier := range r.Tiers {
		if !tier.IsValid() {
			return goerr.Wrap(ErrInvalidTier, "unknown tier",
				goerr.V(RequirementIDKey, r.ID), goerr.V(TierKey, tier))
		}
	}
	if len(r.Tiers) > 0 && len(r.Levels) > 0 {
		return goerr.Wrap(ErrConflictingTiers, "use either tiers or levels", goerr.V(RequirementIDKey, r.ID))
	}
	for tier, level := range r.Levels {
		if !tier.IsValid() {
			return goerr.Wrap(ErrInvalidTier, "unknown tier in levels",
				goerr.V(RequirementIDKey, r.ID), goerr.V(TierKey, tier))
		}
		if !level.IsValid() {
			return goerr.Wrap(ErrInvalidLevel, "unknown level",
				goerr.V(RequirementIDKey, r.ID), goerr.V(TierKey, tier), goerr.V("level", level))
		}
	}
	for tier := range r.TierParams {
		if !tier.IsValid() {
			return goerr.Wrap(ErrInvalidTier, "unknown tier in tier_params",
				goerr.V(RequirementIDKey, r.ID), goerr.V(TierKey, tier))
		}
	}
	if r.Check == "" {
		return goerr.Wrap(ErrMissingCheck, "requirement has no check", goerr.V(RequirementIDKey, r.ID))
	}
	return nil
}

// IntParam returns the integer parameter key, or def when it is not set
func (r *Requirement) IntParam(key string, def int) (int, error) {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			break
		}
		return int(n), nil
	}
	return 0, goerr.Wrap(ErrInvalidParam, "parameter must be an integer",
		goerr.V(RequirementIDKey, r.ID), goerr.V(ParamKey, key), goerr.V("value", v))
}

// StringParam returns the string parameter key, or def when it is not set
func (r *Requirement) StringParam(key, def string) (string, error) {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", goerr.Wrap(ErrInvalidParam, "parameter must be a string",
			goerr.V(RequirementIDKey, r.ID), goerr.V(ParamKey, key), goerr.V("value", fmt.Sprint(v)))
	}
	return str, nil
}

// StringsParam returns the string list parameter key, or def when it is not set.
// A single string is accepted as a one-element list.
func (r *Requirement) StringsParam(key string, def []string) ([]string, error) {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch s := v.(type) {
	case string:
		return []string{s}, nil
	case []string:
		return s, nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, goerr.Wrap(ErrInvalidParam, "parameter list must contain strings",
					goerr.V(RequirementIDKey, r.ID), goerr.V(ParamKey, key), goerr.V("item", item))
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, goerr.Wrap(ErrInvalidParam, "parameter must be a string list",
		goerr.V(RequirementIDKey, r.ID), goerr.V(ParamKey, key), goerr.V("value", fmt.Sprint(v)))
}

// RequirementTable is the ordered list of requirements a workload is checked against
type RequirementTable struct {
	Requirements []Requirement `yaml:"requirements"`
}

// Validate checks every requirement and rejects duplicate IDs
func (t *RequirementTable) Validate() error {
	seen := make(map[string]bool, len(t.Requirements))
	for i := range t.Requirements {
		req := &t.Requirements[i]
		if err := req.Validate(); err != nil {
			return goerr.Wrap(err, "invalid requirement", goerr.V("index", i))
		}
		if seen[req.ID] {
			return goerr.Wrap(ErrDuplicateRequirementID, "requirement ID appears twice", goerr.V(RequirementIDKey, req.ID))
		}
		seen[req.ID] = true
	}
	return nil
}

// ForTier returns the requirements enforced for tier, in table order
func (t *RequirementTable) ForTier(tier types.Tier) []Requirement {
	var out []Requirement
	for _, req := range t.Requirements {
		if req.AppliesTo(tier) {
			out = append(out, req)
		}
	}
	return out
}
