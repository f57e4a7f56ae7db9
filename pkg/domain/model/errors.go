package model

import "github.com/m-mizutani/goerr/v2"

// Table validation errors
var (
	ErrEmptyRequirementID     = goerr.New("requirement ID is required")
	ErrDuplicateRequirementID = goerr.New("duplicate requirement ID")
	ErrInvalidSeverity        = goerr.New("invalid severity")
	ErrInvalidTier            = goerr.New("invalid tier")
	ErrMissingCheck           = goerr.New("requirement check is required")
	ErrInvalidLevel           = goerr.New("invalid requirement level")
	ErrConflictingTiers       = goerr.New("tiers and levels cannot both be set")
	ErrInvalidObjective       = goerr.New("objective must be greater than 0 and less than 100")
	ErrDuplicateSLOName       = goerr.New("duplicate SLO name")
	ErrMissingName            = goerr.New("name is required")
	ErrInvalidParam           = goerr.New("invalid requirement parameter")
	ErrInvalidSlideRange      = goerr.New("invalid slide range")
)

// Context keys for error values
const (
	RequirementIDKey = "requirement_id"
	ParamKey         = "param"
	ServiceTypeKey   = "service_type"
	TierKey          = "tier"
	SLONameKey       = "slo_name"
	SourcePathKey    = "source_path"
)
