package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// ServiceType identifies a family of services sharing SLO templates (api, worker, ...)
type ServiceType string

var serviceTypePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate checks if the ServiceType is valid
func (s ServiceType) Validate() error {
	if s == "" {
		return goerr.New("service type cannot be empty")
	}
	if !serviceTypePattern.MatchString(string(s)) {
		return goerr.New("service type must be lowercase alphanumeric with hyphens", goerr.V("service_type", s))
	}
	return nil
}

// String returns the string representation of ServiceType
func (s ServiceType) String() string {
	return string(s)
}
