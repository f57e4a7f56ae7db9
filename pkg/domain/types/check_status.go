package types

// CheckStatus represents the outcome of a single requirement check
type CheckStatus string

const (
	CheckStatusPass  CheckStatus = "PASS"
	CheckStatusFail  CheckStatus = "FAIL"
	CheckStatusWarn  CheckStatus = "WARN"
	CheckStatusError CheckStatus = "ERROR"
	CheckStatusSkip  CheckStatus = "SKIP"
)

// IsFailure reports whether the status counts against the workload
func (s CheckStatus) IsFailure() bool {
	return s == CheckStatusFail || s == CheckStatusError
}

// String returns the string representation of the check status
func (s CheckStatus) String() string {
	return string(s)
}
