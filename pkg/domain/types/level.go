package types

// Level says how strictly a requirement is enforced for a tier
type Level string

const (
	// LevelRequired failures count against the workload
	LevelRequired Level = "required"
	// LevelRecommended failures are reported as warnings
	LevelRecommended Level = "recommended"
	// LevelOptional requirements are not evaluated
	LevelOptional Level = "optional"
)

// IsValid checks if the level is valid
func (l Level) IsValid() bool {
	switch l {
	case LevelRequired, LevelRecommended, LevelOptional:
		return true
	default:
		return false
	}
}

// String returns the string representation of the level
func (l Level) String() string {
	return string(l)
}

