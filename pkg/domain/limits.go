package domain

import "fmt"

// RatePolicy selects how generation calls are throttled across branches.
type RatePolicy string

const (
	// RateNone disables throttling.
	RateNone RatePolicy = "none"
	// RateShared uses one limiter for every generation call in the process.
	RateShared RatePolicy = "shared"
	// RatePerBranch uses one limiter per entry branch of an artifact.
	RatePerBranch RatePolicy = "per_branch"
)

// RateLimit configures generation throttling.
type RateLimit struct {
	Policy RatePolicy `json:"policy" mapstructure:"policy"`
	RPS    float64    `json:"rps" mapstructure:"rps"`
	Burst  int        `json:"burst" mapstructure:"burst"`
}

// Enabled reports whether throttling applies.
func (l RateLimit) Enabled() bool {
	return l.Policy != "" && l.Policy != RateNone
}

// Validate checks the policy name and its parameters.
func (l RateLimit) Validate() error {
	switch l.Policy {
	case "", RateNone:
		return nil
	case RateShared, RatePerBranch:
		if l.RPS <= 0 {
			return fmt.Errorf("rate_limit: rps must be positive for policy %q", l.Policy)
		}
		if l.Burst < 0 {
			return fmt.Errorf("rate_limit: burst must not be negative")
		}
		return nil
	default:
		return fmt.Errorf("rate_limit: unknown policy %q", l.Policy)
	}
}
