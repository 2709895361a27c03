package service

import "time"

// DefaultLoginCodeTimeout is how long a login code stays redeemable.
const DefaultLoginCodeTimeout = 300 * time.Second

// Config is the read-only policy the gate and engine run under.
type Config struct {
	// LoginCodeTimeout is the validity window of an issued code.
	LoginCodeTimeout time.Duration

	// NumericCodes switches the generator to digit-only codes.
	NumericCodes bool

	// InvalidatePriorCodes deletes a user's outstanding codes when a new one
	// is issued, leaving at most one redeemable code per user.
	InvalidatePriorCodes bool
}

// DefaultConfig returns the permissive defaults.
func DefaultConfig() Config {
	return Config{LoginCodeTimeout: DefaultLoginCodeTimeout}
}

func (c Config) timeout() time.Duration {
	if c.LoginCodeTimeout <= 0 {
		return DefaultLoginCodeTimeout
	}
	return c.LoginCodeTimeout
}
