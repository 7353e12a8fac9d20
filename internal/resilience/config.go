package resilience

import "time"

// Settings mirrors the resilience section of the application config.
type Settings struct {
	MaxAttempts      int
	InitialBackoffMs int
	MaxBackoffMs     int
	Multiplier       float64
	JitterFraction   float64
	FailureThreshold int
	ResetTimeoutSecs int
}

// RetryConfig builds a RetryConfig, keeping defaults for unset values.
func (s Settings) RetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	if s.MaxAttempts > 0 {
		cfg.MaxAttempts = s.MaxAttempts
	}
	if s.InitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(s.InitialBackoffMs) * time.Millisecond
	}
	if s.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(s.MaxBackoffMs) * time.Millisecond
	}
	if s.Multiplier > 0 {
		cfg.Multiplier = s.Multiplier
	}
	if s.JitterFraction > 0 {
		cfg.JitterFraction = s.JitterFraction
	}
	return cfg
}

// BreakerConfig builds a CircuitBreakerConfig, keeping defaults for unset
// values.
func (s Settings) BreakerConfig() CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if s.FailureThreshold > 0 {
		cfg.FailureThreshold = s.FailureThreshold
	}
	if s.ResetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(s.ResetTimeoutSecs) * time.Second
	}
	return cfg
}
