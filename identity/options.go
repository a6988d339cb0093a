package identity

import (
	"log/slog"
	"time"

	"github.com/jmcleod/ironsign/crypto"
)

// DefaultPasswordTTL is how long a vault password stays cached in memory.
const DefaultPasswordTTL = 30 * time.Minute

// Option configures a Manager.
type Option func(*Manager)

// WithPasswordTTL sets how long generated vault passwords are cached.
// Non-positive values keep the default.
func WithPasswordTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.passwordTTL = ttl
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithDeriveOptions passes options to every crypto.DeriveSigningKey call.
func WithDeriveOptions(opts ...crypto.DeriveOption) Option {
	return func(m *Manager) {
		m.deriveOpts = append(m.deriveOpts, opts...)
	}
}

// WithSignOptions passes options to every signing and verification call.
func WithSignOptions(opts ...crypto.SignOption) Option {
	return func(m *Manager) {
		m.signOpts = append(m.signOpts, opts...)
	}
}
