package identity

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup results recorded on ironsign_vault_lookups_total.
const (
	LookupHit         = "hit"
	LookupNoPassword  = "no_password"
	LookupNotFound    = "not_found"
	LookupAuthFailed  = "auth_failed"
	LookupMismatch    = "mismatch"
	LookupUnavailable = "unavailable"
	LookupError       = "error"
)

// Metrics are the Prometheus collectors updated by a Manager. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Derivations   prometheus.Counter
	VaultLookups  *prometheus.CounterVec
	Signatures    prometheus.Counter
	DeriveSeconds prometheus.Histogram
}

// NewMetrics creates the identity collectors and registers them on reg (or
// the default registerer if nil). Collectors already registered under the
// same name are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Derivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironsign_derivations_total",
			Help: "Signing keys derived from credential and user identifiers.",
		}),
		VaultLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironsign_vault_lookups_total",
			Help: "Vault lookups performed by LoadOrRederive, by result.",
		}, []string{"result"}),
		Signatures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironsign_signatures_total",
			Help: "Messages signed.",
		}),
		DeriveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ironsign_derive_seconds",
			Help:    "Time spent deriving a signing key.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	var err error
	if m.Derivations, err = register(reg, m.Derivations); err != nil {
		return nil, err
	}
	if m.VaultLookups, err = register(reg, m.VaultLookups); err != nil {
		return nil, err
	}
	if m.Signatures, err = register(reg, m.Signatures); err != nil {
		return nil, err
	}
	if m.DeriveSeconds, err = register(reg, m.DeriveSeconds); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeDerive(d time.Duration) {
	if m == nil {
		return
	}
	m.Derivations.Inc()
	m.DeriveSeconds.Observe(d.Seconds())
}

func (m *Metrics) lookup(result string) {
	if m == nil {
		return
	}
	m.VaultLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) signed() {
	if m == nil {
		return
	}
	m.Signatures.Inc()
}
