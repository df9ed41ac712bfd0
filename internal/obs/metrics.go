// Package obs holds the Prometheus instruments of the service.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	AuthzAllowed    = "allowed"
	AuthzDenied     = "denied"
	AuthzUnknownOrg = "unknown_org"

	SessionResolved = "resolved"
	SessionMissing  = "missing"
	SessionExpired  = "expired"

	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Metrics counts authorization decisions, session resolutions, and logins.
// A nil *Metrics records nothing.
type Metrics struct {
	authzDecisions     *prometheus.CounterVec
	sessionResolutions *prometheus.CounterVec
	sessionsCreated    prometheus.Counter
	logins             *prometheus.CounterVec
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicex",
			Name:      "authz_decisions_total",
			Help:      "Authorization gate decisions by required scope and result.",
		}, []string{"scope", "result"}),
		sessionResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicex",
			Name:      "session_resolutions_total",
			Help:      "Session token resolutions by outcome.",
		}, []string{"outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "invoicex",
			Name:      "sessions_created_total",
			Help:      "Sessions issued.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicex",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.authzDecisions, m.sessionResolutions, m.sessionsCreated, m.logins} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) AuthzDecision(scope, result string) {
	if m == nil {
		return
	}
	m.authzDecisions.WithLabelValues(scope, result).Inc()
}

func (m *Metrics) SessionResolution(outcome string) {
	if m == nil {
		return
	}
	m.sessionResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}
