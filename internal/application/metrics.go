package application

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts store mutations by outcome. A nil *Metrics records nothing.
type Metrics struct {
	mutations *prometheus.CounterVec
	accounts  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "planctl",
				Subsystem: "store",
				Name:      "mutations_total",
				Help:      "Store mutations by operation and outcome (committed, rejected, failed)",
			},
			[]string{"op", "outcome"},
		),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "planctl",
			Subsystem: "store",
			Name:      "accounts",
			Help:      "Accounts in the state document",
		}),
	}
	for _, c := range []prometheus.Collector{m.mutations, m.accounts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) setAccounts(n int) {
	if m == nil {
		return
	}
	m.accounts.Set(float64(n))
}
