package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the workflow engine. Services
// hold a possibly-nil *Metrics and go through the nil-safe increment
// helpers, so unit tests don't need a registry.
type Metrics struct {
	CasesOpened        prometheus.Counter
	CasesRejected      prometheus.Counter
	CasesClosed        prometheus.Counter
	SuspectsIdentified prometheus.Counter
	SuspectsEscalated  prometheus.Counter
	SuspectsArrested   prometheus.Counter
	SubmissionsFiled   prometheus.Counter
	VerdictsIssued     *prometheus.CounterVec
	TipsRedeemed       prometheus.Counter
	BailPaid           prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CasesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_cases_opened_total",
			Help: "Total number of cases that reached the open status",
		}),
		CasesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_cases_rejected_total",
			Help: "Total number of cases terminally rejected at cadet review",
		}),
		CasesClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_cases_closed_total",
			Help: "Total number of cases closed after trial",
		}),
		SuspectsIdentified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_suspects_identified_total",
			Help: "Total number of suspects identified",
		}),
		SuspectsEscalated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_suspects_escalated_total",
			Help: "Total number of suspects escalated to intensive pursuit",
		}),
		SuspectsArrested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_suspects_arrested_total",
			Help: "Total number of suspects arrested",
		}),
		SubmissionsFiled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_submissions_filed_total",
			Help: "Total number of suspect submissions filed for sergeant review",
		}),
		VerdictsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "casefile_verdicts_total",
			Help: "Captain verdicts issued, by decision",
		}, []string{"decision"}),
		TipsRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_tips_redeemed_total",
			Help: "Total number of tip-off rewards redeemed",
		}),
		BailPaid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_bail_paid_total",
			Help: "Total number of bail payments verified as paid",
		}),
	}
}

func (m *Metrics) IncrementCasesOpened() {
	if m != nil {
		m.CasesOpened.Inc()
	}
}

func (m *Metrics) IncrementCasesRejected() {
	if m != nil {
		m.CasesRejected.Inc()
	}
}

func (m *Metrics) IncrementCasesClosed() {
	if m != nil {
		m.CasesClosed.Inc()
	}
}

func (m *Metrics) IncrementSuspectsIdentified() {
	if m != nil {
		m.SuspectsIdentified.Inc()
	}
}

func (m *Metrics) AddSuspectsEscalated(n int) {
	if m != nil && n > 0 {
		m.SuspectsEscalated.Add(float64(n))
	}
}

func (m *Metrics) IncrementSuspectsArrested() {
	if m != nil {
		m.SuspectsArrested.Inc()
	}
}

func (m *Metrics) IncrementSubmissionsFiled() {
	if m != nil {
		m.SubmissionsFiled.Inc()
	}
}

func (m *Metrics) IncrementVerdicts(decision string) {
	if m != nil {
		m.VerdictsIssued.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) IncrementTipsRedeemed() {
	if m != nil {
		m.TipsRedeemed.Inc()
	}
}

func (m *Metrics) IncrementBailPaid() {
	if m != nil {
		m.BailPaid.Inc()
	}
}
