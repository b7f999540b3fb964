package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 引擎计数器。registry 为 nil 时所有方法都是空操作
type Metrics struct {
	reportsCreated prometheus.Counter
	verifications  prometheus.Counter
	comments       prometheus.Counter
	rejections     *prometheus.CounterVec
	conflicts      prometheus.Counter
	cacheHits      *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	if registry == nil {
		return m
	}
	factory := promauto.With(registry)

	m.reportsCreated = factory.NewCounter(prometheus.CounterOpts{
		Name: "suarawarga_reports_created_total",
		Help: "Total number of reports submitted",
	})
	m.verifications = factory.NewCounter(prometheus.CounterOpts{
		Name: "suarawarga_verifications_total",
		Help: "Total number of accepted verifications",
	})
	m.comments = factory.NewCounter(prometheus.CounterOpts{
		Name: "suarawarga_comments_total",
		Help: "Total number of comments added",
	})
	m.rejections = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "suarawarga_rejections_total",
		Help: "Rejected mutations by rule",
	}, []string{"reason"})
	m.conflicts = factory.NewCounter(prometheus.CounterOpts{
		Name: "suarawarga_conflicts_total",
		Help: "Mutations that gave up on a busy report",
	})
	m.cacheHits = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "suarawarga_aggregation_cache_total",
		Help: "Aggregation cache lookups by result",
	}, []string{"result"})
	return m
}

func (m *Metrics) incReport() {
	if m.reportsCreated != nil {
		m.reportsCreated.Inc()
	}
}

func (m *Metrics) incVerification() {
	if m.verifications != nil {
		m.verifications.Inc()
	}
}

func (m *Metrics) incComment() {
	if m.comments != nil {
		m.comments.Inc()
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m.cacheHits == nil {
		return
	}
	if hit {
		m.cacheHits.WithLabelValues("hit").Inc()
	} else {
		m.cacheHits.WithLabelValues("miss").Inc()
	}
}

// reject counts err under the rule it violated.
func (m *Metrics) reject(err error) {
	if m.rejections == nil || err == nil {
		return
	}
	if errors.Is(err, ErrConflict) {
		m.conflicts.Inc()
		return
	}
	m.rejections.WithLabelValues(rejectReason(err)).Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSelfVerification):
		return "self_verification"
	case errors.Is(err, ErrDuplicateVerification):
		return "duplicate_verification"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "other"
	}
}
