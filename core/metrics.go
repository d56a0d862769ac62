package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "governor"

type metrics struct {
	proposalsRaised   prometheus.Counter
	deposits          prometheus.Counter
	withdrawals       prometheus.Counter
	votesCast         *prometheus.CounterVec
	resolutions       *prometheus.CounterVec
	executionFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		proposalsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_raised_total",
			Help:      "Number of proposals raised by the chair",
		}),
		deposits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deposits_total",
			Help:      "Number of successful stake deposits",
		}),
		withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "withdrawals_total",
			Help:      "Number of successful stake withdrawals",
		}),
		votesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "votes_cast_total",
			Help:      "Number of votes cast, by side",
		}, []string{"side"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resolutions_total",
			Help:      "Number of resolved proposals, by outcome",
		}, []string{"outcome"}),
		executionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "execution_failures_total",
			Help:      "Number of passed proposals whose downstream call failed",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.proposalsRaised,
			m.deposits,
			m.withdrawals,
			m.votesCast,
			m.resolutions,
			m.executionFailures,
		)
	}
	return m
}

func side(inFavor bool) string {
	if inFavor {
		return "for"
	}
	return "against"
}
