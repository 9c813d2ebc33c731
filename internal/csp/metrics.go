package csp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "easycsp",
		Name:      "pages_total",
		Help:      "HTML documents seen by the CSP pipeline, by outcome.",
	}, []string{"outcome"})

	noncesInjected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "easycsp",
		Name:      "nonces_injected_total",
		Help:      "Script and style tags that received a nonce attribute.",
	})
)

func observe(res Result) {
	pagesTotal.WithLabelValues(string(res.Outcome)).Inc()
	if res.Injected > 0 {
		noncesInjected.Add(float64(res.Injected))
	}
}
