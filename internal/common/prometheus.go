package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	CampaignPlaysTotal         = "campaign_plays_total"
	CampaignClaimsTotal        = "campaign_claims_total"
	PlayDenialsTotal           = "play_denials_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "status_code"}),
		CampaignPlaysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CampaignPlaysTotal,
			Help: "Count of admitted plays",
		}, []string{"result"}),
		CampaignClaimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: CampaignClaimsTotal,
			Help: "Count of issued redemption claims",
		}, []string{}),
		PlayDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: PlayDenialsTotal,
			Help: "Count of plays denied by the eligibility engine",
		}, []string{"dimension"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "status_code"}),
	}
)

func RegisterMetrics(registry *prometheus.Registry) {
	for _, counter := range PromCounters {
		registry.MustRegister(counter)
	}

	for _, histogram := range PromHistograms {
		registry.MustRegister(histogram)
	}
}
