package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClaimAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offerhub_claim_allocations_total",
		Help: "Claim allocation attempts by result",
	}, []string{"result"})

	ClaimAllocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offerhub_claim_allocation_duration_seconds",
		Help:    "Duration of claim allocation attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offerhub_redemptions_total",
		Help: "Token redemption attempts by result",
	}, []string{"result"})

	RedemptionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offerhub_redemption_duration_seconds",
		Help:    "Duration of redemption attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offerhub_sweep_duration_seconds",
		Help:    "Duration of expiration sweep runs",
		Buckets: prometheus.DefBuckets,
	})

	SweepTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offerhub_sweep_transitions_total",
		Help: "Rows transitioned by the expiration sweep",
	}, []string{"kind"})

	ActiveOffers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "offerhub_active_offers",
		Help: "Current number of offers in active status",
	})
)

func ObserveAllocation(result string, duration time.Duration) {
	label := normalizeLabel(result)
	ClaimAllocations.WithLabelValues(label).Inc()
	ClaimAllocationDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func ObserveRedemption(result string, duration time.Duration) {
	label := normalizeLabel(result)
	Redemptions.WithLabelValues(label).Inc()
	RedemptionDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func ObserveSweep(duration time.Duration, offersActivated, offersExpired, claimsExpired int64) {
	SweepDuration.Observe(duration.Seconds())
	addSweepTransitions("offers_activated", offersActivated)
	addSweepTransitions("offers_expired", offersExpired)
	addSweepTransitions("claims_expired", claimsExpired)
}

func SetActiveOffers(count int64) {
	if count < 0 {
		count = 0
	}
	ActiveOffers.Set(float64(count))
}

func addSweepTransitions(kind string, count int64) {
	if count > 0 {
		SweepTransitions.WithLabelValues(kind).Add(float64(count))
	}
}

func normalizeLabel(result string) string {
	label := strings.TrimSpace(result)
	if label == "" {
		return "unknown"
	}
	return label
}
