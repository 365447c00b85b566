// Package metrics 定义推荐引擎的 Prometheus 指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecommendationsTotal 按最终生效的策略计数：collaborative、hybrid、popularity
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_recommendations_total",
			Help: "Total number of recommendation requests by served strategy",
		},
		[]string{"strategy"},
	)

	DegradationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_degradations_total",
			Help: "Total number of strategy degradations",
		},
		[]string{"from", "to"},
	)

	TrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hybridrec_train_duration_seconds",
			Help:    "Duration of model training in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	TrainTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_train_total",
			Help: "Total number of training runs by result",
		},
		[]string{"result"}, // "ok", "empty", "error"
	)

	ModelProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hybridrec_model_products",
			Help: "Number of products in the active content index",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hybridrec_model_users",
			Help: "Number of users in the active user-product matrix",
		},
	)
)

// RecordRecommendation 记录一次推荐。
func RecordRecommendation(strategy string) {
	RecommendationsTotal.WithLabelValues(strategy).Inc()
}

// RecordDegradation 记录一次策略降级。
func RecordDegradation(from, to string) {
	DegradationsTotal.WithLabelValues(from, to).Inc()
}

// RecordTrain 记录一次训练。
func RecordTrain(result string, d time.Duration, products, users int) {
	TrainTotal.WithLabelValues(result).Inc()
	TrainDuration.Observe(d.Seconds())
	if result == "ok" {
		ModelProducts.Set(float64(products))
		ModelUsers.Set(float64(users))
	}
}

// Handler 返回 /metrics 的 HTTP handler。
func Handler() http.Handler {
	return promhttp.Handler()
}
