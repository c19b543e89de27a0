package translate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var translationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "listingbridge_translations_total",
	Help: "Translations by outcome method and fallback reason.",
}, []string{"method", "reason"})

func observe(res Result) {
	translationsTotal.WithLabelValues(string(res.Method), string(res.FallbackReason)).Inc()
}
