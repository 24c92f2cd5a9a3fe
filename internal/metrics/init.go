package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(Observer.prometheus.collectors()...)
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
