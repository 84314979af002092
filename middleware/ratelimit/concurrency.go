package ratelimit

import (
	"net/http"
	"time"

	"moderation-gateway/middleware/ratelimit/application"
	"moderation-gateway/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Registerer, se definido, recebe o gauge de requisições em voo e o
	// contador de rejeições.
	Registerer prometheus.Registerer
}

// ConcurrencyMiddleware limita requisições em voo. Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "concurrency",
		Name:      "rejected_total",
		Help:      "Requests rejected because no in-flight slot was free.",
	})
	if opts.Registerer != nil {
		opts.Registerer.MustRegister(
			rejected,
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "concurrency",
				Name:      "in_flight",
				Help:      "Requests currently holding an in-flight slot.",
			}, func() float64 { return float64(svc.InFlight()) }),
		)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				rejected.Inc()
				writeReject(w, opts.RejectStatus, http.StatusText(opts.RejectStatus))
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
