package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/telemetry/metrics"
	"github.com/2beens/gymrpg/pkg"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500, reported to sentry when it is set up.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				ownerKey, _ := auth.OwnerKey(req.Context())
				log.WithFields(log.Fields{
					"path":  req.URL.Path,
					"owner": ownerKey,
				}).Errorf("http: panic: %v\n%s", r, debug.Stack())

				sentry.CurrentHub().Recover(r)
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteJSONError(w, "internal error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, req)
		})
	}
}
