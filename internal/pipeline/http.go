package pipeline

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joestump/talent-portal/internal/metrics"
)

// ErrorRenderer writes the error page for a navigation the chain did not
// let through. The request context carries the bag as far as it was filled.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, status int, err error)

func plainError(w http.ResponseWriter, _ *http.Request, status int, _ error) {
	http.Error(w, http.StatusText(status), status)
}

// Middleware adapts the chain to net/http. Each request gets a fresh Bag;
// when every stage continues, next runs with the bag on its context.
// Otherwise:
//   - a Redirect becomes an HTTP redirect
//   - ErrUnauthorized renders 403
//   - a stage that stops without a signal renders 404
//   - any other error renders 500
func (c *Chain) Middleware(render ErrorRenderer) func(http.Handler) http.Handler {
	if render == nil {
		render = plainError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bag := NewBag()
			start := time.Now()
			completed, err := c.Run(r, bag)
			metrics.PipelineDuration.Observe(time.Since(start).Seconds())

			r = r.WithContext(WithBag(r.Context(), bag))
			if err == nil {
				if completed {
					next.ServeHTTP(w, r)
					return
				}
				render(w, r, http.StatusNotFound, nil)
				return
			}

			stage := "unknown"
			var se *StageError
			if errors.As(err, &se) {
				stage = se.Stage
			}

			if rd, ok := AsRedirect(err); ok {
				metrics.PipelineRedirectsTotal.WithLabelValues(stage).Inc()
				http.Redirect(w, r, rd.Location, rd.Status)
				return
			}
			if errors.Is(err, ErrUnauthorized) {
				metrics.PipelineUnauthorizedTotal.WithLabelValues(stage).Inc()
				render(w, r, http.StatusForbidden, err)
				return
			}

			zap.L().Error("pipeline stage failed",
				zap.String("stage", stage),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			render(w, r, http.StatusInternalServerError, err)
		})
	}
}
