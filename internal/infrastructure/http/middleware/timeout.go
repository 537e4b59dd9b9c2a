package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/config"
)

// writeDeadlineSlack leaves room to write the response after the handler
// context expires.
const writeDeadlineSlack = 30 * time.Second

// ExtendedTimeout gives long-running endpoints such as batch submission
// cfg.BatchTimeout to finish. It bounds the request context and pushes the
// connection write deadline past the server's WriteTimeout.
func ExtendedTimeout(cfg config.HTTPSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.BatchTimeout)
			defer cancel()

			// Recorders used in tests do not support deadlines.
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(cfg.BatchTimeout + writeDeadlineSlack))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
