package ports

import (
	"net"
	"net/http"

	"github.com/Amund211/staticstr/internal/ratelimiting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RateLimiter, keyFunc func(*http.Request) string, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(keyFunc(r)) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

// IPKey keys requests by the address of the remote end of the connection
func IPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip: " + host
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}
