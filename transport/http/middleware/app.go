package middleware

import (
	"fmt"
	"net/http"

	"bistro/config"
	"bistro/infras/otel"
	"bistro/shared/cache"
	"bistro/shared/constant"
	"bistro/shared/failure"
	"bistro/transport/http/response"
)

const (
	otelHTTPScopeName = "http"
)

type AppMiddleware interface {
	Tracing(next http.Handler) http.Handler
	APIKey(next http.Handler) http.Handler
	RateLimit() func(http.Handler) http.Handler
}

type appMiddleware struct {
	otel   otel.Otel
	config *config.Config
	cache  cache.RedisCache
}

func NewAppMiddleware(otel otel.Otel, config *config.Config, cache cache.RedisCache) AppMiddleware {
	return &appMiddleware{
		otel:   otel,
		config: config,
		cache:  cache,
	}
}

func (a *appMiddleware) Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spanName := fmt.Sprintf("%s %s", r.Method, r.URL.Path)

		ctx, scope := a.otel.NewScope(r.Context(), otelHTTPScopeName, spanName)
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"app.name":        a.config.App.Name,
			"http.path":       r.URL.Path,
			"http.method":     r.Method,
			"http.user_agent": r.Header.Get(constant.RequestHeaderUserAgent),
			"http.host":       r.Host,
			"http.source":     a.getClientIP(r),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// APIKey gates every request behind the configured key. A missing
// configuration disables the check.
func (a *appMiddleware) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.config.App.APIKey == constant.Empty {
			next.ServeHTTP(w, r)

			return
		}

		if r.Header.Get(constant.RequestHeaderAPIKey) != a.config.App.APIKey {
			response.WithError(w, failure.Unauthorized("invalid api key"))

			return
		}

		next.ServeHTTP(w, r)
	})
}
