package restapi

import (
	"net/http"
	"time"

	"quietride.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	debug       http.Handler
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.Server.RateLimit, time.Second).
			TrustProxies(app.Config.Server.TrustedProxyPrefixes()),
	}
}

// Handler returns the routed API wrapped in the full middleware chain, outermost first:
// request logging, security headers, compression, rate limiting.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.Router()
	handler = api.rateLimiter.Handler(handler)
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	api.rateLimiter.Stop()
}
