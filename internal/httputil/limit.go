// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"

	"golang.org/x/time/rate"
)

// LimitedTransport is an http.RoundTripper that waits on a token bucket
// before each request. Wait honors the request context.
type LimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewLimitedTransport wraps base with a limiter allowing perSecond requests
// per second and a burst of one. A non-positive perSecond disables limiting.
func NewLimitedTransport(base http.RoundTripper, perSecond float64) *LimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if perSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &LimitedTransport{Base: base, Limiter: lim}
}

// RoundTrip implements http.RoundTripper.
func (t *LimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.Base.RoundTrip(req)
}
