// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides the HTTP middleware shared by every route.

All middleware have the chi signature func(http.Handler) http.Handler and are
installed by the api router in this order:

	RequestID          X-Request-ID header, request and correlation ids in context
	chi RealIP         client address from X-Forwarded-For / X-Real-IP
	AccessLog          one zerolog line per completed request
	PrometheusMetrics  request count, duration and in-flight gauge
	Recoverer          panics become a JSON 500

PrometheusMetrics labels requests by chi route pattern ("/movies/{imdbID}/similar")
rather than raw path, so label cardinality stays bounded. It sits outside
Recoverer so a recovered panic is still counted as a 500.
*/
package middleware
