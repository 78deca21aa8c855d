// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api exposes the recommendation engine over HTTP using the chi router.

Endpoints:

	POST /recommend                 genre-filtered recommendations
	GET  /movies/{imdbID}/similar   precomputed nearest neighbors (?k=N)
	GET  /model                     active snapshot status
	POST /admin/reload              reload the newest artifact (throttled)
	GET  /health/live               liveness check
	GET  /health/ready              readiness check, 503 until a model is loaded
	GET  /metrics                   Prometheus exposition

Errors are always a JSON object {"error": "..."}. Client mistakes are 400s;
anything unexpected is a 500 with the fixed message "Internal server error"
and the detail goes to the log only.
*/
package api
