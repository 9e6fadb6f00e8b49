/*
Package httpserver serves the onboarding workflow over HTTP.

The server wraps one onboarding.Orchestrator bound to a target relay chain
and a storage.Loader for payload references.

# Endpoints

  - POST /api/onboard - run the workflow (api.OnboardRequest -> api.OnboardResponse)
  - POST /api/plan - evaluate without submitting (api.OnboardRequest -> api.PlanResponse)
  - GET /api/sovereign/{para_id} - sovereign account (api.SovereignResponse)
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

Prometheus metrics are served on a separate listener at /metrics.

# Status Codes

A run that reached a terminal state always answers with an OnboardResponse.
Its status follows the exit code: 200 for success and already onboarded
paras, 422 for aborted runs and dispatch failures, 502 for query and
transport failures, 500 otherwise. Requests that never reached the workflow
(malformed body, bad manager, unreadable payload) answer with an
ErrorResponse; a second run while one is in flight answers 409.

# Usage

	handler := httpserver.NewHandler(orchestrator, loader, interfaces.Rococo, log)
	srv := httpserver.New(cfg, handler)
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package httpserver
