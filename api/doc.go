/*
Package api defines the JSON wire types of the onboarding service and the
configuration of its HTTP server.

The service exposes the onboarding workflow of one target relay chain:

  - POST /api/onboard - run the workflow for a para (OnboardRequest -> OnboardResponse)
  - POST /api/plan - evaluate the workflow without submitting (OnboardRequest -> PlanResponse)
  - GET /api/sovereign/{para_id} - sovereign account of a para (SovereignResponse)

Errors are reported as ErrorResponse with the same exit codes the command line
tool uses, so scripts can treat both interfaces alike.

See subpackage clients for a Go client.
*/
package api
