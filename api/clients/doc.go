/*
Package clients provides a Go client for the onboarding service.

# Example Usage

	client := clients.NewOnboardingClient("http://127.0.0.1:8080", 10*time.Minute)

	plan, err := client.Plan(ctx, &api.OnboardRequest{
	    ParaID:         2000,
	    Manager:        "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
	    GenesisHead:    []string{"ipfs://bafy...", "https://mirror.example.com/head"},
	    ValidationCode: []string{"s3://paras/2000/code.wasm"},
	})

	result, err := client.Onboard(ctx, req)
	os.Exit(result.ExitCode)

Onboard returns the response together with a nil error for every run the
service evaluated, including aborted and failed ones; the outcome is in
State and ExitCode.
*/
package clients
