package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/paritytech/subport/api"
	"github.com/paritytech/subport/config"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

// run executes the app and returns its output and the exit code it asked for.
func run(t *testing.T, args ...string) (string, int, error) {
	t.Helper()

	var out bytes.Buffer
	code := 0
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			code = exitErr.ExitCode()
		}
	}
	err := app.Run(append([]string{"subport"}, args...))
	return out.String(), code, err
}

func TestOverrideURIs(t *testing.T) {
	cfg := config.Default()
	overrideURIs(cfg, map[string]string{
		"rococo": "ws://10.0.0.1:9944",
		"kusama": "",
	})

	assert.Equal(t, "ws://10.0.0.1:9944", cfg.Target.URI)
	assert.Equal(t, "wss://rpc.polkadot.io:443", cfg.References[0].URI)
	assert.Equal(t, "wss://kusama-rpc.polkadot.io:443", cfg.References[1].URI)
}

func TestSovereign(t *testing.T) {
	out, code, err := run(t, "sovereign", "--para-id", "2000", "--json")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var accounts []api.SovereignResponse
	require.NoError(t, json.Unmarshal([]byte(out), &accounts))
	require.Len(t, accounts, 3)

	account, err := cryptoutils.SovereignAccount(2000)
	require.NoError(t, err)
	rococo, err := cryptoutils.SS58Encode(account, interfaces.Rococo.SS58Format)
	require.NoError(t, err)
	polkadot, err := cryptoutils.SS58Encode(account, interfaces.Polkadot.SS58Format)
	require.NoError(t, err)
	assert.Equal(t, "rococo", accounts[0].Chain)
	assert.Equal(t, rococo, accounts[0].Address)
	assert.Equal(t, "polkadot", accounts[1].Chain)
	assert.Equal(t, polkadot, accounts[1].Address)
	for _, a := range accounts {
		assert.Equal(t, account.String(), a.AccountID)
	}
}

func TestSovereignTable(t *testing.T) {
	out, _, err := run(t, "sovereign", "--para-id", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "kusama")
	assert.Contains(t, out, "para 2000 sovereign account")
}

func TestSovereignWithProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
target:
  name: westend
  uri: wss://westend-rpc.polkadot.io:443
  ss58_format: 42
references: []
`), 0o600))

	out, _, err := run(t, "sovereign", "--para-id", "1000", "--json", "--config", path)
	require.NoError(t, err)

	var accounts []api.SovereignResponse
	require.NoError(t, json.Unmarshal([]byte(out), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "westend", accounts[0].Chain)
}

func TestInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad para id", []string{"sovereign", "--para-id", "two"}, 2},
		{"bad faucet", []string{"sovereign", "--para-id", "2000", "--faucet", "nope"}, 1},
		{"missing profile", []string{"sovereign", "--para-id", "2000", "--config", "/nonexistent/profile.yml"}, 1},
		{"bad manager", []string{"request", "--para-id", "2000", "--manager", "0x12", "--genesis-head", "0x00", "--validation-code", "0x00"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRequest(t *testing.T) {
	var got api.OnboardRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/onboard", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.OnboardResponse{
			ParaID:   got.ParaID,
			State:    "success",
			Message:  "para 2000 onboarded",
			ExitCode: 0,
			Receipt: &api.Receipt{
				TxHash:      "0xaa",
				BlockHash:   "0xbb",
				BlockNumber: 12,
				Events:      []string{"Sudo.Sudid"},
			},
		})
	}))
	defer srv.Close()

	out, code, err := run(t, "request", "--service-url", srv.URL,
		"--para-id", "2000", "--manager", alice,
		"--genesis-head", "0x00", "--validation-code", "https://example.com/a.wasm", "--validation-code", "ipfs://bafy")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Equal(t, uint32(2000), got.ParaID)
	assert.Equal(t, []string{"https://example.com/a.wasm", "ipfs://bafy"}, got.ValidationCode)
	assert.Contains(t, out, "block #12")
	assert.Contains(t, out, "Sudo.Sudid")
	assert.Contains(t, out, "para 2000 onboarded")
}

func TestRequestKeepsServiceExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(api.OnboardResponse{
			ParaID:   2000,
			State:    "dispatch_failed",
			Message:  "onboarding dispatch failed: Registrar.ParaAlreadyExists",
			ExitCode: 3,
		})
	}))
	defer srv.Close()

	_, code, err := run(t, "request", "--service-url", srv.URL,
		"--para-id", "2000", "--manager", alice, "--genesis-head", "0x00", "--validation-code", "0x00")
	require.Error(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, err.Error(), "ParaAlreadyExists")
}

func TestPrintPlan(t *testing.T) {
	var out bytes.Buffer
	printPlan(&out, &api.PlanResponse{
		ParaID:    2000,
		SlotKind:  "temporary",
		Lifecycle: "unregistered",
		Sovereign: "5Ec4AhPZk8STuex8Wsi9TwDtJQxKqzPJRCH7348Xtcs9vZLJ",
		Operations: []api.PlannedOperation{
			{Method: "Balances.force_transfer", Args: "10000000000000 to manager"},
			{Method: "Registrar.force_register", Args: "para 2000"},
		},
		Call: "Sudo.sudo_as",
	})

	s := out.String()
	assert.Contains(t, s, "Registrar.force_register")
	assert.Contains(t, s, "temporary")
	assert.Contains(t, s, "submitted as:")

	out.Reset()
	printPlan(&out, &api.PlanResponse{ParaID: 2000, AlreadyOnboarded: true})
	assert.Contains(t, out.String(), "already holds a slot")
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, 2000, []statusRow{
		{Chain: "rococo", Target: true, Lifecycle: "unregistered"},
		{Chain: "polkadot", Lease: true, Lifecycle: "parachain", Registered: true},
	})
	assert.Contains(t, out.String(), "rococo (target)")
	assert.Contains(t, out.String(), "parachain")
}
