package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/paritytech/subport/api"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/onboarding"
)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Onboarder runs the onboarding workflow. Implemented by *onboarding.Orchestrator.
type Onboarder interface {
	Plan(ctx context.Context, req onboarding.Request) (*onboarding.Plan, error)
	Run(ctx context.Context, req onboarding.Request) (*onboarding.Result, error)
}

// PayloadLoader resolves content references. Implemented by *storage.Loader.
type PayloadLoader interface {
	Fetch(ctx context.Context, refs ...string) ([]byte, error)
}

// Handler serves the onboarding API for one target chain.
//
// Runs are serialized: the privileged signer has one nonce sequence, and two
// batches signed concurrently would collide. A run arriving while another is
// in flight is refused with 409 rather than queued behind a finality wait.
type Handler struct {
	onboarder Onboarder
	loader    PayloadLoader
	chain     interfaces.Chain
	runMu     sync.Mutex
	log       *slog.Logger

	maxBodySize int64
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
func NewHandler(onboarder Onboarder, loader PayloadLoader, chain interfaces.Chain, log *slog.Logger) *Handler {
	return &Handler{
		onboarder: onboarder,
		loader:    loader,
		chain:     chain,
		log:       log,

		maxBodySize: api.DefaultMaxBodySize,
	}
}

// HandleOnboard runs the workflow.
//
// URL format: POST /api/onboard
// Request body: api.OnboardRequest
// Response: api.OnboardResponse for every run that reached a terminal state,
// with a status derived from its exit code.
func (h *Handler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !h.runMu.TryLock() {
		h.writeError(w, &RequestError{StatusCode: http.StatusConflict, Err: errors.New("another onboarding run is in progress")})
		return
	}
	defer h.runMu.Unlock()

	request, err := h.loadRequest(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.onboarder.Run(r.Context(), request)
	resp := api.NewOnboardResponse(request.ParaID, result, err)
	if err != nil {
		h.log.Error("Onboarding failed", "err", err, "para_id", request.ParaID, "state", resp.State)
	}

	writeJSON(w, statusFor(resp.ExitCode), resp)
}

// HandlePlan evaluates the workflow without submitting.
//
// URL format: POST /api/plan
// Request body: api.OnboardRequest
// Response: api.PlanResponse
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	request, err := h.loadRequest(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	plan, err := h.onboarder.Plan(r.Context(), request)
	if err != nil {
		h.log.Error("Planning failed", "err", err, "para_id", request.ParaID)
		h.writeError(w, err)
		return
	}

	resp, err := api.NewPlanResponse(plan, h.chain)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSovereign derives the sovereign account of a para.
//
// URL format: GET /api/sovereign/{para_id}
// Response: api.SovereignResponse
func (h *Handler) HandleSovereign(w http.ResponseWriter, r *http.Request) {
	id, err := interfaces.ParseParaID(r.PathValue("para_id"))
	if err != nil {
		h.writeError(w, &RequestError{StatusCode: http.StatusBadRequest, Err: err})
		return
	}

	account, err := cryptoutils.SovereignAccount(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	address, err := cryptoutils.SS58Encode(account, h.chain.SS58Format)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &api.SovereignResponse{
		ParaID:    uint32(id),
		Chain:     h.chain.Name,
		AccountID: account.String(),
		Address:   address,
	})
}

func (h *Handler) decodeRequest(r *http.Request) (*api.OnboardRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodySize+1))
	if err != nil {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("failed to read request body: %w", err)}
	}
	if int64(len(body)) > h.maxBodySize {
		return nil, &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: errors.New("request body too large")}
	}

	var req api.OnboardRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid request: %w", err)}
	}
	if len(req.GenesisHead) == 0 || len(req.ValidationCode) == 0 {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("genesis_head and validation_code references are required")}
	}
	return &req, nil
}

// loadRequest resolves the manager and fetches both payloads.
func (h *Handler) loadRequest(ctx context.Context, req *api.OnboardRequest) (onboarding.Request, error) {
	manager, err := cryptoutils.ParseAccount(req.Manager)
	if err != nil {
		return onboarding.Request{}, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("manager: %w", err)}
	}

	genesis, err := h.loader.Fetch(ctx, req.GenesisHead...)
	if err != nil {
		return onboarding.Request{}, fmt.Errorf("genesis head: %w", err)
	}
	code, err := h.loader.Fetch(ctx, req.ValidationCode...)
	if err != nil {
		return onboarding.Request{}, fmt.Errorf("validation code: %w", err)
	}

	return onboarding.Request{
		ParaID:         interfaces.ParaID(req.ParaID),
		Manager:        manager,
		GenesisHead:    genesis,
		ValidationCode: code,
	}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		writeJSON(w, reqErr.StatusCode, &api.ErrorResponse{Error: err.Error()})
		return
	}

	switch {
	case errors.Is(err, interfaces.ErrInvalidLocationURI):
		writeJSON(w, http.StatusBadRequest, &api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, interfaces.ErrContentNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, &api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		writeJSON(w, http.StatusBadGateway, &api.ErrorResponse{Error: err.Error()})
	default:
		msg, code := onboarding.Describe(nil, err)
		writeJSON(w, statusFor(code), &api.ErrorResponse{Error: msg, ExitCode: code})
	}
}

// statusFor maps a run's exit code to an HTTP status.
func statusFor(exitCode int) int {
	switch exitCode {
	case onboarding.ExitOK:
		return http.StatusOK
	case onboarding.ExitAborted, onboarding.ExitDispatchFailed:
		return http.StatusUnprocessableEntity
	case onboarding.ExitQueryFailed, onboarding.ExitTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
