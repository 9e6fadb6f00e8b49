package api

import (
	"github.com/paritytech/subport/calls"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/onboarding"
)

// OnboardRequest names a para to onboard or plan.
type OnboardRequest struct {
	ParaID uint32 `json:"para_id"`

	// Manager is an SS58 address or 0x-prefixed 32-byte hex account id.
	Manager string `json:"manager"`

	// GenesisHead and ValidationCode are content references, tried in order
	// as mirrors. See package storage for the accepted forms.
	GenesisHead    []string `json:"genesis_head"`
	ValidationCode []string `json:"validation_code"`
}

// OnboardResponse reports the terminal state of a run.
type OnboardResponse struct {
	ParaID   uint32   `json:"para_id"`
	State    string   `json:"state"`
	Message  string   `json:"message"`
	ExitCode int      `json:"exit_code"`
	Receipt  *Receipt `json:"receipt,omitempty"`
}

// Receipt describes the finalized inclusion of the onboarding batch.
type Receipt struct {
	TxHash         string   `json:"tx_hash"`
	BlockHash      string   `json:"block_hash"`
	BlockNumber    uint64   `json:"block_number"`
	ExtrinsicIndex uint32   `json:"extrinsic_index"`
	Events         []string `json:"events"`
}

// PlanResponse lists what a run would submit.
type PlanResponse struct {
	ParaID           uint32             `json:"para_id"`
	AlreadyOnboarded bool               `json:"already_onboarded"`
	SlotKind         string             `json:"slot_kind,omitempty"`
	Lifecycle        string             `json:"lifecycle,omitempty"`
	Reserve          bool               `json:"reserve"`
	Sovereign        string             `json:"sovereign,omitempty"`
	Operations       []PlannedOperation `json:"operations,omitempty"`

	// Call is the wrapped batch rendered one call per line.
	Call string `json:"call,omitempty"`
}

// PlannedOperation is one leaf of the onboarding batch.
type PlannedOperation struct {
	Method string `json:"method"`
	Args   string `json:"args"`
}

// SovereignResponse is the relay-chain sovereign account of a para.
type SovereignResponse struct {
	ParaID    uint32 `json:"para_id"`
	Chain     string `json:"chain"`
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error    string `json:"error"`
	ExitCode int    `json:"exit_code,omitempty"`
}

// NewReceipt converts a chain receipt. Nil in, nil out.
func NewReceipt(r *interfaces.Receipt) *Receipt {
	if r == nil {
		return nil
	}
	out := &Receipt{
		TxHash:         r.TxHash,
		BlockHash:      r.BlockHash,
		BlockNumber:    r.BlockNumber,
		ExtrinsicIndex: r.ExtrinsicIndex,
		Events:         make([]string, 0, len(r.Events)),
	}
	for _, ev := range r.Events {
		out.Events = append(out.Events, ev.FullName())
	}
	return out
}

// NewOnboardResponse renders a run outcome.
func NewOnboardResponse(id interfaces.ParaID, result *onboarding.Result, err error) *OnboardResponse {
	msg, code := onboarding.Describe(result, err)
	resp := &OnboardResponse{
		ParaID:   uint32(id),
		State:    onboarding.StateOf(result, err).String(),
		Message:  msg,
		ExitCode: code,
	}
	if result != nil {
		resp.Receipt = NewReceipt(result.Receipt)
	}
	return resp
}

// NewPlanResponse renders a plan with accounts in chain's address format.
func NewPlanResponse(plan *onboarding.Plan, chain interfaces.Chain) (*PlanResponse, error) {
	resp := &PlanResponse{
		ParaID:           uint32(plan.ParaID),
		AlreadyOnboarded: plan.AlreadyOnboarded,
	}
	if plan.AlreadyOnboarded {
		return resp, nil
	}

	sovereign, err := cryptoutils.SS58Encode(plan.Sovereign, chain.SS58Format)
	if err != nil {
		return nil, err
	}

	resp.SlotKind = plan.SlotKind.String()
	resp.Lifecycle = plan.Lifecycle.String()
	resp.Reserve = plan.Reserve
	resp.Sovereign = sovereign
	for _, op := range plan.Operations {
		resp.Operations = append(resp.Operations, PlannedOperation{
			Method: op.Method(),
			Args:   calls.Describe(op, chain),
		})
	}
	if plan.Privileged != nil {
		resp.Call = calls.Render(plan.Privileged, chain)
	}
	return resp, nil
}
