package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/paritytech/subport/api"
	"github.com/paritytech/subport/interfaces"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printPlan(w io.Writer, plan *api.PlanResponse) {
	if plan.AlreadyOnboarded {
		fmt.Fprintf(w, "para %d already holds a slot, nothing to do\n", plan.ParaID)
		return
	}

	summary := newTable(w, fmt.Sprintf("para %d", plan.ParaID))
	summary.AppendRows([]table.Row{
		{"slot", plan.SlotKind},
		{"lifecycle", plan.Lifecycle},
		{"reserve id", yesNo(plan.Reserve)},
		{"sovereign", plan.Sovereign},
	})
	summary.Render()

	ops := newTable(w, "batch")
	ops.AppendHeader(table.Row{"#", "Call", "Arguments"})
	for i, op := range plan.Operations {
		ops.AppendRow(table.Row{i + 1, op.Method, op.Args})
	}
	ops.Render()

	if plan.Call != "" {
		fmt.Fprintln(w, "submitted as:")
		fmt.Fprintln(w, plan.Call)
	}
}

func printStatus(w io.Writer, id interfaces.ParaID, rows []statusRow) {
	tw := newTable(w, fmt.Sprintf("para %d", id))
	tw.AppendHeader(table.Row{"Chain", "Lease", "Lifecycle", "Registered"})
	for _, row := range rows {
		chain := row.Chain
		if row.Target {
			chain += " (target)"
		}
		tw.AppendRow(table.Row{chain, yesNo(row.Lease), row.Lifecycle, yesNo(row.Registered)})
	}
	tw.Render()
}

func printSovereign(w io.Writer, accounts []api.SovereignResponse) {
	if len(accounts) == 0 {
		return
	}
	tw := newTable(w, fmt.Sprintf("para %d sovereign account %s", accounts[0].ParaID, accounts[0].AccountID))
	tw.AppendHeader(table.Row{"Chain", "Address"})
	for _, a := range accounts {
		tw.AppendRow(table.Row{a.Chain, a.Address})
	}
	tw.Render()
}

func printReceipt(w io.Writer, receipt *api.Receipt) {
	if receipt == nil {
		return
	}
	fmt.Fprintf(w, "tx %s included in block #%d (%s) at index %d\n",
		receipt.TxHash, receipt.BlockNumber, receipt.BlockHash, receipt.ExtrinsicIndex)
	if len(receipt.Events) > 0 {
		fmt.Fprintf(w, "events: %s\n", strings.Join(receipt.Events, ", "))
	}
}
