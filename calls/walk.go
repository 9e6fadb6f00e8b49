package calls

import (
	"fmt"
	"strings"

	"github.com/paritytech/subport/cryptoutils"
	"github.com/paritytech/subport/interfaces"
)

// Walk visits op and its nested operations depth-first, parents first.
// depth is 0 for op itself.
func Walk(op interfaces.Operation, fn func(op interfaces.Operation, depth int)) {
	walk(op, 0, fn)
}

func walk(op interfaces.Operation, depth int, fn func(interfaces.Operation, int)) {
	fn(op, depth)
	switch o := op.(type) {
	case interfaces.Schedule:
		walk(o.Call, depth+1, fn)
	case interfaces.Batch:
		for _, c := range o.Calls {
			walk(c, depth+1, fn)
		}
	case interfaces.Sudo:
		walk(o.Call, depth+1, fn)
	case interfaces.Proxy:
		walk(o.Call, depth+1, fn)
	}
}

// Count returns how many operations in the tree satisfy match.
func Count(op interfaces.Operation, match func(interfaces.Operation) bool) int {
	n := 0
	Walk(op, func(o interfaces.Operation, _ int) {
		if match(o) {
			n++
		}
	})
	return n
}

// Unwrap strips privileged wrappers and returns the innermost operation.
func Unwrap(op interfaces.Operation) interfaces.Operation {
	for {
		switch o := op.(type) {
		case interfaces.Sudo:
			op = o.Call
		case interfaces.Proxy:
			op = o.Call
		default:
			return op
		}
	}
}

// Describe renders the arguments of a single operation (not its children)
// with accounts in the given chain's address format.
func Describe(op interfaces.Operation, chain interfaces.Chain) string {
	addr := func(a interfaces.AccountID) string {
		s, err := cryptoutils.SS58Encode(a, chain.SS58Format)
		if err != nil {
			return a.String()
		}
		return s
	}

	switch o := op.(type) {
	case interfaces.ForceTransfer:
		return fmt.Sprintf("%s -> %s: %s", addr(o.Source), addr(o.Dest), o.Amount)
	case interfaces.ForceRegister:
		return fmt.Sprintf("para %d, manager %s, deposit %s, genesis %d bytes, code %d bytes",
			o.ParaID, addr(o.Manager), o.Deposit, len(o.GenesisHead), len(o.ValidationCode))
	case interfaces.ReserveParaID:
		return "as " + addr(o.Manager)
	case interfaces.AssignSlot:
		return fmt.Sprintf("para %d, %s slot", o.ParaID, o.Kind)
	case interfaces.RemoveLock:
		return fmt.Sprintf("para %d", o.ParaID)
	case interfaces.Schedule:
		return fmt.Sprintf("after %d blocks", o.After)
	case interfaces.Batch:
		return fmt.Sprintf("%d calls", len(o.Calls))
	case interfaces.Proxy:
		return "on behalf of " + addr(o.Real)
	case interfaces.Sudo:
		return "root"
	}
	return ""
}

// Render prints the whole tree, one operation per line, indented by depth.
func Render(op interfaces.Operation, chain interfaces.Chain) string {
	var sb strings.Builder
	Walk(op, func(o interfaces.Operation, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(o.Method())
		if d := Describe(o, chain); d != "" {
			sb.WriteString(" (" + d + ")")
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}
