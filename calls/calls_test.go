package calls

import (
	"math/big"
	"strings"
	"testing"

	"github.com/paritytech/subport/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	manager   = interfaces.AccountID{1}
	faucet    = interfaces.AccountID{2}
	authority = interfaces.AccountID{3}
	delegate  = interfaces.AccountID{4}
)

func TestParsePayload(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    []byte
		invalid bool
	}{
		{name: "hex", input: "0xdeadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "hex with trailing newline", input: "0x0102\n", want: []byte{1, 2}},
		{name: "upper case prefix", input: "0X0a", want: []byte{0x0a}},
		{name: "empty hex", input: "0x", want: []byte{}},
		{name: "odd length", input: "0xabc", invalid: true},
		{name: "bad digit", input: "0xzz", invalid: true},
		{name: "raw binary", input: "\x00asm\x01\x00\x00\x00", want: []byte("\x00asm\x01\x00\x00\x00")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePayload([]byte(tc.input))
			if tc.invalid {
				assert.ErrorIs(t, err, interfaces.ErrInvalidHex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tc.want), len(got))
			if len(tc.want) > 0 {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestRegisterParachainCopiesPayloads(t *testing.T) {
	genesis := []byte{1, 2, 3}
	code := []byte{4, 5, 6}
	deposit := big.NewInt(10_000)

	op := RegisterParachain(manager, deposit, 2000, genesis, code)

	genesis[0] = 0xff
	code[0] = 0xff
	deposit.SetInt64(1)

	assert.Equal(t, []byte{1, 2, 3}, op.GenesisHead)
	assert.Equal(t, []byte{4, 5, 6}, op.ValidationCode)
	assert.Equal(t, int64(10_000), op.Deposit.Int64())
	assert.Equal(t, interfaces.ParaID(2000), op.ParaID)
	assert.Equal(t, "Registrar.force_register", op.Method())
}

func TestScheduleDelays(t *testing.T) {
	assign := ScheduleSlotAssignment(2000, interfaces.TemporarySlot)
	removeLock := ScheduleRemoveLock(2000)

	assert.Equal(t, uint32(1205), assign.After)
	assert.Equal(t, uint32(2410), removeLock.After)
	assert.Equal(t, 2*assign.After, removeLock.After)

	assert.Equal(t, interfaces.AssignSlot{ParaID: 2000, Kind: interfaces.TemporarySlot}, assign.Call)
	assert.Equal(t, "AssignedSlots.assign_temp_parachain_slot", assign.Call.Method())
	assert.Equal(t, interfaces.RemoveLock{ParaID: 2000}, removeLock.Call)

	perm := ScheduleSlotAssignment(2000, interfaces.PermanentSlot)
	assert.Equal(t, "AssignedSlots.assign_perm_parachain_slot", perm.Call.Method())
}

func TestBatchPreservesOrderAndOwnsSlice(t *testing.T) {
	ops := []interfaces.Operation{
		ForceTransfer(faucet, manager, big.NewInt(1)),
		ScheduleRemoveLock(2000),
	}
	batch := Batch(ops...)
	ops[0] = ScheduleRemoveLock(1)

	require.Len(t, batch.Calls, 2)
	assert.IsType(t, interfaces.ForceTransfer{}, batch.Calls[0])
	assert.Equal(t, interfaces.ParaID(2000), batch.Calls[1].(interfaces.Schedule).Call.(interfaces.RemoveLock).ParaID)
}

func TestWrapPrivileged(t *testing.T) {
	inner := Batch(ScheduleRemoveLock(2000))

	direct := WrapPrivileged(inner, authority, authority)
	sudo, ok := direct.(interfaces.Sudo)
	require.True(t, ok)
	assert.Equal(t, inner, sudo.Call)

	proxied := WrapPrivileged(inner, delegate, authority)
	proxy, ok := proxied.(interfaces.Proxy)
	require.True(t, ok)
	assert.Equal(t, authority, proxy.Real)
	assert.Equal(t, interfaces.Sudo{Call: inner}, proxy.Call)

	assert.Equal(t, inner, Unwrap(proxied))
	assert.Equal(t, inner, Unwrap(direct))
}

func TestRenderAndCount(t *testing.T) {
	op := WrapPrivileged(Batch(
		ForceTransfer(faucet, manager, big.NewInt(10)),
		RegisterParachain(manager, big.NewInt(1), 2000, []byte{1}, []byte{2, 3}),
		ScheduleSlotAssignment(2000, interfaces.TemporarySlot),
	), delegate, authority)

	out := Render(op, interfaces.Rococo)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "Proxy.proxy (on behalf of "))
	assert.Equal(t, "  Sudo.sudo (root)", lines[1])
	assert.Equal(t, "    Utility.batch_all (3 calls)", lines[2])
	assert.Contains(t, lines[4], "genesis 1 bytes, code 2 bytes")
	assert.Equal(t, "      Scheduler.schedule_after (after 1205 blocks)", lines[5])
	assert.Equal(t, "        AssignedSlots.assign_temp_parachain_slot (para 2000, temporary slot)", lines[6])

	schedules := Count(op, func(o interfaces.Operation) bool {
		_, ok := o.(interfaces.Schedule)
		return ok
	})
	assert.Equal(t, 1, schedules)
}
