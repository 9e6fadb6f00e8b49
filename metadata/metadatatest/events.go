package metadatatest

import "github.com/paritytech/subport/scale"

// EventRecord is one System.Events entry for the synthetic relay runtime.
// Data is the SCALE encoding of the event fields.
type EventRecord struct {
	Extrinsic uint32
	Pallet    uint8
	Event     uint8
	Data      []byte
}

// EncodeEvents encodes records as the System.Events storage value.
func EncodeEvents(records ...EventRecord) []byte {
	e := scale.NewEncoder().Compact(uint64(len(records)))
	for _, r := range records {
		e.U8(0).U32(r.Extrinsic) // Phase::ApplyExtrinsic
		e.U8(r.Pallet).U8(r.Event).Raw(r.Data)
		e.Compact(0) // topics
	}
	return e.Bytes()
}

// DispatchInfo is an encoded zero-weight DispatchInfo.
func DispatchInfo() []byte {
	return []byte{0, 0, 0, 0}
}

// ResultOk encodes Ok(()).
func ResultOk() []byte {
	return []byte{0}
}

// ResultModuleErr encodes Err(DispatchError::Module{index, error}).
func ResultModuleErr(pallet, errIndex uint8) []byte {
	return append([]byte{1}, ModuleErr(pallet, errIndex)...)
}

// ModuleErr encodes DispatchError::Module{index, error}.
func ModuleErr(pallet, errIndex uint8) []byte {
	return []byte{3, pallet, errIndex, 0, 0, 0}
}

// ExtrinsicSuccess is the System.ExtrinsicSuccess record for an extrinsic.
func ExtrinsicSuccess(extrinsic uint32) EventRecord {
	return EventRecord{Extrinsic: extrinsic, Pallet: SystemIndex, Event: 0, Data: DispatchInfo()}
}

// ExtrinsicFailed is the System.ExtrinsicFailed record carrying a module error.
func ExtrinsicFailed(extrinsic uint32, pallet, errIndex uint8) EventRecord {
	data := append(ModuleErr(pallet, errIndex), DispatchInfo()...)
	return EventRecord{Extrinsic: extrinsic, Pallet: SystemIndex, Event: 1, Data: data}
}

// Sudid is the Sudo.Sudid record with the given encoded result.
func Sudid(extrinsic uint32, result []byte) EventRecord {
	return EventRecord{Extrinsic: extrinsic, Pallet: SudoIndex, Event: 0, Data: result}
}

// ProxyExecuted is the Proxy.ProxyExecuted record with the given encoded result.
func ProxyExecuted(extrinsic uint32, result []byte) EventRecord {
	return EventRecord{Extrinsic: extrinsic, Pallet: ProxyIndex, Event: 0, Data: result}
}
