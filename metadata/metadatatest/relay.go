package metadatatest

import (
	md "github.com/paritytech/subport/metadata"
)

// Pallet indices of the synthetic relay runtime.
const (
	SystemIndex        uint8 = 0
	SchedulerIndex     uint8 = 1
	BalancesIndex      uint8 = 4
	UtilityIndex       uint8 = 24
	ProxyIndex         uint8 = 30
	ParasIndex         uint8 = 56
	RegistrarIndex     uint8 = 70
	SlotsIndex         uint8 = 71
	AssignedSlotsIndex uint8 = 251
	SudoIndex          uint8 = 255
)

// Relay holds the synthetic relay runtime metadata and the ids of the types
// tests need to encode values against.
type Relay struct {
	Raw      []byte
	Metadata *md.Metadata

	EventRecords  md.TypeID
	DispatchError md.TypeID
}

func field(name string, ty md.TypeID) md.Field {
	return md.Field{Name: name, Type: ty}
}

func ptr(id md.TypeID) *md.TypeID {
	return &id
}

// RelayRuntime builds metadata shaped like a Rococo relay runtime, restricted
// to the pallets used for parachain onboarding. withMetadataHash adds the
// CheckMetadataHash transaction extension.
func RelayRuntime(withMetadataHash bool) *Relay {
	b := NewBuilder()

	u8 := b.Primitive(md.PrimU8)
	u32 := b.Primitive(md.PrimU32)
	u64 := b.Primitive(md.PrimU64)
	u128 := b.Primitive(md.PrimU128)
	boolean := b.Primitive(md.PrimBool)
	unit := b.Tuple()

	bytes32 := b.Array(32, u8)
	bytes4 := b.Array(4, u8)
	bytesVec := b.Sequence(u8)
	accountID := b.Composite([]string{"sp_core", "crypto", "AccountId32"}, field("", bytes32))
	h256 := b.Composite([]string{"primitive_types", "H256"}, field("", bytes32))
	paraID := b.Composite([]string{"polkadot_parachain_primitives", "primitives", "Id"}, field("", u32))
	headData := b.Composite([]string{"HeadData"}, field("", bytesVec))
	validationCode := b.Composite([]string{"ValidationCode"}, field("", bytesVec))
	compactU32 := b.Compact(u32)
	compactU64 := b.Compact(u64)
	compactU128 := b.Compact(u128)

	multiAddress := b.Enum([]string{"sp_runtime", "multiaddress", "MultiAddress"},
		md.Variant{Name: "Id", Index: 0, Fields: []md.Field{field("", accountID)}},
		md.Variant{Name: "Raw", Index: 2, Fields: []md.Field{field("", bytesVec)}},
		md.Variant{Name: "Address32", Index: 3, Fields: []md.Field{field("", bytes32)}},
	)

	// dispatch errors
	moduleError := b.Composite([]string{"sp_runtime", "ModuleError"}, field("index", u8), field("error", bytes4))
	tokenError := b.Enum([]string{"sp_runtime", "TokenError"},
		md.Variant{Name: "FundsUnavailable", Index: 0},
		md.Variant{Name: "OnlyProvider", Index: 1},
		md.Variant{Name: "BelowMinimum", Index: 2},
	)
	dispatchError := b.Enum([]string{"sp_runtime", "DispatchError"},
		md.Variant{Name: "Other", Index: 0},
		md.Variant{Name: "CannotLookup", Index: 1},
		md.Variant{Name: "BadOrigin", Index: 2},
		md.Variant{Name: "Module", Index: 3, Fields: []md.Field{field("", moduleError)}},
		md.Variant{Name: "Token", Index: 7, Fields: []md.Field{field("", tokenError)}},
	)
	dispatchResult := b.Enum([]string{"Result"},
		md.Variant{Name: "Ok", Index: 0, Fields: []md.Field{field("", unit)}},
		md.Variant{Name: "Err", Index: 1, Fields: []md.Field{field("", dispatchError)}},
	)
	weight := b.Composite([]string{"sp_weights", "Weight"}, field("ref_time", compactU64), field("proof_size", compactU64))
	dispatchClass := b.Enum([]string{"DispatchClass"},
		md.Variant{Name: "Normal", Index: 0},
		md.Variant{Name: "Operational", Index: 1},
		md.Variant{Name: "Mandatory", Index: 2},
	)
	pays := b.Enum([]string{"Pays"}, md.Variant{Name: "Yes", Index: 0}, md.Variant{Name: "No", Index: 1})
	dispatchInfo := b.Composite([]string{"DispatchInfo"}, field("weight", weight), field("class", dispatchClass), field("pays_fee", pays))

	// calls
	runtimeCall := b.Reserve()
	callVec := b.Sequence(runtimeCall)
	periodic := b.Option(b.Tuple(u32, u32))
	proxyType := b.Enum([]string{"ProxyType"}, md.Variant{Name: "Any", Index: 0}, md.Variant{Name: "NonTransfer", Index: 1})
	leaseStart := b.Enum([]string{"SlotLeasePeriodStart"}, md.Variant{Name: "Current", Index: 0}, md.Variant{Name: "Next", Index: 1})
	rawOrigin := b.Enum([]string{"frame_support", "dispatch", "RawOrigin"},
		md.Variant{Name: "Root", Index: 0},
		md.Variant{Name: "Signed", Index: 1, Fields: []md.Field{field("", accountID)}},
		md.Variant{Name: "None", Index: 2},
	)
	originCaller := b.Enum([]string{"OriginCaller"},
		md.Variant{Name: "system", Index: 0, Fields: []md.Field{field("", rawOrigin)}},
		md.Variant{Name: "Void", Index: 3},
	)

	balancesCall := b.Enum([]string{"pallet_balances", "Call"},
		md.Variant{Name: "transfer_allow_death", Index: 0, Fields: []md.Field{field("dest", multiAddress), field("value", compactU128)}},
		md.Variant{Name: "force_transfer", Index: 2, Fields: []md.Field{field("source", multiAddress), field("dest", multiAddress), field("value", compactU128)}},
	)
	utilityCall := b.Enum([]string{"pallet_utility", "Call"},
		md.Variant{Name: "batch", Index: 0, Fields: []md.Field{field("calls", callVec)}},
		md.Variant{Name: "batch_all", Index: 2, Fields: []md.Field{field("calls", callVec)}},
		md.Variant{Name: "dispatch_as", Index: 3, Fields: []md.Field{field("as_origin", originCaller), field("call", runtimeCall)}},
	)
	sudoCall := b.Enum([]string{"pallet_sudo", "Call"},
		md.Variant{Name: "sudo", Index: 0, Fields: []md.Field{field("call", runtimeCall)}},
		md.Variant{Name: "sudo_as", Index: 3, Fields: []md.Field{field("who", multiAddress), field("call", runtimeCall)}},
	)
	proxyCall := b.Enum([]string{"pallet_proxy", "Call"},
		md.Variant{Name: "proxy", Index: 0, Fields: []md.Field{field("real", multiAddress), field("force_proxy_type", b.Option(proxyType)), field("call", runtimeCall)}},
	)
	schedulerCall := b.Enum([]string{"pallet_scheduler", "Call"},
		md.Variant{Name: "schedule_after", Index: 4, Fields: []md.Field{field("after", u32), field("maybe_periodic", periodic), field("priority", u8), field("call", runtimeCall)}},
	)
	registrarCall := b.Enum([]string{"paras_registrar", "Call"},
		md.Variant{Name: "force_register", Index: 1, Fields: []md.Field{
			field("who", accountID), field("deposit", u128), field("id", paraID),
			field("genesis_head", headData), field("validation_code", validationCode),
		}},
		md.Variant{Name: "reserve", Index: 5},
		md.Variant{Name: "remove_lock", Index: 6, Fields: []md.Field{field("para", paraID)}},
	)
	assignedSlotsCall := b.Enum([]string{"assigned_slots", "Call"},
		md.Variant{Name: "assign_perm_parachain_slot", Index: 0, Fields: []md.Field{field("id", paraID)}},
		md.Variant{Name: "assign_temp_parachain_slot", Index: 1, Fields: []md.Field{field("id", paraID), field("lease_period_start", leaseStart)}},
	)
	b.Define(runtimeCall, md.Type{Kind: md.KindVariant, Path: []string{"RuntimeCall"}, Variants: []md.Variant{
		{Name: "Scheduler", Index: SchedulerIndex, Fields: []md.Field{field("", schedulerCall)}},
		{Name: "Balances", Index: BalancesIndex, Fields: []md.Field{field("", balancesCall)}},
		{Name: "Utility", Index: UtilityIndex, Fields: []md.Field{field("", utilityCall)}},
		{Name: "Proxy", Index: ProxyIndex, Fields: []md.Field{field("", proxyCall)}},
		{Name: "Registrar", Index: RegistrarIndex, Fields: []md.Field{field("", registrarCall)}},
		{Name: "AssignedSlots", Index: AssignedSlotsIndex, Fields: []md.Field{field("", assignedSlotsCall)}},
		{Name: "Sudo", Index: SudoIndex, Fields: []md.Field{field("", sudoCall)}},
	}})

	// events
	systemEvent := b.Enum([]string{"frame_system", "Event"},
		md.Variant{Name: "ExtrinsicSuccess", Index: 0, Fields: []md.Field{field("dispatch_info", dispatchInfo)}},
		md.Variant{Name: "ExtrinsicFailed", Index: 1, Fields: []md.Field{field("dispatch_error", dispatchError), field("dispatch_info", dispatchInfo)}},
	)
	balancesEvent := b.Enum([]string{"pallet_balances", "Event"},
		md.Variant{Name: "Transfer", Index: 2, Fields: []md.Field{field("from", accountID), field("to", accountID), field("amount", u128)}},
	)
	utilityEvent := b.Enum([]string{"pallet_utility", "Event"},
		md.Variant{Name: "BatchInterrupted", Index: 0, Fields: []md.Field{field("index", u32), field("error", dispatchError)}},
		md.Variant{Name: "BatchCompleted", Index: 1},
		md.Variant{Name: "DispatchedAs", Index: 5, Fields: []md.Field{field("result", dispatchResult)}},
	)
	sudoEvent := b.Enum([]string{"pallet_sudo", "Event"},
		md.Variant{Name: "Sudid", Index: 0, Fields: []md.Field{field("sudo_result", dispatchResult)}},
	)
	proxyEvent := b.Enum([]string{"pallet_proxy", "Event"},
		md.Variant{Name: "ProxyExecuted", Index: 0, Fields: []md.Field{field("result", dispatchResult)}},
	)
	schedulerEvent := b.Enum([]string{"pallet_scheduler", "Event"},
		md.Variant{Name: "Scheduled", Index: 0, Fields: []md.Field{field("when", u32), field("index", u32)}},
	)
	registrarEvent := b.Enum([]string{"paras_registrar", "Event"},
		md.Variant{Name: "Registered", Index: 0, Fields: []md.Field{field("para_id", paraID), field("manager", accountID)}},
		md.Variant{Name: "Reserved", Index: 2, Fields: []md.Field{field("para_id", paraID), field("who", accountID)}},
	)
	runtimeEvent := b.Enum([]string{"RuntimeEvent"},
		md.Variant{Name: "System", Index: SystemIndex, Fields: []md.Field{field("", systemEvent)}},
		md.Variant{Name: "Scheduler", Index: SchedulerIndex, Fields: []md.Field{field("", schedulerEvent)}},
		md.Variant{Name: "Balances", Index: BalancesIndex, Fields: []md.Field{field("", balancesEvent)}},
		md.Variant{Name: "Utility", Index: UtilityIndex, Fields: []md.Field{field("", utilityEvent)}},
		md.Variant{Name: "Proxy", Index: ProxyIndex, Fields: []md.Field{field("", proxyEvent)}},
		md.Variant{Name: "Registrar", Index: RegistrarIndex, Fields: []md.Field{field("", registrarEvent)}},
		md.Variant{Name: "Sudo", Index: SudoIndex, Fields: []md.Field{field("", sudoEvent)}},
	)
	phase := b.Enum([]string{"frame_system", "Phase"},
		md.Variant{Name: "ApplyExtrinsic", Index: 0, Fields: []md.Field{field("", u32)}},
		md.Variant{Name: "Finalization", Index: 1},
		md.Variant{Name: "Initialization", Index: 2},
	)
	eventRecord := b.Composite([]string{"frame_system", "EventRecord"},
		field("phase", phase), field("event", runtimeEvent), field("topics", b.Sequence(h256)))
	eventRecords := b.Sequence(eventRecord)

	registrarError := b.Enum([]string{"paras_registrar", "Error"},
		md.Variant{Name: "NotRegistered", Index: 0},
		md.Variant{Name: "AlreadyRegistered", Index: 1},
		md.Variant{Name: "NotOwner", Index: 2},
		md.Variant{Name: "ParaLocked", Index: 10},
		md.Variant{Name: "NotReserved", Index: 11},
	)
	sudoError := b.Enum([]string{"pallet_sudo", "Error"}, md.Variant{Name: "RequireSudo", Index: 0})

	// storage values
	leaseEntry := b.Option(b.Tuple(accountID, u128))
	leases := b.Sequence(leaseEntry)
	lifecycle := b.Enum([]string{"ParaLifecycle"},
		md.Variant{Name: "Onboarding", Index: 0},
		md.Variant{Name: "Parathread", Index: 1},
		md.Variant{Name: "Parachain", Index: 2},
		md.Variant{Name: "UpgradingParathread", Index: 3},
		md.Variant{Name: "DowngradingParachain", Index: 4},
		md.Variant{Name: "OffboardingParathread", Index: 5},
		md.Variant{Name: "OffboardingParachain", Index: 6},
	)
	paraInfo := b.Composite([]string{"ParaInfo"}, field("manager", accountID), field("deposit", u128), field("locked", b.Option(boolean)))

	// transaction extensions
	era := b.Enum([]string{"Era"}, md.Variant{Name: "Immortal", Index: 0})
	mode := b.Enum([]string{"Mode"}, md.Variant{Name: "Disabled", Index: 0}, md.Variant{Name: "Enabled", Index: 1})
	b.SignedExtension("CheckNonZeroSender", unit, unit)
	b.SignedExtension("CheckSpecVersion", unit, u32)
	b.SignedExtension("CheckTxVersion", unit, u32)
	b.SignedExtension("CheckGenesis", unit, h256)
	b.SignedExtension("CheckMortality", era, h256)
	b.SignedExtension("CheckNonce", compactU32, unit)
	b.SignedExtension("CheckWeight", unit, unit)
	b.SignedExtension("ChargeTransactionPayment", compactU128, unit)
	if withMetadataHash {
		b.SignedExtension("CheckMetadataHash", mode, b.Option(bytes32))
	}

	twox64 := []md.Hasher{md.Twox64Concat}
	b.Pallet(md.Pallet{Name: "System", Index: SystemIndex, StoragePrefix: "System",
		Storage: []md.StorageEntry{{Name: "Events", Plain: true, Value: eventRecords}},
		Events:  ptr(systemEvent),
	})
	b.Pallet(md.Pallet{Name: "Scheduler", Index: SchedulerIndex, Calls: ptr(schedulerCall), Events: ptr(schedulerEvent)})
	b.Pallet(md.Pallet{Name: "Balances", Index: BalancesIndex, Calls: ptr(balancesCall), Events: ptr(balancesEvent)})
	b.Pallet(md.Pallet{Name: "Utility", Index: UtilityIndex, Calls: ptr(utilityCall), Events: ptr(utilityEvent)})
	b.Pallet(md.Pallet{Name: "Proxy", Index: ProxyIndex, Calls: ptr(proxyCall), Events: ptr(proxyEvent)})
	b.Pallet(md.Pallet{Name: "Paras", Index: ParasIndex, StoragePrefix: "Paras",
		Storage: []md.StorageEntry{{Name: "ParaLifecycles", Optional: true, Hashers: twox64, Key: paraID, Value: lifecycle}},
	})
	b.Pallet(md.Pallet{Name: "Registrar", Index: RegistrarIndex, StoragePrefix: "Registrar",
		Storage: []md.StorageEntry{
			{Name: "Paras", Optional: true, Hashers: twox64, Key: paraID, Value: paraInfo},
			{Name: "NextFreeParaId", Plain: true, Value: paraID, Default: []byte{0, 0, 0, 0}},
		},
		Calls: ptr(registrarCall), Events: ptr(registrarEvent), Errors: ptr(registrarError),
	})
	b.Pallet(md.Pallet{Name: "Slots", Index: SlotsIndex, StoragePrefix: "Slots",
		Storage: []md.StorageEntry{{Name: "Leases", Hashers: twox64, Key: paraID, Value: leases, Default: []byte{0}}},
	})
	b.Pallet(md.Pallet{Name: "AssignedSlots", Index: AssignedSlotsIndex, Calls: ptr(assignedSlotsCall)})
	b.Pallet(md.Pallet{Name: "Sudo", Index: SudoIndex, Calls: ptr(sudoCall), Events: ptr(sudoEvent), Errors: ptr(sudoError)})
	b.Runtime(b.Composite([]string{"Runtime"}))

	raw := b.Encode()
	meta, err := md.Decode(raw)
	if err != nil {
		panic(err)
	}
	return &Relay{Raw: raw, Metadata: meta, EventRecords: eventRecords, DispatchError: dispatchError}
}
