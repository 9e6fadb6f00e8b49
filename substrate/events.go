package substrate

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metadata"
	"github.com/paritytech/subport/scale"
)

// extrinsicEvents decodes System.Events at block and returns the events
// emitted while applying the extrinsic at index.
func (c *Client) extrinsicEvents(ctx context.Context, block common.Hash, index uint32) ([]interfaces.Event, error) {
	meta, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := meta.StorageEntry("System", "Events")
	if err != nil {
		return nil, err
	}
	key, err := c.storageKey(ctx, "System", "Events")
	if err != nil {
		return nil, err
	}

	raw, err := c.storageAt(ctx, key, block)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return DecodeExtrinsicEvents(meta, entry.Value, raw, index)
}

// DecodeExtrinsicEvents decodes an encoded System.Events value of type
// recordsType and keeps the events whose phase is ApplyExtrinsic(index).
func DecodeExtrinsicEvents(meta *metadata.Metadata, recordsType metadata.TypeID, raw []byte, index uint32) ([]interfaces.Event, error) {
	records, err := meta.DecodeValue(recordsType, scale.NewDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	var events []interfaces.Event
	for _, record := range records.Items {
		phase, ok := record.Field("phase")
		if !ok || phase.Variant != "ApplyExtrinsic" {
			continue
		}
		if idx, ok := phase.At(0); !ok || idx.Uint != uint64(index) {
			continue
		}

		event, ok := record.Field("event")
		if !ok {
			return nil, fmt.Errorf("event record without event field")
		}
		inner, ok := event.At(0)
		if !ok {
			return nil, fmt.Errorf("event %s without payload", event.Variant)
		}

		events = append(events, interfaces.Event{
			Pallet: event.Variant,
			Name:   inner.Variant,
			Result: dispatchResult(meta, inner),
		})
	}
	return events, nil
}

// dispatchResult extracts the outcome of a nested dispatch carried by an
// event: a Result<(), DispatchError> field, or a bare DispatchError field as
// in System.ExtrinsicFailed and Utility.BatchInterrupted.
func dispatchResult(meta *metadata.Metadata, event metadata.Value) *interfaces.DispatchResult {
	for _, f := range event.Fields {
		v := f.Value
		if v.Kind != metadata.ValueVariant {
			continue
		}

		switch {
		case v.Variant == "Ok" && (f.Name == "result" || f.Name == "sudo_result"):
			return &interfaces.DispatchResult{Ok: true}
		case v.Variant == "Err" && (f.Name == "result" || f.Name == "sudo_result"):
			inner, _ := v.At(0)
			return &interfaces.DispatchResult{Error: DescribeDispatchError(meta, inner)}
		case f.Name == "dispatch_error" || f.Name == "error":
			return &interfaces.DispatchResult{Error: DescribeDispatchError(meta, v)}
		}
	}
	return nil
}

// DescribeDispatchError renders a decoded DispatchError, resolving module
// errors to "Pallet.Error".
func DescribeDispatchError(meta *metadata.Metadata, v metadata.Value) string {
	if v.Variant == "Module" {
		moduleErr, _ := v.At(0)
		index, okIndex := moduleErr.Field("index")
		code, okCode := moduleErr.Field("error")
		if okIndex && okCode {
			var errIndex uint8
			switch code.Kind {
			case metadata.ValueBytes:
				if len(code.Bytes) > 0 {
					errIndex = code.Bytes[0]
				}
			case metadata.ValueUint:
				errIndex = uint8(code.Uint)
			}
			return meta.ModuleErrorName(uint8(index.Uint), errIndex)
		}
	}

	if len(v.Fields) == 1 && v.Fields[0].Value.Kind == metadata.ValueVariant {
		return v.Variant + "." + v.Fields[0].Value.Variant
	}
	if v.Variant == "" {
		return "unknown dispatch error"
	}
	return v.Variant
}
