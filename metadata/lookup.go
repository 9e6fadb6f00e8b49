package metadata

import (
	"fmt"
)

// Type returns the registry entry for id.
func (m *Metadata) Type(id TypeID) (*Type, error) {
	t, ok := m.Types[id]
	if !ok {
		return nil, fmt.Errorf("%w: type %d", ErrNotFound, id)
	}
	return t, nil
}

// PalletByName returns the pallet with the given name.
func (m *Metadata) PalletByName(name string) (*Pallet, error) {
	for i := range m.Pallets {
		if m.Pallets[i].Name == name {
			return &m.Pallets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: pallet %s", ErrNotFound, name)
}

// PalletByIndex returns the pallet with the given runtime index.
func (m *Metadata) PalletByIndex(index uint8) (*Pallet, error) {
	for i := range m.Pallets {
		if m.Pallets[i].Index == index {
			return &m.Pallets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: pallet index %d", ErrNotFound, index)
}

// VariantByName returns the variant called name of an enum type.
func (m *Metadata) VariantByName(id TypeID, name string) (*Variant, error) {
	t, err := m.Type(id)
	if err != nil {
		return nil, err
	}
	if t.Kind != KindVariant {
		return nil, fmt.Errorf("metadata: type %d is not an enum", id)
	}
	for i := range t.Variants {
		if t.Variants[i].Name == name {
			return &t.Variants[i], nil
		}
	}
	return nil, fmt.Errorf("%w: variant %s of type %d", ErrNotFound, name, id)
}

// VariantByIndex returns the variant with the given encoding index.
func (m *Metadata) VariantByIndex(id TypeID, index uint8) (*Variant, error) {
	t, err := m.Type(id)
	if err != nil {
		return nil, err
	}
	if t.Kind != KindVariant {
		return nil, fmt.Errorf("metadata: type %d is not an enum", id)
	}
	for i := range t.Variants {
		if t.Variants[i].Index == index {
			return &t.Variants[i], nil
		}
	}
	return nil, fmt.Errorf("%w: variant index %d of type %d", ErrNotFound, index, id)
}

// Call resolves a dispatchable by pallet and call name, returning the pallet
// index and the call variant (its Index is the call index).
func (m *Metadata) Call(pallet, call string) (uint8, *Variant, error) {
	p, err := m.PalletByName(pallet)
	if err != nil {
		return 0, nil, err
	}
	if p.Calls == nil {
		return 0, nil, fmt.Errorf("%w: pallet %s has no calls", ErrNotFound, pallet)
	}
	v, err := m.VariantByName(*p.Calls, call)
	if err != nil {
		return 0, nil, fmt.Errorf("%s.%s: %w", pallet, call, err)
	}
	return p.Index, v, nil
}

// StorageEntry resolves a storage item by pallet and item name.
func (m *Metadata) StorageEntry(pallet, item string) (*StorageEntry, error) {
	p, err := m.PalletByName(pallet)
	if err != nil {
		return nil, err
	}
	for i := range p.Storage {
		if p.Storage[i].Name == item {
			return &p.Storage[i], nil
		}
	}
	return nil, fmt.Errorf("%w: storage %s.%s", ErrNotFound, pallet, item)
}

// IsZeroSized reports whether values of the type encode to zero bytes.
func (m *Metadata) IsZeroSized(id TypeID) (bool, error) {
	return m.isZeroSized(id, 0)
}

func (m *Metadata) isZeroSized(id TypeID, depth int) (bool, error) {
	if depth > maxDepth {
		return false, errTooDeep
	}
	t, err := m.Type(id)
	if err != nil {
		return false, err
	}

	switch t.Kind {
	case KindComposite:
		for _, f := range t.Fields {
			zero, err := m.isZeroSized(f.Type, depth+1)
			if err != nil || !zero {
				return false, err
			}
		}
		return true, nil
	case KindTuple:
		for _, elem := range t.Tuple {
			zero, err := m.isZeroSized(elem, depth+1)
			if err != nil || !zero {
				return false, err
			}
		}
		return true, nil
	case KindArray:
		if t.Len == 0 {
			return true, nil
		}
		return m.isZeroSized(t.Elem, depth+1)
	default:
		return false, nil
	}
}

// ModuleErrorName renders a DispatchError::Module as "Pallet.Error".
func (m *Metadata) ModuleErrorName(palletIndex, errorIndex uint8) string {
	p, err := m.PalletByIndex(palletIndex)
	if err != nil {
		return fmt.Sprintf("Module(%d).Error(%d)", palletIndex, errorIndex)
	}
	if p.Errors == nil {
		return fmt.Sprintf("%s.Error(%d)", p.Name, errorIndex)
	}
	v, err := m.VariantByIndex(*p.Errors, errorIndex)
	if err != nil {
		return fmt.Sprintf("%s.Error(%d)", p.Name, errorIndex)
	}
	return p.Name + "." + v.Name
}
