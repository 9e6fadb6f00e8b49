// Package metadata decodes Substrate runtime metadata (V14) as returned by
// state_getMetadata, and exposes the lookups needed to encode calls, build
// signed extensions and decode events without compiled-in runtime types.
package metadata

import (
	"errors"
	"fmt"

	"github.com/paritytech/subport/scale"
)

// magicNumber is "meta" read as a little-endian u32.
const magicNumber uint32 = 0x6174656d

// SupportedVersion is the only metadata version this package decodes.
const SupportedVersion = 14

var (
	ErrBadMagic           = errors.New("metadata: bad magic number")
	ErrUnsupportedVersion = errors.New("metadata: unsupported version")
	ErrNotFound           = errors.New("metadata: not found")
)

// TypeID indexes the portable type registry.
type TypeID uint32

// DefKind is the shape of a registry type.
type DefKind int

const (
	KindComposite DefKind = iota
	KindVariant
	KindSequence
	KindArray
	KindTuple
	KindPrimitive
	KindCompact
	KindBitSequence
)

// Primitive enumerates the primitive type definitions.
type Primitive int

const (
	PrimBool Primitive = iota
	PrimChar
	PrimStr
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimU256
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimI256
)

// Field is a named or positional member of a composite or variant.
type Field struct {
	Name     string
	Type     TypeID
	TypeName string
}

// Variant is one arm of an enum type.
type Variant struct {
	Name   string
	Fields []Field
	Index  uint8
}

// Type is one entry of the portable type registry.
type Type struct {
	ID   TypeID
	Path []string
	Kind DefKind

	Fields    []Field   // KindComposite
	Variants  []Variant // KindVariant
	Elem      TypeID    // KindSequence, KindArray, KindCompact
	Len       uint32    // KindArray
	Tuple     []TypeID  // KindTuple
	Primitive Primitive // KindPrimitive
	BitStore  TypeID    // KindBitSequence
	BitOrder  TypeID    // KindBitSequence
}

// Hasher is a storage map key hasher.
type Hasher uint8

const (
	Blake2_128 Hasher = iota
	Blake2_256
	Blake2_128Concat
	Twox128
	Twox256
	Twox64Concat
	Identity
)

// StorageEntry describes one storage item of a pallet.
type StorageEntry struct {
	Name     string
	Optional bool
	Plain    bool
	Hashers  []Hasher
	Key      TypeID
	Value    TypeID
	Default  []byte
}

// Constant is a pallet constant with its SCALE-encoded value.
type Constant struct {
	Name  string
	Type  TypeID
	Value []byte
}

// Pallet describes one runtime module.
type Pallet struct {
	Name          string
	Index         uint8
	StoragePrefix string
	Storage       []StorageEntry
	Calls         *TypeID
	Events        *TypeID
	Errors        *TypeID
	Constants     []Constant
}

// SignedExtension describes one transaction extension, in extrinsic order.
type SignedExtension struct {
	Identifier       string
	Type             TypeID
	AdditionalSigned TypeID
}

// Metadata is a decoded runtime metadata blob.
type Metadata struct {
	Types            map[TypeID]*Type
	Pallets          []Pallet
	ExtrinsicType    TypeID
	ExtrinsicVersion uint8
	SignedExtensions []SignedExtension
	RuntimeType      TypeID
}

// Decode parses a RuntimeMetadataPrefixed blob.
func Decode(raw []byte) (*Metadata, error) {
	d := scale.NewDecoder(raw)

	magic, err := d.U32()
	if err != nil {
		return nil, err
	}
	if magic != magicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, magic)
	}

	version, err := d.U8()
	if err != nil {
		return nil, err
	}
	if version != SupportedVersion {
		return nil, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, version)
	}

	m := &Metadata{Types: make(map[TypeID]*Type)}
	if err := m.decodeRegistry(d); err != nil {
		return nil, fmt.Errorf("metadata: type registry: %w", err)
	}
	if err := m.decodePallets(d); err != nil {
		return nil, fmt.Errorf("metadata: pallets: %w", err)
	}
	if err := m.decodeExtrinsic(d); err != nil {
		return nil, fmt.Errorf("metadata: extrinsic: %w", err)
	}

	runtimeType, err := d.CompactU32()
	if err != nil {
		return nil, fmt.Errorf("metadata: runtime type: %w", err)
	}
	m.RuntimeType = TypeID(runtimeType)

	return m, nil
}

func (m *Metadata) decodeRegistry(d *scale.Decoder) error {
	n, err := decodeLen(d)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		id, err := d.CompactU32()
		if err != nil {
			return err
		}
		t, err := decodeType(d)
		if err != nil {
			return fmt.Errorf("type %d: %w", id, err)
		}
		t.ID = TypeID(id)
		m.Types[t.ID] = t
	}
	return nil
}

func decodeType(d *scale.Decoder) (*Type, error) {
	path, err := decodeStrings(d)
	if err != nil {
		return nil, err
	}

	// type parameters are only needed by generic code generators
	params, err := decodeLen(d)
	if err != nil {
		return nil, err
	}
	for i := 0; i < params; i++ {
		if _, err := d.String(); err != nil {
			return nil, err
		}
		some, err := d.Option()
		if err != nil {
			return nil, err
		}
		if some {
			if _, err := d.CompactU32(); err != nil {
				return nil, err
			}
		}
	}

	t := &Type{Path: path}
	kind, err := d.U8()
	if err != nil {
		return nil, err
	}
	t.Kind = DefKind(kind)

	switch t.Kind {
	case KindComposite:
		t.Fields, err = decodeFields(d)
	case KindVariant:
		t.Variants, err = decodeVariants(d)
	case KindSequence, KindCompact:
		t.Elem, err = decodeTypeID(d)
	case KindArray:
		if t.Len, err = d.U32(); err == nil {
			t.Elem, err = decodeTypeID(d)
		}
	case KindTuple:
		t.Tuple, err = decodeTypeIDs(d)
	case KindPrimitive:
		var p uint8
		p, err = d.U8()
		t.Primitive = Primitive(p)
		if err == nil && t.Primitive > PrimI256 {
			err = fmt.Errorf("unknown primitive %d", p)
		}
	case KindBitSequence:
		if t.BitStore, err = decodeTypeID(d); err == nil {
			t.BitOrder, err = decodeTypeID(d)
		}
	default:
		return nil, fmt.Errorf("unknown type definition %d", kind)
	}
	if err != nil {
		return nil, err
	}

	if _, err := decodeStrings(d); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeFields(d *scale.Decoder) ([]Field, error) {
	n, err := decodeLen(d)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, n)
	for i := 0; i < n; i++ {
		var f Field
		if f.Name, err = decodeOptionalString(d); err != nil {
			return nil, err
		}
		if f.Type, err = decodeTypeID(d); err != nil {
			return nil, err
		}
		if f.TypeName, err = decodeOptionalString(d); err != nil {
			return nil, err
		}
		if _, err = decodeStrings(d); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func decodeVariants(d *scale.Decoder) ([]Variant, error) {
	n, err := decodeLen(d)
	if err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, n)
	for i := 0; i < n; i++ {
		var v Variant
		if v.Name, err = d.String(); err != nil {
			return nil, err
		}
		if v.Fields, err = decodeFields(d); err != nil {
			return nil, err
		}
		if v.Index, err = d.U8(); err != nil {
			return nil, err
		}
		if _, err = decodeStrings(d); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func (m *Metadata) decodePallets(d *scale.Decoder) error {
	n, err := decodeLen(d)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		var p Pallet
		if p.Name, err = d.String(); err != nil {
			return err
		}
		if err := decodePalletStorage(d, &p); err != nil {
			return fmt.Errorf("%s storage: %w", p.Name, err)
		}
		if p.Calls, err = decodeOptionalTypeID(d); err != nil {
			return err
		}
		if p.Events, err = decodeOptionalTypeID(d); err != nil {
			return err
		}
		if p.Constants, err = decodeConstants(d); err != nil {
			return fmt.Errorf("%s constants: %w", p.Name, err)
		}
		if p.Errors, err = decodeOptionalTypeID(d); err != nil {
			return err
		}
		if p.Index, err = d.U8(); err != nil {
			return err
		}
		m.Pallets = append(m.Pallets, p)
	}
	return nil
}

func decodePalletStorage(d *scale.Decoder, p *Pallet) error {
	some, err := d.Option()
	if err != nil || !some {
		return err
	}

	if p.StoragePrefix, err = d.String(); err != nil {
		return err
	}

	n, err := decodeLen(d)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var e StorageEntry
		if e.Name, err = d.String(); err != nil {
			return err
		}

		modifier, err := d.U8()
		if err != nil {
			return err
		}
		e.Optional = modifier == 0

		kind, err := d.U8()
		if err != nil {
			return err
		}
		switch kind {
		case 0:
			e.Plain = true
			if e.Value, err = decodeTypeID(d); err != nil {
				return err
			}
		case 1:
			hashers, err := d.ByteVec()
			if err != nil {
				return err
			}
			for _, h := range hashers {
				e.Hashers = append(e.Hashers, Hasher(h))
			}
			if e.Key, err = decodeTypeID(d); err != nil {
				return err
			}
			if e.Value, err = decodeTypeID(d); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown storage entry type %d", kind)
		}

		if e.Default, err = d.ByteVec(); err != nil {
			return err
		}
		if _, err = decodeStrings(d); err != nil {
			return err
		}
		p.Storage = append(p.Storage, e)
	}
	return nil
}

func decodeConstants(d *scale.Decoder) ([]Constant, error) {
	n, err := decodeLen(d)
	if err != nil {
		return nil, err
	}

	constants := make([]Constant, 0, n)
	for i := 0; i < n; i++ {
		var c Constant
		if c.Name, err = d.String(); err != nil {
			return nil, err
		}
		if c.Type, err = decodeTypeID(d); err != nil {
			return nil, err
		}
		if c.Value, err = d.ByteVec(); err != nil {
			return nil, err
		}
		if _, err = decodeStrings(d); err != nil {
			return nil, err
		}
		constants = append(constants, c)
	}
	return constants, nil
}

func (m *Metadata) decodeExtrinsic(d *scale.Decoder) error {
	var err error
	if m.ExtrinsicType, err = decodeTypeID(d); err != nil {
		return err
	}
	if m.ExtrinsicVersion, err = d.U8(); err != nil {
		return err
	}

	n, err := decodeLen(d)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var ext SignedExtension
		if ext.Identifier, err = d.String(); err != nil {
			return err
		}
		if ext.Type, err = decodeTypeID(d); err != nil {
			return err
		}
		if ext.AdditionalSigned, err = decodeTypeID(d); err != nil {
			return err
		}
		m.SignedExtensions = append(m.SignedExtensions, ext)
	}
	return nil
}

// decodeLen reads a collection length. Every element takes at least one
// byte, so a length beyond the remaining input is corrupt.
func decodeLen(d *scale.Decoder) (int, error) {
	n, err := d.CompactU32()
	if err != nil {
		return 0, err
	}
	if uint64(n) > uint64(d.Remaining()) {
		return 0, fmt.Errorf("%w: %d items in %d bytes", scale.ErrUnexpectedEOF, n, d.Remaining())
	}
	return int(n), nil
}

func decodeTypeID(d *scale.Decoder) (TypeID, error) {
	id, err := d.CompactU32()
	return TypeID(id), err
}

func decodeTypeIDs(d *scale.Decoder) ([]TypeID, error) {
	n, err := decodeLen(d)
	if err != nil {
		return nil, err
	}
	ids := make([]TypeID, 0, n)
	for i := 0; i < n; i++ {
		id, err := decodeTypeID(d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeOptionalTypeID(d *scale.Decoder) (*TypeID, error) {
	some, err := d.Option()
	if err != nil || !some {
		return nil, err
	}
	id, err := decodeTypeID(d)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func decodeOptionalString(d *scale.Decoder) (string, error) {
	some, err := d.Option()
	if err != nil || !some {
		return "", err
	}
	return d.String()
}

func decodeStrings(d *scale.Decoder) ([]string, error) {
	n, err := decodeLen(d)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
