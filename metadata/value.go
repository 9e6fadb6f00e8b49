package metadata

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/paritytech/subport/scale"
)

const maxDepth = 64

var errTooDeep = errors.New("metadata: type nesting too deep")

// ValueKind is the shape of a dynamically decoded value.
type ValueKind int

const (
	ValueComposite ValueKind = iota
	ValueVariant
	ValueSequence
	ValueBytes
	ValueUint
	ValueBigInt
	ValueBool
	ValueString
	ValueBits
)

// NamedValue is a composite or variant field. Positional fields have an empty name.
type NamedValue struct {
	Name  string
	Value Value
}

// Value is a runtime value decoded against the type registry.
type Value struct {
	Kind ValueKind

	Variant      string // ValueVariant
	VariantIndex uint8  // ValueVariant

	Fields []NamedValue // ValueComposite, ValueVariant
	Items  []Value      // ValueSequence (sequences, arrays, tuples)
	Bytes  []byte       // ValueBytes, ValueBits
	Uint   uint64       // ValueUint
	Big    *big.Int     // ValueBigInt
	Bool   bool         // ValueBool
	Str    string       // ValueString
}

// Field returns the field called name.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// At returns the i-th field or item regardless of naming.
func (v Value) At(i int) (Value, bool) {
	if v.Kind == ValueSequence {
		if i < len(v.Items) {
			return v.Items[i], true
		}
		return Value{}, false
	}
	if i < len(v.Fields) {
		return v.Fields[i].Value, true
	}
	return Value{}, false
}

// Unwrap descends through single-field composites (newtype wrappers).
func (v Value) Unwrap() Value {
	for v.Kind == ValueComposite && len(v.Fields) == 1 {
		v = v.Fields[0].Value
	}
	return v
}

// DecodeValue decodes one value of type id from d.
func (m *Metadata) DecodeValue(id TypeID, d *scale.Decoder) (Value, error) {
	return m.decodeValue(id, d, 0)
}

func (m *Metadata) decodeValue(id TypeID, d *scale.Decoder, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, errTooDeep
	}
	t, err := m.Type(id)
	if err != nil {
		return Value{}, err
	}

	switch t.Kind {
	case KindComposite:
		fields, err := m.decodeFields(t.Fields, d, depth)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueComposite, Fields: fields}, nil

	case KindVariant:
		idx, err := d.U8()
		if err != nil {
			return Value{}, err
		}
		var variant *Variant
		for i := range t.Variants {
			if t.Variants[i].Index == idx {
				variant = &t.Variants[i]
				break
			}
		}
		if variant == nil {
			return Value{}, fmt.Errorf("metadata: type %d has no variant %d", id, idx)
		}
		fields, err := m.decodeFields(variant.Fields, d, depth)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", variant.Name, err)
		}
		return Value{Kind: ValueVariant, Variant: variant.Name, VariantIndex: idx, Fields: fields}, nil

	case KindSequence:
		n, err := d.CompactU32()
		if err != nil {
			return Value{}, err
		}
		return m.decodeItems(t.Elem, int(n), d, depth)

	case KindArray:
		return m.decodeItems(t.Elem, int(t.Len), d, depth)

	case KindTuple:
		items := make([]Value, 0, len(t.Tuple))
		for _, elem := range t.Tuple {
			item, err := m.decodeValue(elem, d, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{Kind: ValueSequence, Items: items}, nil

	case KindPrimitive:
		return decodePrimitive(t.Primitive, d)

	case KindCompact:
		v, err := d.CompactBig()
		if err != nil {
			return Value{}, err
		}
		if v.IsUint64() {
			return Value{Kind: ValueUint, Uint: v.Uint64()}, nil
		}
		return Value{Kind: ValueBigInt, Big: v}, nil

	case KindBitSequence:
		return m.decodeBits(t, d)
	}

	return Value{}, fmt.Errorf("metadata: type %d has unknown kind %d", id, t.Kind)
}

func (m *Metadata) decodeFields(fields []Field, d *scale.Decoder, depth int) ([]NamedValue, error) {
	out := make([]NamedValue, 0, len(fields))
	for _, f := range fields {
		v, err := m.decodeValue(f.Type, d, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedValue{Name: f.Name, Value: v})
	}
	return out, nil
}

func (m *Metadata) decodeItems(elem TypeID, n int, d *scale.Decoder, depth int) (Value, error) {
	if et, err := m.Type(elem); err == nil && et.Kind == KindPrimitive && et.Primitive == PrimU8 {
		b, err := d.Read(n)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueBytes, Bytes: append([]byte(nil), b...)}, nil
	}

	if n > d.Remaining() {
		return Value{}, fmt.Errorf("%w: sequence of %d items", scale.ErrUnexpectedEOF, n)
	}
	items := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		item, err := m.decodeValue(elem, d, depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	return Value{Kind: ValueSequence, Items: items}, nil
}

func (m *Metadata) decodeBits(t *Type, d *scale.Decoder) (Value, error) {
	store, err := m.Type(t.BitStore)
	if err != nil {
		return Value{}, err
	}

	var width int
	switch store.Primitive {
	case PrimU8:
		width = 1
	case PrimU16:
		width = 2
	case PrimU32:
		width = 4
	case PrimU64:
		width = 8
	default:
		return Value{}, fmt.Errorf("metadata: unsupported bit store type %d", t.BitStore)
	}

	bits, err := d.CompactU32()
	if err != nil {
		return Value{}, err
	}
	bitsPerWord := uint32(width * 8)
	words := (bits + bitsPerWord - 1) / bitsPerWord
	b, err := d.Read(int(words) * width)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: ValueBits, Bytes: append([]byte(nil), b...), Uint: uint64(bits)}, nil
}

// Signed integers keep their two's complement bit pattern.
func decodePrimitive(p Primitive, d *scale.Decoder) (Value, error) {
	switch p {
	case PrimBool:
		b, err := d.Bool()
		return Value{Kind: ValueBool, Bool: b}, err
	case PrimChar:
		v, err := d.U32()
		return Value{Kind: ValueString, Str: string(rune(v))}, err
	case PrimStr:
		s, err := d.String()
		return Value{Kind: ValueString, Str: s}, err
	case PrimU8, PrimI8:
		v, err := d.U8()
		return Value{Kind: ValueUint, Uint: uint64(v)}, err
	case PrimU16, PrimI16:
		v, err := d.U16()
		return Value{Kind: ValueUint, Uint: uint64(v)}, err
	case PrimU32, PrimI32:
		v, err := d.U32()
		return Value{Kind: ValueUint, Uint: uint64(v)}, err
	case PrimU64, PrimI64:
		v, err := d.U64()
		return Value{Kind: ValueUint, Uint: v}, err
	case PrimU128, PrimI128:
		b, err := d.Read(16)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueBigInt, Big: scale.LittleEndianToBig(b)}, nil
	case PrimU256, PrimI256:
		b, err := d.Read(32)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueBigInt, Big: scale.LittleEndianToBig(b)}, nil
	}
	return Value{}, fmt.Errorf("metadata: unknown primitive %d", p)
}
