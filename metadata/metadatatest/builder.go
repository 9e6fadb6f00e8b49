// Package metadatatest builds synthetic runtime metadata blobs for tests.
package metadatatest

import (
	"sort"

	"github.com/paritytech/subport/metadata"
	"github.com/paritytech/subport/scale"
)

// Builder assembles a V14 metadata blob type by type.
type Builder struct {
	types   map[metadata.TypeID]*metadata.Type
	next    metadata.TypeID
	pallets []metadata.Pallet
	exts    []metadata.SignedExtension
	runtime metadata.TypeID
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{types: make(map[metadata.TypeID]*metadata.Type)}
}

// Reserve allocates an id to be defined later, for recursive types.
func (b *Builder) Reserve() metadata.TypeID {
	id := b.next
	b.next++
	return id
}

// Define sets the definition of a reserved id.
func (b *Builder) Define(id metadata.TypeID, t metadata.Type) metadata.TypeID {
	t.ID = id
	b.types[id] = &t
	return id
}

func (b *Builder) add(t metadata.Type) metadata.TypeID {
	return b.Define(b.Reserve(), t)
}

func (b *Builder) Primitive(p metadata.Primitive) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindPrimitive, Primitive: p})
}

func (b *Builder) Composite(path []string, fields ...metadata.Field) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindComposite, Path: path, Fields: fields})
}

func (b *Builder) Enum(path []string, variants ...metadata.Variant) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindVariant, Path: path, Variants: variants})
}

func (b *Builder) Sequence(elem metadata.TypeID) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindSequence, Elem: elem})
}

func (b *Builder) Array(n uint32, elem metadata.TypeID) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindArray, Len: n, Elem: elem})
}

func (b *Builder) Tuple(elems ...metadata.TypeID) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindTuple, Tuple: elems})
}

func (b *Builder) Compact(elem metadata.TypeID) metadata.TypeID {
	return b.add(metadata.Type{Kind: metadata.KindCompact, Elem: elem})
}

// Option builds the standard Option<T> enum.
func (b *Builder) Option(elem metadata.TypeID) metadata.TypeID {
	return b.Enum([]string{"Option"},
		metadata.Variant{Name: "None", Index: 0},
		metadata.Variant{Name: "Some", Index: 1, Fields: []metadata.Field{{Type: elem}}},
	)
}

// Pallet appends a pallet description.
func (b *Builder) Pallet(p metadata.Pallet) {
	b.pallets = append(b.pallets, p)
}

// SignedExtension appends a transaction extension.
func (b *Builder) SignedExtension(identifier string, ty, additional metadata.TypeID) {
	b.exts = append(b.exts, metadata.SignedExtension{Identifier: identifier, Type: ty, AdditionalSigned: additional})
}

// Runtime sets the runtime type id.
func (b *Builder) Runtime(id metadata.TypeID) {
	b.runtime = id
}

// Encode returns the RuntimeMetadataPrefixed encoding.
func (b *Builder) Encode() []byte {
	e := scale.NewEncoder()
	e.Raw([]byte("meta")).U8(metadata.SupportedVersion)

	ids := make([]metadata.TypeID, 0, len(b.types))
	for id := range b.types {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	e.Compact(uint64(len(ids)))
	for _, id := range ids {
		e.Compact(uint64(id))
		encodeType(e, b.types[id])
	}

	e.Compact(uint64(len(b.pallets)))
	for _, p := range b.pallets {
		encodePallet(e, p)
	}

	e.Compact(0).U8(4)
	e.Compact(uint64(len(b.exts)))
	for _, ext := range b.exts {
		e.String(ext.Identifier).Compact(uint64(ext.Type)).Compact(uint64(ext.AdditionalSigned))
	}

	e.Compact(uint64(b.runtime))
	return e.Bytes()
}

func encodeStrings(e *scale.Encoder, ss []string) {
	e.Compact(uint64(len(ss)))
	for _, s := range ss {
		e.String(s)
	}
}

func encodeOptionalString(e *scale.Encoder, s string) {
	if s == "" {
		e.None()
		return
	}
	e.Some().String(s)
}

func encodeOptionalID(e *scale.Encoder, id *metadata.TypeID) {
	if id == nil {
		e.None()
		return
	}
	e.Some().Compact(uint64(*id))
}

func encodeFields(e *scale.Encoder, fields []metadata.Field) {
	e.Compact(uint64(len(fields)))
	for _, f := range fields {
		encodeOptionalString(e, f.Name)
		e.Compact(uint64(f.Type))
		encodeOptionalString(e, f.TypeName)
		encodeStrings(e, nil)
	}
}

func encodeType(e *scale.Encoder, t *metadata.Type) {
	encodeStrings(e, t.Path)
	e.Compact(0) // type params
	e.U8(uint8(t.Kind))

	switch t.Kind {
	case metadata.KindComposite:
		encodeFields(e, t.Fields)
	case metadata.KindVariant:
		e.Compact(uint64(len(t.Variants)))
		for _, v := range t.Variants {
			e.String(v.Name)
			encodeFields(e, v.Fields)
			e.U8(v.Index)
			encodeStrings(e, nil)
		}
	case metadata.KindSequence, metadata.KindCompact:
		e.Compact(uint64(t.Elem))
	case metadata.KindArray:
		e.U32(t.Len).Compact(uint64(t.Elem))
	case metadata.KindTuple:
		e.Compact(uint64(len(t.Tuple)))
		for _, id := range t.Tuple {
			e.Compact(uint64(id))
		}
	case metadata.KindPrimitive:
		e.U8(uint8(t.Primitive))
	case metadata.KindBitSequence:
		e.Compact(uint64(t.BitStore)).Compact(uint64(t.BitOrder))
	}

	encodeStrings(e, nil) // docs
}

func encodePallet(e *scale.Encoder, p metadata.Pallet) {
	e.String(p.Name)

	if p.StoragePrefix == "" && len(p.Storage) == 0 {
		e.None()
	} else {
		e.Some().String(p.StoragePrefix)
		e.Compact(uint64(len(p.Storage)))
		for _, s := range p.Storage {
			e.String(s.Name)
			if s.Optional {
				e.U8(0)
			} else {
				e.U8(1)
			}
			if s.Plain {
				e.U8(0).Compact(uint64(s.Value))
			} else {
				hashers := make([]byte, len(s.Hashers))
				for i, h := range s.Hashers {
					hashers[i] = byte(h)
				}
				e.U8(1).ByteVec(hashers).Compact(uint64(s.Key)).Compact(uint64(s.Value))
			}
			e.ByteVec(s.Default)
			encodeStrings(e, nil)
		}
	}

	encodeOptionalID(e, p.Calls)
	encodeOptionalID(e, p.Events)

	e.Compact(uint64(len(p.Constants)))
	for _, c := range p.Constants {
		e.String(c.Name).Compact(uint64(c.Type)).ByteVec(c.Value)
		encodeStrings(e, nil)
	}

	encodeOptionalID(e, p.Errors)
	e.U8(p.Index)
}
