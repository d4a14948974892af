// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tdp

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
)

// Mode is the cardinality of a field.
type Mode uint8

const (
	Scalar Mode = iota // At most one value.
	Array              // A repeated field.
	Map                // A map field; entries are [Type.MapEntry] messages.
)

func (m Mode) String() string {
	switch m {
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	case Map:
		return "map"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// Rep is the storage representation of a field inside a message.
type Rep uint8

const (
	Rep1Byte Rep = iota + 1 // bool
	Rep4Byte                // 32-bit numbers, enums, float
	Rep8Byte                // 64-bit numbers, double
	RepSlot                 // Anything that owns memory; Offset is a slot index.
)

// Size returns the number of bytes a value of this representation occupies
// in the data region. Slot fields occupy none.
func (r Rep) Size() uint32 {
	switch r {
	case Rep1Byte:
		return 1
	case Rep4Byte:
		return 4
	case Rep8Byte:
		return 8
	default:
		return 0
	}
}

// Presence says how a field records that it has been set.
//
// A non-negative value is a hasbit index. A negative value other than
// [NoPresence] is the bitwise complement of the byte offset of a oneof case
// word, which holds the number of the member currently set.
type Presence int32

// NoPresence marks a field without a presence slot: repeated and map fields,
// singular message fields (present iff allocated), and implicit-presence
// scalars (present iff non-zero).
const NoPresence Presence = math.MinInt32

// Hasbit returns the hasbit index of this presence, if it is one.
func (p Presence) Hasbit() (uint32, bool) {
	return uint32(p), p >= 0
}

// Oneof returns the byte offset of the oneof case word, if this is one.
func (p Presence) Oneof() (uint32, bool) {
	return uint32(^p), p < 0 && p != NoPresence
}

// OneofPresence builds a oneof presence from a case word offset.
func OneofPresence(offset uint32) Presence {
	return ^Presence(offset)
}

func (p Presence) String() string {
	if n, ok := p.Hasbit(); ok {
		return fmt.Sprintf("bit %d", n)
	}
	if off, ok := p.Oneof(); ok {
		return fmt.Sprintf("oneof@%#x", off)
	}
	return "none"
}

// NoSub is the value of [Field.Sub] for fields without a submessage.
const NoSub = -1

// Field describes one field of a [Type].
type Field struct {
	Parent *Type

	Number protowire.Number
	Name   string
	Kind   protoreflect.Kind
	Mode   Mode
	Rep    Rep

	// Byte offset into the data region, or slot index if Rep is RepSlot.
	Offset   uint32
	Presence Presence

	// Index into Type.Subs for message, group and map fields; NoSub
	// otherwise. For maps, this is the entry type.
	Sub int32

	Packed       bool // Repeated scalars are encoded packed.
	ValidateUTF8 bool
	Required     bool

	// Descriptor is the field this was compiled from, if any.
	Descriptor protoreflect.FieldDescriptor
}

// Tag returns the tag this field is encoded with. Packed fields use the
// length-delimited tag.
func (f *Field) Tag() Tag {
	switch {
	case f.Mode == Map:
		return EncodeTag(f.Number, protowire.BytesType)
	case f.Mode == Array && f.Packed:
		return EncodeTag(f.Number, protowire.BytesType)
	default:
		return EncodeTag(f.Number, WireType(f.Kind))
	}
}

// Message returns the type of this field's values for message and group
// fields, or its entry type for map fields. Returns nil otherwise.
func (f *Field) Message() *Type {
	if f.Sub == NoSub {
		return nil
	}
	return f.Parent.Subs[f.Sub]
}

// IsOneof returns whether this field is a member of a oneof.
func (f *Field) IsOneof() bool {
	_, ok := f.Presence.Oneof()
	return ok
}

// IsMessage returns whether values of this field are messages.
func (f *Field) IsMessage() bool {
	return f.Kind == protoreflect.MessageKind || f.Kind == protoreflect.GroupKind
}

// IsBytes returns whether values of this field are strings or bytes. For
// repeated fields this is the element kind; Rep only says the list itself
// lives in a slot.
func (f *Field) IsBytes() bool {
	return f.Kind == protoreflect.StringKind || f.Kind == protoreflect.BytesKind
}

// Format implements [fmt.Formatter].
func (f *Field) Format(s fmt.State, verb rune) {
	var sub any
	if f.Sub != NoSub {
		sub = f.Sub
	}
	debug.Dict("Field",
		"#", f.Number,
		"name", f.Name,
		"kind", f.Kind,
		"mode", f.Mode,
		"offset", debug.Fprintf("%#x/%d", f.Offset, f.Rep),
		"presence", f.Presence,
		"sub", sub,
	).Format(s, verb)
}
