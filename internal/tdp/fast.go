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

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
)

// MaxFastEntries is the largest size of a [Type.Fast] table.
const MaxFastEntries = 32

// Handler selects the decoding routine for a [FastEntry].
type Handler uint8

const (
	HandlerNone Handler = iota // Empty entry; always falls back.

	HandlerVarint32
	HandlerVarint64
	HandlerZigZag32
	HandlerZigZag64
	HandlerBool
	HandlerFixed32
	HandlerFixed64
	HandlerBytes
	HandlerUTF8
	HandlerMessage

	HandlerRepeatedVarint32
	HandlerRepeatedVarint64
	HandlerRepeatedZigZag32
	HandlerRepeatedZigZag64
	HandlerRepeatedBool
	HandlerRepeatedFixed32
	HandlerRepeatedFixed64
	HandlerRepeatedBytes
	HandlerRepeatedUTF8
	HandlerRepeatedMessage

	HandlerPackedVarint32
	HandlerPackedVarint64
	HandlerPackedZigZag32
	HandlerPackedZigZag64
	HandlerPackedBool
	HandlerPackedFixed32
	HandlerPackedFixed64

	HandlerMapEntry

	HandlerCount
)

var handlerNames = [...]string{
	"none",
	"varint32", "varint64", "zigzag32", "zigzag64", "bool", "fixed32", "fixed64", "bytes", "utf8", "message",
	"repeated_varint32", "repeated_varint64", "repeated_zigzag32", "repeated_zigzag64", "repeated_bool",
	"repeated_fixed32", "repeated_fixed64", "repeated_bytes", "repeated_utf8", "repeated_message",
	"packed_varint32", "packed_varint64", "packed_zigzag32", "packed_zigzag64", "packed_bool",
	"packed_fixed32", "packed_fixed64",
	"map_entry",
}

func (h Handler) String() string {
	if int(h) < len(handlerNames) {
		return handlerNames[h]
	}
	return fmt.Sprintf("Handler(%d)", h)
}

// SelectHandler picks the fast-path handler for a field, or HandlerNone if
// the field must always go through the generic decoder.
func SelectHandler(f *Field) Handler {
	if f.IsOneof() || f.Number > MaxFastNumber {
		return HandlerNone
	}

	var h Handler
	switch f.Kind {
	case protoreflect.Int32Kind, protoreflect.Uint32Kind, protoreflect.EnumKind:
		h = HandlerVarint32
	case protoreflect.Int64Kind, protoreflect.Uint64Kind:
		h = HandlerVarint64
	case protoreflect.Sint32Kind:
		h = HandlerZigZag32
	case protoreflect.Sint64Kind:
		h = HandlerZigZag64
	case protoreflect.BoolKind:
		h = HandlerBool
	case protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind, protoreflect.FloatKind:
		h = HandlerFixed32
	case protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.DoubleKind:
		h = HandlerFixed64
	case protoreflect.StringKind:
		h = HandlerBytes
		if f.ValidateUTF8 {
			h = HandlerUTF8
		}
	case protoreflect.BytesKind:
		h = HandlerBytes
	case protoreflect.MessageKind:
		h = HandlerMessage
	default:
		// Groups are rare enough that they are left to the generic path.
		return HandlerNone
	}

	switch f.Mode {
	case Map:
		return HandlerMapEntry
	case Array:
		if f.Packed && h <= HandlerFixed64 {
			return h - HandlerVarint32 + HandlerPackedVarint32
		}
		return h - HandlerVarint32 + HandlerRepeatedVarint32
	default:
		return h
	}
}

// FastEntry is one slot of a [Type]'s fast dispatch table.
//
// Everything a handler needs is copied out of the [Field], so that a hit
// never touches the field table.
type FastEntry struct {
	Tag      Tag // Zero for an empty entry, which no valid tag matches.
	Handler  Handler
	Offset   uint32
	Presence Presence
	Sub      int32
	Field    uint32 // Index into Type.Fields.
}

// Format implements [fmt.Formatter].
func (e *FastEntry) Format(s fmt.State, verb rune) {
	debug.Dict("FastEntry",
		"tag", e.Tag,
		"handler", e.Handler,
		"offset", debug.Fprintf("%#x", e.Offset),
		"presence", e.Presence,
		"sub", e.Sub,
	).Format(s, verb)
}
