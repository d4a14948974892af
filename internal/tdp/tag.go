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

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
)

// Tag is the decoded value of a field tag: the field number shifted left by
// three, or'd with the wire type.
type Tag uint32

// MaxFastNumber is the largest field number whose tag fits in two bytes,
// and therefore the largest number eligible for a [FastEntry].
const MaxFastNumber = 1<<11 - 1

// EncodeTag builds a tag from a number and a wire type.
func EncodeTag(n protowire.Number, t protowire.Type) Tag {
	return Tag(uint32(n)<<3 | uint32(t&7))
}

// Number returns the field number of this tag.
func (t Tag) Number() protowire.Number {
	return protowire.Number(t >> 3)
}

// Type returns the wire type of this tag.
func (t Tag) Type() protowire.Type {
	return protowire.Type(t & 7)
}

// Format implements [fmt.Formatter].
func (t Tag) Format(s fmt.State, verb rune) {
	debug.Fprintf("%#x:%d:%d", uint32(t), t.Number(), t.Type()).Format(s, verb)
}

// WireType returns the wire type a singular value of the given kind is
// encoded with.
func WireType(k protoreflect.Kind) protowire.Type {
	switch k {
	case protoreflect.BoolKind, protoreflect.EnumKind,
		protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Uint32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Uint64Kind:
		return protowire.VarintType
	case protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind, protoreflect.FloatKind:
		return protowire.Fixed32Type
	case protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.DoubleKind:
		return protowire.Fixed64Type
	case protoreflect.StringKind, protoreflect.BytesKind, protoreflect.MessageKind:
		return protowire.BytesType
	case protoreflect.GroupKind:
		return protowire.StartGroupType
	default:
		panic(fmt.Errorf("minitable: invalid field kind %v", k))
	}
}

// Packable returns whether values of this kind may use the packed encoding.
func Packable(k protoreflect.Kind) bool {
	switch WireType(k) {
	case protowire.VarintType, protowire.Fixed32Type, protowire.Fixed64Type:
		return true
	default:
		return false
	}
}
