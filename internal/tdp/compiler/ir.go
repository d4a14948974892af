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

package compiler

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
)

// Message is the compiler's input form of a message type. It is produced
// either from a protoreflect descriptor or from a hand-written schema.
type Message struct {
	Name     string
	Fields   []Field
	Ext      tdp.ExtMode
	MapEntry bool

	Descriptor protoreflect.MessageDescriptor
}

// Field is the compiler's input form of a field.
type Field struct {
	Name   string
	Number protowire.Number
	Kind   protoreflect.Kind
	Mode   tdp.Mode

	// Explicit presence: the field gets a hasbit. Ignored for message
	// fields, repeated fields and oneof members.
	Explicit bool
	Required bool
	// Name of the containing oneof, if any.
	Oneof string
	// Name of the message, group or map entry type this field refers to.
	Message string

	Packed       bool
	ValidateUTF8 bool

	Descriptor protoreflect.FieldDescriptor
}

func (f *Field) isMessage() bool {
	return f.Kind == protoreflect.MessageKind || f.Kind == protoreflect.GroupKind
}

// rep selects the storage representation for a field.
func (f *Field) rep() tdp.Rep {
	if f.Mode != tdp.Scalar {
		return tdp.RepSlot
	}
	switch f.Kind {
	case protoreflect.BoolKind:
		return tdp.Rep1Byte
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Uint32Kind,
		protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind,
		protoreflect.FloatKind, protoreflect.EnumKind:
		return tdp.Rep4Byte
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Uint64Kind,
		protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.DoubleKind:
		return tdp.Rep8Byte
	default:
		return tdp.RepSlot
	}
}

// hasbit returns whether a field is assigned a hasbit.
func (f *Field) hasbit() bool {
	return f.Mode == tdp.Scalar && f.Oneof == "" && !f.isMessage() &&
		(f.Explicit || f.Required)
}
