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

package minitable

import (
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/compiler"
)

// MessageSchema describes a message type for [CompileSchema], without a
// descriptor.
type MessageSchema struct {
	Name string
	// Fields must be in strictly increasing number order.
	Fields []FieldSchema

	Extendable bool
	MessageSet bool
}

// FieldSchema describes one field of a [MessageSchema].
type FieldSchema struct {
	Name   string
	Number protowire.Number
	// For map fields, this is ignored in favor of Map.
	Kind protoreflect.Kind

	Repeated bool
	Packed   bool
	// Optional gives a singular scalar field explicit presence.
	Optional bool
	Required bool
	// Name of the containing oneof; members of a oneof need not be adjacent.
	Oneof string

	// Name of the message type of a message or group field.
	Message      string
	ValidateUTF8 bool

	// Non-nil for map fields.
	Map *MapSchema
}

// MapSchema describes the key and value of a map field.
type MapSchema struct {
	Key   protoreflect.Kind
	Value protoreflect.Kind
	// Name of the value message type, for message values.
	ValueMessage string
	// Applies to string keys and values.
	ValidateUTF8 bool
}

// lower converts a schema into compiler input. Map fields produce an extra
// synthetic entry message.
func (m *MessageSchema) lower() []*compiler.Message {
	out := &compiler.Message{Name: m.Name}
	switch {
	case m.MessageSet:
		out.Ext = tdp.MessageSet
	case m.Extendable:
		out.Ext = tdp.Extendable
	}
	msgs := []*compiler.Message{out}

	for _, f := range m.Fields {
		field := compiler.Field{
			Name:         f.Name,
			Number:       f.Number,
			Kind:         f.Kind,
			Explicit:     f.Optional,
			Required:     f.Required,
			Oneof:        f.Oneof,
			Message:      f.Message,
			Packed:       f.Packed,
			ValidateUTF8: f.ValidateUTF8 && f.Kind == protoreflect.StringKind,
		}
		if f.Repeated {
			field.Mode = tdp.Array
		}

		if f.Map != nil {
			entry := &compiler.Message{
				Name:     m.Name + "." + entryName(f.Name),
				MapEntry: true,
				Fields: []compiler.Field{
					{
						Name:         "key",
						Number:       1,
						Kind:         f.Map.Key,
						ValidateUTF8: f.Map.ValidateUTF8 && f.Map.Key == protoreflect.StringKind,
					},
					{
						Name:         "value",
						Number:       2,
						Kind:         f.Map.Value,
						Message:      f.Map.ValueMessage,
						ValidateUTF8: f.Map.ValidateUTF8 && f.Map.Value == protoreflect.StringKind,
					},
				},
			}
			msgs = append(msgs, entry)

			field.Kind = protoreflect.MessageKind
			field.Mode = tdp.Map
			field.Message = entry.Name
		}
		out.Fields = append(out.Fields, field)
	}
	return msgs
}

// entryName produces the name protoc gives a map entry type: the field name
// in CamelCase, followed by "Entry".
func entryName(field string) string {
	var b strings.Builder
	upper := true
	for _, r := range field {
		switch {
		case r == '_':
			upper = true
		case upper:
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("Entry")
	return b.String()
}
