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
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/runtime/protoiface"
)

// empty is the unset value of a message field of type t.
type empty struct{ t *Table }

var (
	_ proto.Message        = empty{}
	_ protoreflect.Message = empty{}
)

// ProtoReflect implements [proto.Message].
func (e empty) ProtoReflect() protoreflect.Message {
	return e
}

// Descriptor implements [protoreflect.Message].
func (e empty) Descriptor() protoreflect.MessageDescriptor {
	return e.t.Descriptor()
}

// Type implements [protoreflect.Message].
func (e empty) Type() protoreflect.MessageType {
	return e.t
}

// New implements [protoreflect.Message].
func (e empty) New() protoreflect.Message {
	return NewMessage(e.t)
}

// Interface implements [protoreflect.Message].
func (e empty) Interface() protoreflect.ProtoMessage {
	return e
}

// Range implements [protoreflect.Message].
func (e empty) Range(func(protoreflect.FieldDescriptor, protoreflect.Value) bool) {}

// Has implements [protoreflect.Message].
func (e empty) Has(protoreflect.FieldDescriptor) bool {
	return false
}

// Clear implements [protoreflect.Message].
func (e empty) Clear(protoreflect.FieldDescriptor) {}

// Get implements [protoreflect.Message].
func (e empty) Get(fd protoreflect.FieldDescriptor) protoreflect.Value {
	return valueOf(nil, e.t.field(fd))
}

// Set implements [protoreflect.Message].
//
// Panics when called.
func (e empty) Set(protoreflect.FieldDescriptor, protoreflect.Value) {
	panic("minitable: Set on unset message " + e.t.Name())
}

// Mutable implements [protoreflect.Message].
//
// Panics when called.
func (e empty) Mutable(protoreflect.FieldDescriptor) protoreflect.Value {
	panic("minitable: Mutable on unset message " + e.t.Name())
}

// NewField implements [protoreflect.Message].
func (e empty) NewField(fd protoreflect.FieldDescriptor) protoreflect.Value {
	return newValue(e.t.field(fd))
}

// GetUnknown implements [protoreflect.Message].
func (e empty) GetUnknown() protoreflect.RawFields {
	return nil
}

// SetUnknown implements [protoreflect.Message].
//
// Panics when called with a non-empty value.
func (e empty) SetUnknown(raw protoreflect.RawFields) {
	if len(raw) == 0 {
		return
	}
	panic("minitable: SetUnknown on unset message " + e.t.Name())
}

// WhichOneof implements [protoreflect.Message].
func (e empty) WhichOneof(protoreflect.OneofDescriptor) protoreflect.FieldDescriptor {
	return nil
}

// IsValid implements [protoreflect.Message].
func (e empty) IsValid() bool {
	return false
}

// ProtoMethods implements [protoreflect.Message].
func (e empty) ProtoMethods() *protoiface.Methods {
	return &methods
}
