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
	"errors"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/runtime/protoiface"

	"buf.build/go/minitable/internal/tdp/marshal"
	"buf.build/go/minitable/internal/tdp/vm"
)

var (
	_ proto.Message        = (*Message)(nil)
	_ protoreflect.Message = (*Message)(nil)
)

// ProtoReflect implements [proto.Message].
func (m *Message) ProtoReflect() protoreflect.Message {
	return m
}

// Descriptor implements [protoreflect.Message].
func (m *Message) Descriptor() protoreflect.MessageDescriptor {
	return m.impl.Type.Descriptor
}

// Type implements [protoreflect.Message].
//
// Always returns a *[Table].
func (m *Message) Type() protoreflect.MessageType {
	return m.Table()
}

// New implements [protoreflect.Message].
func (m *Message) New() protoreflect.Message {
	return NewMessage(m.Table())
}

// Interface implements [protoreflect.Message].
func (m *Message) Interface() protoreflect.ProtoMessage {
	return m
}

// Range implements [protoreflect.Message].
func (m *Message) Range(yield func(protoreflect.FieldDescriptor, protoreflect.Value) bool) {
	for f, v := range m.Fields() {
		if !yield(f.impl.Descriptor, v) {
			return
		}
	}
}

// Has implements [protoreflect.Message].
func (m *Message) Has(fd protoreflect.FieldDescriptor) bool {
	return m.impl.Has(m.Table().field(fd))
}

// Clear implements [protoreflect.Message].
func (m *Message) Clear(fd protoreflect.FieldDescriptor) {
	m.impl.Clear(m.Table().field(fd))
}

// Get implements [protoreflect.Message].
func (m *Message) Get(fd protoreflect.FieldDescriptor) protoreflect.Value {
	return valueOf(&m.impl, m.Table().field(fd))
}

// Set implements [protoreflect.Message].
func (m *Message) Set(fd protoreflect.FieldDescriptor, v protoreflect.Value) {
	store(&m.impl, m.Table().field(fd), v)
}

// Mutable implements [protoreflect.Message].
func (m *Message) Mutable(fd protoreflect.FieldDescriptor) protoreflect.Value {
	return mutable(&m.impl, m.Table().field(fd))
}

// NewField implements [protoreflect.Message].
func (m *Message) NewField(fd protoreflect.FieldDescriptor) protoreflect.Value {
	return newValue(m.Table().field(fd))
}

// WhichOneof implements [protoreflect.Message].
func (m *Message) WhichOneof(od protoreflect.OneofDescriptor) protoreflect.FieldDescriptor {
	fields := od.Fields()
	for i := range fields.Len() {
		if fd := fields.Get(i); m.Has(fd) {
			return fd
		}
	}
	return nil
}

// GetUnknown implements [protoreflect.Message].
func (m *Message) GetUnknown() protoreflect.RawFields {
	return m.impl.Unknown
}

// SetUnknown implements [protoreflect.Message].
func (m *Message) SetUnknown(raw protoreflect.RawFields) {
	m.impl.Unknown = raw
}

// IsValid implements [protoreflect.Message].
func (m *Message) IsValid() bool {
	return m != nil
}

// ProtoMethods implements [protoreflect.Message].
func (m *Message) ProtoMethods() *protoiface.Methods {
	return &methods
}

// methods lets the protobuf runtime call directly into the table-driven
// decoder and encoder.
var methods = protoiface.Methods{
	Flags:            protoiface.SupportMarshalDeterministic | protoiface.SupportUnmarshalDiscardUnknown,
	Size:             sizeShim,
	Marshal:          marshalShim,
	Unmarshal:        unmarshalShim,
	CheckInitialized: requiredShim,
}

// sizeShim implements [protoiface.Methods].Size.
func sizeShim(in protoiface.SizeInput) (out protoiface.SizeOutput) {
	if m, ok := in.Message.(*Message); ok {
		out.Size = marshal.Size(&m.impl)
	}
	return out
}

// marshalShim implements [protoiface.Methods].Marshal.
func marshalShim(in protoiface.MarshalInput) (out protoiface.MarshalOutput, err error) {
	out.Buf = in.Buf
	if m, ok := in.Message.(*Message); ok {
		out.Buf = marshal.Append(in.Buf, &m.impl)
	}
	return out, nil
}

// unmarshalShim implements [protoiface.Methods].Unmarshal. The runtime
// resets the message first, so this merges.
func unmarshalShim(in protoiface.UnmarshalInput) (out protoiface.UnmarshalOutput, err error) {
	m, ok := in.Message.(*Message)
	if !ok {
		return out, errors.New("minitable: unmarshal into unset message")
	}

	opts := vm.NewOptions()
	if in.Depth > 0 {
		opts.MaxDepth = in.Depth
	}
	opts.DiscardUnknown = in.Flags&protoiface.UnmarshalDiscardUnknown != 0
	return out, vm.Run(&m.impl, in.Buf, opts)
}

// requiredShim implements [protoiface.Methods].CheckInitialized.
func requiredShim(in protoiface.CheckInitializedInput) (out protoiface.CheckInitializedOutput, err error) {
	if m, ok := in.Message.(*Message); ok {
		err = m.CheckInitialized()
	}
	return out, err
}
