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
	"fmt"
	"iter"

	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
	"buf.build/go/minitable/internal/tdp/marshal"
	"buf.build/go/minitable/internal/tdp/vm"
	"buf.build/go/minitable/internal/xunsafe"
)

// Message is a decoded message: a message store laid out according to a
// [Table].
//
// *Message implements [proto.Message] and [protoreflect.Message], so it can
// be passed to the functions of the protobuf runtime. Tables compiled by
// [CompileSchema] have no descriptors; messages of such tables must be
// accessed through the [Field]-based methods instead.
type Message struct {
	impl dynamic.Message
}

// NewMessage allocates an empty message of the given type.
func NewMessage(t *Table) *Message {
	return wrapMessage(dynamic.New(&t.impl))
}

func wrapMessage(m *dynamic.Message) *Message {
	return xunsafe.Cast[Message](m)
}

// Table returns the table this message is laid out by.
func (m *Message) Table() *Table {
	return wrapTable(m.impl.Type)
}

// Unmarshal replaces the contents of m with the message encoded in data.
//
// On failure, the returned error wraps one of the Err* values of this
// package, and m is left empty. The error is a *[ParseError], which records
// the offset at which decoding failed.
func (m *Message) Unmarshal(data []byte, options ...UnmarshalOption) error {
	m.impl.Reset()
	err := vm.Run(&m.impl, data, unmarshalOptions(options))
	if err != nil {
		m.impl.Reset()
	}
	return err
}

// Merge decodes data into m, as if data had been appended to the encoding
// of m. On failure, m may have been partially updated.
func (m *Message) Merge(data []byte, options ...UnmarshalOption) error {
	return vm.Run(&m.impl, data, unmarshalOptions(options))
}

func unmarshalOptions(options []UnmarshalOption) vm.Options {
	opts := vm.NewOptions()
	for _, opt := range options {
		if opt.apply != nil {
			opt.apply(&opts)
		}
	}
	return opts
}

// Marshal encodes m. Fields are written in field number order, followed by
// any unknown fields.
func (m *Message) Marshal() []byte {
	return m.AppendMarshal(nil)
}

// AppendMarshal appends the encoding of m to b.
func (m *Message) AppendMarshal(b []byte) []byte {
	return marshal.Append(b, &m.impl)
}

// Size returns the length of the encoding of m.
func (m *Message) Size() int {
	return marshal.Size(&m.impl)
}

// Reset clears every field of m.
func (m *Message) Reset() {
	m.impl.Reset()
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	return wrapMessage(m.impl.Clone())
}

// CheckInitialized returns an error wrapping [ErrMissingRequired] if a
// required field is unset in m or any message reachable from it.
func (m *Message) CheckInitialized() error {
	if path, missing := m.impl.MissingRequired(); missing {
		return fmt.Errorf("minitable: %s.%s: %w", m.impl.Type.Name, path, ErrMissingRequired)
	}
	return nil
}

// HasField returns whether f is set.
//
// For fields without presence, this means "is not the zero value". Lists and
// maps are set when non-empty.
func (m *Message) HasField(f *Field) bool {
	return m.impl.Has(m.check(f))
}

// GetField returns the value of f, or its default if it is unset.
//
// Unset message fields return a read-only empty message. Unset repeated and
// map fields return read-only empty lists and maps.
func (m *Message) GetField(f *Field) protoreflect.Value {
	return valueOf(&m.impl, m.check(f))
}

// SetField sets the value of f. Setting a oneof member clears whichever
// other member of the oneof was set.
//
// Message values must either come from this package and have the field's
// message type, or be some other [proto.Message] of the same full name, in
// which case they are copied.
func (m *Message) SetField(f *Field, v protoreflect.Value) {
	store(&m.impl, m.check(f), v)
}

// ClearField unsets f.
func (m *Message) ClearField(f *Field) {
	m.impl.Clear(m.check(f))
}

// MutableField returns a mutable reference to a message, repeated or map
// field, allocating it if it is unset.
func (m *Message) MutableField(f *Field) protoreflect.Value {
	return mutable(&m.impl, m.check(f))
}

// WhichField returns the member of f's oneof that is currently set, or nil.
//
// If f is not in a oneof, returns f if it is set.
func (m *Message) WhichField(f *Field) *Field {
	impl := m.check(f)
	off, ok := impl.Presence.Oneof()
	if !ok {
		if m.impl.Has(impl) {
			return f
		}
		return nil
	}
	return wrapField(m.impl.Type.ByNumber(m.impl.Case(off)))
}

// Fields iterates over the fields that are set, in field number order.
func (m *Message) Fields() iter.Seq2[*Field, protoreflect.Value] {
	return func(yield func(*Field, protoreflect.Value) bool) {
		t := m.impl.Type
		for i := range t.Fields {
			f := &t.Fields[i]
			if !m.impl.Has(f) {
				continue
			}
			if !yield(wrapField(f), valueOf(&m.impl, f)) {
				return
			}
		}
	}
}

// Format implements [fmt.Formatter], printing the message store.
func (m *Message) Format(s fmt.State, verb rune) {
	m.impl.Format(s, verb)
}

func (m *Message) check(f *Field) *tdp.Field {
	if f.impl.Parent != m.impl.Type {
		panic(fmt.Sprintf("minitable: %v is not a field of %s", f, m.impl.Type.Name))
	}
	return &f.impl
}
