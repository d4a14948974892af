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
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
)

// Map is a [protoreflect.Map] over a map field of a [Message].
//
// Range visits entries in the order their keys were first inserted. A Map
// obtained from an unset field is empty and read-only.
type Map struct {
	field *tdp.Field
	impl  *dynamic.Map
}

var _ protoreflect.Map = (*Map)(nil)

// Len implements [protoreflect.Map].
func (m *Map) Len() int {
	return m.impl.Len()
}

// Range implements [protoreflect.Map].
func (m *Map) Range(yield func(protoreflect.MapKey, protoreflect.Value) bool) {
	if m.impl == nil {
		return
	}
	entry := m.field.Message()
	for _, e := range m.impl.Entries {
		k := valueOf(e, entry.MapKey()).MapKey()
		if !yield(k, valueOf(e, entry.MapValue())) {
			return
		}
	}
}

// Has implements [protoreflect.Map].
func (m *Map) Has(k protoreflect.MapKey) bool {
	return m.impl.Lookup(m.key(k)) != nil
}

// Clear implements [protoreflect.Map].
func (m *Map) Clear(k protoreflect.MapKey) {
	if m.impl != nil {
		m.impl.Delete(m.key(k))
	}
}

// Get implements [protoreflect.Map].
func (m *Map) Get(k protoreflect.MapKey) protoreflect.Value {
	e := m.impl.Lookup(m.key(k))
	if e == nil {
		return protoreflect.Value{}
	}
	return valueOf(e, e.Type.MapValue())
}

// Set implements [protoreflect.Map].
func (m *Map) Set(k protoreflect.MapKey, v protoreflect.Value) {
	e := m.newEntry(k)
	store(e, e.Type.MapValue(), v)
	m.impl.Insert(e)
}

// Mutable implements [protoreflect.Map].
func (m *Map) Mutable(k protoreflect.MapKey) protoreflect.Value {
	e := m.impl.Lookup(m.key(k))
	if e == nil {
		e = m.newEntry(k)
		m.impl.Insert(e)
	}
	return mutable(e, e.Type.MapValue())
}

// NewValue implements [protoreflect.Map].
func (m *Map) NewValue() protoreflect.Value {
	return newValue(m.field.Message().MapValue())
}

// IsValid implements [protoreflect.Map].
func (m *Map) IsValid() bool {
	return m.impl != nil
}

func (m *Map) key(k protoreflect.MapKey) dynamic.MapKey {
	f := m.field.Message().MapKey()
	if f.IsBytes() {
		return dynamic.MapKey{String: k.String()}
	}
	return dynamic.MapKey{Bits: scalarBits(f.Kind, k.Value())}
}

func (m *Map) newEntry(k protoreflect.MapKey) *dynamic.Message {
	if m.impl == nil {
		panic("minitable: mutating read-only map for " + m.field.Name)
	}
	e := dynamic.New(m.impl.Entry)
	store(e, e.Type.MapKey(), k.Value())
	if v := e.Type.MapValue(); v.IsMessage() {
		e.MutableSubmessage(v)
	}
	return e
}
