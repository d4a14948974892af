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
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
	"buf.build/go/minitable/internal/tdp/vm"
)

// Conversions between the raw bits kept by the message store and
// protoreflect.Value.

func scalarValue(k protoreflect.Kind, bits uint64) protoreflect.Value {
	switch k {
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(bits != 0)
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(bits))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(bits))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(int64(bits))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(bits)
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(math.Float32frombits(uint32(bits)))
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(math.Float64frombits(bits))
	case protoreflect.EnumKind:
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(int32(bits)))
	default:
		panic(fmt.Sprintf("minitable: %v is not a scalar kind", k))
	}
}

func scalarBits(k protoreflect.Kind, v protoreflect.Value) uint64 {
	switch k {
	case protoreflect.BoolKind:
		if v.Bool() {
			return 1
		}
		return 0
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return uint64(uint32(v.Int()))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint64(uint32(v.Uint()))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return uint64(v.Int())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint()
	case protoreflect.FloatKind:
		return uint64(math.Float32bits(float32(v.Float())))
	case protoreflect.DoubleKind:
		return math.Float64bits(v.Float())
	case protoreflect.EnumKind:
		return uint64(uint32(v.Enum()))
	default:
		panic(fmt.Sprintf("minitable: %v is not a scalar kind", k))
	}
}

func bytesValue(k protoreflect.Kind, b []byte) protoreflect.Value {
	if k == protoreflect.StringKind {
		return protoreflect.ValueOfString(string(b))
	}
	return protoreflect.ValueOfBytes(b)
}

func valueBytes(k protoreflect.Kind, v protoreflect.Value) []byte {
	if k == protoreflect.StringKind {
		return []byte(v.String())
	}
	return v.Bytes()
}

// defaultValue returns the value of an unset singular non-message field.
func defaultValue(f *tdp.Field) protoreflect.Value {
	if fd := f.Descriptor; fd != nil {
		return fd.Default()
	}
	if f.IsBytes() {
		return bytesValue(f.Kind, nil)
	}
	return scalarValue(f.Kind, 0)
}

// valueOf reads f out of m as a protoreflect.Value. m may be nil, in which
// case every field reads as unset.
func valueOf(m *dynamic.Message, f *tdp.Field) protoreflect.Value {
	switch {
	case f.Mode == tdp.Array:
		var l *dynamic.List
		if m != nil {
			l = m.List(f)
		}
		return protoreflect.ValueOfList(&List{field: f, impl: l})

	case f.Mode == tdp.Map:
		var mp *dynamic.Map
		if m != nil {
			mp = m.Map(f)
		}
		return protoreflect.ValueOfMap(&Map{field: f, impl: mp})

	case f.IsMessage():
		if m != nil {
			if sub := m.Submessage(f); sub != nil {
				return protoreflect.ValueOfMessage(wrapMessage(sub))
			}
		}
		return protoreflect.ValueOfMessage(empty{wrapTable(f.Message())})

	case m == nil || !m.Has(f):
		return defaultValue(f)

	case f.IsBytes():
		return bytesValue(f.Kind, m.Bytes(f))

	default:
		return scalarValue(f.Kind, m.Get(f))
	}
}

// store writes v into f. Lists and maps replace the field's contents.
func store(m *dynamic.Message, f *tdp.Field, v protoreflect.Value) {
	switch {
	case f.Mode == tdp.Array:
		src := v.List()
		l := &List{field: f, impl: new(dynamic.List)}
		for i := range src.Len() {
			l.Append(src.Get(i))
		}
		m.Slots[f.Offset].List = l.impl

	case f.Mode == tdp.Map:
		mp := &Map{field: f, impl: &dynamic.Map{Entry: m.Type.Sub(f)}}
		v.Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			mp.Set(k, v)
			return true
		})
		m.Slots[f.Offset].Map = mp.impl

	case f.IsMessage():
		m.SetSubmessage(f, toMessage(m.Type.Sub(f), v))

	case f.IsBytes():
		m.SetBytes(f, valueBytes(f.Kind, v))

	default:
		m.Set(f, scalarBits(f.Kind, v))
	}
}

// toMessage converts a message value into a store of type t. Values produced
// by this package are used as-is; anything else is copied through the wire
// format.
func toMessage(t *tdp.Type, v protoreflect.Value) *dynamic.Message {
	switch msg := v.Message().(type) {
	case *Message:
		if msg.impl.Type != t {
			panic(fmt.Sprintf("minitable: cannot use %s as %s", msg.impl.Type.Name, t.Name))
		}
		return &msg.impl
	case empty:
		return dynamic.New(t)
	}

	src := v.Message()
	if src.Descriptor().FullName() != protoreflect.FullName(t.Name) {
		panic(fmt.Sprintf("minitable: cannot use %s as %s", src.Descriptor().FullName(), t.Name))
	}
	data, err := proto.MarshalOptions{AllowPartial: true}.Marshal(src.Interface())
	if err != nil {
		panic(fmt.Errorf("minitable: copying %s: %w", t.Name, err))
	}
	out := dynamic.New(t)
	if err := vm.Run(out, data, vm.NewOptions()); err != nil {
		panic(fmt.Errorf("minitable: copying %s: %w", t.Name, err))
	}
	return out
}

// mutable returns the mutable storage for a message, list or map field,
// allocating it if necessary.
func mutable(m *dynamic.Message, f *tdp.Field) protoreflect.Value {
	switch {
	case f.Mode == tdp.Array:
		return protoreflect.ValueOfList(&List{field: f, impl: m.MutableList(f)})
	case f.Mode == tdp.Map:
		return protoreflect.ValueOfMap(&Map{field: f, impl: m.MutableMap(f)})
	case f.IsMessage():
		return protoreflect.ValueOfMessage(wrapMessage(m.MutableSubmessage(f)))
	default:
		panic(fmt.Sprintf("minitable: field %s.%s is not mutable", f.Parent.Name, f.Name))
	}
}

// newValue returns a fresh, detached value suitable for storing into f.
func newValue(f *tdp.Field) protoreflect.Value {
	switch {
	case f.Mode == tdp.Array:
		return protoreflect.ValueOfList(&List{field: f, impl: new(dynamic.List)})
	case f.Mode == tdp.Map:
		return protoreflect.ValueOfMap(&Map{field: f, impl: &dynamic.Map{Entry: f.Message()}})
	case f.IsMessage():
		return protoreflect.ValueOfMessage(wrapMessage(dynamic.New(f.Message())))
	default:
		return defaultValue(f)
	}
}
