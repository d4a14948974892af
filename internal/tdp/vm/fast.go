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

package vm

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
	"buf.build/go/minitable/internal/zigzag"
)

// packedKinds maps packed handlers to a kind with the same decoding.
var packedKinds = [...]protoreflect.Kind{
	tdp.HandlerPackedVarint32: protoreflect.Int32Kind,
	tdp.HandlerPackedVarint64: protoreflect.Int64Kind,
	tdp.HandlerPackedZigZag32: protoreflect.Sint32Kind,
	tdp.HandlerPackedZigZag64: protoreflect.Sint64Kind,
	tdp.HandlerPackedBool:     protoreflect.BoolKind,
	tdp.HandlerPackedFixed32:  protoreflect.Fixed32Kind,
	tdp.HandlerPackedFixed64:  protoreflect.Fixed64Kind,
}

// fast runs the handler of a fast-path entry whose tag has just been read.
//
// Entries never belong to oneof members, so presence is at most a hasbit.
func (d *decoder) fast(m *dynamic.Message, e *tdp.FastEntry, depth int) error {
	switch e.Handler {
	case tdp.HandlerVarint32, tdp.HandlerVarint64, tdp.HandlerZigZag32, tdp.HandlerZigZag64, tdp.HandlerBool:
		v, err := d.varint()
		if err != nil {
			return err
		}
		switch e.Handler {
		case tdp.HandlerVarint32:
			m.Store32(e.Offset, uint32(v))
		case tdp.HandlerVarint64:
			m.Store64(e.Offset, v)
		case tdp.HandlerZigZag32:
			m.Store32(e.Offset, uint32(zigzag.Decode32(v)))
		case tdp.HandlerZigZag64:
			m.Store64(e.Offset, uint64(zigzag.Decode64(v)))
		case tdp.HandlerBool:
			m.Store8(e.Offset, byte(b2u(v != 0)))
		}

	case tdp.HandlerFixed32:
		v, err := d.fixed32()
		if err != nil {
			return err
		}
		m.Store32(e.Offset, v)

	case tdp.HandlerFixed64:
		v, err := d.fixed64()
		if err != nil {
			return err
		}
		m.Store64(e.Offset, v)

	case tdp.HandlerBytes, tdp.HandlerUTF8:
		b, err := d.payload(e.Handler == tdp.HandlerUTF8)
		if err != nil {
			return err
		}
		m.Slots[e.Offset].Bytes = b

	case tdp.HandlerMessage:
		s := &m.Slots[e.Offset]
		if s.Message == nil {
			s.Message = dynamic.New(m.Type.Subs[e.Sub])
		}
		return d.nested(s.Message, depth)

	case tdp.HandlerRepeatedVarint32, tdp.HandlerRepeatedVarint64,
		tdp.HandlerRepeatedZigZag32, tdp.HandlerRepeatedZigZag64, tdp.HandlerRepeatedBool:
		v, err := d.varint()
		if err != nil {
			return err
		}
		switch e.Handler {
		case tdp.HandlerRepeatedVarint32:
			v = uint64(uint32(v))
		case tdp.HandlerRepeatedZigZag32:
			v = uint64(uint32(zigzag.Decode32(v)))
		case tdp.HandlerRepeatedZigZag64:
			v = uint64(zigzag.Decode64(v))
		case tdp.HandlerRepeatedBool:
			v = b2u(v != 0)
		}
		l := list(m, e)
		l.Bits = append(l.Bits, v)
		return nil

	case tdp.HandlerRepeatedFixed32:
		v, err := d.fixed32()
		if err != nil {
			return err
		}
		l := list(m, e)
		l.Bits = append(l.Bits, uint64(v))
		return nil

	case tdp.HandlerRepeatedFixed64:
		v, err := d.fixed64()
		if err != nil {
			return err
		}
		l := list(m, e)
		l.Bits = append(l.Bits, v)
		return nil

	case tdp.HandlerRepeatedBytes, tdp.HandlerRepeatedUTF8:
		b, err := d.payload(e.Handler == tdp.HandlerRepeatedUTF8)
		if err != nil {
			return err
		}
		l := list(m, e)
		l.Bytes = append(l.Bytes, b)
		return nil

	case tdp.HandlerRepeatedMessage:
		sub := dynamic.New(m.Type.Subs[e.Sub])
		l := list(m, e)
		l.Messages = append(l.Messages, sub)
		return d.nested(sub, depth)

	case tdp.HandlerPackedVarint32, tdp.HandlerPackedVarint64,
		tdp.HandlerPackedZigZag32, tdp.HandlerPackedZigZag64, tdp.HandlerPackedBool,
		tdp.HandlerPackedFixed32, tdp.HandlerPackedFixed64:
		return d.packed(list(m, e), packedKinds[e.Handler])

	case tdp.HandlerMapEntry:
		return d.mapEntry(m, &m.Type.Fields[e.Field], depth)

	default:
		panic("minitable: invalid fast handler " + e.Handler.String())
	}

	if n, ok := e.Presence.Hasbit(); ok {
		m.SetHasbit(n)
	}
	return nil
}

func list(m *dynamic.Message, e *tdp.FastEntry) *dynamic.List {
	s := &m.Slots[e.Offset]
	if s.List == nil {
		s.List = new(dynamic.List)
	}
	return s.List
}
