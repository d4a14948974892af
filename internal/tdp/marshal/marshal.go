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

// Package marshal contains the table-driven encoder.
//
// Encoding is two passes. [Size] walks the message and caches the encoded
// size of every submessage and map entry in [dynamic.Message.SizeCache];
// the append pass then writes each length prefix from the cache. Fields are
// written in ascending number order, followed by unknown fields.
package marshal

import (
	"encoding/binary"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
	"buf.build/go/minitable/internal/zigzag"
)

// Append appends the encoding of m to b.
func Append(b []byte, m *dynamic.Message) []byte {
	n := Size(m)
	b = slices.Grow(b, n)
	start := len(b)
	b = appendMessage(b, m)
	debug.Assert(len(b)-start == n, "%s: wrote %d bytes, sized %d", m.Type.Name, len(b)-start, n)
	return b
}

// Size returns the encoded size of m, refreshing the size caches of m and
// everything reachable from it.
func Size(m *dynamic.Message) int {
	t := m.Type
	n := 0
	for i := range t.Fields {
		f := &t.Fields[i]
		if !m.Has(f) {
			continue
		}
		tagSize := protowire.SizeVarint(uint64(tdp.EncodeTag(f.Number, 0)))

		switch f.Mode {
		case tdp.Map:
			for _, e := range m.Map(f).Entries {
				n += tagSize + sizePrefixed(sizeEntry(e))
			}

		case tdp.Array:
			l := m.List(f)
			switch {
			case f.IsMessage():
				for _, sub := range l.Messages {
					n += tagSize + sizeSubmessage(f, sub)
				}
			case f.IsBytes():
				for _, b := range l.Bytes {
					n += tagSize + sizePrefixed(len(b))
				}
			case f.Packed:
				n += tagSize + sizePrefixed(sizePacked(f.Kind, l.Bits))
			default:
				n += len(l.Bits) * tagSize
				for _, v := range l.Bits {
					n += sizeScalar(f.Kind, v)
				}
			}

		default:
			switch {
			case f.IsMessage():
				n += tagSize + sizeSubmessage(f, m.Submessage(f))
			case f.IsBytes():
				n += tagSize + sizePrefixed(len(m.Bytes(f)))
			default:
				n += tagSize + sizeScalar(f.Kind, m.Get(f))
			}
		}
	}

	n += len(m.Unknown)
	m.SizeCache = n
	return n
}

// sizeSubmessage returns the size of a message or group value, not
// including its first tag.
func sizeSubmessage(f *tdp.Field, sub *dynamic.Message) int {
	n := Size(sub)
	if f.Kind == protoreflect.GroupKind {
		return n + protowire.SizeVarint(uint64(tdp.EncodeTag(f.Number, protowire.EndGroupType)))
	}
	return sizePrefixed(n)
}

// sizeEntry sizes a map entry. Both key and value are always written.
func sizeEntry(e *dynamic.Message) int {
	t := e.Type
	n := 0
	for _, f := range []*tdp.Field{t.MapKey(), t.MapValue()} {
		n++ // Tags 1 and 2 are one byte.
		switch {
		case f.IsMessage():
			if sub := e.Submessage(f); sub != nil {
				n += sizePrefixed(Size(sub))
			} else {
				n++
			}
		case f.IsBytes():
			n += sizePrefixed(len(e.Bytes(f)))
		default:
			n += sizeScalar(f.Kind, e.Get(f))
		}
	}
	e.SizeCache = n
	return n
}

func sizePacked(k protoreflect.Kind, bits []uint64) int {
	switch tdp.WireType(k) {
	case protowire.Fixed32Type:
		return 4 * len(bits)
	case protowire.Fixed64Type:
		return 8 * len(bits)
	}
	n := 0
	for _, v := range bits {
		n += protowire.SizeVarint(varint(k, v))
	}
	return n
}

func sizeScalar(k protoreflect.Kind, bits uint64) int {
	switch tdp.WireType(k) {
	case protowire.Fixed32Type:
		return 4
	case protowire.Fixed64Type:
		return 8
	default:
		return protowire.SizeVarint(varint(k, bits))
	}
}

func sizePrefixed(n int) int {
	return protowire.SizeVarint(uint64(n)) + n
}

func appendMessage(b []byte, m *dynamic.Message) []byte {
	t := m.Type
	for i := range t.Fields {
		f := &t.Fields[i]
		if !m.Has(f) {
			continue
		}

		switch f.Mode {
		case tdp.Map:
			tag := uint64(tdp.EncodeTag(f.Number, protowire.BytesType))
			for _, e := range m.Map(f).Entries {
				b = protowire.AppendVarint(b, tag)
				b = protowire.AppendVarint(b, uint64(e.SizeCache))
				b = appendEntry(b, e)
			}

		case tdp.Array:
			l := m.List(f)
			switch {
			case f.IsMessage():
				for _, sub := range l.Messages {
					b = appendSubmessage(b, f, sub)
				}
			case f.IsBytes():
				tag := uint64(tdp.EncodeTag(f.Number, protowire.BytesType))
				for _, v := range l.Bytes {
					b = protowire.AppendVarint(b, tag)
					b = protowire.AppendBytes(b, v)
				}
			case f.Packed:
				b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.BytesType)))
				b = protowire.AppendVarint(b, uint64(sizePacked(f.Kind, l.Bits)))
				for _, v := range l.Bits {
					b = appendScalar(b, f.Kind, v)
				}
			default:
				tag := uint64(tdp.EncodeTag(f.Number, tdp.WireType(f.Kind)))
				for _, v := range l.Bits {
					b = protowire.AppendVarint(b, tag)
					b = appendScalar(b, f.Kind, v)
				}
			}

		default:
			switch {
			case f.IsMessage():
				b = appendSubmessage(b, f, m.Submessage(f))
			case f.IsBytes():
				b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.BytesType)))
				b = protowire.AppendBytes(b, m.Bytes(f))
			default:
				b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, tdp.WireType(f.Kind))))
				b = appendScalar(b, f.Kind, m.Get(f))
			}
		}
	}
	return append(b, m.Unknown...)
}

// appendSubmessage appends a message or group record, tag included.
func appendSubmessage(b []byte, f *tdp.Field, sub *dynamic.Message) []byte {
	if f.Kind == protoreflect.GroupKind {
		b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.StartGroupType)))
		b = appendMessage(b, sub)
		return protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.EndGroupType)))
	}
	b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.BytesType)))
	b = protowire.AppendVarint(b, uint64(sub.SizeCache))
	return appendMessage(b, sub)
}

// appendEntry appends the body of a map entry.
func appendEntry(b []byte, e *dynamic.Message) []byte {
	t := e.Type
	for _, f := range []*tdp.Field{t.MapKey(), t.MapValue()} {
		switch {
		case f.IsMessage():
			b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.BytesType)))
			if sub := e.Submessage(f); sub != nil {
				b = protowire.AppendVarint(b, uint64(sub.SizeCache))
				b = appendMessage(b, sub)
			} else {
				b = append(b, 0)
			}
		case f.IsBytes():
			b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, protowire.BytesType)))
			b = protowire.AppendBytes(b, e.Bytes(f))
		default:
			b = protowire.AppendVarint(b, uint64(tdp.EncodeTag(f.Number, tdp.WireType(f.Kind))))
			b = appendScalar(b, f.Kind, e.Get(f))
		}
	}
	return b
}

func appendScalar(b []byte, k protoreflect.Kind, bits uint64) []byte {
	switch tdp.WireType(k) {
	case protowire.Fixed32Type:
		return binary.LittleEndian.AppendUint32(b, uint32(bits))
	case protowire.Fixed64Type:
		return binary.LittleEndian.AppendUint64(b, bits)
	default:
		return protowire.AppendVarint(b, varint(k, bits))
	}
}

// varint converts raw store bits to the varint payload for a kind.
func varint(k protoreflect.Kind, bits uint64) uint64 {
	switch k {
	case protoreflect.Int32Kind, protoreflect.EnumKind:
		// Negative values are sign-extended to ten bytes on the wire.
		return uint64(int64(int32(uint32(bits))))
	case protoreflect.Sint32Kind:
		return zigzag.Encode32(int32(uint32(bits)))
	case protoreflect.Sint64Kind:
		return zigzag.Encode64(int64(bits))
	case protoreflect.Uint32Kind:
		return uint64(uint32(bits))
	default:
		return bits
	}
}
