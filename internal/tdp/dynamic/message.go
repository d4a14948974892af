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

// Package dynamic contains the message store: the in-memory form of a
// message whose layout is described by a [tdp.Type].
package dynamic

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"buf.build/go/minitable/internal/debug"
	"buf.build/go/minitable/internal/tdp"
)

// Message is a dynamic message value.
//
// Fixed-size scalars live in Data at the offsets given by the type's fields,
// after the hasbit words and oneof case words. Everything that owns memory
// (strings, bytes, submessages, repeated fields and maps) lives in Slots.
//
// A Message exclusively owns everything reachable from its slots.
type Message struct {
	Type    *tdp.Type
	Data    []byte
	Slots   []Slot
	Unknown []byte // Unknown field records, verbatim.

	// Cached encoded size, written by the encoder's size pass.
	SizeCache int
}

// Slot is the storage for a field that owns memory. Which member is used
// depends on the field's kind and mode; the others are always zero.
type Slot struct {
	Bytes   []byte   // string and bytes
	Message *Message // message and group
	List    *List    // repeated
	Map     *Map     // map
}

// New allocates an empty message of the given type.
func New(t *tdp.Type) *Message {
	m := &Message{Type: t}
	if t.Size > 0 {
		m.Data = make([]byte, t.Size)
	}
	if t.Slots > 0 {
		m.Slots = make([]Slot, t.Slots)
	}
	return m
}

// Reset clears every field of m, keeping its allocations.
func (m *Message) Reset() {
	clear(m.Data)
	clear(m.Slots)
	m.Unknown = m.Unknown[:0]
	m.SizeCache = 0
}

// Hasbit returns the nth hasbit.
func (m *Message) Hasbit(n uint32) bool {
	return m.Data[n/8]&(1<<(n%8)) != 0
}

// SetHasbit sets the nth hasbit.
func (m *Message) SetHasbit(n uint32) {
	m.Data[n/8] |= 1 << (n % 8)
}

// ClearHasbit clears the nth hasbit.
func (m *Message) ClearHasbit(n uint32) {
	m.Data[n/8] &^= 1 << (n % 8)
}

// Case returns the number of the member currently set in the oneof whose
// case word is at the given offset, or zero.
func (m *Message) Case(offset uint32) protowire.Number {
	return protowire.Number(m.Load32(offset))
}

// Has returns whether a field is present.
func (m *Message) Has(f *tdp.Field) bool {
	if n, ok := f.Presence.Hasbit(); ok {
		return m.Hasbit(n)
	}
	if off, ok := f.Presence.Oneof(); ok {
		return m.Case(off) == f.Number
	}

	switch {
	case f.Mode == tdp.Array:
		l := m.Slots[f.Offset].List
		return l != nil && l.Len() > 0
	case f.Mode == tdp.Map:
		mp := m.Slots[f.Offset].Map
		return mp != nil && mp.Len() > 0
	case f.IsMessage():
		return m.Slots[f.Offset].Message != nil
	case f.IsBytes():
		return len(m.Slots[f.Offset].Bytes) > 0
	default:
		return m.Load(f) != 0
	}
}

// MarkSet records that f has been set. For oneof members, this clears
// whichever other member was set before.
func (m *Message) MarkSet(f *tdp.Field) {
	if n, ok := f.Presence.Hasbit(); ok {
		m.SetHasbit(n)
		return
	}
	if off, ok := f.Presence.Oneof(); ok {
		cur := m.Case(off)
		if cur == f.Number {
			return
		}
		if cur != 0 {
			if prev := m.Type.ByNumber(cur); prev != nil {
				m.clearStorage(prev)
			}
		}
		m.Store32(off, uint32(f.Number))
	}
}

// Clear resets a field to its unset state.
func (m *Message) Clear(f *tdp.Field) {
	if n, ok := f.Presence.Hasbit(); ok {
		m.ClearHasbit(n)
	}
	if off, ok := f.Presence.Oneof(); ok {
		if m.Case(off) != f.Number {
			return
		}
		m.Store32(off, 0)
	}
	m.clearStorage(f)
}

func (m *Message) clearStorage(f *tdp.Field) {
	if f.Rep == tdp.RepSlot {
		m.Slots[f.Offset] = Slot{}
		return
	}
	clear(m.Data[f.Offset : f.Offset+f.Rep.Size()])
}

// Get returns the raw bits of a scalar field: zero- or sign-extended per its
// representation, floats as their IEEE bits, bools as 0 or 1.
func (m *Message) Get(f *tdp.Field) uint64 {
	if off, ok := f.Presence.Oneof(); ok && m.Case(off) != f.Number {
		return 0
	}
	return m.Load(f)
}

// Set stores the raw bits of a scalar field and marks it present.
func (m *Message) Set(f *tdp.Field, bits uint64) {
	m.MarkSet(f)
	m.Store(f, bits)
}

// Bytes returns the value of a string or bytes field.
func (m *Message) Bytes(f *tdp.Field) []byte {
	if off, ok := f.Presence.Oneof(); ok && m.Case(off) != f.Number {
		return nil
	}
	return m.Slots[f.Offset].Bytes
}

// SetBytes sets the value of a string or bytes field and marks it present.
func (m *Message) SetBytes(f *tdp.Field, b []byte) {
	m.MarkSet(f)
	m.Slots[f.Offset].Bytes = b
}

// Submessage returns the value of a singular message field, or nil.
func (m *Message) Submessage(f *tdp.Field) *Message {
	if off, ok := f.Presence.Oneof(); ok && m.Case(off) != f.Number {
		return nil
	}
	return m.Slots[f.Offset].Message
}

// MutableSubmessage returns the value of a singular message field,
// allocating it if necessary, and marks it present.
func (m *Message) MutableSubmessage(f *tdp.Field) *Message {
	m.MarkSet(f)
	s := &m.Slots[f.Offset]
	if s.Message == nil {
		s.Message = New(m.Type.Sub(f))
	}
	return s.Message
}

// SetSubmessage replaces the value of a singular message field.
func (m *Message) SetSubmessage(f *tdp.Field, sub *Message) {
	debug.Assert(sub.Type == m.Type.Sub(f), "%v: wrong message type %s", f, sub.Type.Name)
	m.MarkSet(f)
	m.Slots[f.Offset].Message = sub
}

// List returns the backing storage of a repeated field, or nil.
func (m *Message) List(f *tdp.Field) *List {
	return m.Slots[f.Offset].List
}

// MutableList returns the backing storage of a repeated field, allocating it
// if necessary.
func (m *Message) MutableList(f *tdp.Field) *List {
	s := &m.Slots[f.Offset]
	if s.List == nil {
		s.List = new(List)
	}
	return s.List
}

// Map returns the backing storage of a map field, or nil.
func (m *Message) Map(f *tdp.Field) *Map {
	return m.Slots[f.Offset].Map
}

// MutableMap returns the backing storage of a map field, allocating it if
// necessary.
func (m *Message) MutableMap(f *tdp.Field) *Map {
	s := &m.Slots[f.Offset]
	if s.Map == nil {
		s.Map = &Map{Entry: m.Type.Sub(f)}
	}
	return s.Map
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := &Message{
		Type:    m.Type,
		Data:    slices.Clone(m.Data),
		Slots:   make([]Slot, len(m.Slots)),
		Unknown: bytes.Clone(m.Unknown),
	}
	for i, s := range m.Slots {
		out.Slots[i] = Slot{
			Bytes:   bytes.Clone(s.Bytes),
			Message: s.Message.Clone(),
			List:    s.List.Clone(),
			Map:     s.Map.Clone(),
		}
	}
	return out
}

// MissingRequired returns the dotted path of the first required field that
// is not set in m or anything reachable from it.
func (m *Message) MissingRequired() (string, bool) {
	t := m.Type
	if !t.MayHaveRequired {
		return "", false
	}

	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Required && !m.Has(f) {
			return f.Name, true
		}
		if !f.IsMessage() || !t.Sub(f).MayHaveRequired {
			continue
		}

		var path string
		var missing bool
		switch f.Mode {
		case tdp.Scalar:
			if sub := m.Submessage(f); sub != nil {
				path, missing = sub.MissingRequired()
			}
		case tdp.Array:
			if l := m.List(f); l != nil {
				for _, sub := range l.Messages {
					if path, missing = sub.MissingRequired(); missing {
						break
					}
				}
			}
		case tdp.Map:
			if mp := m.Map(f); mp != nil {
				for _, e := range mp.Entries {
					if path, missing = e.MissingRequired(); missing {
						break
					}
				}
			}
		}
		if missing {
			return f.Name + "." + path, true
		}
	}
	return "", false
}

// Format implements [fmt.Formatter], printing every present field.
func (m *Message) Format(s fmt.State, verb rune) {
	var b strings.Builder
	m.dump(&b, 0)
	fmt.Fprint(s, b.String())
}

func (m *Message) dump(b *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(b, "%s {\n", m.Type.Name)
	for i := range m.Type.Fields {
		f := &m.Type.Fields[i]
		if !m.Has(f) {
			continue
		}
		fmt.Fprintf(b, "%s  %d: ", pad, f.Number)
		switch {
		case f.Mode == tdp.Array:
			l := m.List(f)
			switch {
			case l.Messages != nil:
				b.WriteString("[\n")
				for _, sub := range l.Messages {
					fmt.Fprintf(b, "%s    ", pad)
					sub.dump(b, indent+2)
				}
				fmt.Fprintf(b, "%s  ]\n", pad)
			case l.Bytes != nil:
				fmt.Fprintf(b, "%q\n", l.Bytes)
			default:
				fmt.Fprintf(b, "%#x\n", l.Bits)
			}
		case f.Mode == tdp.Map:
			b.WriteString("{\n")
			for _, e := range m.Map(f).Entries {
				fmt.Fprintf(b, "%s    ", pad)
				e.dump(b, indent+2)
			}
			fmt.Fprintf(b, "%s  }\n", pad)
		case f.IsMessage():
			m.Submessage(f).dump(b, indent+1)
		case f.IsBytes():
			fmt.Fprintf(b, "%q\n", m.Bytes(f))
		default:
			fmt.Fprintf(b, "%#x\n", m.Get(f))
		}
	}
	if len(m.Unknown) > 0 {
		fmt.Fprintf(b, "%s  ?: %x\n", pad, m.Unknown)
	}
	fmt.Fprintf(b, "%s}\n", pad)
}
