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
	"cmp"
	"slices"

	"buf.build/go/minitable/internal/tdp"
)

// layout assigns offsets, slots and presence to every field of t.
//
// The data region is laid out as: hasbit bytes (required fields first),
// padding to 4, oneof case words, then scalars sorted by decreasing size so
// that each is naturally aligned. The total is rounded up to 8.
func (c *compiler) layout(m *Message, t *tdp.Type) {
	t.Fields = make([]tdp.Field, len(m.Fields))

	var bits uint32
	assignBits := func(required bool) {
		for i := range m.Fields {
			in := &m.Fields[i]
			if in.hasbit() && in.Required == required {
				t.Fields[i].Presence = tdp.Presence(bits)
				bits++
			}
		}
	}
	for i := range t.Fields {
		t.Fields[i].Presence = tdp.NoPresence
	}
	assignBits(true)
	assignBits(false)

	size := align((bits+7)/8, 4)

	oneofs := make(map[string]uint32)
	for i := range m.Fields {
		name := m.Fields[i].Oneof
		if name == "" {
			continue
		}
		off, ok := oneofs[name]
		if !ok {
			off = size
			oneofs[name] = off
			size += 4
		}
		t.Fields[i].Presence = tdp.OneofPresence(off)
	}

	var scalars []int
	for i := range m.Fields {
		in, out := &m.Fields[i], &t.Fields[i]
		*out = tdp.Field{
			Parent:       t,
			Number:       in.Number,
			Name:         in.Name,
			Kind:         in.Kind,
			Mode:         in.Mode,
			Rep:          in.rep(),
			Presence:     out.Presence,
			Sub:          tdp.NoSub,
			Packed:       in.Packed,
			ValidateUTF8: in.ValidateUTF8,
			Required:     in.Required,
			Descriptor:   in.Descriptor,
		}
		if in.Required {
			t.RequiredCount++
		}

		if out.Rep == tdp.RepSlot {
			out.Offset = t.Slots
			t.Slots++
			continue
		}
		scalars = append(scalars, i)
	}

	slices.SortStableFunc(scalars, func(a, b int) int {
		return -cmp.Compare(t.Fields[a].Rep.Size(), t.Fields[b].Rep.Size())
	})
	for _, i := range scalars {
		f := &t.Fields[i]
		size = align(size, f.Rep.Size())
		f.Offset = size
		size += f.Rep.Size()
	}

	t.Size = align(size, 8)
	c.log("layout", "%s: %d bytes, %d bits, %d oneofs, %d slots", t.Name, t.Size, bits, len(oneofs), t.Slots)
}

func align(n, to uint32) uint32 {
	return (n + to - 1) / to * to
}
