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

package dynamic

import (
	"encoding/binary"

	"buf.build/go/minitable/internal/tdp"
)

// Load reads the raw bits of a scalar field, ignoring presence.
func (m *Message) Load(f *tdp.Field) uint64 {
	switch f.Rep {
	case tdp.Rep1Byte:
		return uint64(m.Data[f.Offset])
	case tdp.Rep4Byte:
		return uint64(m.Load32(f.Offset))
	case tdp.Rep8Byte:
		return m.Load64(f.Offset)
	default:
		panic("minitable: load from slot field " + f.Name)
	}
}

// Store writes the raw bits of a scalar field, ignoring presence. Bits that
// do not fit the field's representation are dropped.
func (m *Message) Store(f *tdp.Field, bits uint64) {
	switch f.Rep {
	case tdp.Rep1Byte:
		m.Data[f.Offset] = byte(bits)
	case tdp.Rep4Byte:
		m.Store32(f.Offset, uint32(bits))
	case tdp.Rep8Byte:
		m.Store64(f.Offset, bits)
	default:
		panic("minitable: store to slot field " + f.Name)
	}
}

// Store8 writes a byte at the given data offset.
func (m *Message) Store8(offset uint32, v byte) {
	m.Data[offset] = v
}

// Load32 reads four bytes at the given data offset.
func (m *Message) Load32(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(m.Data[offset:])
}

// Store32 writes four bytes at the given data offset.
func (m *Message) Store32(offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(m.Data[offset:], v)
}

// Load64 reads eight bytes at the given data offset.
func (m *Message) Load64(offset uint32) uint64 {
	return binary.LittleEndian.Uint64(m.Data[offset:])
}

// Store64 writes eight bytes at the given data offset.
func (m *Message) Store64(offset uint32, v uint64) {
	binary.LittleEndian.PutUint64(m.Data[offset:], v)
}
