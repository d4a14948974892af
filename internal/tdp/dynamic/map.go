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
	"slices"

	"buf.build/go/minitable/internal/tdp"
)

// Map is the backing storage of a map field.
//
// Each entry is a message of the synthetic entry type, exactly as it was
// decoded. Entries are kept in insertion order; replacing the value of an
// existing key keeps that key's position.
type Map struct {
	Entry   *tdp.Type
	Entries []*Message

	index map[MapKey]int
}

// MapKey is the comparable form of a map key.
type MapKey struct {
	Bits   uint64
	String string
}

// KeyOf extracts the key of a map entry.
func KeyOf(entry *Message) MapKey {
	f := entry.Type.MapKey()
	if f.IsBytes() {
		return MapKey{String: string(entry.Bytes(f))}
	}
	return MapKey{Bits: entry.Get(f)}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

// Lookup returns the entry with the given key, or nil.
func (m *Map) Lookup(k MapKey) *Message {
	if m == nil {
		return nil
	}
	if i, ok := m.index[k]; ok {
		return m.Entries[i]
	}
	return nil
}

// Insert adds an entry to the map. If an entry with the same key exists, it
// is replaced.
func (m *Map) Insert(entry *Message) {
	k := KeyOf(entry)
	if i, ok := m.index[k]; ok {
		m.Entries[i] = entry
		return
	}
	if m.index == nil {
		m.index = make(map[MapKey]int)
	}
	m.index[k] = len(m.Entries)
	m.Entries = append(m.Entries, entry)
}

// Delete removes the entry with the given key, if present.
func (m *Map) Delete(k MapKey) {
	i, ok := m.index[k]
	if !ok {
		return
	}
	m.Entries = slices.Delete(m.Entries, i, i+1)
	delete(m.index, k)
	for j := i; j < len(m.Entries); j++ {
		m.index[KeyOf(m.Entries[j])] = j
	}
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{Entry: m.Entry}
	for _, e := range m.Entries {
		out.Insert(e.Clone())
	}
	return out
}
