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
	"math/bits"

	"buf.build/go/minitable/internal/tdp"
)

// fastTable builds the fast dispatch table for t.
//
// A tag's slot is (tag & mask) >> 3, which is its field number modulo the
// table length. The table is just long enough to give every eligible field
// its own slot, up to the configured limit; on a collision the lower field
// number keeps the slot and the other field is only reachable through the
// generic decoder.
func (c *compiler) fastTable(t *tdp.Type) ([]tdp.FastEntry, tdp.Tag) {
	limit := min(c.MaxFastEntries, tdp.MaxFastEntries)
	if limit <= 0 {
		return nil, 0
	}
	limit = 1 << (bits.Len(uint(limit)) - 1)

	var largest int
	for i := range t.Fields {
		f := &t.Fields[i]
		if tdp.SelectHandler(f) != tdp.HandlerNone {
			largest = max(largest, int(f.Number))
		}
	}
	if largest == 0 {
		return nil, 0
	}

	n := min(1<<bits.Len(uint(largest)), limit)
	table := make([]tdp.FastEntry, n)
	mask := tdp.Tag(n-1) << 3

	for i := range t.Fields {
		f := &t.Fields[i]
		h := tdp.SelectHandler(f)
		if h == tdp.HandlerNone {
			continue
		}

		tag := f.Tag()
		e := &table[(tag&mask)>>3]
		if e.Tag != 0 {
			c.log("fast", "%s: %v collides with %v", t.Name, tag, e.Tag)
			continue
		}
		*e = tdp.FastEntry{
			Tag:      tag,
			Handler:  h,
			Offset:   f.Offset,
			Presence: f.Presence,
			Sub:      f.Sub,
			Field:    uint32(i),
		}
	}
	return table, mask
}
