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
	"bytes"
	"slices"
)

// List is the backing storage of a repeated field. Exactly one of its
// members is used, chosen by the field's kind: Bits holds scalars in the
// same raw form as [Message.Get], Bytes holds strings and bytes.
type List struct {
	Bits     []uint64
	Bytes    [][]byte
	Messages []*Message
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Bits) + len(l.Bytes) + len(l.Messages)
}

// Clone returns a deep copy of l.
func (l *List) Clone() *List {
	if l == nil {
		return nil
	}
	out := &List{Bits: slices.Clone(l.Bits)}
	if l.Bytes != nil {
		out.Bytes = make([][]byte, len(l.Bytes))
		for i, b := range l.Bytes {
			out.Bytes[i] = bytes.Clone(b)
		}
	}
	if l.Messages != nil {
		out.Messages = make([]*Message, len(l.Messages))
		for i, m := range l.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}
