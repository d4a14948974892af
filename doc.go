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

// Package minitable is a table-driven Protobuf runtime: it decodes and
// encodes the binary wire format for any message type using only a compact
// schema table, with no per-message generated code.
//
// A [Table] is compiled once, from a message descriptor with [Compile] or
// from a hand-written [MessageSchema] with [CompileSchema]. Tables are
// immutable and may be shared between goroutines. A [Message] is an instance
// of a table:
//
//	table := minitable.Compile(md)
//	msg := minitable.NewMessage(table)
//	if err := msg.Unmarshal(data); err != nil {
//		// ...
//	}
//	name := msg.Get(table.ByName("cluster_name")).String()
//
// Field values are [protoreflect.Value]s; repeated and map fields are
// exposed as [List] and [Map], which implement [protoreflect.List] and
// [protoreflect.Map].
//
// When a table was compiled from a descriptor, *Message is a [proto.Message]
// and *Table is a [protoreflect.MessageType], so messages work with
// [proto.Marshal], [proto.Unmarshal], protojson, and anything else built on
// reflection. proto.Marshal and proto.Unmarshal dispatch back into this
// package's encoder and decoder.
//
// # Decoding
//
// Each message type carries a small fast dispatch table indexed by the low
// bits of the field tag. A tag that hits its entry exactly is decoded by a
// routine specialized for that field's shape; any other tag is resolved
// through the field table by the generic decoder. Both paths produce
// identical messages; [WithFastPath] turns the fast path off.
//
// Unknown fields are kept verbatim and re-emitted after known fields when
// encoding, unless [WithDiscardUnknown] is set.
//
// A failed [Message.Unmarshal] leaves the message empty.
//
// # Encoding
//
// [Message.Marshal] writes fields in ascending field number order. Fields
// with explicit presence are written when set; other scalars are written
// when they are not zero. Packed repeated fields are written packed.
// Map entries and repeated elements are written in insertion order.
//
// # Concurrency
//
// A *Message is not safe for concurrent mutation. Reading one message from
// many goroutines is fine.
package minitable
