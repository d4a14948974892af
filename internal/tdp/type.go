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

package tdp

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
)

// ExtMode is how a message treats numbers outside its declared fields.
type ExtMode uint8

const (
	NonExtendable ExtMode = iota
	Extendable
	MessageSet
)

func (m ExtMode) String() string {
	switch m {
	case NonExtendable:
		return "non-extendable"
	case Extendable:
		return "extendable"
	case MessageSet:
		return "message-set"
	default:
		return fmt.Sprintf("ExtMode(%d)", m)
	}
}

// Type is the schema table for a single message type.
type Type struct {
	Name    string
	Index   int // Position in Library.Types.
	Library *Library

	// Sorted by strictly increasing Number.
	Fields []Field
	// Submessage references, indexed by Field.Sub.
	Subs []*Type

	// Bytes in a message's data region, including hasbits and oneof words.
	Size uint32
	// Number of pointer slots in a message.
	Slots uint32

	// Required fields hold hasbits 0 through RequiredCount-1, except for
	// required message fields, which are present iff allocated.
	RequiredCount int
	// Whether this type or anything reachable from it has a required field.
	MayHaveRequired bool

	Ext ExtMode

	// Fields numbered 1 through DenseBelow are at Fields[number-1].
	DenseBelow int

	// Whether this is the synthetic entry type of a map field, with key
	// number 1 and value number 2.
	MapEntry bool

	// Fast dispatch table. Either empty or a power of two long; a tag's
	// entry is Fast[(tag&FastMask)>>3].
	Fast     []FastEntry
	FastMask Tag

	// Descriptor is the message this was compiled from, if any.
	Descriptor protoreflect.MessageDescriptor
}

// ByNumber looks up a field by number. Returns nil if there is no such field.
func (t *Type) ByNumber(n protowire.Number) *Field {
	if n >= 1 && int(n) <= t.DenseBelow {
		return &t.Fields[n-1]
	}

	i := sort.Search(len(t.Fields), func(i int) bool { return t.Fields[i].Number >= n })
	if i < len(t.Fields) && t.Fields[i].Number == n {
		return &t.Fields[i]
	}
	return nil
}

// ByName looks up a field by name. Returns nil if there is no such field.
func (t *Type) ByName(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// FastLookup returns the fast-path entry a tag maps to, if it matches.
func (t *Type) FastLookup(tag Tag) *FastEntry {
	if len(t.Fast) == 0 {
		return nil
	}
	e := &t.Fast[(tag&t.FastMask)>>3]
	if e.Tag != tag {
		return nil
	}
	return e
}

// Sub returns the submessage type of a field. Panics if the field has none.
func (t *Type) Sub(f *Field) *Type {
	return t.Subs[f.Sub]
}

// MapKey returns the key field of a map entry type.
func (t *Type) MapKey() *Field {
	debug.Assert(t.MapEntry, "%s is not a map entry", t.Name)
	return &t.Fields[0]
}

// MapValue returns the value field of a map entry type.
func (t *Type) MapValue() *Field {
	debug.Assert(t.MapEntry, "%s is not a map entry", t.Name)
	return &t.Fields[1]
}

// Format implements [fmt.Formatter].
func (t *Type) Format(s fmt.State, verb rune) {
	debug.Dict("Type",
		"name", t.Name,
		"size", t.Size,
		"slots", t.Slots,
		"fields", len(t.Fields),
		"dense", t.DenseBelow,
		"fast", len(t.Fast),
		"ext", t.Ext,
	).Format(s, verb)
}
