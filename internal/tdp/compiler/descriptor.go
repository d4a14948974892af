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

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"buf.build/go/minitable/internal/tdp"
)

// FromDescriptor converts md and every message reachable from it into
// compiler input. The first message returned is md itself.
func FromDescriptor(md protoreflect.MessageDescriptor) []*Message {
	var out []*Message
	seen := make(map[protoreflect.FullName]bool)

	var visit func(protoreflect.MessageDescriptor)
	visit = func(md protoreflect.MessageDescriptor) {
		if seen[md.FullName()] {
			return
		}
		seen[md.FullName()] = true

		m := fromMessage(md)
		out = append(out, m)
		for i := range md.Fields().Len() {
			if sub := md.Fields().Get(i).Message(); sub != nil {
				visit(sub)
			}
		}
	}
	visit(md)
	return out
}

func fromMessage(md protoreflect.MessageDescriptor) *Message {
	m := &Message{
		Name:       string(md.FullName()),
		MapEntry:   md.IsMapEntry(),
		Descriptor: md,
	}

	switch opts, _ := md.Options().(*descriptorpb.MessageOptions); {
	case opts.GetMessageSetWireFormat():
		m.Ext = tdp.MessageSet
	case md.ExtensionRanges().Len() > 0:
		m.Ext = tdp.Extendable
	}

	fds := md.Fields()
	for i := range fds.Len() {
		fd := fds.Get(i)
		f := Field{
			Name:       string(fd.Name()),
			Number:     fd.Number(),
			Kind:       fd.Kind(),
			Explicit:   fd.HasPresence(),
			Required:   fd.Cardinality() == protoreflect.Required,
			Descriptor: fd,
		}
		switch {
		case fd.IsMap():
			f.Mode = tdp.Map
		case fd.IsList():
			f.Mode = tdp.Array
			f.Packed = fd.IsPacked()
		}
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			f.Oneof = string(od.Name())
		}
		if sub := fd.Message(); sub != nil {
			f.Message = string(sub.FullName())
		}
		if fd.Kind() == protoreflect.StringKind {
			f.ValidateUTF8 = enforceUTF8(fd)
		}
		m.Fields = append(m.Fields, f)
	}

	slices.SortFunc(m.Fields, func(a, b Field) int { return cmp.Compare(a.Number, b.Number) })
	return m
}

// enforceUTF8 reports whether a string field must hold valid UTF-8. Proto3
// strings always do; editions files decide per field, which the descriptor
// implementation exposes through an unexported interface.
func enforceUTF8(fd protoreflect.FieldDescriptor) bool {
	if fd.Syntax() == protoreflect.Proto3 {
		return true
	}
	if fd2, ok := fd.(interface{ EnforceUTF8() bool }); ok {
		return fd2.EnforceUTF8()
	}
	return false
}
