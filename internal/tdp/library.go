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

import "google.golang.org/protobuf/reflect/protoreflect"

// Library is the full output of one compilation. It owns every [Type]
// reachable from its root, so submessage references between them may form
// cycles freely.
type Library struct {
	Types []*Type // Types[0] is the root.

	byName       map[string]*Type
	byDescriptor map[protoreflect.MessageDescriptor]*Type

	// Compilation metadata, owned by the minitable package.
	Metadata any
}

// Root returns the type the library was compiled for.
func (l *Library) Root() *Type {
	return l.Types[0]
}

// Add appends a type to this library and assigns its index.
func (l *Library) Add(t *Type) {
	t.Index = len(l.Types)
	t.Library = l
	l.Types = append(l.Types, t)

	if l.byName == nil {
		l.byName = make(map[string]*Type)
	}
	l.byName[t.Name] = t
	if t.Descriptor != nil {
		if l.byDescriptor == nil {
			l.byDescriptor = make(map[protoreflect.MessageDescriptor]*Type)
		}
		l.byDescriptor[t.Descriptor] = t
	}
}

// ByName returns the type with the given name.
func (l *Library) ByName(name string) (*Type, bool) {
	t, ok := l.byName[name]
	return t, ok
}

// ByDescriptor returns the type compiled from the given descriptor.
func (l *Library) ByDescriptor(md protoreflect.MessageDescriptor) (*Type, bool) {
	t, ok := l.byDescriptor[md]
	return t, ok
}
