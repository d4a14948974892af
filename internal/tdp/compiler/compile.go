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

// Package compiler turns message schemas into [tdp.Type] tables.
package compiler

import (
	"errors"
	"fmt"
	"iter"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
	"buf.build/go/minitable/internal/scc"
	"buf.build/go/minitable/internal/tdp"
)

// ErrInvalidSchema is returned for schemas that cannot be compiled.
var ErrInvalidSchema = errors.New("invalid schema")

// Options configures a compilation.
type Options struct {
	// Whether to build fast dispatch tables at all.
	FastTable bool
	// Upper bound on the length of a fast table; rounded down to a power
	// of two and clamped to [tdp.MaxFastEntries].
	MaxFastEntries int

	// Stored in [tdp.Library.Metadata].
	Metadata any
}

// NewOptions returns the default options.
func NewOptions() Options {
	return Options{
		FastTable:      true,
		MaxFastEntries: tdp.MaxFastEntries,
	}
}

// Compile builds a library out of the given messages. Only the messages
// reachable from root are included; root becomes [tdp.Library.Root].
func Compile(msgs []*Message, root string, opts Options) (*tdp.Library, error) {
	c := &compiler{
		Options: opts,
		byName:  make(map[string]*Message, len(msgs)),
		types:   make(map[string]*tdp.Type, len(msgs)),
	}
	for _, m := range msgs {
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate message %q", ErrInvalidSchema, m.Name)
		}
		c.byName[m.Name] = m
	}
	if err := c.compile(root); err != nil {
		return nil, err
	}
	return c.lib, nil
}

// compiler converts [Message]s into [tdp.Type]s.
type compiler struct {
	Options

	byName map[string]*Message
	types  map[string]*tdp.Type
	order  []*Message // Parallel to lib.Types.
	lib    *tdp.Library
}

func (c *compiler) compile(root string) error {
	c.lib = &tdp.Library{Metadata: c.Metadata}

	// Allocate every reachable type up front, so that submessage references
	// can be resolved to pointers regardless of cycles.
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := c.types[name]; ok {
			continue
		}
		m, ok := c.byName[name]
		if !ok {
			return fmt.Errorf("%w: unknown message %q", ErrInvalidSchema, name)
		}
		if err := c.validate(m); err != nil {
			return err
		}

		t := &tdp.Type{
			Name:       m.Name,
			Ext:        m.Ext,
			MapEntry:   m.MapEntry,
			Descriptor: m.Descriptor,
		}
		c.types[name] = t
		c.order = append(c.order, m)
		c.lib.Add(t)

		for i := range m.Fields {
			if ref := m.Fields[i].Message; ref != "" {
				queue = append(queue, ref)
			}
		}
	}

	for i, m := range c.order {
		t := c.lib.Types[i]
		c.layout(m, t)
		if err := c.link(m, t); err != nil {
			return err
		}
		t.DenseBelow = denseBelow(t)
		if c.FastTable {
			t.Fast, t.FastMask = c.fastTable(t)
		}
		c.log("type", "%v", t)
	}

	c.propagateRequired()
	return nil
}

// validate checks the invariants the decoder relies on.
func (c *compiler) validate(m *Message) error {
	fail := func(f *Field, format string, args ...any) error {
		return fmt.Errorf("%w: %s.%s: %s", ErrInvalidSchema, m.Name, f.Name, fmt.Sprintf(format, args...))
	}

	var prev protowire.Number
	for i := range m.Fields {
		f := &m.Fields[i]
		switch {
		case !f.Number.IsValid():
			return fail(f, "invalid field number %d", f.Number)
		case f.Number >= protowire.FirstReservedNumber && f.Number <= protowire.LastReservedNumber:
			return fail(f, "field number %d is reserved", f.Number)
		case f.Number <= prev:
			return fail(f, "field number %d is not greater than %d", f.Number, prev)
		case f.Kind < protoreflect.DoubleKind || f.Kind > protoreflect.Sint64Kind:
			return fail(f, "invalid kind %v", f.Kind)
		case f.isMessage() && f.Message == "":
			return fail(f, "missing message type")
		case !f.isMessage() && f.Mode != tdp.Map && f.Message != "":
			return fail(f, "%v field cannot refer to %q", f.Kind, f.Message)
		case f.Packed && (f.Mode != tdp.Array || !tdp.Packable(f.Kind)):
			return fail(f, "%v field cannot be packed", f.Kind)
		case f.Oneof != "" && f.Mode != tdp.Scalar:
			return fail(f, "oneof members must be singular")
		}
		prev = f.Number

		if f.Mode == tdp.Map {
			entry, ok := c.byName[f.Message]
			if !ok || !entry.MapEntry {
				return fail(f, "%q is not a map entry", f.Message)
			}
		}
	}

	if m.MapEntry {
		if len(m.Fields) != 2 || m.Fields[0].Number != 1 || m.Fields[1].Number != 2 {
			return fmt.Errorf("%w: map entry %s must have exactly fields 1 and 2", ErrInvalidSchema, m.Name)
		}
		switch k := m.Fields[0].Kind; k {
		case protoreflect.FloatKind, protoreflect.DoubleKind, protoreflect.BytesKind,
			protoreflect.EnumKind, protoreflect.MessageKind, protoreflect.GroupKind:
			return fmt.Errorf("%w: map entry %s: %v is not a valid key kind", ErrInvalidSchema, m.Name, k)
		}
		if m.Fields[0].Mode != tdp.Scalar || m.Fields[1].Mode != tdp.Scalar {
			return fmt.Errorf("%w: map entry %s: key and value must be singular", ErrInvalidSchema, m.Name)
		}
	}
	return nil
}

// link resolves submessage references.
func (c *compiler) link(m *Message, t *tdp.Type) error {
	subs := make(map[*tdp.Type]int32)
	for i := range m.Fields {
		f := &t.Fields[i]
		ref := m.Fields[i].Message
		if ref == "" {
			continue
		}
		sub := c.types[ref]
		if m.Fields[i].Kind == protoreflect.GroupKind && sub.MapEntry {
			return fmt.Errorf("%w: %s.%s: group refers to map entry", ErrInvalidSchema, m.Name, f.Name)
		}

		idx, ok := subs[sub]
		if !ok {
			idx = int32(len(t.Subs))
			subs[sub] = idx
			t.Subs = append(t.Subs, sub)
		}
		f.Sub = idx
	}
	return nil
}

func denseBelow(t *tdp.Type) int {
	n := 0
	for n < len(t.Fields) && t.Fields[n].Number == protowire.Number(n+1) {
		n++
	}
	return n
}

// propagateRequired computes [tdp.Type.MayHaveRequired]. Recursive types are
// handled by working over strongly connected components, dependencies first.
func (c *compiler) propagateRequired() {
	types := c.lib.Types
	dag := scc.Sort(len(types), func(n int) iter.Seq[int] {
		return func(yield func(int) bool) {
			for _, sub := range types[n].Subs {
				if !yield(sub.Index) {
					return
				}
			}
		}
	})

	may := make([]bool, len(dag.Components()))
	for i, comp := range dag.Components() {
		for _, dep := range comp.Deps {
			may[i] = may[i] || may[dep]
		}
		for _, n := range comp.Members {
			may[i] = may[i] || types[n].RequiredCount > 0
		}
		for _, n := range comp.Members {
			types[n].MayHaveRequired = may[i]
		}
	}
}

func (c *compiler) log(op, format string, args ...any) {
	debug.Log([]any{"%p", c}, op, format, args...)
}
