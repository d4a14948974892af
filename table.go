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

package minitable

import (
	"fmt"
	"iter"
	"slices"

	"github.com/tiendc/go-deepcopy"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/xunsafe"
)

// Table is a compiled schema table for one message type.
//
// When compiled from a descriptor, *Table implements
// [protoreflect.MessageType].
type Table struct {
	impl tdp.Type
}

// Field is a field of a [Table].
type Field struct {
	impl tdp.Field
}

func wrapTable(t *tdp.Type) *Table {
	if t == nil {
		return nil
	}
	return xunsafe.Cast[Table](t)
}

func wrapField(f *tdp.Field) *Field {
	if f == nil {
		return nil
	}
	return xunsafe.Cast[Field](f)
}

// Name returns the fully-qualified name of the message type.
func (t *Table) Name() string {
	return t.impl.Name
}

// Len returns the number of fields.
func (t *Table) Len() int {
	return len(t.impl.Fields)
}

// Field returns the ith field, in field number order.
func (t *Table) Field(i int) *Field {
	return wrapField(&t.impl.Fields[i])
}

// Fields iterates over the fields in field number order.
func (t *Table) Fields() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		for i := range t.impl.Fields {
			if !yield(wrapField(&t.impl.Fields[i])) {
				return
			}
		}
	}
}

// ByNumber returns the field with the given number, or nil.
func (t *Table) ByNumber(n protowire.Number) *Field {
	return wrapField(t.impl.ByNumber(n))
}

// ByName returns the field with the given name, or nil.
func (t *Table) ByName(name string) *Field {
	return wrapField(t.impl.ByName(name))
}

// Lookup returns the table for another message type compiled alongside
// this one, or nil.
func (t *Table) Lookup(name string) *Table {
	other, _ := t.impl.Library.ByName(name)
	return wrapTable(other)
}

// Schema returns a copy of the schemas this table was compiled from by
// [CompileSchema], or nil if it was compiled from a descriptor.
func (t *Table) Schema() []MessageSchema {
	meta, _ := t.impl.Library.Metadata.(*metadata)
	if meta == nil || meta.schema == nil {
		return nil
	}
	var out []MessageSchema
	if err := deepcopy.Copy(&out, &meta.schema); err != nil {
		panic(fmt.Errorf("minitable: copying schema of %s: %w", t.Name(), err))
	}
	return out
}

// Recompile compiles this table's message again with additional options.
func (t *Table) Recompile(options ...CompileOption) (*Table, error) {
	meta, _ := t.impl.Library.Metadata.(*metadata)
	opts := slices.Concat(meta.options, options)
	if meta.schema != nil {
		return CompileSchema(meta.schema, t.Name(), opts...)
	}
	return Compile(t.impl.Descriptor, opts...), nil
}

// Format implements [fmt.Formatter].
//
// With the %+v verb, the table's layout is printed: every field's storage,
// followed by the fast dispatch table.
func (t *Table) Format(s fmt.State, verb rune) {
	if !s.Flag('+') {
		fmt.Fprint(s, t.impl.Name)
		return
	}

	ty := &t.impl
	fmt.Fprintf(s, "%v\n", ty)
	for i := range ty.Fields {
		fmt.Fprintf(s, "  %v\n", &ty.Fields[i])
	}
	for i := range ty.Fast {
		if e := &ty.Fast[i]; e.Tag != 0 {
			fmt.Fprintf(s, "  fast[%d] = %v\n", i, e)
		}
	}
	for i, sub := range ty.Subs {
		fmt.Fprintf(s, "  sub[%d] = %s\n", i, sub.Name)
	}
}

// Number returns the field number.
func (f *Field) Number() protowire.Number {
	return f.impl.Number
}

// Name returns the field name.
func (f *Field) Name() string {
	return f.impl.Name
}

// Kind returns the field's value kind. Map fields report
// [protoreflect.MessageKind].
func (f *Field) Kind() protoreflect.Kind {
	return f.impl.Kind
}

// IsList returns whether this is a repeated, non-map field.
func (f *Field) IsList() bool {
	return f.impl.Mode == tdp.Array
}

// IsMap returns whether this is a map field.
func (f *Field) IsMap() bool {
	return f.impl.Mode == tdp.Map
}

// HasPresence returns whether the field records being set separately from
// its value: explicit-presence scalars, oneof members and message fields.
func (f *Field) HasPresence() bool {
	return f.impl.Mode == tdp.Scalar && (f.impl.Presence != tdp.NoPresence || f.impl.IsMessage())
}

// Oneof returns whether this field is a member of a oneof.
func (f *Field) Oneof() bool {
	return f.impl.IsOneof()
}

// Message returns the table of this field's message type, for message and
// group fields. For map fields, this is the synthetic entry type.
func (f *Field) Message() *Table {
	return wrapTable(f.impl.Message())
}

// MapKey returns the key field of a map field's entry type.
func (f *Field) MapKey() *Field {
	return wrapField(f.impl.Message().MapKey())
}

// MapValue returns the value field of a map field's entry type.
func (f *Field) MapValue() *Field {
	return wrapField(f.impl.Message().MapValue())
}

// Descriptor returns the descriptor this field was compiled from, if any.
func (f *Field) Descriptor() protoreflect.FieldDescriptor {
	return f.impl.Descriptor
}

// Format implements [fmt.Formatter].
func (f *Field) Format(s fmt.State, verb rune) {
	fmt.Fprintf(s, "%s.%s", f.impl.Parent.Name, f.impl.Name)
}

var _ protoreflect.MessageType = (*Table)(nil)

// Descriptor implements [protoreflect.MessageType]. Returns nil for tables
// compiled by [CompileSchema].
func (t *Table) Descriptor() protoreflect.MessageDescriptor {
	return t.impl.Descriptor
}

// New implements [protoreflect.MessageType].
func (t *Table) New() protoreflect.Message {
	return NewMessage(t)
}

// Zero implements [protoreflect.MessageType].
func (t *Table) Zero() protoreflect.Message {
	return empty{t}
}

// field resolves a descriptor of one of this table's fields.
func (t *Table) field(fd protoreflect.FieldDescriptor) *tdp.Field {
	f := t.impl.ByNumber(fd.Number())
	if f == nil || fd.IsExtension() {
		panic(fmt.Sprintf("minitable: %s is not a field of %s", fd.FullName(), t.Name()))
	}
	return f
}
