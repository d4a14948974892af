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


package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/compiler"
	"buf.build/go/minitable/internal/testdata"
)

func TestLayout(t *testing.T) {
	t.Parallel()

	msgs := []*compiler.Message{{
		Name: "test.Layout",
		Fields: []compiler.Field{
			{Name: "r", Number: 1, Kind: protoreflect.Int32Kind, Required: true},
			{Name: "o", Number: 2, Kind: protoreflect.BoolKind, Explicit: true},
			{Name: "x", Number: 3, Kind: protoreflect.Int64Kind, Oneof: "k"},
			{Name: "y", Number: 4, Kind: protoreflect.StringKind, Oneof: "k"},
			{Name: "p", Number: 5, Kind: protoreflect.DoubleKind},
			{Name: "q", Number: 6, Kind: protoreflect.FloatKind},
			{Name: "z", Number: 7, Kind: protoreflect.BoolKind},
			{Name: "s", Number: 8, Kind: protoreflect.BytesKind},
			{Name: "l", Number: 9, Kind: protoreflect.Int32Kind, Mode: tdp.Array},
		},
	}}
	lib, err := compiler.Compile(msgs, "test.Layout", compiler.NewOptions())
	require.NoError(t, err)
	ty := lib.Root()

	type layout struct {
		offset   uint32
		rep      tdp.Rep
		presence tdp.Presence
	}
	want := map[string]layout{
		"r": {24, tdp.Rep4Byte, 0},
		"o": {32, tdp.Rep1Byte, 1},
		"x": {8, tdp.Rep8Byte, tdp.OneofPresence(4)},
		"y": {0, tdp.RepSlot, tdp.OneofPresence(4)},
		"p": {16, tdp.Rep8Byte, tdp.NoPresence},
		"q": {28, tdp.Rep4Byte, tdp.NoPresence},
		"z": {33, tdp.Rep1Byte, tdp.NoPresence},
		"s": {1, tdp.RepSlot, tdp.NoPresence},
		"l": {2, tdp.RepSlot, tdp.NoPresence},
	}
	for _, f := range ty.Fields {
		assert.Equal(t, want[f.Name], layout{f.Offset, f.Rep, f.Presence}, "%v", f.Name)
		assert.Same(t, ty, f.Parent)
	}
	// A list lives in a slot whatever its element kind.
	assert.True(t, ty.ByName("s").IsBytes())
	assert.False(t, ty.ByName("l").IsBytes())

	assert.Equal(t, uint32(40), ty.Size)
	assert.Equal(t, uint32(3), ty.Slots)
	assert.Equal(t, 1, ty.RequiredCount)
	assert.True(t, ty.MayHaveRequired)
	assert.Equal(t, 9, ty.DenseBelow)
	assert.Equal(t, "y", ty.ByNumber(4).Name)
	assert.Nil(t, ty.ByNumber(10))
}

func TestDenseBelow(t *testing.T) {
	t.Parallel()

	msgs := []*compiler.Message{{
		Name: "test.Sparse",
		Fields: []compiler.Field{
			{Name: "a", Number: 1, Kind: protoreflect.Int32Kind},
			{Name: "b", Number: 2, Kind: protoreflect.Int32Kind},
			{Name: "c", Number: 4, Kind: protoreflect.Int32Kind},
			{Name: "d", Number: 100000, Kind: protoreflect.Int32Kind},
		},
	}}
	lib, err := compiler.Compile(msgs, "test.Sparse", compiler.NewOptions())
	require.NoError(t, err)
	ty := lib.Root()

	assert.Equal(t, 2, ty.DenseBelow)
	for _, n := range []int32{1, 2, 4, 100000} {
		f := ty.ByNumber(protoreflect.FieldNumber(n))
		require.NotNil(t, f, "%d", n)
		assert.EqualValues(t, n, f.Number)
	}
	assert.Nil(t, ty.ByNumber(3))
	assert.Nil(t, ty.ByNumber(0))
}

func TestMayHaveRequired(t *testing.T) {
	t.Parallel()

	msg := func(name string, required bool, refs ...string) *compiler.Message {
		m := &compiler.Message{Name: name}
		if required {
			m.Fields = append(m.Fields, compiler.Field{
				Name: "id", Number: 1, Kind: protoreflect.Int32Kind, Required: true,
			})
		}
		for i, ref := range refs {
			m.Fields = append(m.Fields, compiler.Field{
				Name: "f", Number: protoreflect.FieldNumber(i + 2), Kind: protoreflect.MessageKind, Message: ref,
			})
		}
		return m
	}

	msgs := []*compiler.Message{
		msg("t.Root", false, "t.A", "t.Loop1", "t.Cycle1"),
		msg("t.A", false, "t.B"),
		msg("t.B", false, "t.C"),
		msg("t.C", true),
		msg("t.Loop1", false, "t.Loop2"),
		msg("t.Loop2", false, "t.Loop1"),
		msg("t.Cycle1", false, "t.Cycle2"),
		msg("t.Cycle2", true, "t.Cycle1"),
	}
	lib, err := compiler.Compile(msgs, "t.Root", compiler.NewOptions())
	require.NoError(t, err)

	want := map[string]bool{
		"t.Root":   true,
		"t.A":      true,
		"t.B":      true,
		"t.C":      true,
		"t.Loop1":  false,
		"t.Loop2":  false,
		"t.Cycle1": true,
		"t.Cycle2": true,
	}
	require.Len(t, lib.Types, len(want))
	for _, ty := range lib.Types {
		assert.Equal(t, want[ty.Name], ty.MayHaveRequired, ty.Name)
	}
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	msgs := []*compiler.Message{
		{Name: "t.Root"},
		{Name: "t.Other", Fields: []compiler.Field{
			{Name: "x", Number: 1, Kind: protoreflect.MessageKind, Message: "t.Missing"},
		}},
	}
	lib, err := compiler.Compile(msgs, "t.Root", compiler.NewOptions())
	require.NoError(t, err)
	assert.Len(t, lib.Types, 1)
	_, ok := lib.ByName("t.Other")
	assert.False(t, ok)

	_, err = compiler.Compile(msgs, "t.Other", compiler.NewOptions())
	require.ErrorIs(t, err, compiler.ErrInvalidSchema)

	_, err = compiler.Compile(append(msgs, &compiler.Message{Name: "t.Root"}), "t.Root", compiler.NewOptions())
	require.ErrorIs(t, err, compiler.ErrInvalidSchema)
}

func TestFromDescriptor(t *testing.T) {
	t.Parallel()

	schema := testdata.LoadSchema(t)
	byName := func(msgs []*compiler.Message, name string) *compiler.Message {
		for _, m := range msgs {
			if m.Name == name {
				return m
			}
		}
		t.Fatalf("no message %s", name)
		return nil
	}
	field := func(m *compiler.Message, name string) compiler.Field {
		for _, f := range m.Fields {
			if f.Name == name {
				return f
			}
		}
		t.Fatalf("no field %s.%s", m.Name, name)
		return compiler.Field{}
	}

	msgs := compiler.FromDescriptor(schema.Message(t, "minitable.test.Maps").Descriptor())
	assert.Equal(t, "minitable.test.Maps", msgs[0].Name)
	entry := byName(msgs, "minitable.test.Maps.MsgsEntry")
	assert.True(t, entry.MapEntry)
	byName(msgs, "minitable.test.Scalars")
	assert.Equal(t, tdp.Map, field(msgs[0], "msgs").Mode)
	assert.Equal(t, "minitable.test.Maps.MsgsEntry", field(msgs[0], "msgs").Message)

	msgs = compiler.FromDescriptor(schema.Message(t, "minitable.test.Oneof").Descriptor())
	assert.Equal(t, "kind", field(msgs[0], "a").Oneof)
	assert.Equal(t, "other", field(msgs[0], "y").Oneof)
	assert.Empty(t, field(msgs[0], "after").Oneof)

	msgs = compiler.FromDescriptor(schema.Message(t, "minitable.test.Optional").Descriptor())
	o := field(msgs[0], "o_int32")
	assert.True(t, o.Explicit)
	assert.Empty(t, o.Oneof)
	assert.True(t, field(msgs[0], "o_string").ValidateUTF8)

	msgs = compiler.FromDescriptor(schema.Message(t, "minitable.test.Repeated").Descriptor())
	assert.True(t, field(msgs[0], "r_int32").Packed)
	assert.False(t, field(msgs[0], "u_int32").Packed)

	msgs = compiler.FromDescriptor(schema.Message(t, "minitable.test2.Proto2").Descriptor())
	assert.False(t, field(msgs[0], "s").ValidateUTF8)
	assert.True(t, field(msgs[0], "a").Explicit)
	assert.True(t, field(msgs[0], "packed").Packed)
	assert.False(t, field(msgs[0], "unpacked").Packed)
	assert.Equal(t, protoreflect.GroupKind, field(msgs[0], "g").Kind)
	assert.Equal(t, "minitable.test2.Proto2.G", field(msgs[0], "g").Message)

	msgs = compiler.FromDescriptor(schema.Message(t, "minitable.test2.Required").Descriptor())
	assert.True(t, field(msgs[0], "id").Required)

	lib, err := compiler.Compile(msgs, "minitable.test2.Required", compiler.NewOptions())
	require.NoError(t, err)
	assert.True(t, lib.Root().MayHaveRequired)
	assert.NotNil(t, lib.Root().Descriptor)
}

func TestReservedNumbers(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		n  protowire.Number
		ok bool
	}{
		{18999, true},
		{19000, false},
		{19500, false},
		{19999, false},
		{20000, true},
	} {
		msgs := []*compiler.Message{{
			Name:   "test.R",
			Fields: []compiler.Field{{Name: "a", Number: tt.n, Kind: protoreflect.Int32Kind}},
		}}
		_, err := compiler.Compile(msgs, "test.R", compiler.NewOptions())
		if tt.ok {
			assert.NoError(t, err, "%d", tt.n)
		} else {
			assert.ErrorIs(t, err, compiler.ErrInvalidSchema, "%d", tt.n)
		}
	}
}
