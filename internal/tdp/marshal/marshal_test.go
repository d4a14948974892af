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


package marshal_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/compiler"
	"buf.build/go/minitable/internal/tdp/dynamic"
	"buf.build/go/minitable/internal/tdp/marshal"
)

func library(t *testing.T) *tdp.Library {
	t.Helper()
	msgs := []*compiler.Message{
		{
			Name: "test.Wire",
			Fields: []compiler.Field{
				{Name: "i32", Number: 1, Kind: protoreflect.Int32Kind},
				{Name: "s32", Number: 2, Kind: protoreflect.Sint32Kind},
				{Name: "f32", Number: 3, Kind: protoreflect.FloatKind},
				{Name: "packed", Number: 4, Kind: protoreflect.Sint64Kind, Mode: tdp.Array, Packed: true},
				{Name: "unpacked", Number: 5, Kind: protoreflect.Fixed32Kind, Mode: tdp.Array},
				{Name: "grp", Number: 6, Kind: protoreflect.GroupKind, Message: "test.Wire"},
				{Name: "strs", Number: 7, Kind: protoreflect.StringKind, Mode: tdp.Array},
				{Name: "tbl", Number: 8, Kind: protoreflect.MessageKind, Mode: tdp.Map, Message: "test.Wire.TblEntry"},
				{Name: "opt", Number: 9, Kind: protoreflect.BoolKind, Explicit: true},
				{Name: "far", Number: 3000, Kind: protoreflect.EnumKind},
			},
		},
		{
			Name:     "test.Wire.TblEntry",
			MapEntry: true,
			Fields: []compiler.Field{
				{Name: "key", Number: 1, Kind: protoreflect.Uint32Kind},
				{Name: "value", Number: 2, Kind: protoreflect.MessageKind, Message: "test.Wire"},
			},
		},
	}
	lib, err := compiler.Compile(msgs, "test.Wire", compiler.NewOptions())
	require.NoError(t, err)
	return lib
}

func TestAppend(t *testing.T) {
	t.Parallel()

	lib := library(t)
	ty := lib.Root()
	entry, _ := lib.ByName("test.Wire.TblEntry")

	m := dynamic.New(ty)
	m.Set(ty.ByName("i32"), uint64(uint32(math.MaxUint32))) // -1
	m.Set(ty.ByName("s32"), uint64(uint32(math.MaxUint32))) // -1
	m.Set(ty.ByName("f32"), uint64(math.Float32bits(1.5)))
	m.MutableList(ty.ByName("packed")).Bits = []uint64{1, math.MaxUint64}
	m.MutableList(ty.ByName("unpacked")).Bits = []uint64{7, 8}
	m.MutableSubmessage(ty.ByName("grp")).Set(ty.ByName("opt"), 0)
	m.MutableList(ty.ByName("strs")).Bytes = [][]byte{[]byte("a"), {}}
	e := dynamic.New(entry)
	e.Set(entry.MapKey(), 0)
	m.MutableMap(ty.ByName("tbl")).Insert(e)
	m.Set(ty.ByName("far"), 2)
	m.Unknown = protowire.AppendTag(nil, 100, protowire.VarintType)
	m.Unknown = protowire.AppendVarint(m.Unknown, 1)

	var want []byte
	want = protowire.AppendTag(want, 1, protowire.VarintType)
	want = protowire.AppendVarint(want, math.MaxUint64)
	want = protowire.AppendTag(want, 2, protowire.VarintType)
	want = protowire.AppendVarint(want, 1)
	want = protowire.AppendTag(want, 3, protowire.Fixed32Type)
	want = protowire.AppendFixed32(want, math.Float32bits(1.5))
	want = protowire.AppendTag(want, 4, protowire.BytesType)
	want = protowire.AppendBytes(want, []byte{0x02, 0x01})
	want = protowire.AppendTag(want, 5, protowire.Fixed32Type)
	want = protowire.AppendFixed32(want, 7)
	want = protowire.AppendTag(want, 5, protowire.Fixed32Type)
	want = protowire.AppendFixed32(want, 8)
	want = protowire.AppendTag(want, 6, protowire.StartGroupType)
	want = protowire.AppendTag(want, 9, protowire.VarintType)
	want = protowire.AppendVarint(want, 0)
	want = protowire.AppendTag(want, 6, protowire.EndGroupType)
	want = protowire.AppendTag(want, 7, protowire.BytesType)
	want = protowire.AppendString(want, "a")
	want = protowire.AppendTag(want, 7, protowire.BytesType)
	want = protowire.AppendString(want, "")
	want = protowire.AppendTag(want, 8, protowire.BytesType)
	want = protowire.AppendBytes(want, []byte{0x08, 0x00, 0x12, 0x00})
	want = protowire.AppendTag(want, 3000, protowire.VarintType)
	want = protowire.AppendVarint(want, 2)
	want = protowire.AppendTag(want, 100, protowire.VarintType)
	want = protowire.AppendVarint(want, 1)

	got := marshal.Append(nil, m)
	assert.Equal(t, want, got)
	assert.Equal(t, len(want), marshal.Size(m))

	prefix := []byte("prefix")
	got = marshal.Append(prefix, m)
	assert.Equal(t, append([]byte("prefix"), want...), got)
}

func TestPresence(t *testing.T) {
	t.Parallel()

	ty := library(t).Root()
	m := dynamic.New(ty)
	assert.Empty(t, marshal.Append(nil, m))
	assert.Equal(t, 0, marshal.Size(m))

	// Implicit presence: zero is not written.
	m.Set(ty.ByName("i32"), 0)
	assert.Empty(t, marshal.Append(nil, m))

	// Explicit presence: zero is written once set.
	m.Set(ty.ByName("opt"), 0)
	assert.Equal(t, []byte{0x48, 0x00}, marshal.Append(nil, m))
	m.Clear(ty.ByName("opt"))
	assert.Empty(t, marshal.Append(nil, m))

	// Empty lists are not written.
	m.MutableList(ty.ByName("packed"))
	assert.Empty(t, marshal.Append(nil, m))
}
