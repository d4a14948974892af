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


package minitable_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable"
	"buf.build/go/minitable/internal/prototest"
	"buf.build/go/minitable/internal/testdata"
)

func compile(t *testing.T, name string) (protoreflect.MessageType, *minitable.Table) {
	t.Helper()
	mt := testdata.LoadSchema(t).Message(t, name)
	return mt, minitable.Compile(mt.Descriptor())
}

func TestReflectionRoundTrip(t *testing.T) {
	t.Parallel()

	mt, table := compile(t, "minitable.test.Cluster")
	want := mt.New().Interface()
	require.NoError(t, prototext.Unmarshal([]byte(`
		name: "backend"
		connect_timeout { seconds: 5 }
		endpoints { address: "10.0.0.1" port: 8080 }
		endpoints { address: "10.0.0.2" port: 8081 load_balancing_weight { value: 7 } }
		weight { value: 100 }
		metadata { key: "zone" value: "a" }
	`), want))

	// Copy field by field through reflection.
	got := minitable.NewMessage(table)
	want.ProtoReflect().Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		got.Set(fd, v)
		return true
	})
	prototest.Equal(t, want, got)
	assert.Empty(t, prototest.Diff(want, got))
	assert.True(t, proto.Equal(want, got))

	// And back through the wire format.
	b, err := proto.Marshal(got)
	require.NoError(t, err)
	back := mt.New().Interface()
	require.NoError(t, proto.Unmarshal(b, back))
	assert.True(t, proto.Equal(want, back))
}

func TestSetAndGet(t *testing.T) {
	t.Parallel()

	_, table := compile(t, "minitable.test.Scalars")
	m := minitable.NewMessage(table)

	m.SetField(table.ByName("f_int32"), protoreflect.ValueOfInt32(-3))
	m.SetField(table.ByName("f_uint64"), protoreflect.ValueOfUint64(math.MaxUint64))
	m.SetField(table.ByName("f_float"), protoreflect.ValueOfFloat32(0.25))
	m.SetField(table.ByName("f_bool"), protoreflect.ValueOfBool(true))
	m.SetField(table.ByName("f_string"), protoreflect.ValueOfString("hi"))
	m.SetField(table.ByName("f_color"), protoreflect.ValueOfEnum(2))

	assert.Equal(t, int32(-3), m.GetField(table.ByName("f_int32")).Interface())
	assert.Equal(t, uint64(math.MaxUint64), m.GetField(table.ByName("f_uint64")).Uint())
	assert.InDelta(t, 0.25, m.GetField(table.ByName("f_float")).Float(), 0)
	assert.True(t, m.GetField(table.ByName("f_bool")).Bool())
	assert.Equal(t, "hi", m.GetField(table.ByName("f_string")).String())
	assert.Equal(t, protoreflect.EnumNumber(2), m.GetField(table.ByName("f_color")).Enum())
	assert.False(t, m.HasField(table.ByName("f_double")))

	var names []string
	for f := range m.Fields() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"f_float", "f_int32", "f_uint64", "f_bool", "f_string", "f_color"}, names)

	again := minitable.NewMessage(table)
	require.NoError(t, again.Unmarshal(m.Marshal()))
	assert.Equal(t, fmt.Sprint(m), fmt.Sprint(again))

	m.ClearField(table.ByName("f_string"))
	assert.False(t, m.HasField(table.ByName("f_string")))
	assert.Equal(t, "", m.GetField(table.ByName("f_string")).String())
}

func TestOneof(t *testing.T) {
	t.Parallel()

	_, table := compile(t, "minitable.test.Oneof")
	a, b, c := table.ByName("a"), table.ByName("b"), table.ByName("c")
	require.True(t, a.Oneof())

	m := minitable.NewMessage(table)
	assert.Nil(t, m.WhichField(a))

	m.SetField(a, protoreflect.ValueOfInt32(5))
	assert.Equal(t, a, m.WhichField(b))

	m.SetField(b, protoreflect.ValueOfString("x"))
	assert.Equal(t, b, m.WhichField(a))
	assert.False(t, m.HasField(a))
	assert.Equal(t, int32(0), m.GetField(a).Interface())

	sub := m.MutableField(c).Message()
	assert.Equal(t, c, m.WhichField(a))
	assert.Equal(t, "", m.GetField(b).String())
	assert.True(t, sub.IsValid())

	od := table.Descriptor().Oneofs().ByName("kind")
	assert.Equal(t, c.Descriptor(), m.WhichOneof(od))

	m.ClearField(c)
	assert.Nil(t, m.WhichField(a))
	assert.Nil(t, m.WhichOneof(od))
}

func TestListsAndMaps(t *testing.T) {
	t.Parallel()

	_, table := compile(t, "minitable.test.Maps")
	m := minitable.NewMessage(table)

	unset := m.GetField(table.ByName("str")).Map()
	assert.False(t, unset.IsValid())
	assert.Equal(t, 0, unset.Len())
	assert.Panics(t, func() { unset.Set(protoreflect.ValueOfString("k").MapKey(), protoreflect.ValueOfString("v")) })

	str := m.MutableField(table.ByName("str")).Map()
	str.Set(protoreflect.ValueOfString("b").MapKey(), protoreflect.ValueOfString("1"))
	str.Set(protoreflect.ValueOfString("a").MapKey(), protoreflect.ValueOfString("2"))
	str.Set(protoreflect.ValueOfString("b").MapKey(), protoreflect.ValueOfString("3"))
	assert.Equal(t, 2, str.Len())
	assert.Equal(t, "3", str.Get(protoreflect.ValueOfString("b").MapKey()).String())
	assert.False(t, str.Get(protoreflect.ValueOfString("c").MapKey()).IsValid())

	msgs := m.MutableField(table.ByName("msgs")).Map()
	v := msgs.Mutable(protoreflect.ValueOfUint64(7).MapKey()).Message()
	v.Set(v.Descriptor().Fields().ByName("f_int32"), protoreflect.ValueOfInt32(9))

	str.Clear(protoreflect.ValueOfString("b").MapKey())
	assert.False(t, str.Has(protoreflect.ValueOfString("b").MapKey()))

	again := minitable.NewMessage(table)
	require.NoError(t, again.Unmarshal(m.Marshal()))
	prototest.Equal(t, m, again)

	_, rtable := compile(t, "minitable.test.Repeated")
	r := minitable.NewMessage(rtable)
	list := r.MutableField(rtable.ByName("r_sint64")).List()
	list.Append(protoreflect.ValueOfInt64(-1))
	list.Append(protoreflect.ValueOfInt64(2))
	list.Set(0, protoreflect.ValueOfInt64(-3))
	assert.Equal(t, int64(-3), list.Get(0).Int())

	msgList := r.MutableField(rtable.ByName("r_scalars")).List()
	elem := msgList.AppendMutable().Message()
	elem.Set(elem.Descriptor().Fields().ByName("f_string"), protoreflect.ValueOfString("s"))
	msgList.Append(msgList.NewElement())
	assert.Equal(t, 2, msgList.Len())
	msgList.Truncate(1)
	assert.Equal(t, 1, msgList.Len())

	again = minitable.NewMessage(rtable)
	require.NoError(t, again.Unmarshal(r.Marshal()))
	prototest.Equal(t, r, again)
}

func TestCheckInitialized(t *testing.T) {
	t.Parallel()

	mt, table := compile(t, "minitable.test2.Required")
	m := minitable.NewMessage(table)
	require.NoError(t, m.Unmarshal([]byte{0x08, 0x01, 0x1a, 0x00}))

	err := m.CheckInitialized()
	require.ErrorIs(t, err, minitable.ErrMissingRequired)
	assert.Contains(t, err.Error(), "child.id")

	_, err = proto.Marshal(m)
	require.Error(t, err)

	m.MutableField(table.ByName("child")).Message().Set(
		mt.Descriptor().Fields().ByName("id"),
		protoreflect.ValueOfInt32(2),
	)
	require.NoError(t, m.CheckInitialized())
	_, err = proto.Marshal(m)
	require.NoError(t, err)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	_, table := compile(t, "minitable.test2.Proto2")
	m := minitable.NewMessage(table)
	d := table.ByName("d")
	assert.False(t, m.HasField(d))
	assert.InDelta(t, 1.5, m.GetField(d).Float(), 0)

	child := m.GetField(table.ByName("child")).Message()
	assert.False(t, child.IsValid())
	assert.InDelta(t, 1.5, child.Get(d.Descriptor()).Float(), 0)

	m.SetField(d, protoreflect.ValueOfFloat64(0))
	assert.True(t, m.HasField(d))
	assert.Equal(t, []byte{0x51, 0, 0, 0, 0, 0, 0, 0, 0}, m.Marshal())
}

func TestClone(t *testing.T) {
	t.Parallel()

	_, table := compile(t, "minitable.test.Graph")
	m := minitable.NewMessage(table)
	require.NoError(t, m.Unmarshal([]byte{0x08, 0x01, 0x12, 0x02, 0x08, 0x02}))

	c := m.Clone()
	m.MutableField(table.ByName("next")).Message().Set(
		table.ByName("value").Descriptor(),
		protoreflect.ValueOfInt32(5),
	)
	assert.Equal(t, []byte{0x08, 0x01, 0x12, 0x02, 0x08, 0x02}, c.Marshal())
	assert.Equal(t, []byte{0x08, 0x01, 0x12, 0x02, 0x08, 0x05}, m.Marshal())
}

func TestForeignFieldPanics(t *testing.T) {
	t.Parallel()

	_, scalars := compile(t, "minitable.test.Scalars")
	_, graph := compile(t, "minitable.test.Graph")
	m := minitable.NewMessage(scalars)
	assert.Panics(t, func() { m.GetField(graph.ByName("value")) })
}
