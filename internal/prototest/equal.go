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


// Package prototest contains helpers for comparing messages in tests.
package prototest

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/testing/protocmp"

	"buf.build/go/minitable/internal/debug"
)

// Equal checks that two messages look the same through reflection: the same
// presence, values, oneof cases and unknown fields. Unlike [proto.Equal], it
// compares floats bitwise and walks unset submessages too, so that defaults
// read through an empty message are checked.
func Equal(t testing.TB, expect, got proto.Message) {
	t.Helper()
	w := &walker{TB: t}

	done := false
	defer func() {
		if !done {
			t.Errorf("panicked at %s", w.where())
		}
	}()

	w.message(expect.ProtoReflect(), got.ProtoReflect(), true)
	done = true
}

// Diff returns a human-readable report of the differences between two
// messages, or the empty string if they are equal.
func Diff(expect, got proto.Message) string {
	return gocmp.Diff(expect, got, protocmp.Transform())
}

type walker struct {
	testing.TB
	path []string
}

func (w *walker) message(a, b protoreflect.Message, deep bool) {
	w.Helper()

	da, db := a.Descriptor(), b.Descriptor()
	if da.FullName() != db.FullName() {
		w.fail("want message %v, got %v", da.FullName(), db.FullName())
		return
	}
	if a.IsValid() != b.IsValid() {
		w.fail("want IsValid() = %v, got %v", a.IsValid(), b.IsValid())
	}
	if !deep && !a.IsValid() && !b.IsValid() {
		return
	}

	if ua, ub := canonical(a.GetUnknown()), canonical(b.GetUnknown()); !bytes.Equal(ua, ub) {
		w.fail("want unknown fields `%x`, got `%x`", ua, ub)
	}

	fields := da.Fields()
	for i := range fields.Len() {
		fd := fields.Get(i)
		w.at("."+string(fd.Name()), func() {
			w.Helper()
			if ha, hb := a.Has(fd), b.Has(fd); ha != hb {
				w.fail("want Has() = %v, got %v", ha, hb)
			}
			w.field(fd, a.Get(fd), b.Get(fd), a.IsValid() || b.IsValid())
		})
	}

	oneofs := da.Oneofs()
	for i := range oneofs.Len() {
		od := oneofs.Get(i)
		w.at("."+string(od.Name()), func() {
			w.Helper()
			fa, fb := a.WhichOneof(od), b.WhichOneof(od)
			if name(fa) != name(fb) {
				w.fail("want case %s, got %s", name(fa), name(fb))
			}
		})
	}
}

func (w *walker) field(fd protoreflect.FieldDescriptor, a, b protoreflect.Value, deep bool) {
	w.Helper()
	switch {
	case fd.IsMap():
		w.map_(fd, a.Map(), b.Map(), deep)
	case fd.IsList():
		la, lb := a.List(), b.List()
		for i := range min(la.Len(), lb.Len()) {
			w.at(fmt.Sprintf("[%d]", i), func() {
				w.Helper()
				w.value(fd, la.Get(i), lb.Get(i), deep)
			})
		}
		if la.Len() != lb.Len() {
			w.fail("want %d elements, got %d", la.Len(), lb.Len())
		}
	default:
		w.value(fd, a, b, deep)
	}
}

func (w *walker) map_(fd protoreflect.FieldDescriptor, a, b protoreflect.Map, deep bool) {
	w.Helper()

	var keys []protoreflect.MapKey
	seen := make(map[any]bool)
	collect := func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		if !seen[k.Interface()] {
			seen[k.Interface()] = true
			keys = append(keys, k)
		}
		return true
	}
	a.Range(collect)
	b.Range(collect)
	slices.SortFunc(keys, compareKeys)

	for _, k := range keys {
		w.at(fmt.Sprintf("[%v]", k.Interface()), func() {
			w.Helper()
			va, vb := a.Get(k), b.Get(k)
			if va.IsValid() != vb.IsValid() {
				w.fail("want present = %v, got %v", va.IsValid(), vb.IsValid())
				return
			}
			w.value(fd.MapValue(), va, vb, deep)
		})
	}
}

func (w *walker) value(fd protoreflect.FieldDescriptor, a, b protoreflect.Value, deep bool) {
	w.Helper()
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		w.message(a.Message(), b.Message(), deep)
	case protoreflect.StringKind:
		if a.String() != b.String() {
			w.fail("want %q, got %q", a.String(), b.String())
		}
	case protoreflect.BytesKind:
		if !bytes.Equal(a.Bytes(), b.Bytes()) {
			w.fail("want `%x`, got `%x`", a.Bytes(), b.Bytes())
		}
	default:
		if ba, bb := bits(fd.Kind(), a), bits(fd.Kind(), b); ba != bb {
			w.fail("want %v (%#x), got %v (%#x)", a, ba, b, bb)
		}
	}
}

func (w *walker) at(step string, f func()) {
	w.Helper()
	w.path = append(w.path, step)
	f()
	w.path = w.path[:len(w.path)-1]
}

func (w *walker) where() string {
	if len(w.path) == 0 {
		return "<root>"
	}
	return strings.Join(w.path, "")
}

func (w *walker) fail(format string, args ...any) {
	w.Helper()
	w.Errorf("%s: %v", w.where(), debug.Fprintf(format, args...))
}

func name(fd protoreflect.FieldDescriptor) protoreflect.Name {
	if fd == nil {
		return "<none>"
	}
	return fd.Name()
}

// bits returns the raw bits of a scalar, so that floats compare exactly,
// NaN payloads and signed zeros included.
func bits(k protoreflect.Kind, v protoreflect.Value) uint64 {
	switch k {
	case protoreflect.BoolKind:
		if v.Bool() {
			return 1
		}
		return 0
	case protoreflect.EnumKind:
		return uint64(v.Enum())
	case protoreflect.FloatKind:
		return uint64(math.Float32bits(float32(v.Float())))
	case protoreflect.DoubleKind:
		return math.Float64bits(v.Float())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return uint64(v.Int())
	default:
		return v.Uint()
	}
}

func compareKeys(x, y protoreflect.MapKey) int {
	switch a := x.Interface().(type) {
	case bool:
		return cmp.Compare(b2i(a), b2i(y.Bool()))
	case string:
		return cmp.Compare(a, y.String())
	case int32, int64:
		return cmp.Compare(x.Int(), y.Int())
	default:
		return cmp.Compare(x.Uint(), y.Uint())
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// canonical re-encodes unknown field records with minimal tags, since
// decoders are free to normalize overlong tag varints.
func canonical(raw []byte) []byte {
	var out []byte
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return append(out, raw...)
		}
		m := protowire.ConsumeFieldValue(num, typ, raw[n:])
		if m < 0 {
			return append(out, raw...)
		}
		out = protowire.AppendTag(out, num, typ)
		out = append(out, raw[n:n+m]...)
		raw = raw[n+m:]
	}
	return out
}
