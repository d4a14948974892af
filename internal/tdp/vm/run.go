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

// Package vm contains the table-driven decoder.
//
// Every field goes through one of two paths. The fast path looks the tag up
// in the message type's mask-indexed [tdp.FastEntry] table and, on an exact
// match, runs a handler specialized for that field's shape. Everything else
// (collisions, unexpected wire types, oneofs, unknown fields) goes through the
// generic path, which only needs the field table. The two paths write through
// the same storage operations, so turning the fast path off never changes
// the decoded message.
package vm

import (
	"bytes"
	"slices"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/debug"
	"buf.build/go/minitable/internal/sync2"
	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
	"buf.build/go/minitable/internal/zigzag"
)

// decoder is the state of one call to [Run].
type decoder struct {
	cursor
	opts Options
}

var decoders = sync2.Pool[decoder]{
	Reset: func(d *decoder) { *d = decoder{} },
}

// Run decodes data into m, merging with whatever m already holds.
//
// On error, m may be partially updated; callers that need all-or-nothing
// behavior must discard it.
func Run(m *dynamic.Message, data []byte, opts Options) error {
	d := decoders.Get()
	defer decoders.Put(d)

	d.cursor = cursor{src: data, end: len(data)}
	d.opts = opts
	d.log("run", "%s, %d bytes, %+v", m.Type.Name, len(data), opts)

	err := d.message(m, opts.MaxDepth, 0)
	if err != nil {
		d.log("fail", "%v", err)
	}
	return err
}

// message decodes fields into m until the end of the current record, or
// until the end-group tag for group if it is nonzero.
func (d *decoder) message(m *dynamic.Message, depth int, group protowire.Number) error {
	if depth <= 0 {
		return d.fail(ErrorRecursionDepth)
	}
	depth--

	t := m.Type
	for d.pos < d.end {
		start := d.pos
		tag, err := d.tag()
		if err != nil {
			return err
		}

		if d.opts.FastPath {
			if e := t.FastLookup(tag); e != nil {
				if err := d.fast(m, e, depth); err != nil {
					return err
				}
				continue
			}
		}

		if tag.Type() == protowire.EndGroupType {
			if tag.Number() == group {
				return nil
			}
			return d.failAt(start, ErrorEndGroup)
		}

		handled := false
		if f := t.ByNumber(tag.Number()); f != nil {
			if handled, err = d.field(m, f, tag.Type(), depth); err != nil {
				return err
			}
		}
		if handled {
			continue
		}

		if err := d.skipValue(tag, depth); err != nil {
			return err
		}
		if !d.opts.DiscardUnknown && !t.MapEntry {
			m.Unknown = append(m.Unknown, d.src[start:d.pos]...)
		}
	}

	if group != 0 {
		return d.fail(ErrorTruncated)
	}
	return nil
}

// field decodes one record for a known field. Returns false if the wire type
// does not fit the field, in which case the record is unknown.
func (d *decoder) field(m *dynamic.Message, f *tdp.Field, typ protowire.Type, depth int) (bool, error) {
	switch f.Mode {
	case tdp.Map:
		if typ != protowire.BytesType {
			return false, nil
		}
		return true, d.mapEntry(m, f, depth)

	case tdp.Array:
		if typ == protowire.BytesType && tdp.Packable(f.Kind) {
			return true, d.packed(m.MutableList(f), f.Kind)
		}
		if typ != tdp.WireType(f.Kind) {
			return false, nil
		}

		l := m.MutableList(f)
		switch {
		case f.IsMessage():
			sub := dynamic.New(m.Type.Sub(f))
			l.Messages = append(l.Messages, sub)
			return true, d.submessage(sub, f, depth)
		case f.IsBytes():
			b, err := d.payload(f.ValidateUTF8)
			if err != nil {
				return true, err
			}
			l.Bytes = append(l.Bytes, b)
		default:
			v, err := d.scalar(f.Kind)
			if err != nil {
				return true, err
			}
			l.Bits = append(l.Bits, v)
		}
		return true, nil

	default:
		if typ != tdp.WireType(f.Kind) {
			return false, nil
		}

		switch {
		case f.IsMessage():
			return true, d.submessage(m.MutableSubmessage(f), f, depth)
		case f.IsBytes():
			b, err := d.payload(f.ValidateUTF8)
			if err != nil {
				return true, err
			}
			m.SetBytes(f, b)
		default:
			v, err := d.scalar(f.Kind)
			if err != nil {
				return true, err
			}
			m.Set(f, v)
		}
		return true, nil
	}
}

// submessage decodes a message or group record into sub, merging.
func (d *decoder) submessage(sub *dynamic.Message, f *tdp.Field, depth int) error {
	if f.Kind == protoreflect.GroupKind {
		return d.message(sub, depth, f.Number)
	}
	return d.nested(sub, depth)
}

// nested decodes a length-prefixed message record into m.
func (d *decoder) nested(m *dynamic.Message, depth int) error {
	n, err := d.length()
	if err != nil {
		return err
	}

	end := d.end
	d.end = d.pos + n
	if err := d.message(m, depth, 0); err != nil {
		return err
	}
	d.end = end
	return nil
}

// mapEntry decodes one entry of a map field and inserts it. A later entry
// with the same key replaces an earlier one.
func (d *decoder) mapEntry(m *dynamic.Message, f *tdp.Field, depth int) error {
	entry := dynamic.New(m.Type.Sub(f))
	if err := d.nested(entry, depth); err != nil {
		return err
	}

	if v := entry.Type.MapValue(); v.IsMessage() {
		entry.MutableSubmessage(v)
	}
	m.MutableMap(f).Insert(entry)
	return nil
}

// packed decodes a packed record of scalars of the given kind onto l.
func (d *decoder) packed(l *dynamic.List, k protoreflect.Kind) error {
	n, err := d.length()
	if err != nil {
		return err
	}

	switch tdp.WireType(k) {
	case protowire.Fixed32Type:
		l.Bits = slices.Grow(l.Bits, n/4)
	case protowire.Fixed64Type:
		l.Bits = slices.Grow(l.Bits, n/8)
	}

	end := d.end
	d.end = d.pos + n
	for d.pos < d.end {
		v, err := d.scalar(k)
		if err != nil {
			return err
		}
		l.Bits = append(l.Bits, v)
	}
	d.end = end
	return nil
}

// scalar reads a single non-length-delimited value, converted to the raw
// form used by the message store.
func (d *decoder) scalar(k protoreflect.Kind) (uint64, error) {
	switch tdp.WireType(k) {
	case protowire.Fixed32Type:
		v, err := d.fixed32()
		return uint64(v), err
	case protowire.Fixed64Type:
		return d.fixed64()
	}

	v, err := d.varint()
	if err != nil {
		return 0, err
	}
	switch k {
	case protoreflect.BoolKind:
		return b2u(v != 0), nil
	case protoreflect.Sint32Kind:
		return uint64(uint32(zigzag.Decode32(v))), nil
	case protoreflect.Sint64Kind:
		return uint64(zigzag.Decode64(v)), nil
	case protoreflect.Int32Kind, protoreflect.Uint32Kind, protoreflect.EnumKind:
		return uint64(uint32(v)), nil
	default:
		return v, nil
	}
}

// payload reads a length-delimited string or bytes value.
func (d *decoder) payload(validateUTF8 bool) ([]byte, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	b := d.src[d.pos : d.pos+n : d.pos+n]
	if validateUTF8 && !d.opts.AllowInvalidUTF8 && !utf8.Valid(b) {
		return nil, d.fail(ErrorUTF8)
	}
	d.pos += n

	if !d.opts.AllowAlias {
		b = bytes.Clone(b)
	}
	return b, nil
}

// skipValue skips the value of an unknown record whose tag has been read.
func (d *decoder) skipValue(tag tdp.Tag, depth int) error {
	switch tag.Type() {
	case protowire.VarintType:
		_, err := d.varint()
		return err
	case protowire.Fixed32Type:
		return d.skip(4)
	case protowire.Fixed64Type:
		return d.skip(8)
	case protowire.BytesType:
		n, err := d.length()
		if err != nil {
			return err
		}
		return d.skip(n)
	case protowire.StartGroupType:
		return d.skipGroup(tag.Number(), depth)
	default:
		return d.fail(ErrorEndGroup)
	}
}

// skipGroup skips records up to and including the end-group tag for num.
func (d *decoder) skipGroup(num protowire.Number, depth int) error {
	if depth <= 0 {
		return d.fail(ErrorRecursionDepth)
	}
	depth--

	for d.pos < d.end {
		start := d.pos
		tag, err := d.tag()
		if err != nil {
			return err
		}
		if tag.Type() == protowire.EndGroupType {
			if tag.Number() == num {
				return nil
			}
			return d.failAt(start, ErrorEndGroup)
		}
		if err := d.skipValue(tag, depth); err != nil {
			return err
		}
	}
	return d.fail(ErrorTruncated)
}

func (d *decoder) log(op, format string, args ...any) {
	debug.Log([]any{"%p", d}, op, format, args...)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
