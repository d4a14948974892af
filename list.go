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
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/dynamic"
)

// List is a [protoreflect.List] over a repeated field of a [Message].
//
// A List obtained from an unset field is empty and read-only.
type List struct {
	field *tdp.Field
	impl  *dynamic.List
}

var _ protoreflect.List = (*List)(nil)

// Len implements [protoreflect.List].
func (l *List) Len() int {
	return l.impl.Len()
}

// Get implements [protoreflect.List].
func (l *List) Get(n int) protoreflect.Value {
	f := l.field
	switch {
	case f.IsMessage():
		return protoreflect.ValueOfMessage(wrapMessage(l.impl.Messages[n]))
	case f.IsBytes():
		return bytesValue(f.Kind, l.impl.Bytes[n])
	default:
		return scalarValue(f.Kind, l.impl.Bits[n])
	}
}

// Set implements [protoreflect.List].
func (l *List) Set(n int, v protoreflect.Value) {
	f := l.mutable()
	switch {
	case f.IsMessage():
		l.impl.Messages[n] = toMessage(f.Message(), v)
	case f.IsBytes():
		l.impl.Bytes[n] = valueBytes(f.Kind, v)
	default:
		l.impl.Bits[n] = scalarBits(f.Kind, v)
	}
}

// Append implements [protoreflect.List].
func (l *List) Append(v protoreflect.Value) {
	f := l.mutable()
	switch {
	case f.IsMessage():
		l.impl.Messages = append(l.impl.Messages, toMessage(f.Message(), v))
	case f.IsBytes():
		l.impl.Bytes = append(l.impl.Bytes, valueBytes(f.Kind, v))
	default:
		l.impl.Bits = append(l.impl.Bits, scalarBits(f.Kind, v))
	}
}

// AppendMutable implements [protoreflect.List].
func (l *List) AppendMutable() protoreflect.Value {
	f := l.mutable()
	if !f.IsMessage() {
		panic("minitable: AppendMutable on list of " + f.Kind.String())
	}
	sub := dynamic.New(f.Message())
	l.impl.Messages = append(l.impl.Messages, sub)
	return protoreflect.ValueOfMessage(wrapMessage(sub))
}

// Truncate implements [protoreflect.List].
func (l *List) Truncate(n int) {
	f := l.mutable()
	switch {
	case f.IsMessage():
		clear(l.impl.Messages[n:])
		l.impl.Messages = l.impl.Messages[:n]
	case f.IsBytes():
		clear(l.impl.Bytes[n:])
		l.impl.Bytes = l.impl.Bytes[:n]
	default:
		l.impl.Bits = l.impl.Bits[:n]
	}
}

// NewElement implements [protoreflect.List].
func (l *List) NewElement() protoreflect.Value {
	f := l.field
	if f.IsMessage() {
		return protoreflect.ValueOfMessage(wrapMessage(dynamic.New(f.Message())))
	}
	if f.IsBytes() {
		return bytesValue(f.Kind, nil)
	}
	return scalarValue(f.Kind, 0)
}

// IsValid implements [protoreflect.List].
func (l *List) IsValid() bool {
	return l.impl != nil
}

func (l *List) mutable() *tdp.Field {
	if l.impl == nil {
		panic("minitable: mutating read-only list for " + l.field.Name)
	}
	return l.field
}
