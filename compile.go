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

	"github.com/tiendc/go-deepcopy"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"buf.build/go/minitable/internal/tdp"
	"buf.build/go/minitable/internal/tdp/compiler"
)

// metadata is stored in [tdp.Library.Metadata].
type metadata struct {
	options []CompileOption
	schema  []MessageSchema // Set by CompileSchema only.
}

// Compile compiles a descriptor, and every message reachable from it, into
// a [Table].
func Compile(md protoreflect.MessageDescriptor, options ...CompileOption) *Table {
	lib, err := compile(compiler.FromDescriptor(md), string(md.FullName()), &metadata{options: options})
	if err != nil {
		// Descriptors that protodesc accepts always satisfy the table
		// invariants.
		panic(fmt.Errorf("minitable: failed to compile %s: %w", md.FullName(), err))
	}
	return wrapTable(lib.Root())
}

// CompileFor is a helper for calling [Compile] using the descriptor of a
// message type linked into the binary.
func CompileFor[T proto.Message](options ...CompileOption) *Table {
	var m T
	return Compile(m.ProtoReflect().Descriptor(), options...)
}

// CompileFileDescriptorSet unmarshals a google.protobuf.FileDescriptorSet
// from schema, looks up a message with the given name, and compiles a table
// for it.
func CompileFileDescriptorSet(schema []byte, name protoreflect.FullName, options ...CompileOption) (*Table, error) {
	fds := new(descriptorpb.FileDescriptorSet)
	if err := proto.Unmarshal(schema, fds); err != nil {
		return nil, err
	}
	files, err := protodesc.NewFiles(fds)
	if err != nil {
		return nil, err
	}
	desc, err := files.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	md, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%s is not a message: %w", name, protoregistry.NotFound)
	}
	return Compile(md, options...), nil
}

// CompileSchema compiles hand-written message schemas into a [Table] for
// the message named root.
//
// Tables compiled this way have no descriptor, so their messages do not
// support reflection; use the accessors on [Message] instead.
func CompileSchema(schema []MessageSchema, root string, options ...CompileOption) (*Table, error) {
	// Keep a private copy, so that callers may reuse their slices.
	var snapshot []MessageSchema
	if err := deepcopy.Copy(&snapshot, &schema); err != nil {
		return nil, err
	}

	var msgs []*compiler.Message
	for i := range snapshot {
		msgs = append(msgs, snapshot[i].lower()...)
	}

	lib, err := compile(msgs, root, &metadata{options: options, schema: snapshot})
	if err != nil {
		return nil, err
	}
	return wrapTable(lib.Root()), nil
}

func compile(msgs []*compiler.Message, root string, meta *metadata) (*tdp.Library, error) {
	opts := compiler.NewOptions()
	opts.Metadata = meta
	for _, opt := range meta.options {
		if opt.apply != nil {
			opt.apply(&opts)
		}
	}
	return compiler.Compile(msgs, root, opts)
}
