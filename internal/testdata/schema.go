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


package testdata

import (
	"fmt"
	"io/fs"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Schema is the set of message types the test corpus is written against.
//
// The schema is kept as textproto FileDescriptorProtos under schema/, so
// that tests need no generated code; dynamicpb messages of the same types
// serve as the reference decoder.
type Schema struct {
	Set   *descriptorpb.FileDescriptorSet
	Files *protoregistry.Files
	Types *dynamicpb.Types
}

var loadSchema = sync.OnceValues(func() (*Schema, error) {
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			protodesc.ToFileDescriptorProto(durationpb.File_google_protobuf_duration_proto),
			protodesc.ToFileDescriptorProto(wrapperspb.File_google_protobuf_wrappers_proto),
		},
	}

	entries, err := fs.ReadDir(testdata, "schema")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := path.Join("schema", entry.Name())
		data, err := fs.ReadFile(testdata, name)
		if err != nil {
			return nil, err
		}
		fdp := new(descriptorpb.FileDescriptorProto)
		if err := prototext.Unmarshal(data, fdp); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		set.File = append(set.File, fdp)
	}

	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, err
	}
	return &Schema{
		Set:   set,
		Files: files,
		Types: dynamicpb.NewTypes(files),
	}, nil
})

// LoadSchema loads the test schema.
//
// This will call t.FailNow() if the schema does not load.
func LoadSchema(t testing.TB) *Schema {
	t.Helper()
	s, err := loadSchema()
	require.NoError(t, err, "loading test schema")
	return s
}

// Message looks up a message type by full name.
func (s *Schema) Message(t testing.TB, name string) protoreflect.MessageType {
	t.Helper()
	mt, err := s.Types.FindMessageByName(protoreflect.FullName(name))
	require.NoError(t, err, "loading type %q", name)
	return mt
}

// Bytes returns the schema as an encoded FileDescriptorSet.
func (s *Schema) Bytes(t testing.TB) []byte {
	t.Helper()
	b, err := proto.Marshal(s.Set)
	require.NoError(t, err)
	return b
}
