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


// Package testdata holds the decoder test corpus: a schema and a set of YAML
// test cases, each naming a message type and one or more encoded specimens.
package testdata

import (
	"bytes"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"gopkg.in/yaml.v3"

	"buf.build/go/minitable"
	"buf.build/go/minitable/internal/prototest"
)

//go:embed schema corpus
var testdata embed.FS

// Harness is a generalization of [testing.TB] that also includes the
// [testing.T.Run] method. It must be generic because the signature of this
// function varies across [testing.T] and [testing.B].
type Harness[T any] interface {
	testing.TB
	Run(string, func(T)) bool
}

// Errors that a test case may expect, by the name used in the corpus.
var Errors = map[string]error{
	"truncated":    minitable.ErrTruncatedInput,
	"varint":       minitable.ErrMalformedVarint,
	"field_number": minitable.ErrFieldNumberOverflow,
	"wire_type":    minitable.ErrUnknownWireType,
	"end_group":    minitable.ErrEndGroup,
	"recursion":    minitable.ErrRecursionLimitExceeded,
	"utf8":         minitable.ErrInvalidUTF8,
}

// TestCase is a single case from the test corpus.
type TestCase struct {
	Name string `yaml:"-"`

	TypeName string `yaml:"type"`
	Type     struct {
		Oracle protoreflect.MessageType
		Table  *minitable.Table
	} `yaml:"-"`

	// If set, the decoder must fail with this error for every specimen.
	Error string `yaml:"error"`
	// Decoder options.
	MaxDepth       int  `yaml:"max_depth"`
	DiscardUnknown bool `yaml:"discard_unknown"`

	// Set for cases large enough to be worth benchmarking.
	Benchmark bool `yaml:"benchmark"`

	// Three ways to encode the test: hex, textproto, and protoscope.
	Hex        []string `yaml:"hex"`
	TextProto  []string `yaml:"textproto"`
	Protoscope []string `yaml:"protoscope"`

	Specimens [][]byte `yaml:"-"`
}

// RunAll runs all of the test cases against the given harness.
func RunAll[T Harness[T]](t T, f func(T, *TestCase)) {
	t.Helper()

	err := fs.WalkDir(testdata, "corpus", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "loading test %q", path)

		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		t.Run(strings.TrimPrefix(path, "corpus/"), func(t T) {
			if t, ok := any(t).(*testing.T); ok {
				t.Parallel()
			}

			data, err := fs.ReadFile(testdata, path)
			require.NoError(t, err, "loading test %q", path)

			if test := parseTestCase(t, path, data); test != nil {
				f(t, test)
			}
		})
		return nil
	})
	require.NoError(t, err)
}

// Options returns the decoder options this case asks for.
func (test *TestCase) Options() []minitable.UnmarshalOption {
	var opts []minitable.UnmarshalOption
	if test.MaxDepth != 0 {
		opts = append(opts, minitable.WithMaxDepth(test.MaxDepth))
	}
	if test.DiscardUnknown {
		opts = append(opts, minitable.WithDiscardUnknown(true))
	}
	return opts
}

// Run executes a single test case.
//
// Every specimen is decoded with and without the fast path, which must
// produce identical message stores. Unless the case expects an error, the
// result is compared with the reference decoder, then re-encoded and
// decoded again.
func (test *TestCase) Run(t *testing.T, verbose bool) {
	t.Helper()

	run := func(t *testing.T, specimen []byte) {
		t.Helper()

		opts := test.Options()
		fast := minitable.NewMessage(test.Type.Table)
		errFast := fast.Unmarshal(specimen, opts...)
		slow := minitable.NewMessage(test.Type.Table)
		errSlow := slow.Unmarshal(specimen, append(opts, minitable.WithFastPath(false))...)

		if verbose {
			t.Logf("fast: %v, generic: %v", errFast, errSlow)
		}

		if errFast != nil || errSlow != nil {
			var pFast, pSlow *minitable.ParseError
			require.ErrorAs(t, errFast, &pFast)
			require.ErrorAs(t, errSlow, &pSlow)
			require.Equal(t, pFast.Code(), pSlow.Code())
		} else {
			require.Equal(t, fmt.Sprint(slow), fmt.Sprint(fast))
			require.Equal(t, slow.Marshal(), fast.Marshal())
		}

		if test.Error != "" {
			require.ErrorIs(t, errFast, Errors[test.Error])
			return
		}

		oracle := test.Type.Oracle.New().Interface()
		errOracle := proto.UnmarshalOptions{
			AllowPartial:   true,
			DiscardUnknown: test.DiscardUnknown,
		}.Unmarshal(specimen, oracle)
		if errOracle != nil {
			require.Error(t, errFast, "reference error: %v", errOracle)
			return
		}
		require.NoError(t, errFast)
		prototest.Equal(t, oracle, fast)

		encoded := fast.Marshal()
		require.Len(t, encoded, fast.Size())
		again := minitable.NewMessage(test.Type.Table)
		require.NoError(t, again.Unmarshal(encoded))
		prototest.Equal(t, oracle, again)

		if verbose {
			options := protojson.MarshalOptions{
				Multiline:     true,
				Indent:        "  ",
				UseProtoNames: true,
			}
			b1, _ := options.Marshal(oracle)
			b2, _ := options.Marshal(fast)
			t.Logf("reference: %s", b1)
			t.Logf("ours: %s", b2)
		}
	}

	if len(test.Specimens) == 1 {
		run(t, test.Specimens[0])
		return
	}

	for _, specimen := range test.Specimens {
		t.Run("", func(t *testing.T) {
			t.Parallel()
			run(t, specimen)
		})
	}
}

// parseTestCase parses a single test case from the given data.
//
// This will call t.FailNow() if parsing fails.
func parseTestCase(t testing.TB, path string, file []byte) *TestCase {
	t.Helper()

	require.True(t, bytes.HasSuffix(file, []byte("\n")), "missing trailing newline in %q", path)

	test := new(TestCase)
	dec := yaml.NewDecoder(bytes.NewReader(file))
	dec.KnownFields(true)
	err := dec.Decode(&test)
	require.NoError(t, err, "loading test %q", path)

	_, isBench := t.(*testing.B)
	if isBench && (!test.Benchmark || test.Error != "") {
		t.SkipNow()
	}

	if test.Error != "" {
		_, ok := Errors[test.Error]
		require.True(t, ok, "unknown error %q in %q", test.Error, path)
	}

	test.Name = strings.TrimPrefix(path, "corpus/")
	test.Type.Oracle = LoadSchema(t).Message(t, test.TypeName)
	test.Type.Table = minitable.Compile(test.Type.Oracle.Descriptor())

	for _, raw := range test.Hex {
		r := strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")
		b, err := hex.DecodeString(r.Replace(raw))
		require.NoError(t, err, "loading test %q", path)

		test.Specimens = append(test.Specimens, b)
	}

	for _, raw := range test.TextProto {
		m := test.Type.Oracle.New().Interface()
		err = prototext.Unmarshal([]byte(raw), m)
		require.NoError(t, err, "loading test %q", path)

		b, err := proto.MarshalOptions{AllowPartial: true}.Marshal(m)
		require.NoError(t, err, "loading test %q", path)

		test.Specimens = append(test.Specimens, b)
	}

	for _, raw := range test.Protoscope {
		s := protoscope.NewScanner(raw)
		b, err := s.Exec()
		require.NoError(t, err, "loading test %q", path)

		test.Specimens = append(test.Specimens, b)
	}

	require.NotEmpty(t, test.Specimens, "no specimens in %q", path)
	return test
}

// Specimens returns every specimen in the corpus for the given type, from
// cases that do not expect an error. Useful for seeding fuzzers.
func Specimens(t testing.TB, typeName string) [][]byte {
	t.Helper()

	var out [][]byte
	err := fs.WalkDir(testdata, "corpus", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".yaml" {
			return err
		}

		data, err := fs.ReadFile(testdata, path)
		if err != nil {
			return err
		}
		if test := parseTestCase(t, path, data); test.TypeName == typeName && test.Error == "" {
			out = append(out, test.Specimens...)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}
