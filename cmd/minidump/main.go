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


// minidump decodes a protobuf payload with a compiled table and prints it.
//
// Usage:
//
//	minidump -schema fds.binpb -type pkg.Message [flags] [input]
//
// The schema is a binary google.protobuf.FileDescriptorSet, as produced by
// `buf build -o` or `protoc --descriptor_set_out`. The input is read from the
// named file, or from stdin if none is given.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/minitable"
)

var errUsage = errors.New("usage error")

// config is the parsed command line.
type config struct {
	schema, typeName string
	format           string
	input            string

	layout         bool
	hex            bool
	discardUnknown bool
	maxDepth       int
	noFast         bool
}

func main() {
	os.Exit(runWithArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runWithArgs runs the tool and returns its exit code.
func runWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "minidump:", err)
		return 2
	}
	if err := run(cfg, stdin, stdout); err != nil {
		fmt.Fprintln(stderr, "minidump:", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := new(config)
	fs := flag.NewFlagSet("minidump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.schema, "schema", "", "path to a binary FileDescriptorSet")
	fs.StringVar(&cfg.typeName, "type", "", "full name of the message type to decode")
	fs.StringVar(&cfg.format, "format", "json", "output format: json, text or dump")
	fs.BoolVar(&cfg.layout, "layout", false, "print the compiled table layout instead of decoding")
	fs.BoolVar(&cfg.hex, "hex", false, "the input is hex-encoded")
	fs.BoolVar(&cfg.discardUnknown, "discard-unknown", false, "drop unknown fields")
	fs.IntVar(&cfg.maxDepth, "max-depth", 100, "maximum message nesting depth")
	fs.BoolVar(&cfg.noFast, "no-fast", false, "decode with the generic decoder only")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case cfg.schema == "":
		return nil, fmt.Errorf("%w: -schema is required", errUsage)
	case cfg.typeName == "":
		return nil, fmt.Errorf("%w: -type is required", errUsage)
	case fs.NArg() > 1:
		return nil, fmt.Errorf("%w: at most one input file", errUsage)
	}
	switch cfg.format {
	case "json", "text", "dump":
	default:
		return nil, fmt.Errorf("%w: unknown -format %q", errUsage, cfg.format)
	}
	cfg.input = fs.Arg(0)
	return cfg, nil
}

func run(cfg *config, stdin io.Reader, stdout io.Writer) error {
	schema, err := os.ReadFile(cfg.schema)
	if err != nil {
		return err
	}
	table, err := minitable.CompileFileDescriptorSet(schema, protoreflect.FullName(cfg.typeName))
	if err != nil {
		return fmt.Errorf("compiling %s: %w", cfg.typeName, err)
	}

	if cfg.layout {
		_, err := fmt.Fprintf(stdout, "%+v", table)
		return err
	}

	data, err := readInput(cfg, stdin)
	if err != nil {
		return err
	}

	msg := minitable.NewMessage(table)
	err = msg.Unmarshal(data,
		minitable.WithMaxDepth(cfg.maxDepth),
		minitable.WithDiscardUnknown(cfg.discardUnknown),
		minitable.WithFastPath(!cfg.noFast),
	)
	if err != nil {
		return err
	}

	var out []byte
	switch cfg.format {
	case "json":
		out, err = protojson.MarshalOptions{Multiline: isTerminal(stdout)}.Marshal(msg)
	case "text":
		out, err = prototext.MarshalOptions{Multiline: true}.Marshal(msg)
	case "dump":
		out = []byte(fmt.Sprint(msg))
	}
	if err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = stdout.Write(out)
	return err
}

func readInput(cfg *config, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if cfg.input == "" || cfg.input == "-" {
		if isTerminal(stdin) && !cfg.hex {
			return nil, fmt.Errorf("%w: refusing to read binary input from a terminal", errUsage)
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(cfg.input)
	}
	if err != nil || !cfg.hex {
		return data, err
	}

	text := strings.Join(strings.Fields(string(data)), "")
	return hex.DecodeString(text)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
