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
	"errors"

	"buf.build/go/minitable/internal/tdp/compiler"
	"buf.build/go/minitable/internal/tdp/vm"
)

// ParseError is the error returned by [Message.Unmarshal]. It wraps one of
// the Err* sentinels below and records the byte offset of the failure.
type ParseError = vm.ParseError

// Errors that a decode can fail with. Test for them with [errors.Is].
var (
	// The input ended in the middle of a field. Also matches
	// [io.ErrUnexpectedEOF].
	ErrTruncatedInput = vm.ErrTruncatedInput
	// A varint was longer than ten bytes.
	ErrMalformedVarint = vm.ErrMalformedVarint
	// A tag had field number zero or did not fit in 32 bits.
	ErrFieldNumberOverflow = vm.ErrFieldNumberOverflow
	// A tag used wire type 6 or 7.
	ErrUnknownWireType = vm.ErrUnknownWireType
	// An end-group tag did not match the open group.
	ErrEndGroup = vm.ErrEndGroup
	// Messages were nested deeper than [WithMaxDepth] allows.
	ErrRecursionLimitExceeded = vm.ErrRecursionLimitExceeded
	// A string field that requires UTF-8 held something else.
	ErrInvalidUTF8 = vm.ErrInvalidUTF8
)

// ErrInvalidSchema is returned by [CompileSchema] for schemas that violate
// the table invariants, such as fields out of order.
var ErrInvalidSchema = compiler.ErrInvalidSchema

// ErrMissingRequired is returned by [Message.CheckInitialized].
var ErrMissingRequired = errors.New("required field not set")
