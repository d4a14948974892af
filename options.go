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
	"buf.build/go/minitable/internal/tdp/compiler"
	"buf.build/go/minitable/internal/tdp/vm"
)

// These are structs rather than interfaces so that applying an
// UnmarshalOption stays a direct call on the decode path. CompileOption
// matches for symmetry.

// CompileOption is a configuration setting for the Compile* functions.
type CompileOption struct{ apply func(*compiler.Options) }

// WithFastTable sets whether tables get a fast dispatch table. Without one,
// every field is decoded by the generic decoder. The default is true.
func WithFastTable(enabled bool) CompileOption {
	return CompileOption{func(o *compiler.Options) { o.FastTable = enabled }}
}

// WithMaxFastEntries bounds the length of each fast dispatch table. It is
// rounded down to a power of two and clamped to 32, the default.
func WithMaxFastEntries(n int) CompileOption {
	return CompileOption{func(o *compiler.Options) { o.MaxFastEntries = n }}
}

// UnmarshalOption is a configuration setting for [Message.Unmarshal].
type UnmarshalOption struct{ apply func(*vm.Options) }

// WithMaxDepth sets the maximum nesting depth of messages, groups and map
// entries, counting the top-level message. The default is 100.
//
// Large values let hostile inputs consume large amounts of stack.
func WithMaxDepth(depth int) UnmarshalOption {
	return UnmarshalOption{func(o *vm.Options) { o.MaxDepth = depth }}
}

// WithDiscardUnknown sets whether unknown fields are dropped instead of
// being kept for re-encoding. Analogous to [proto.UnmarshalOptions].
func WithDiscardUnknown(discard bool) UnmarshalOption {
	return UnmarshalOption{func(o *vm.Options) { o.DiscardUnknown = discard }}
}

// WithAllowInvalidUTF8 disables UTF-8 validation of string fields that
// would otherwise require it.
func WithAllowInvalidUTF8(allow bool) UnmarshalOption {
	return UnmarshalOption{func(o *vm.Options) { o.AllowInvalidUTF8 = allow }}
}

// WithAllowAlias lets string and bytes values point into the input buffer
// instead of being copied. The caller must then not modify the buffer while
// the message is in use.
func WithAllowAlias(allow bool) UnmarshalOption {
	return UnmarshalOption{func(o *vm.Options) { o.AllowAlias = allow }}
}

// WithFastPath sets whether the fast dispatch tables are consulted. Turning
// it off never changes the result of a decode, only its speed. The default
// is true.
func WithFastPath(enabled bool) UnmarshalOption {
	return UnmarshalOption{func(o *vm.Options) { o.FastPath = enabled }}
}
