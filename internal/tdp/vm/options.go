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

package vm

// DefaultMaxDepth is the default nesting limit for messages and groups.
const DefaultMaxDepth = 100

// Options is configuration for a single decode.
type Options struct {
	// Maximum nesting of messages, groups and map entries, counting the
	// top-level message.
	MaxDepth int

	DiscardUnknown   bool
	AllowInvalidUTF8 bool
	// Strings and bytes may point into the input buffer instead of being
	// copied out of it.
	AllowAlias bool

	// Consult each type's fast dispatch table before the generic decoder.
	FastPath bool
}

// NewOptions returns the default decoding options.
func NewOptions() Options {
	return Options{
		MaxDepth: DefaultMaxDepth,
		FastPath: true,
	}
}
