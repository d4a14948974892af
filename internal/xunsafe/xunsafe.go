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

// Package xunsafe contains the one unsafe operation the public API needs:
// viewing an internal value through a public wrapper with the same layout.
package xunsafe

import "unsafe"

// Cast converts a pointer from one type to another.
//
// To must be a struct whose only field has type From, or vice versa.
func Cast[To, From any](p *From) *To {
	return (*To)(unsafe.Pointer(p))
}
