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

// Package tdp contains the schema table format read by the decoder and
// encoder. "TDP" stands for "table-driven parser".
//
// A [Type] describes the wire layout of one message: its fields in ascending
// number order, where each field lives inside a message's storage, and a
// small mask-indexed table of fast-path entries. Types are produced by the
// compiler subpackage, grouped into a [Library], and never mutated again.
//
// All fields in this package are exported because they are assembled and
// accessed by other internal packages. None of the types in this package
// should ever be exposed to users directly.
package tdp
