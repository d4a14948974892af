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

// Package zigzag converts between the raw varint payload of sint32/sint64
// fields and their signed values.
package zigzag

import "google.golang.org/protobuf/encoding/protowire"

// Decode32 decodes the varint payload of a sint32 field.
//
// Only the low 32 bits participate: an encoder that sign-extended the value
// to 64 bits must still round-trip.
func Decode32(raw uint64) int32 {
	return int32(protowire.DecodeZigZag(raw & 0xffffffff))
}

// Decode64 decodes the varint payload of a sint64 field.
func Decode64(raw uint64) int64 {
	return protowire.DecodeZigZag(raw)
}

// Encode32 produces the varint payload of a sint32 field.
func Encode32(v int32) uint64 {
	return uint64((uint32(v) << 1) ^ uint32(v>>31))
}

// Encode64 produces the varint payload of a sint64 field.
func Encode64(v int64) uint64 {
	return protowire.EncodeZigZag(v)
}
