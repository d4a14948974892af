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


// Package examples holds the inputs used by the package examples, so that
// the examples themselves read like ordinary client code.
package examples

import (
	"encoding/base64"

	"google.golang.org/protobuf/encoding/protowire"
)

// WeatherSchema returns an encoded FileDescriptorSet for
// example.weather.v1.WeatherReport, as a client might download it from a
// schema registry.
func WeatherSchema() []byte {
	return decode(`CpQECi9pbnRlcm5hbC9wcm90by9leGFtcGxlL3dlYXRoZXIvdjEvd2VhdGhlci5wcm90bxISZXhhbXBsZS53ZWF0aGVyLnYxIuMBCg1TdGF0aW9uUmVwb3J0EhgKB3N0YXRpb24YASABKAlSB3N0YXRpb24SHAoJZnJlcXVlbmN5GAIgASgCUglmcmVxdWVuY3kSIAoLdGVtcGVyYXR1cmUYAyABKAJSC3RlbXBlcmF0dXJlEhoKCHByZXNzdXJlGAQgASgCUghwcmVzc3VyZRIdCgp3aW5kX3NwZWVkGAUgASgCUgl3aW5kU3BlZWQSPQoKY29uZGl0aW9ucxgGIAEoDjIdLmV4YW1wbGUud2VhdGhlci52MS5Db25kaXRpb25SCmNvbmRpdGlvbnMidQoNV2VhdGhlclJlcG9ydBIWCgZyZWdpb24YASABKAlSBnJlZ2lvbhJMChB3ZWF0aGVyX3N0YXRpb25zGAIgAygLMiEuZXhhbXBsZS53ZWF0aGVyLnYxLlN0YXRpb25SZXBvcnRSD3dlYXRoZXJTdGF0aW9ucypoCglDb25kaXRpb24SGQoVQ09ORElUSU9OX1VOU1BFQ0lGSUVEEAASEwoPQ09ORElUSU9OX1NVTk5ZEAESEwoPQ09ORElUSU9OX1JBSU5ZEAISFgoSQ09ORElUSU9OX09WRVJDQVNUEANiBnByb3RvMw==`)
}

// WeatherReport returns an encoded example.weather.v1.WeatherReport with two
// stations.
func WeatherReport() []byte {
	return decode(`CgdTZWF0dGxlEh0KBUtBRDkzFWaGIkMdzcw0QSXXo/BBLTMzE0AwAxIdCgVLSEI2MBXNjCJDHTMzW0ElUrjgQS0zM/M/MAM=`)
}

// ClusterLoadAssignment returns an encoded load assignment for a cluster
// with one locality of two endpoints.
func ClusterLoadAssignment() []byte {
	endpoint := func(addr string, port uint64) []byte {
		var b []byte
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, addr)
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, port)
		return b
	}

	var locality []byte
	for _, ep := range [][]byte{endpoint("10.0.0.1", 8080), endpoint("10.0.0.2", 8081)} {
		locality = protowire.AppendTag(locality, 2, protowire.BytesType)
		locality = protowire.AppendBytes(locality, ep)
	}
	locality = protowire.AppendTag(locality, 5, protowire.VarintType)
	locality = protowire.AppendVarint(locality, 1)

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "backend")
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, locality)
	return b
}

func decode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
