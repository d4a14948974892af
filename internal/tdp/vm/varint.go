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

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"buf.build/go/minitable/internal/tdp"
)

// cursor is a read position over the input buffer. Reads never go past end,
// which is the end of the innermost length-delimited record being decoded.
type cursor struct {
	src      []byte
	pos, end int
}

func (c *cursor) fail(code ErrorCode) *ParseError {
	return c.failAt(c.pos, code)
}

func (c *cursor) failAt(offset int, code ErrorCode) *ParseError {
	return &ParseError{code: code, offset: offset}
}

// varint reads a base-128 varint of at most ten bytes.
func (c *cursor) varint() (uint64, error) {
	start := c.pos
	var x uint64
	for i := range 10 {
		if c.pos >= c.end {
			return 0, c.fail(ErrorTruncated)
		}
		b := c.src[c.pos]
		c.pos++

		// The tenth byte only has room for the top bit of a uint64.
		if i == 9 && b > 1 {
			return 0, c.failAt(start, ErrorVarint)
		}
		x |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return x, nil
		}
	}
	return 0, c.failAt(start, ErrorVarint)
}

// tag reads a field tag, rejecting field number zero, numbers that do not
// fit in 29 bits, and the reserved wire types 6 and 7.
func (c *cursor) tag() (tdp.Tag, error) {
	start := c.pos
	v, err := c.varint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 || v>>3 == 0 {
		return 0, c.failAt(start, ErrorFieldNumber)
	}

	tag := tdp.Tag(v)
	if t := tag.Type(); t > protowire.Fixed32Type {
		return 0, c.failAt(start, ErrorWireType)
	}
	return tag, nil
}

// length reads the length prefix of a record and checks that the record fits.
func (c *cursor) length() (int, error) {
	n, err := c.varint()
	if err != nil {
		return 0, err
	}
	if n > uint64(c.end-c.pos) {
		return 0, c.fail(ErrorTruncated)
	}
	return int(n), nil
}

func (c *cursor) fixed32() (uint32, error) {
	if c.end-c.pos < 4 {
		return 0, c.fail(ErrorTruncated)
	}
	v := binary.LittleEndian.Uint32(c.src[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) fixed64() (uint64, error) {
	if c.end-c.pos < 8 {
		return 0, c.fail(ErrorTruncated)
	}
	v := binary.LittleEndian.Uint64(c.src[c.pos:])
	c.pos += 8
	return v, nil
}

// skip advances past n bytes.
func (c *cursor) skip(n int) error {
	if c.end-c.pos < n {
		return c.fail(ErrorTruncated)
	}
	c.pos += n
	return nil
}
