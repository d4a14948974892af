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
	"errors"
	"fmt"
	"io"
)

const (
	ErrorOk ErrorCode = iota
	ErrorTruncated
	ErrorVarint
	ErrorFieldNumber
	ErrorWireType
	ErrorEndGroup
	ErrorRecursionDepth
	ErrorUTF8
)

var (
	ErrTruncatedInput         = fmt.Errorf("truncated input: %w", io.ErrUnexpectedEOF)
	ErrMalformedVarint        = errors.New("variable length integer overflow")
	ErrFieldNumberOverflow    = errors.New("invalid field number")
	ErrUnknownWireType        = errors.New("cannot parse reserved wire type")
	ErrEndGroup               = errors.New("mismatching end group marker")
	ErrRecursionLimitExceeded = errors.New("recursion depth exceeded")
	ErrInvalidUTF8            = errors.New("invalid UTF-8 in string")
)

var errs = [...]error{
	ErrorOk:             nil,
	ErrorTruncated:      ErrTruncatedInput,
	ErrorVarint:         ErrMalformedVarint,
	ErrorFieldNumber:    ErrFieldNumberOverflow,
	ErrorWireType:       ErrUnknownWireType,
	ErrorEndGroup:       ErrEndGroup,
	ErrorRecursionDepth: ErrRecursionLimitExceeded,
	ErrorUTF8:           ErrInvalidUTF8,
}

// ErrorCode is one of the possible types of errors in [ParseError].
type ErrorCode int

// ParseError is an error returned by the decoder.
type ParseError struct {
	code   ErrorCode
	offset int
}

// Code returns the kind of error this is.
func (e *ParseError) Code() ErrorCode {
	return e.code
}

// Offset returns the offset at which the error occurred.
func (e *ParseError) Offset() int {
	return e.offset
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *ParseError) Unwrap() error {
	return errs[e.code]
}

// Error implements [error].
func (e *ParseError) Error() string {
	return fmt.Sprintf("minitable: parse error at offset %d/%#x: %v", e.offset, e.offset, e.Unwrap())
}
