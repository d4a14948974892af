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

// Package sync2 contains typed wrappers over package sync.
package sync2

import "sync"

// Pool is a typed sync.Pool.
//
// Values handed to Put are reset first, so nothing they point to is kept
// alive by the pool.
type Pool[T any] struct {
	New   func() *T // May be nil, in which case new(T) is used.
	Reset func(*T)  // May be nil.

	impl sync.Pool
}

// Get returns a value from the pool, or a fresh one.
func (p *Pool[T]) Get() *T {
	if v, ok := p.impl.Get().(*T); ok {
		return v
	}
	if p.New != nil {
		return p.New()
	}
	return new(T)
}

// Put resets v and returns it to the pool. v must not be used afterwards.
func (p *Pool[T]) Put(v *T) {
	if v == nil {
		return
	}
	if p.Reset != nil {
		p.Reset(v)
	}
	p.impl.Put(v)
}
