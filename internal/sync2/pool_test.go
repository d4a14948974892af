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

package sync2_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"buf.build/go/minitable/internal/sync2"
)

func TestPool(t *testing.T) {
	t.Parallel()

	type buf struct{ data []byte }

	var resets int
	p := sync2.Pool[buf]{
		New:   func() *buf { return &buf{data: make([]byte, 0, 8)} },
		Reset: func(b *buf) { resets++; b.data = nil },
	}

	v := p.Get()
	assert.Equal(t, 8, cap(v.data))
	v.data = append(v.data, "hello"...)
	p.Put(v)
	assert.Equal(t, 1, resets)
	assert.Nil(t, v.data)

	p.Put(nil)
	assert.Equal(t, 1, resets)

	// Whatever comes back, recycled or new, holds no old contents.
	assert.Empty(t, p.Get().data)

	var zero sync2.Pool[buf]
	assert.NotNil(t, zero.Get())
}
