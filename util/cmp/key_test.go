// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pair [2]string

func (p pair) Key(b *strings.Builder) {
	b.WriteString(p[0])
	b.WriteByte('/')
	b.WriteString(p[1])
}

func Test_GetKey(t *testing.T) {
	assert.Equal(t, "a/b", GetKey(pair{"a", "b"}))
	assert.Equal(t, "/", GetKey(pair{}))
}

func Test_Equal(t *testing.T) {
	assert.True(t, Equal(pair{"a", "b"}, pair{"a", "b"}))
	assert.False(t, Equal(pair{"a", "b"}, pair{"b", "a"}))
}
