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

// Package cmp serializes object identities into comparable strings.
package cmp

import (
	"strings"
)

// Key is implemented by objects whose identity can be written out as a
// string. Two objects with the same key are interchangeable, e.g. two rules
// that differ only in variable numbering or body order.
type Key interface {
	// Key writes the identity of the object to b. The output is meant for
	// map keys and equality checks, but should stay readable for debugging
	// and tests.
	Key(b *strings.Builder)
}

// GetKey returns the identity key of the object.
func GetKey(object Key) string {
	var b strings.Builder
	object.Key(&b)
	return b.String()
}

// Equal returns true if a and b have the same identity key.
func Equal(a, b Key) bool {
	return GetKey(a) == GetKey(b)
}
