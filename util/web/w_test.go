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

package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Write(t *testing.T) {
	tests := []struct {
		name        string
		vals        []any
		status      int
		contentType string
		body        string
	}{
		{"string", []any{nil, "hello"}, 200, "text/plain; charset=utf-8", "hello"},
		{"error", []any{errors.New("boom"), "ignored"}, 500, "text/plain; charset=utf-8", "Unexpected error: boom\n"},
		{"json", []any{map[string]int{"rules": 2}}, 200, "application/json", "{\"rules\":2}\n"},
		{"nothing", []any{nil}, 204, "", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, test.vals...)
			assert.Equal(t, test.status, rec.Code)
			assert.Equal(t, test.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, test.body, rec.Body.String())
		})
	}
}

func Test_WriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "no relation %q", "parent")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no relation \"parent\"\n", rec.Body.String())
}
