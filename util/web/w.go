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

// Package web aids in writing HTTP handlers.
package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// WriteError writes a plain text error response with the given HTTP status
// code.
func WriteError(w http.ResponseWriter, statusCode int, formatMsg string, params ...any) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, formatMsg, params...)
	io.WriteString(w, "\n")
}

// Write writes the first non-nil value of 'vals' as the response: strings as
// plain text, errors as a 500 response, and anything else as JSON. If every
// value is nil, the response is a 204. This allows calls such as
// web.Write(w, err, result).
func Write(w http.ResponseWriter, vals ...any) {
	for _, val := range vals {
		if val == nil {
			continue
		}
		switch tv := val.(type) {
		case string:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			io.WriteString(w, tv)
		case error:
			WriteError(w, http.StatusInternalServerError, "Unexpected error: %s", tv)
		default:
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(tv); err != nil {
				WriteError(w, http.StatusInternalServerError, "Unable to encode response: %s", err)
			}
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
