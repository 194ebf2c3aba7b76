// Copyright 2025 Arcade Team
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

package httpx

import "strings"

// Header maps lowercased field names to values. A repeated field keeps the
// last value.
type Header map[string]string

// Get looks a field up by name, ignoring case.
func (h Header) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

// Set stores a field under its lowercased name.
func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

// Has reports whether the field is present.
func (h Header) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// Field is one response header line. Response headers keep their order and
// spelling.
type Field struct {
	Name  string
	Value string
}
