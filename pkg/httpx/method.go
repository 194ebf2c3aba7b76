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

// Method is an HTTP request method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPut     Method = "PUT"
	MethodPost    Method = "POST"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
)

var methods = map[string]Method{
	"GET":     MethodGet,
	"PUT":     MethodPut,
	"POST":    MethodPost,
	"DELETE":  MethodDelete,
	"PATCH":   MethodPatch,
	"HEAD":    MethodHead,
	"OPTIONS": MethodOptions,
	"TRACE":   MethodTrace,
	"CONNECT": MethodConnect,
}

// ParseMethod parses s case-insensitively.
func ParseMethod(s string) (Method, error) {
	m, ok := methods[strings.ToUpper(s)]
	if !ok {
		return "", ErrIncorrectMethod
	}
	return m, nil
}

func (m Method) String() string {
	return string(m)
}
