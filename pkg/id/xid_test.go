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

package id_test

import (
	"testing"

	"github.com/go-arcade/courier/pkg/id"
	"github.com/stretchr/testify/assert"
)

func TestGetXid(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for range 100 {
		got := id.GetXid()
		assert.Len(t, got, 20)
		assert.NotContains(t, seen, got)
		seen[got] = struct{}{}
	}
}
