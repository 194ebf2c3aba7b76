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

package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenUUID(t *testing.T) {
	assert.Len(t, GetUUID(), 36)
	assert.NotEqual(t, NewUUID(), NewUUID())
}

func TestParseUUID(t *testing.T) {
	u := NewUUID()
	parsed, err := ParseUUID(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, parsed)

	for _, bad := range []string{
		"",
		"not-a-uuid",
		"urn:uuid:" + u.String(),
		"{" + u.String() + "}",
		"zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz",
	} {
		_, err := ParseUUID(bad)
		assert.Error(t, err, bad)
	}
}
