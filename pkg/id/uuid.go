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
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NewUUID generates a new random UUID. Used for user ids.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// GetUUID generates a new UUID string. Used for session ids.
func GetUUID() string {
	return uuid.NewString()
}

// ParseUUID accepts only the canonical 36 character form.
func ParseUUID(s string) (uuid.UUID, error) {
	if len(s) != 36 {
		return uuid.UUID{}, errors.Errorf("invalid UUID length: %d", len(s))
	}
	return uuid.Parse(s)
}
