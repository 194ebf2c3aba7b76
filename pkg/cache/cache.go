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

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil is reported by Get for a missing or expired key, for every backend.
const Nil = redis.Nil

// ICache is the key/value cache used for short-lived server state.
type ICache interface {
	// Get returns the value of key, or an error equal to Nil.
	Get(ctx context.Context, key string) *redis.StringCmd
	// Set stores value under key. A zero expiration keeps it until deleted.
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	// Expire resets the time to live of key.
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}
