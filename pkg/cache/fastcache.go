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
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const defaultLocalMaxBytes = 32 * 1024 * 1024

// FastCacheConfig holds fastcache configuration.
type FastCacheConfig struct {
	MaxBytes int // default 32MB
}

// FastCache is an in-process ICache on top of fastcache. Expired keys are
// removed when they are next read.
type FastCache struct {
	cache *fastcache.Cache
	mu    sync.RWMutex
	ttls  map[string]time.Time
	now   func() time.Time
}

// NewFastCache creates a new FastCache instance.
func NewFastCache(conf FastCacheConfig) *FastCache {
	maxBytes := conf.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultLocalMaxBytes
	}
	return &FastCache{
		cache: fastcache.New(maxBytes),
		ttls:  make(map[string]time.Time),
		now:   time.Now,
	}
}

func (fc *FastCache) expired(key string) bool {
	exp, ok := fc.ttls[key]
	return ok && !fc.now().Before(exp)
}

// Get returns the value for key.
func (fc *FastCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)

	fc.mu.RLock()
	expired := fc.expired(key)
	value, ok := fc.cache.HasGet(nil, []byte(key))
	fc.mu.RUnlock()

	if expired {
		fc.mu.Lock()
		if fc.expired(key) {
			fc.cache.Del([]byte(key))
			delete(fc.ttls, key)
		}
		fc.mu.Unlock()
		ok = false
	}
	if !ok {
		cmd.SetErr(Nil)
		return cmd
	}
	cmd.SetVal(string(value))
	return cmd
}

// Set stores value under key. Values that are neither string nor []byte are
// stored as JSON.
func (fc *FastCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := sonic.Marshal(v)
		if err != nil {
			cmd.SetErr(err)
			return cmd
		}
		raw = data
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.cache.Set([]byte(key), raw)
	if expiration > 0 {
		fc.ttls[key] = fc.now().Add(expiration)
	} else {
		delete(fc.ttls, key)
	}

	cmd.SetVal("OK")
	return cmd
}

// Del deletes the given keys.
func (fc *FastCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")

	fc.mu.Lock()
	defer fc.mu.Unlock()

	var count int64
	for _, key := range keys {
		if fc.cache.Has([]byte(key)) && !fc.expired(key) {
			count++
		}
		fc.cache.Del([]byte(key))
		delete(fc.ttls, key)
	}
	cmd.SetVal(count)
	return cmd
}

// Expire resets the expiration of an existing key.
func (fc *FastCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if !fc.cache.Has([]byte(key)) || fc.expired(key) {
		cmd.SetVal(false)
		return cmd
	}
	if expiration > 0 {
		fc.ttls[key] = fc.now().Add(expiration)
	} else {
		fc.cache.Del([]byte(key))
		delete(fc.ttls, key)
	}
	cmd.SetVal(true)
	return cmd
}

// Clear removes everything.
func (fc *FastCache) Clear() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.cache.Reset()
	fc.ttls = make(map[string]time.Time)
}

// Stats returns the underlying fastcache counters.
func (fc *FastCache) Stats() fastcache.Stats {
	var s fastcache.Stats
	fc.cache.UpdateStats(&s)
	return s
}
