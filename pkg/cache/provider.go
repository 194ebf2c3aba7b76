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

	"github.com/google/wire"
	"github.com/pkg/errors"
)

// ProviderSet provides the configured cache backend.
var ProviderSet = wire.NewSet(ProvideCache)

// Conf selects the cache backend.
type Conf struct {
	// Backend is "memory" or "redis".
	Backend    string
	CacheBytes int `mapstructure:"cacheBytes"`
	Redis      Redis
}

// ProvideCache builds the configured backend. The cleanup closes the redis
// client, if any.
func ProvideCache(conf Conf) (ICache, func(), error) {
	switch conf.Backend {
	case "", "memory":
		fc := NewFastCache(FastCacheConfig{MaxBytes: conf.CacheBytes})
		return fc, fc.Clear, nil
	case "redis":
		client, err := NewRedis(context.Background(), conf.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisCache(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unknown cache backend %q", conf.Backend)
	}
}
