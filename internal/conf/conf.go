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

// Package conf assembles the application configuration from defaults, the
// TOML file, COURIER_ environment variables and command line flags.
package conf

import (
	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/session"
	"github.com/go-arcade/courier/pkg/cache"
	pkgconf "github.com/go-arcade/courier/pkg/conf"
	"github.com/go-arcade/courier/pkg/database"
	"github.com/go-arcade/courier/pkg/httpx"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/go-arcade/courier/pkg/pprof"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COURIER"

// AppConfig is the complete configuration.
type AppConfig struct {
	Log      log.Conf
	Http     httpx.Conf
	Database database.Conf
	Redis    cache.Redis
	Session  session.Conf
	Registry messenger.RegistryConf
	Metrics  metrics.MetricsConfig
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"host": "http.host",
	"port": "http.port",
	"db":   "database.target",
	"mock": "database.mock",
}

// SetDefaults registers a default for every key, which also makes every key
// overridable from the environment.
func SetDefaults(v *viper.Viper) {
	logDefaults := log.SetDefaults()
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("log.path", logDefaults.Path)
	v.SetDefault("log.filename", logDefaults.Filename)
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.keepHours", logDefaults.KeepHours)
	v.SetDefault("log.rotateSize", logDefaults.RotateSize)
	v.SetDefault("log.rotateNum", logDefaults.RotateNum)

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.keepAlive", int(httpx.DefaultKeepAlive.Seconds()))
	v.SetDefault("http.retry", 0)
	v.SetDefault("http.accessLog", true)

	v.SetDefault("database.target", "")
	v.SetDefault("database.mock", false)
	v.SetDefault("database.autoMigrate", false)
	v.SetDefault("database.output", false)
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifeTime", 3600)
	v.SetDefault("database.maxIdleTime", 600)
	v.SetDefault("database.connectAttempts", 5)

	v.SetDefault("redis.mode", "single")
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.useTLS", false)
	v.SetDefault("redis.masterName", "")
	v.SetDefault("redis.sentinelUsername", "")
	v.SetDefault("redis.sentinelPassword", "")
	v.SetDefault("redis.dialTimeout", 5)
	v.SetDefault("redis.readTimeout", 3)
	v.SetDefault("redis.writeTimeout", 3)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", int(session.DefaultTTL.Seconds()))
	v.SetDefault("session.cacheBytes", 32<<20)

	v.SetDefault("registry.capacity", messenger.DefaultCapacity)
	v.SetDefault("registry.gcInterval", int(messenger.DefaultGCInterval.Seconds()))

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.host", "127.0.0.1")
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.pprofPath", pprof.DefaultPath)
}

// Load reads the configuration. file may be empty. Flags present in flags
// and set by the user win over every other source.
func Load(file string, flags *pflag.FlagSet) (*AppConfig, *viper.Viper, error) {
	v := pkgconf.New(EnvPrefix)
	SetDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, errors.Wrapf(err, "bind flag --%s", name)
			}
		}
	}

	cfg := &AppConfig{}
	if err := pkgconf.Load(v, file, cfg); err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// WatchLogLevel applies log.level changes in the loaded file without a
// restart. Other settings take effect on the next start.
func WatchLogLevel(v *viper.Viper) {
	watching := pkgconf.Watch(v, func(e fsnotify.Event) {
		level := v.GetString("log.level")
		log.SetLevel(level)
		log.Infow("configuration changed", "file", e.Name, "log.level", level)
	})
	if watching {
		log.Debugw("watching configuration", "file", v.ConfigFileUsed())
	}
}

// CacheConf is the session cache configuration.
func (c *AppConfig) CacheConf() cache.Conf {
	return cache.Conf{
		Backend:    c.Session.Backend,
		CacheBytes: c.Session.CacheBytes,
		Redis:      c.Redis,
	}
}
