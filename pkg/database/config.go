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

package database

import (
	"database/sql"
	"time"
)

// Conf is the storage configuration shared by every backend.
type Conf struct {
	// Target selects the backend: mysql://<dsn> or sqlite://<path>.
	Target string
	// Mock uses the in-memory store and ignores Target.
	Mock        bool
	AutoMigrate bool `mapstructure:"autoMigrate"`
	// OutPut logs every statement through the process logger.
	OutPut       bool `mapstructure:"output"`
	MaxOpenConns int  `mapstructure:"maxOpenConns"`
	MaxIdleConns int  `mapstructure:"maxIdleConns"`
	MaxLifetime  int  `mapstructure:"maxLifeTime"`
	MaxIdleTime  int  `mapstructure:"maxIdleTime"`
	// ConnectAttempts bounds how often opening a durable backend is tried.
	// Zero means once.
	ConnectAttempts int `mapstructure:"connectAttempts"`
}

// GetConnMaxLifetime returns ConnMaxLifetime as time.Duration.
func GetConnMaxLifetime(maxLifetime int) time.Duration {
	if maxLifetime > 0 {
		return time.Duration(maxLifetime) * time.Second
	}
	return 300 * time.Second
}

// GetConnMaxIdleTime returns ConnMaxIdleTime as time.Duration.
func GetConnMaxIdleTime(maxIdleTime int) time.Duration {
	if maxIdleTime > 0 {
		return time.Duration(maxIdleTime) * time.Second
	}
	return 60 * time.Second
}

// ConfigurePool applies the pool settings to db. Zero values keep the
// database/sql defaults for the connection counts.
func ConfigurePool(db *sql.DB, cfg Conf) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
	db.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))
}
