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
	"context"
	"time"

	"github.com/go-arcade/courier/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	// TablePrefix is prepended to every table name.
	TablePrefix    = "t_"
	defaultSlowSQL = time.Second
)

// NamingStrategy maps model names to t_<snake_case> singular tables.
var NamingStrategy = schema.NamingStrategy{
	TablePrefix:   TablePrefix,
	SingularTable: true,
}

// OpenMySQL opens a gorm connection for a go-sql-driver DSN, applies the pool
// settings and pings the server.
func OpenMySQL(ctx context.Context, dsn string, cfg Conf) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.OutPut {
		gormLogger = NewGormLoggerAdapter(logger.Config{
			SlowThreshold:             defaultSlowSQL,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}, logger.Info)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		NamingStrategy: NamingStrategy,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB handle")
	}
	ConfigurePool(sqlDB, cfg)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}

	log.Info("database connected successfully")
	return db, nil
}

// Close closes the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB handle")
	}
	return sqlDB.Close()
}
