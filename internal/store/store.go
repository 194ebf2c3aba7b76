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

// Package store selects and opens the storage backend.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/go-arcade/courier/internal/auth"
	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/store/mock"
	"github.com/go-arcade/courier/internal/store/mysql"
	"github.com/go-arcade/courier/internal/store/sqlite"
	"github.com/go-arcade/courier/pkg/database"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/retry"
	"github.com/pkg/errors"
)

// Backend names.
const (
	Mock   = "mock"
	MySQL  = "mysql"
	SQLite = "sqlite"
)

// ErrNoTarget is returned when neither a target nor the mock store is
// configured.
var ErrNoTarget = errors.New("no database target: pass --db or --mock")

// Target is a parsed database target.
type Target struct {
	Backend string
	// Source is the DSN or file path after the scheme.
	Source string
}

// ParseTarget splits mysql://<dsn> and sqlite://<path>.
func ParseTarget(raw string) (Target, error) {
	if raw == "" {
		return Target{}, ErrNoTarget
	}
	scheme, source, ok := strings.Cut(raw, "://")
	if !ok || source == "" {
		return Target{}, errors.Errorf("malformed database target %q", raw)
	}
	switch scheme {
	case MySQL, SQLite:
		return Target{Backend: scheme, Source: source}, nil
	default:
		return Target{}, errors.Errorf("unsupported database scheme %q", scheme)
	}
}

// Open opens the configured backend. Durable backends check the schema
// version and fail when it is outdated, unless conf.AutoMigrate is set.
func Open(ctx context.Context, conf database.Conf) (messenger.Store, error) {
	return open(ctx, conf, conf.AutoMigrate)
}

// Migrate brings the schema of the configured backend up to date.
func Migrate(ctx context.Context, conf database.Conf) error {
	if conf.Mock {
		return nil
	}
	s, err := open(ctx, conf, true)
	if err != nil {
		return err
	}
	return s.Close()
}

func open(ctx context.Context, conf database.Conf, migrate bool) (messenger.Store, error) {
	if conf.Mock {
		log.Info("using the seeded in-memory store")
		s, err := mock.NewSeeded(ctx, auth.HashPassword)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	target, err := ParseTarget(conf.Target)
	if err != nil {
		return nil, err
	}
	log.Infow("opening database", "backend", target.Backend, "migrate", migrate)

	var s messenger.Store
	err = retry.Do(ctx, func(ctx context.Context) error {
		var err error
		switch target.Backend {
		case MySQL:
			s, err = mysql.Open(ctx, target.Source, conf, migrate)
		default:
			s, err = sqlite.Open(ctx, target.Source, conf, migrate)
		}
		if errors.Is(err, mysql.ErrSchemaOutdated) || errors.Is(err, sqlite.ErrSchemaOutdated) {
			return retry.Permanent(err)
		}
		return err
	},
		retry.WithName("open "+target.Backend),
		retry.WithMaxAttempts(max(conf.ConnectAttempts, 1)),
		retry.WithBackoff(retry.Exponential(200*time.Millisecond, 5*time.Second)),
		retry.WithJitter(retry.FullJitter),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
