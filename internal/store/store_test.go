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

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-arcade/courier/internal/store/sqlite"
	"github.com/go-arcade/courier/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		raw     string
		want    Target
		wantErr bool
	}{
		{raw: "sqlite://./courier.db", want: Target{Backend: SQLite, Source: "./courier.db"}},
		{raw: "sqlite:///var/lib/courier.db", want: Target{Backend: SQLite, Source: "/var/lib/courier.db"}},
		{
			raw:  "mysql://chat:pw@tcp(localhost:3306)/chat?parseTime=true",
			want: Target{Backend: MySQL, Source: "chat:pw@tcp(localhost:3306)/chat?parseTime=true"},
		},
		{raw: "", wantErr: true},
		{raw: "courier.db", wantErr: true},
		{raw: "sqlite://", wantErr: true},
		{raw: "postgres://localhost/chat", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTarget(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := ParseTarget("")
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestOpenMock(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, database.Conf{Mock: true, Target: "ignored"})
	require.NoError(t, err)
	defer s.Close()

	user, err := s.FindUserByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "User1", user.Username)

	assert.NoError(t, Migrate(ctx, database.Conf{Mock: true}))
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	conf := database.Conf{Target: "sqlite://" + filepath.Join(t.TempDir(), "courier.db")}

	_, err := Open(ctx, conf)
	require.ErrorIs(t, err, sqlite.ErrSchemaOutdated)

	require.NoError(t, Migrate(ctx, conf))

	s, err := Open(ctx, conf)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestOpenSQLiteAutoMigrate(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, database.Conf{
		Target:      "sqlite://" + filepath.Join(t.TempDir(), "courier.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer s.Close()

	users, err := s.FetchUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestOpenWithoutTarget(t *testing.T) {
	_, err := Open(context.Background(), database.Conf{})
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestOpenRetriesUnreachableDatabase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Open(ctx, database.Conf{
		Target:          "sqlite://" + filepath.Join(t.TempDir(), "missing", "courier.db"),
		ConnectAttempts: 2,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, sqlite.ErrSchemaOutdated)
}
