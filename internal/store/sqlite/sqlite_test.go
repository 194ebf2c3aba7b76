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

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/store/storetest"
	"github.com/go-arcade/courier/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, migrate bool) (*Store, string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courier.db")
	s, err := Open(context.Background(), path, database.Conf{}, migrate)
	if err == nil {
		t.Cleanup(func() { _ = s.Close() })
	}
	return s, path, err
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) messenger.Store {
		s, _, err := openTemp(t, true)
		require.NoError(t, err)
		return s
	})
}

func TestOpen_RequiresMigration(t *testing.T) {
	_, _, err := openTemp(t, false)
	assert.ErrorIs(t, err, ErrSchemaOutdated)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, path, err := openTemp(t, true)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.CheckSchema(ctx))

	_, err = s.CreateUser(ctx, "kept")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, database.Conf{}, false)
	require.NoError(t, err)
	defer reopened.Close()

	u, err := reopened.FindUserByUsername(ctx, "KEPT")
	require.NoError(t, err)
	assert.Equal(t, "kept", u.Username)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
}
