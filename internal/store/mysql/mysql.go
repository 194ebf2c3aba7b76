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

// Package mysql is a messenger.Store on MySQL through gorm.
package mysql

import (
	"context"
	"strings"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/database"
	"github.com/go-arcade/courier/pkg/id"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// currentSchemaVersion is the schema this build reads and writes.
const currentSchemaVersion = 1

// ErrSchemaOutdated is returned by Open when the database needs migrating.
var ErrSchemaOutdated = errors.New("database schema is out of date, run `courier migrate`")

// Store keeps users, messages and credentials in MySQL.
type Store struct {
	db *gorm.DB
}

var _ messenger.Store = (*Store)(nil)

// Open connects with a go-sql-driver DSN. With migrate the schema is brought
// up to date, otherwise an outdated schema is an error.
func Open(ctx context.Context, dsn string, cfg database.Conf, migrate bool) (*Store, error) {
	db, err := database.OpenMySQL(ctx, dsn, cfg)
	if err != nil {
		return nil, err
	}
	return newStore(ctx, db, migrate)
}

func newStore(ctx context.Context, db *gorm.DB, migrate bool) (*Store, error) {
	s := &Store{db: db}
	if migrate {
		err := s.Migrate(ctx)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
	} else if err := s.CheckSchema(ctx); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return s, nil
}

func (s *Store) version(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaVersion{}) {
		return 0, nil
	}
	var row SchemaVersion
	err := db.Order("version DESC").Limit(1).Find(&row).Error
	if err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return row.Version, nil
}

// CheckSchema fails with ErrSchemaOutdated unless the schema is current.
func (s *Store) CheckSchema(ctx context.Context) error {
	version, err := s.version(ctx)
	if err != nil {
		return err
	}
	if version != currentSchemaVersion {
		return errors.Wrapf(ErrSchemaOutdated, "have version %d, want %d", version, currentSchemaVersion)
	}
	return nil
}

// Migrate creates or updates the tables and records the schema version.
func (s *Store) Migrate(ctx context.Context) error {
	version, err := s.version(ctx)
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return errors.Errorf("database schema version %d is newer than this build (%d)", version, currentSchemaVersion)
	}

	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&SchemaVersion{}).Error; err != nil {
			return err
		}
		return tx.Create(&SchemaVersion{Version: currentSchemaVersion}).Error
	})
	if err != nil {
		return errors.Wrap(err, "store schema version")
	}

	log.Infow("mysql schema migrated", "version", currentSchemaVersion)
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return database.Close(s.db)
}

func (s *Store) FetchUsers(ctx context.Context) ([]messenger.User, error) {
	var rows []User
	if err := s.db.WithContext(ctx).Order("username").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "fetch users")
	}
	return toUsers(rows)
}

func (s *Store) fetchUser(ctx context.Context, query string, arg any) (*messenger.User, error) {
	var row User
	err := s.db.WithContext(ctx).Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, messenger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u, err := toUser(row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FetchUser(ctx context.Context, userID messenger.UserID) (*messenger.User, error) {
	u, err := s.fetchUser(ctx, "id = ?", userID.String())
	if err != nil && !errors.Is(err, messenger.ErrNotFound) {
		return nil, errors.Wrap(err, "fetch user")
	}
	return u, err
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*messenger.User, error) {
	u, err := s.fetchUser(ctx, "username_key = ?", usernameKey(username))
	if err != nil && !errors.Is(err, messenger.ErrNotFound) {
		return nil, errors.Wrap(err, "find user by username")
	}
	return u, err
}

func (s *Store) FindUsersBySubstring(ctx context.Context, substring string) ([]messenger.User, error) {
	var rows []User
	err := s.db.WithContext(ctx).
		Where("username_key LIKE ?", "%"+escapeLike(usernameKey(substring))+"%").
		Order("username").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "find users by substring")
	}
	return toUsers(rows)
}

func (s *Store) CreateUser(ctx context.Context, username string) (*messenger.User, error) {
	u := messenger.User{ID: id.NewUUID(), Username: username}
	err := s.db.WithContext(ctx).Create(&User{
		ID:          u.ID.String(),
		Username:    username,
		UsernameKey: usernameKey(username),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, messenger.ErrUsernameTaken
	}
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return &u, nil
}

func (s *Store) FindUsersChats(ctx context.Context, user messenger.UserID) ([]messenger.User, error) {
	uid := user.String()
	peers := s.db.Model(&Message{}).
		Select("CASE WHEN from_user = ? THEN to_user ELSE from_user END AS peer, MAX(sent_at) AS last_sent, MAX(id) AS last_id", uid).
		Where("from_user = ? OR to_user = ?", uid, uid).
		Group("peer")

	var rows []User
	err := s.db.WithContext(ctx).
		Table("t_user AS u").
		Select("u.id, u.username, u.username_key").
		Joins("JOIN (?) AS c ON c.peer = u.id", peers).
		Order("c.last_sent DESC, c.last_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "find users chats")
	}
	return toUsers(rows)
}

func (s *Store) FetchLastMessagesInChat(ctx context.Context, a, b messenger.UserID, before *messenger.MessageID) ([]messenger.Message, error) {
	db := s.db.WithContext(ctx)
	q := db.Where("(from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?)",
		a.String(), b.String(), b.String(), a.String())

	if before != nil {
		var start Message
		err := db.Select("id", "sent_at").Where("id = ?", before.String()).Take(&start).Error
		switch {
		case err == nil:
			q = q.Where("(sent_at, id) < (?, ?)", start.SentAt, start.ID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, errors.Wrap(err, "look up page start")
		}
	}

	var rows []Message
	err := q.Order("sent_at DESC, id DESC").Limit(messenger.MessageLoadLimit).Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "fetch last messages in chat")
	}
	return toMessages(rows)
}

func (s *Store) FetchUsersMessagesSince(ctx context.Context, user messenger.UserID, since messenger.MessageID) ([]messenger.Message, error) {
	uid := user.String()
	start := s.db.Model(&Message{}).Select("sent_at, id").Where("id = ?", since.String())

	var rows []Message
	err := s.db.WithContext(ctx).
		Where("from_user = ? OR to_user = ?", uid, uid).
		Where("(sent_at, id) > (?)", start).
		Order("sent_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "fetch users messages since")
	}
	return toMessages(rows)
}

func (s *Store) CreateMessage(ctx context.Context, message *messenger.Message) error {
	row := fromMessage(message)
	return errors.Wrap(s.db.WithContext(ctx).Create(&row).Error, "create message")
}

func (s *Store) FetchPasswordHash(ctx context.Context, user messenger.UserID) (string, error) {
	var row Credential
	err := s.db.WithContext(ctx).Where("user_id = ?", user.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", messenger.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "fetch password hash")
	}
	return row.PasswordHash, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, user messenger.UserID, hash string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash"}),
	}).Create(&Credential{UserID: user.String(), PasswordHash: hash}).Error
	return errors.Wrap(err, "update password hash")
}

func usernameKey(username string) string {
	return strings.ToLower(username)
}

// MySQL's default LIKE escape character is the backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
