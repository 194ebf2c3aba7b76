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

// Package sqlite is a messenger.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/pkg/database"
	"github.com/go-arcade/courier/pkg/id"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the schema this build reads and writes.
const SchemaVersion = 1

// ErrSchemaOutdated is returned by Open when the database needs migrating.
var ErrSchemaOutdated = errors.New("database schema is out of date, run `courier migrate`")

// Store keeps users, messages and credentials in SQLite. Timestamps are
// stored as unix microseconds.
type Store struct {
	db *sql.DB
}

var _ messenger.Store = (*Store)(nil)

// Open opens the database at path and enables WAL mode. With migrate the
// schema is brought up to date, otherwise an outdated schema is an error.
func Open(ctx context.Context, path string, cfg database.Conf, migrate bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	database.ConfigurePool(db, cfg)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "%s", pragma)
		}
	}

	s := &Store{db: db}
	if migrate {
		err = s.Migrate(ctx)
	} else {
		err = s.CheckSchema(ctx)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Infow("sqlite store opened", "path", path)
	return s, nil
}

func (s *Store) version(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS t_schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, errors.Wrap(err, "create t_schema_version")
	}
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM t_schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return version, nil
}

// CheckSchema fails with ErrSchemaOutdated unless the schema is current.
func (s *Store) CheckSchema(ctx context.Context) error {
	version, err := s.version(ctx)
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return errors.Wrapf(ErrSchemaOutdated, "have version %d, want %d", version, SchemaVersion)
	}
	return nil
}

// Migrate applies the schema changes the database is missing.
func (s *Store) Migrate(ctx context.Context) error {
	version, err := s.version(ctx)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return errors.Errorf("database schema version %d is newer than this build (%d)", version, SchemaVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	if version < 1 {
		for _, stmt := range []string{
			`CREATE TABLE t_user (
				id           TEXT PRIMARY KEY,
				username     TEXT NOT NULL,
				username_key TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE t_message (
				id        TEXT PRIMARY KEY,
				from_user TEXT NOT NULL REFERENCES t_user(id),
				to_user   TEXT NOT NULL REFERENCES t_user(id),
				body      TEXT NOT NULL,
				sent_at   INTEGER NOT NULL
			)`,
			`CREATE INDEX idx_message_from ON t_message (from_user, sent_at, id)`,
			`CREATE INDEX idx_message_to ON t_message (to_user, sent_at, id)`,
			`CREATE TABLE t_credential (
				user_id       TEXT PRIMARY KEY REFERENCES t_user(id),
				password_hash TEXT NOT NULL
			)`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, "apply schema version 1")
			}
		}
		version = 1
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM t_schema_version`); err != nil {
		return errors.Wrap(err, "clear schema version")
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO t_schema_version (version) VALUES (?)`, version); err != nil {
		return errors.Wrap(err, "store schema version")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit migration")
	}

	log.Infow("sqlite schema migrated", "version", version)
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const messageColumns = `id, from_user, to_user, body, sent_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (messenger.User, error) {
	var (
		u   messenger.User
		raw string
	)
	if err := row.Scan(&raw, &u.Username); err != nil {
		return u, err
	}
	userID, err := messenger.ParseUserID(raw)
	if err != nil {
		return u, err
	}
	u.ID = userID
	return u, nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]messenger.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []messenger.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]messenger.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []messenger.Message
	for rows.Next() {
		var (
			m               messenger.Message
			msgID, from, to string
			sentAt          int64
		)
		if err := rows.Scan(&msgID, &from, &to, &m.Text, &sentAt); err != nil {
			return nil, err
		}
		if m.ID, err = messenger.ParseMessageID(msgID); err != nil {
			return nil, err
		}
		if m.From, err = messenger.ParseUserID(from); err != nil {
			return nil, err
		}
		if m.To, err = messenger.ParseUserID(to); err != nil {
			return nil, err
		}
		m.Timestamp = time.UnixMicro(sentAt).UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Store) FetchUsers(ctx context.Context) ([]messenger.User, error) {
	users, err := s.queryUsers(ctx, `SELECT id, username FROM t_user ORDER BY rowid`)
	return users, errors.Wrap(err, "fetch users")
}

func (s *Store) FetchUser(ctx context.Context, userID messenger.UserID) (*messenger.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT id, username FROM t_user WHERE id = ?`, userID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, messenger.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetch user")
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*messenger.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username FROM t_user WHERE username_key = ?`, usernameKey(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, messenger.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by username")
	}
	return &u, nil
}

func (s *Store) FindUsersBySubstring(ctx context.Context, substring string) ([]messenger.User, error) {
	users, err := s.queryUsers(ctx,
		`SELECT id, username FROM t_user WHERE username_key LIKE ? ESCAPE '\' ORDER BY rowid`,
		"%"+escapeLike(usernameKey(substring))+"%")
	return users, errors.Wrap(err, "find users by substring")
}

func (s *Store) CreateUser(ctx context.Context, username string) (*messenger.User, error) {
	u := messenger.User{ID: id.NewUUID(), Username: username}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO t_user (id, username, username_key) VALUES (?, ?, ?)`,
		u.ID.String(), u.Username, usernameKey(username))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, messenger.ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "create user")
	}
	return &u, nil
}

func (s *Store) FindUsersChats(ctx context.Context, user messenger.UserID) ([]messenger.User, error) {
	uid := user.String()
	users, err := s.queryUsers(ctx, `
		SELECT u.id, u.username
		FROM t_user u
		JOIN (
			SELECT CASE WHEN from_user = ? THEN to_user ELSE from_user END AS peer,
			       MAX(sent_at) AS last_sent,
			       MAX(id) AS last_id
			FROM t_message
			WHERE from_user = ? OR to_user = ?
			GROUP BY peer
		) c ON c.peer = u.id
		ORDER BY c.last_sent DESC, c.last_id DESC`, uid, uid, uid)
	return users, errors.Wrap(err, "find users chats")
}

func (s *Store) FetchLastMessagesInChat(ctx context.Context, a, b messenger.UserID, before *messenger.MessageID) ([]messenger.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM t_message
		WHERE ((from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?))`
	args := []any{a.String(), b.String(), b.String(), a.String()}

	if before != nil {
		var sentAt int64
		err := s.db.QueryRowContext(ctx, `SELECT sent_at FROM t_message WHERE id = ?`, before.String()).Scan(&sentAt)
		switch {
		case err == nil:
			query += ` AND (sent_at, id) < (?, ?)`
			args = append(args, sentAt, before.String())
		case !errors.Is(err, sql.ErrNoRows):
			return nil, errors.Wrap(err, "look up page start")
		}
	}

	query += ` ORDER BY sent_at DESC, id DESC LIMIT ?`
	args = append(args, messenger.MessageLoadLimit)

	messages, err := s.queryMessages(ctx, query, args...)
	return messages, errors.Wrap(err, "fetch last messages in chat")
}

func (s *Store) FetchUsersMessagesSince(ctx context.Context, user messenger.UserID, since messenger.MessageID) ([]messenger.Message, error) {
	uid := user.String()
	messages, err := s.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM t_message
		WHERE (from_user = ? OR to_user = ?)
		  AND (sent_at, id) > (SELECT sent_at, id FROM t_message WHERE id = ?)
		ORDER BY sent_at, id`, uid, uid, since.String())
	return messages, errors.Wrap(err, "fetch users messages since")
}

func (s *Store) CreateMessage(ctx context.Context, message *messenger.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO t_message (`+messageColumns+`) VALUES (?, ?, ?, ?, ?)`,
		message.ID.String(), message.From.String(), message.To.String(), message.Text, message.Timestamp.UnixMicro())
	return errors.Wrap(err, "create message")
}

func (s *Store) FetchPasswordHash(ctx context.Context, user messenger.UserID) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM t_credential WHERE user_id = ?`, user.String()).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", messenger.ErrNotFound
	}
	return hash, errors.Wrap(err, "fetch password hash")
}

func (s *Store) UpdatePasswordHash(ctx context.Context, user messenger.UserID, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO t_credential (user_id, password_hash) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET password_hash = excluded.password_hash`,
		user.String(), hash)
	return errors.Wrap(err, "update password hash")
}

func usernameKey(username string) string {
	return strings.ToLower(username)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
