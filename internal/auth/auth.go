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

// Package auth stores and checks bcrypt password hashes.
package auth

import (
	"context"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/google/wire"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ProviderSet is the Wire provider set for the auth package.
var ProviderSet = wire.NewSet(
	New,
	wire.Bind(new(messenger.Authenticator), new(*Service)),
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service checks passwords against a credential store.
type Service struct {
	credentials messenger.CredentialStore
}

// New creates a Service on top of the given store.
func New(credentials messenger.Store) *Service {
	return &Service{credentials: credentials}
}

// Verify reports whether password is the one registered for user. A user
// without a password never verifies.
func (s *Service) Verify(ctx context.Context, user messenger.UserID, password string) (bool, error) {
	hash, err := s.credentials.FetchPasswordHash(ctx, user)
	if errors.Is(err, messenger.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "fetch password hash of %s", user)
	}
	return ComparePassword(hash, password), nil
}

// Register sets or replaces the password of user.
func (s *Service) Register(ctx context.Context, user messenger.UserID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.credentials.UpdatePasswordHash(ctx, user, hash); err != nil {
		return errors.Wrapf(err, "update password hash of %s", user)
	}
	return nil
}
