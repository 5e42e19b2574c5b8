/* Copyright 2025 Flockbook Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/pkg/errors"
)

// DefaultUser is seeded into an empty users collection so that a fresh
// install can be signed into
var DefaultUser = domain.User{
	Username: "admin",
	Password: "admin",
	Role:     domain.RoleAdmin,
}

// EnsureDefaultUser seeds the default user if there are no users. It
// returns true if the user was seeded.
func (s *Store) EnsureDefaultUser() (bool, error) {
	seeded := false

	_, err := s.Users().Modify(func(users []domain.User) ([]domain.User, error) {
		if len(users) > 0 {
			return users, nil
		}

		seeded = true
		return []domain.User{DefaultUser}, nil
	})
	if err != nil {
		return false, errors.Wrap(err, "seeding the default user")
	}

	return seeded, nil
}

// FindUser returns the user with the username, compared case-insensitively
func FindUser(users []domain.User, username string) (domain.User, bool) {
	for _, u := range users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return u, true
		}
	}

	return domain.User{}, false
}

// Authenticate returns the user if the credentials match. Passwords are
// compared as plain text.
func (s *Store) Authenticate(username, password string) (domain.User, bool, error) {
	snap, err := s.Users().Load()
	if err != nil {
		return domain.User{}, false, errors.Wrap(err, "loading users")
	}

	u, ok := FindUser(snap.Records, username)
	if !ok || u.Password != password {
		return domain.User{}, false, nil
	}

	return u, true, nil
}
