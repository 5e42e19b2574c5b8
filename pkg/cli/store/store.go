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

// Package store loads and saves the local collections. Every value passes
// through its sanitizer on load, so corrupt or stale data never escapes as
// an error.
package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/sanitize"
	"github.com/flockbook/flockbook/pkg/clock"
	"github.com/pkg/errors"
)

// maxAttempts bounds the retries of a modification that raced with another writer
const maxAttempts = 5

// Store is the local persisted state
type Store struct {
	DB        *database.DB
	Clock     clock.Clock
	Sanitizer sanitize.Sanitizer
}

// New returns a store over the database
func New(db *database.DB, c clock.Clock) (*Store, error) {
	s := &Store{
		DB:        db,
		Clock:     c,
		Sanitizer: sanitize.New(c),
	}

	if _, err := s.Settings(); err != nil {
		return nil, errors.Wrap(err, "loading settings")
	}

	return s, nil
}

func (s *Store) now() time.Time {
	return s.Clock.Now()
}

// decode parses a stored JSON value. Corrupt values decode to nil.
func decode(key, value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		log.Debug("discarding corrupt %s collection: %s\n", key, err.Error())
		return nil
	}

	return raw
}

// Snapshot is a collection as of a revision
type Snapshot[T any] struct {
	Records []T
	Rev     int
}

// Collection is a typed handle on one stored collection
type Collection[T any] struct {
	Key      string
	store    *Store
	sanitize func(interface{}) []T
}

func newCollection[T any](s *Store, key string, fn func(interface{}) []T) Collection[T] {
	return Collection[T]{Key: key, store: s, sanitize: fn}
}

// Entries returns the contribution entries collection
func (s *Store) Entries() Collection[domain.ContributionEntry] {
	return newCollection(s, domain.CollectionEntries, s.Sanitizer.Entries)
}

// Members returns the member directory collection
func (s *Store) Members() Collection[domain.Member] {
	return newCollection(s, domain.CollectionMembers, s.Sanitizer.Members)
}

// Attendance returns the attendance collection
func (s *Store) Attendance() Collection[domain.AttendanceRecord] {
	return newCollection(s, domain.CollectionAttendance, s.Sanitizer.AttendanceRecords)
}

// History returns the weekly history collection
func (s *Store) History() Collection[domain.WeeklyHistoryRecord] {
	return newCollection(s, domain.CollectionHistory, s.Sanitizer.HistoryRecords)
}

// Tasks returns the tasks collection
func (s *Store) Tasks() Collection[domain.Task] {
	return newCollection(s, domain.CollectionTasks, s.Sanitizer.Tasks)
}

// Users returns the local accounts collection
func (s *Store) Users() Collection[domain.User] {
	return newCollection(s, domain.CollectionUsers, s.Sanitizer.Users)
}

// Sanitize sanitizes a list of records of the collection
func (c Collection[T]) Sanitize(records []T) []T {
	return c.sanitize(records)
}

// LoadFrom loads the collection through the given handle, which may be a transaction
func (c Collection[T]) LoadFrom(db *database.DB) (Snapshot[T], error) {
	stored, err := database.GetCollection(db, c.Key)
	if err != nil {
		return Snapshot[T]{}, errors.Wrapf(err, "loading %s", c.Key)
	}

	return Snapshot[T]{
		Records: c.sanitize(decode(c.Key, stored.Value)),
		Rev:     stored.Rev,
	}, nil
}

// Load loads the collection
func (c Collection[T]) Load() (Snapshot[T], error) {
	return c.LoadFrom(c.store.DB)
}

// SaveTo stores the records if the collection is still at rev and returns
// the new revision. It returns database.ErrStaleRevision otherwise.
func (c Collection[T]) SaveTo(db *database.DB, records []T, rev int) (int, error) {
	if records == nil {
		records = []T{}
	}

	b, err := json.Marshal(records)
	if err != nil {
		return 0, errors.Wrapf(err, "marshalling %s", c.Key)
	}

	newRev, err := database.PutCollection(db, c.Key, string(b), rev, c.store.now().Unix())
	if err != nil {
		return 0, err
	}

	return newRev, nil
}

// Save stores the records if the collection is still at rev
func (c Collection[T]) Save(records []T, rev int) (int, error) {
	return c.SaveTo(c.store.DB, records, rev)
}

// Modify applies fn to the current records and stores the result in a
// transaction. It is retried if another writer stored the collection in
// the meantime.
func (c Collection[T]) Modify(fn func([]T) ([]T, error)) ([]T, error) {
	for attempt := 1; ; attempt++ {
		ret, err := c.modifyOnce(fn)
		if errors.Cause(err) == database.ErrStaleRevision && attempt < maxAttempts {
			log.Debug("%s changed concurrently, retrying\n", c.Key)
			continue
		}

		return ret, err
	}
}

func (c Collection[T]) modifyOnce(fn func([]T) ([]T, error)) ([]T, error) {
	tx, err := c.store.DB.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	snap, err := c.LoadFrom(tx)
	if err != nil {
		return nil, err
	}

	records, err := fn(snap.Records)
	if err != nil {
		return nil, err
	}

	if _, err := c.SaveTo(tx, records, snap.Rev); err != nil {
		return nil, errors.Wrapf(err, "saving %s", c.Key)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	return records, nil
}

// Settings loads the application settings, falling back to the defaults
func (s *Store) Settings() (domain.Settings, error) {
	stored, err := database.GetCollection(s.DB, domain.CollectionSettings)
	if err != nil {
		return domain.Settings{}, errors.Wrap(err, "loading settings")
	}

	return s.Sanitizer.Settings(decode(domain.CollectionSettings, stored.Value)), nil
}

// SaveSettings sanitizes and stores the settings
func (s *Store) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	settings = s.Sanitizer.Settings(settings)

	b, err := json.Marshal(settings)
	if err != nil {
		return settings, errors.Wrap(err, "marshalling settings")
	}

	for attempt := 1; ; attempt++ {
		stored, err := database.GetCollection(s.DB, domain.CollectionSettings)
		if err != nil {
			return settings, errors.Wrap(err, "loading settings")
		}

		_, err = database.PutCollection(s.DB, domain.CollectionSettings, string(b), stored.Rev, s.now().Unix())
		if err == database.ErrStaleRevision && attempt < maxAttempts {
			continue
		}
		if err != nil {
			return settings, errors.Wrap(err, "saving settings")
		}

		break
	}

	return settings, nil
}
