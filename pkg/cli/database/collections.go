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

package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// ErrStaleRevision is returned when a collection changed since it was read
var ErrStaleRevision = errors.New("collection was modified concurrently")

// Collection is the stored JSON document of one collection
type Collection struct {
	Key       string
	Value     string
	Rev       int
	UpdatedAt int64
}

// GetCollection returns the stored collection. A missing collection is
// returned empty with revision 0.
func GetCollection(db *DB, key string) (Collection, error) {
	ret := Collection{Key: key}

	err := db.QueryRow("SELECT value, rev, updated_at FROM collections WHERE key = ?", key).
		Scan(&ret.Value, &ret.Rev, &ret.UpdatedAt)
	if err == sql.ErrNoRows {
		return ret, nil
	}
	if err != nil {
		return ret, errors.Wrapf(err, "reading collection %s", key)
	}

	return ret, nil
}

// PutCollection stores the value if the collection is still at the
// expected revision, and returns the new revision. It returns
// ErrStaleRevision otherwise.
func PutCollection(db *DB, key, value string, expectedRev int, updatedAt int64) (int, error) {
	newRev := expectedRev + 1

	if expectedRev == 0 {
		res, err := db.Exec(`INSERT INTO collections (key, value, rev, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, rev = excluded.rev, updated_at = excluded.updated_at
			WHERE collections.rev = 0`, key, value, newRev, updatedAt)
		if err != nil {
			return 0, errors.Wrapf(err, "inserting collection %s", key)
		}

		return newRev, checkAffected(res)
	}

	res, err := db.Exec("UPDATE collections SET value = ?, rev = ?, updated_at = ? WHERE key = ? AND rev = ?",
		value, newRev, updatedAt, key, expectedRev)
	if err != nil {
		return 0, errors.Wrapf(err, "updating collection %s", key)
	}

	return newRev, checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return ErrStaleRevision
	}

	return nil
}
