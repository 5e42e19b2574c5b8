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

// Package records applies local mutations to stored collections. Every
// mutation sanitizes the record, flags it for the next sync and persists
// the collection.
package records

import (
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when no live record has the given id
var ErrNotFound = errors.New("record not found")

type syncable[T any] interface {
	*T
	domain.Syncable
}

func sanitizeOne[T any, PT syncable[T]](c store.Collection[T], rec T) T {
	out := c.Sanitize([]T{rec})
	if len(out) == 0 {
		return rec
	}

	return out[0]
}

// Find returns the live record with the id
func Find[T any, PT syncable[T]](records []T, id string) (T, bool) {
	for _, rec := range records {
		m := PT(&rec).Meta()
		if m.ID == id && !m.Sync.Deleted {
			return rec, true
		}
	}

	var zero T
	return zero, false
}

// Live returns the records that are not tombstoned
func Live[T any, PT syncable[T]](records []T) []T {
	ret := make([]T, 0, len(records))
	for _, rec := range records {
		if !PT(&rec).Meta().Sync.Deleted {
			ret = append(ret, rec)
		}
	}

	return ret
}

// Dirty returns the number of records waiting to be synced
func Dirty[T any, PT syncable[T]](records []T) int {
	n := 0
	for _, rec := range records {
		m := PT(&rec).Meta()
		if m.Sync.Dirty || m.Sync.Deleted {
			n++
		}
	}

	return n
}

// Create sanitizes the record, marks it dirty and appends it. A record
// whose id already exists is replaced, keeping its remote identity.
func Create[T any, PT syncable[T]](c store.Collection[T], rec T) (T, error) {
	rec = sanitizeOne[T, PT](c, rec)
	m := PT(&rec).Meta()
	m.Sync.Dirty = true
	m.Sync.Deleted = false

	_, err := c.Modify(func(records []T) ([]T, error) {
		for _, existing := range records {
			em := PT(&existing).Meta()
			if em.ID == m.ID {
				// keep the link to the remote row
				m.RemoteID = em.RemoteID
				m.Sync.LastSyncedAt = em.Sync.LastSyncedAt
				break
			}
		}

		return upsertLocal[T, PT](records, rec), nil
	})
	if err != nil {
		return rec, errors.Wrapf(err, "creating %s record", c.Key)
	}

	return rec, nil
}

// Update applies fn to the live record with the id, sanitizes the result
// and marks it dirty. Identity and sync history are kept.
func Update[T any, PT syncable[T]](c store.Collection[T], id string, fn func(*T) error) (T, error) {
	var ret T

	_, err := c.Modify(func(records []T) ([]T, error) {
		rec, ok := Find[T, PT](records, id)
		if !ok {
			return nil, ErrNotFound
		}
		meta := *PT(&rec).Meta()

		if err := fn(&rec); err != nil {
			return nil, err
		}

		rec = sanitizeOne[T, PT](c, rec)
		*PT(&rec).Meta() = meta
		PT(&rec).Meta().Sync.Dirty = true

		ret = rec
		return upsertLocal[T, PT](records, rec), nil
	})
	if err != nil {
		return ret, errors.Wrapf(err, "updating %s record %s", c.Key, id)
	}

	return ret, nil
}

// Delete tombstones the record with the id. The tombstone is removed once
// the remote delete succeeds.
func Delete[T any, PT syncable[T]](c store.Collection[T], id string) error {
	_, err := c.Modify(func(records []T) ([]T, error) {
		rec, ok := Find[T, PT](records, id)
		if !ok {
			return nil, ErrNotFound
		}

		PT(&rec).Meta().Sync.Deleted = true

		return upsertLocal[T, PT](records, rec), nil
	})
	if err != nil {
		return errors.Wrapf(err, "deleting %s record %s", c.Key, id)
	}

	return nil
}

// upsertLocal returns a new collection with the record replacing the one
// with the same id, or appended
func upsertLocal[T any, PT syncable[T]](records []T, rec T) []T {
	id := PT(&rec).Meta().ID

	ret := make([]T, 0, len(records)+1)
	replaced := false
	for _, r := range records {
		if PT(&r).Meta().ID == id {
			ret = append(ret, rec)
			replaced = true
			continue
		}
		ret = append(ret, r)
	}

	if !replaced {
		ret = append(ret, rec)
	}

	return ret
}

// CreateMany sanitizes the records, marks them dirty and upserts them in one
// write. It returns how many were added and how many replaced an existing record.
func CreateMany[T any, PT syncable[T]](c store.Collection[T], recs []T) (added, updated int, err error) {
	if len(recs) == 0 {
		return 0, 0, nil
	}

	recs = c.Sanitize(recs)
	for i := range recs {
		m := PT(&recs[i]).Meta()
		m.Sync.Dirty = true
		m.Sync.Deleted = false
	}

	_, err = c.Modify(func(records []T) ([]T, error) {
		added, updated = 0, 0

		index := make(map[string]int, len(records))
		for i := range records {
			index[PT(&records[i]).Meta().ID] = i
		}

		for _, rec := range recs {
			m := PT(&rec).Meta()
			if i, ok := index[m.ID]; ok {
				em := PT(&records[i]).Meta()
				m.RemoteID = em.RemoteID
				m.Sync.LastSyncedAt = em.Sync.LastSyncedAt
				updated++
			} else {
				added++
			}

			records = upsertLocal[T, PT](records, rec)
			if _, ok := index[m.ID]; !ok {
				index[m.ID] = len(records) - 1
			}
		}

		return records, nil
	})
	if err != nil {
		return 0, 0, errors.Wrapf(err, "creating %s records", c.Key)
	}

	return added, updated, nil
}
