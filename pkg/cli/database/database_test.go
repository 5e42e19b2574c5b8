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
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/pkg/errors"
)

func TestSystem(t *testing.T) {
	db := InitTestMemoryDB(t)

	var val string
	err := GetSystem(db, "last_upgrade", &val)
	assert.Equal(t, err, sql.ErrNoRows, "missing key error mismatch")

	if err := UpdateSystem(db, "last_upgrade", "100"); err != nil {
		t.Fatal(errors.Wrap(err, "inserting"))
	}
	if err := UpdateSystem(db, "last_upgrade", "200"); err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}

	var n int64
	if err := GetSystem(db, "last_upgrade", &n); err != nil {
		t.Fatal(errors.Wrap(err, "getting"))
	}
	assert.Equal(t, n, int64(200), "value mismatch")

	var count int
	MustScan(t, "counting system rows", db.QueryRow("SELECT count(*) FROM system"), &count)
	assert.Equal(t, count, 1, "row count mismatch")

	if err := DeleteSystem(db, "last_upgrade"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}
	assert.Equal(t, GetSystem(db, "last_upgrade", &val), sql.ErrNoRows, "deleted key error mismatch")
}

func TestTransaction(t *testing.T) {
	db := InitTestMemoryDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(errors.Wrap(err, "beginning"))
	}
	if err := UpdateSystem(tx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(errors.Wrap(err, "rolling back"))
	}

	var val string
	assert.Equal(t, GetSystem(db, "k", &val), sql.ErrNoRows, "rolled back write must not persist")

	tx, err = db.Begin()
	if err != nil {
		t.Fatal(errors.Wrap(err, "beginning"))
	}
	if err := UpdateSystem(tx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(errors.Wrap(err, "committing"))
	}

	if err := GetSystem(db, "k", &val); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, val, "v", "value mismatch")

	assert.Equal(t, db.Rollback(), nil, "rollback outside of a transaction")
}

func TestCollections(t *testing.T) {
	db := InitTestMemoryDB(t)

	c, err := GetCollection(db, "members")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, c, Collection{Key: "members"}, "missing collection mismatch")

	rev, err := PutCollection(db, "members", `[{"id":"m1"}]`, 0, 10)
	if err != nil {
		t.Fatal(errors.Wrap(err, "inserting"))
	}
	assert.Equal(t, rev, 1, "rev mismatch")

	_, err = PutCollection(db, "members", `[]`, 0, 11)
	assert.Equal(t, err, ErrStaleRevision, "insert over existing must be stale")

	rev, err = PutCollection(db, "members", `[{"id":"m2"}]`, 1, 12)
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}
	assert.Equal(t, rev, 2, "rev mismatch")

	_, err = PutCollection(db, "members", `[]`, 1, 13)
	assert.Equal(t, err, ErrStaleRevision, "update at old rev must be stale")

	c, err = GetCollection(db, "members")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, c, Collection{Key: "members", Value: `[{"id":"m2"}]`, Rev: 2, UpdatedAt: 12}, "collection mismatch")
}

func TestSyncLogs(t *testing.T) {
	db := InitTestMemoryDB(t)

	logs := []SyncLog{
		{Collection: "members", StartedAt: 1, FinishedAt: 2, Upserted: 3},
		{Collection: "members", StartedAt: 5, FinishedAt: 6, Failed: 1, Error: "boom"},
		{Collection: "entries", StartedAt: 7, FinishedAt: 8},
	}
	for _, l := range logs {
		if err := l.Insert(db); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ListSyncLogs(db, "members", 10)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].StartedAt, int64(5), "order mismatch")
	assert.Equal(t, got[0].Error, "boom", "error mismatch")
	assert.Equal(t, got[1].Upserted, 3, "upserted mismatch")

	got, err = ListSyncLogs(db, "members", 1)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(got), 1, "limit mismatch")
}
