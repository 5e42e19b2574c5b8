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
	"github.com/pkg/errors"
)

// SyncLog records the outcome of one reconciliation pass
type SyncLog struct {
	ID         int
	Collection string
	StartedAt  int64
	FinishedAt int64
	Upserted   int
	Deleted    int
	Pulled     int
	Removed    int
	Failed     int
	Conflicts  int
	Error      string
}

// Insert inserts the log entry
func (l SyncLog) Insert(db *DB) error {
	_, err := db.Exec(`INSERT INTO sync_log
		(collection, started_at, finished_at, upserted, deleted, pulled, removed, failed, conflicts, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Collection, l.StartedAt, l.FinishedAt, l.Upserted, l.Deleted, l.Pulled, l.Removed, l.Failed, l.Conflicts, l.Error)
	if err != nil {
		return errors.Wrapf(err, "inserting sync log for %s", l.Collection)
	}

	return nil
}

// ListSyncLogs returns the most recent log entries of the collection, newest first
func ListSyncLogs(db *DB, collection string, limit int) ([]SyncLog, error) {
	rows, err := db.Query(`SELECT id, collection, started_at, finished_at, upserted, deleted, pulled, removed, failed, conflicts, error
		FROM sync_log WHERE collection = ? ORDER BY started_at DESC, id DESC LIMIT ?`, collection, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying sync logs")
	}
	defer rows.Close()

	ret := []SyncLog{}
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.Collection, &l.StartedAt, &l.FinishedAt, &l.Upserted, &l.Deleted, &l.Pulled, &l.Removed, &l.Failed, &l.Conflicts, &l.Error); err != nil {
			return nil, errors.Wrap(err, "scanning sync log")
		}
		ret = append(ret, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating sync logs")
	}

	return ret, nil
}
