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

// Package syncer runs reconciliation passes over the stored collections and
// records their status
package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/reconcile"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/pkg/errors"
)

const (
	systemLastSyncAtPrefix    = "last_sync_at:"
	systemLastSyncErrorPrefix = "last_sync_error:"
)

// Syncer reconciles the stored collections with the remote store
type Syncer struct {
	Store  *store.Store
	Engine *reconcile.Engine
	Tables domain.TableNames
}

// Report is the result of syncing one collection
type Report struct {
	Collection string
	Target     remote.TableTarget
	Outcome    reconcile.Outcome
	// Err is set when the pass could not run or its result could not be stored
	Err error
}

// Failed returns true if anything in the pass failed
func (r Report) Failed() bool {
	return r.Err != nil || r.Outcome.Err() != nil
}

// Target returns the remote table of the collection
func (s *Syncer) Target(collection string) remote.TableTarget {
	return remote.ResolveTableTarget(s.Tables.For(collection))
}

// Run syncs the given collections in order, or every synced collection if
// none are given. A failure in one collection does not stop the others.
func (s *Syncer) Run(ctx context.Context, collections ...string) []Report {
	if len(collections) == 0 {
		collections = domain.SyncedCollections
	}

	ret := make([]Report, 0, len(collections))
	for _, c := range collections {
		ret = append(ret, s.RunOne(ctx, c))
	}

	return ret
}

// RunOne syncs a single collection
func (s *Syncer) RunOne(ctx context.Context, collection string) Report {
	san := s.Store.Sanitizer

	switch collection {
	case domain.CollectionEntries:
		return syncCollection(ctx, s, s.Store.Entries(), reconcile.Kind[domain.ContributionEntry]{
			Name:     collection,
			FromRow:  func(r remote.Row) domain.ContributionEntry { return san.Entry(r) },
			Sanitize: func(e domain.ContributionEntry) domain.ContributionEntry { return san.Entry(e) },
		})
	case domain.CollectionMembers:
		return syncCollection(ctx, s, s.Store.Members(), reconcile.Kind[domain.Member]{
			Name:     collection,
			FromRow:  func(r remote.Row) domain.Member { return san.Member(r) },
			Sanitize: func(m domain.Member) domain.Member { return san.Member(m) },
		})
	case domain.CollectionAttendance:
		return syncCollection(ctx, s, s.Store.Attendance(), reconcile.Kind[domain.AttendanceRecord]{
			Name:     collection,
			FromRow:  func(r remote.Row) domain.AttendanceRecord { return san.Attendance(r) },
			Sanitize: func(a domain.AttendanceRecord) domain.AttendanceRecord { return san.Attendance(a) },
		})
	case domain.CollectionHistory:
		return syncCollection(ctx, s, s.Store.History(), reconcile.Kind[domain.WeeklyHistoryRecord]{
			Name:     collection,
			FromRow:  func(r remote.Row) domain.WeeklyHistoryRecord { return san.History(r) },
			Sanitize: func(h domain.WeeklyHistoryRecord) domain.WeeklyHistoryRecord { return san.History(h) },
		})
	case domain.CollectionTasks:
		return syncCollection(ctx, s, s.Store.Tasks(), reconcile.Kind[domain.Task]{
			Name:     collection,
			FromRow:  func(r remote.Row) domain.Task { return san.Task(r) },
			Sanitize: func(t domain.Task) domain.Task { return san.Task(t) },
		})
	}

	return Report{Collection: collection, Err: errors.Errorf("%s is not a synced collection", collection)}
}

func syncCollection[T any, PT interface {
	*T
	domain.Syncable
}](ctx context.Context, s *Syncer, coll store.Collection[T], kind reconcile.Kind[T]) Report {
	target := s.Target(coll.Key)
	report := Report{Collection: coll.Key, Target: target}

	snap, err := coll.Load()
	if err != nil {
		report.Err = errors.Wrapf(err, "loading %s", coll.Key)
		return report
	}

	startedAt := s.Store.Clock.Now()

	res, err := reconcile.Reconcile[T, PT](ctx, s.Engine, kind, target, snap.Records)
	if err != nil {
		report.Err = err
		return report
	}
	report.Outcome = res.Outcome

	if res.Outcome.Skipped {
		return report
	}

	for _, c := range res.Outcome.Conflicts {
		log.Debug("%s %s has unsynced changes that differ from the remote copy:\n%s", coll.Key, c.ID, c.Report)
	}

	if err := save[T, PT](coll, snap, res.Records); err != nil {
		report.Err = errors.Wrapf(err, "saving %s", coll.Key)
		return report
	}

	if err := s.recordPass(coll.Key, startedAt, res.Outcome); err != nil {
		report.Err = errors.Wrapf(err, "recording %s sync status", coll.Key)
	}

	return report
}

// save stores the pass result. If the collection was modified while the
// pass ran, the result is rebased onto the current records.
func save[T any, PT interface {
	*T
	domain.Syncable
}](coll store.Collection[T], base store.Snapshot[T], result []T) error {
	_, err := coll.Save(result, base.Rev)
	if errors.Cause(err) != database.ErrStaleRevision {
		return err
	}

	log.Debug("%s changed during sync, rebasing\n", coll.Key)

	_, err = coll.Modify(func(current []T) ([]T, error) {
		return reconcile.Rebase[T, PT](base.Records, result, current), nil
	})

	return err
}

func (s *Syncer) recordPass(collection string, startedAt time.Time, o reconcile.Outcome) error {
	finishedAt := s.Store.Clock.Now()

	entry := database.SyncLog{
		Collection: collection,
		StartedAt:  startedAt.Unix(),
		FinishedAt: finishedAt.Unix(),
		Upserted:   o.Upserted,
		Deleted:    o.Deleted,
		Pulled:     o.Pulled,
		Removed:    o.Removed,
		Failed:     len(o.Failures),
		Conflicts:  len(o.Conflicts),
	}

	tx, err := s.Store.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	if passErr := o.Err(); passErr != nil {
		entry.Error = passErr.Error()
		if err := database.UpdateSystem(tx, systemLastSyncErrorPrefix+collection, entry.Error); err != nil {
			return err
		}
	} else {
		if err := database.DeleteSystem(tx, systemLastSyncErrorPrefix+collection); err != nil {
			return err
		}
	}

	if o.PullError == nil {
		if err := database.UpdateSystem(tx, systemLastSyncAtPrefix+collection, strconv.FormatInt(finishedAt.Unix(), 10)); err != nil {
			return err
		}
	}

	if err := entry.Insert(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Status is the sync status of one collection
type Status struct {
	Collection   string
	Table        string
	Total        int
	Dirty        int
	LastSyncedAt *time.Time
	LastError    string
}

// Status returns the sync status of the collection
func (s *Syncer) Status(collection string) (Status, error) {
	ret := Status{Collection: collection, Table: s.Target(collection).DisplayName}

	switch collection {
	case domain.CollectionEntries:
		if err := countRecords(s.Store.Entries(), &ret); err != nil {
			return ret, err
		}
	case domain.CollectionMembers:
		if err := countRecords(s.Store.Members(), &ret); err != nil {
			return ret, err
		}
	case domain.CollectionAttendance:
		if err := countRecords(s.Store.Attendance(), &ret); err != nil {
			return ret, err
		}
	case domain.CollectionHistory:
		if err := countRecords(s.Store.History(), &ret); err != nil {
			return ret, err
		}
	case domain.CollectionTasks:
		if err := countRecords(s.Store.Tasks(), &ret); err != nil {
			return ret, err
		}
	default:
		return ret, errors.Errorf("%s is not a synced collection", collection)
	}

	var lastSync int64
	err := database.GetSystem(s.Store.DB, systemLastSyncAtPrefix+collection, &lastSync)
	if err != nil && err != sql.ErrNoRows {
		return ret, errors.Wrap(err, "reading last sync time")
	}
	if err == nil && lastSync > 0 {
		t := time.Unix(lastSync, 0).UTC()
		ret.LastSyncedAt = &t
	}

	err = database.GetSystem(s.Store.DB, systemLastSyncErrorPrefix+collection, &ret.LastError)
	if err != nil && err != sql.ErrNoRows {
		return ret, errors.Wrap(err, "reading last sync error")
	}

	return ret, nil
}

func countRecords[T any, PT interface {
	*T
	domain.Syncable
}](coll store.Collection[T], st *Status) error {
	snap, err := coll.Load()
	if err != nil {
		return errors.Wrapf(err, "loading %s", coll.Key)
	}

	st.Total = len(records.Live[T, PT](snap.Records))
	st.Dirty = records.Dirty[T, PT](snap.Records)

	return nil
}

// Summary returns a one line description of the outcome
func (r Report) Summary() string {
	o := r.Outcome

	if o.Skipped {
		return fmt.Sprintf("%s: skipped, remote sync is not configured", r.Collection)
	}

	return fmt.Sprintf("%s: %d pushed, %d deleted, %d pulled, %d removed, %d failed",
		r.Collection, o.Upserted, o.Deleted, o.Pulled, o.Removed, len(o.Failures))
}
