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

// Package reconcile merges local collections with the remote store. Dirty
// records are upserted, tombstones are deleted, and the remote snapshot is
// merged back so that remote is authoritative for clean records and local is
// authoritative for records with unsynced changes.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/clock"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrSyncInProgress is returned when a pass over the same target is already running
var ErrSyncInProgress = errors.New("a sync for this collection is already in progress")

// DefaultConcurrency is the number of records written to the remote at once
const DefaultConcurrency = 4

// Store is the remote surface used by a pass
type Store interface {
	List(ctx context.Context, target remote.TableTarget, limit, offset int) ([]remote.Row, error)
	Upsert(ctx context.Context, target remote.TableTarget, row remote.Row) (remote.Row, error)
	Delete(ctx context.Context, target remote.TableTarget, id string) error
}

// Kind describes how records of one collection map to remote rows
type Kind[T any] struct {
	Name string
	// ToRow returns the remote representation of a record. The id column is
	// set by the engine. If nil, the JSON form of the record is used.
	ToRow func(T) (remote.Row, error)
	// FromRow sanitizes a remote row into a record
	FromRow func(remote.Row) T
	// Sanitize, if set, is applied to a dirty record before it is sent
	Sanitize func(T) T
}

// Engine runs reconciliation passes
type Engine struct {
	// Remote is nil when remote sync is not configured
	Remote      Store
	Clock       clock.Clock
	Concurrency int
	PageSize    int
	Guard       *Guard
}

// Failure is a record that could not be written to the remote
type Failure struct {
	ID  string
	Op  string
	Err error
}

// Conflict is a record with unsynced local changes that differs from its
// remote copy
type Conflict struct {
	ID     string
	Report string
}

// Outcome summarizes a pass
type Outcome struct {
	Upserted  int
	Deleted   int
	Pulled    int
	Removed   int
	Failures  []Failure
	Conflicts []Conflict
	PullError error
	Skipped   bool
}

// Err returns an error describing the failures of the pass, if any
func (o Outcome) Err() error {
	if o.PullError != nil {
		return errors.Wrap(o.PullError, "pulling remote records")
	}

	if len(o.Failures) > 0 {
		f := o.Failures[0]
		return errors.Wrapf(f.Err, "%d record(s) failed to sync; %s %s", len(o.Failures), f.Op, f.ID)
	}

	return nil
}

// Result is the reconciled collection and the outcome of the pass
type Result[T any] struct {
	Records []T
	Outcome Outcome
}

func (e *Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now().UTC()
	}

	return e.Clock.Now().UTC()
}

func (e *Engine) concurrency() int {
	if e.Concurrency <= 0 {
		return DefaultConcurrency
	}

	return e.Concurrency
}

func (e *Engine) pageSize() int {
	if e.PageSize <= 0 {
		return remote.DefaultPageSize
	}

	return e.PageSize
}

// GuardKey returns the key under which passes over the target are serialized
func GuardKey(target remote.TableTarget) string {
	return target.DisplayName
}

// Reconcile runs one pass over the collection against the target table. It
// returns ErrSyncInProgress if another pass over the target is running. Per
// record failures and pull failures are reported in the outcome.
func Reconcile[T any, PT interface {
	*T
	domain.Syncable
}](ctx context.Context, e *Engine, k Kind[T], target remote.TableTarget, local []T) (Result[T], error) {
	if e == nil || e.Remote == nil {
		return Result[T]{Records: local, Outcome: Outcome{Skipped: true}}, nil
	}

	if e.Guard != nil {
		key := GuardKey(target)
		if !e.Guard.TryAcquire(key) {
			return Result[T]{Records: local}, ErrSyncInProgress
		}
		defer e.Guard.Release(key)
	}

	records := make([]T, len(local))
	copy(records, local)

	var out Outcome

	records = push[T, PT](ctx, e, k, target, records, &out)

	remoteRecords, err := pull[T, PT](ctx, e, k, target)
	if err != nil {
		log.Debug("pulling %s: %s\n", target.DisplayName, err.Error())
		out.PullError = err
		return Result[T]{Records: records, Outcome: out}, nil
	}

	m := Merge[T, PT](records, remoteRecords, target.DisplayName)
	out.Pulled = m.Pulled
	out.Removed = m.Removed
	out.Conflicts = m.Conflicts

	return Result[T]{Records: m.Records, Outcome: out}, nil
}

type pushResult[T any] struct {
	record  T
	removed bool
	op      string
	err     error
}

// push upserts dirty records and deletes tombstones. Each record is written
// independently and a failure leaves it unchanged.
func push[T any, PT interface {
	*T
	domain.Syncable
}](ctx context.Context, e *Engine, k Kind[T], target remote.TableTarget, records []T, out *Outcome) []T {
	results := make([]*pushResult[T], len(records))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency())

	for i := range records {
		meta := PT(&records[i]).Meta()

		switch {
		case meta.Sync.Deleted:
			if meta.RemoteID == nil && meta.Sync.LastSyncedAt == nil {
				results[i] = &pushResult[T]{removed: true, op: "delete"}
				continue
			}

			rec := records[i]
			idx := i
			g.Go(func() error {
				results[idx] = deleteRecord[T, PT](ctx, e, target, rec)
				return nil
			})
		case meta.Sync.Dirty:
			rec := records[i]
			idx := i
			g.Go(func() error {
				results[idx] = upsertRecord[T, PT](ctx, e, k, target, rec)
				return nil
			})
		}
	}

	_ = g.Wait()

	ret := make([]T, 0, len(records))
	for i, rec := range records {
		r := results[i]
		if r == nil {
			ret = append(ret, rec)
			continue
		}

		if r.err != nil {
			out.Failures = append(out.Failures, Failure{ID: PT(&rec).Meta().ID, Op: r.op, Err: r.err})
			ret = append(ret, rec)
			continue
		}

		if r.removed {
			out.Deleted++
			continue
		}

		out.Upserted++
		ret = append(ret, r.record)
	}

	return ret
}

func deleteRecord[T any, PT interface {
	*T
	domain.Syncable
}](ctx context.Context, e *Engine, target remote.TableTarget, rec T) *pushResult[T] {
	key := PT(&rec).Meta().RemoteKey()

	if err := e.Remote.Delete(ctx, target, key); err != nil {
		return &pushResult[T]{op: "delete", err: err}
	}

	return &pushResult[T]{op: "delete", removed: true}
}

func upsertRecord[T any, PT interface {
	*T
	domain.Syncable
}](ctx context.Context, e *Engine, k Kind[T], target remote.TableTarget, rec T) *pushResult[T] {
	if k.Sanitize != nil {
		meta := *PT(&rec).Meta()
		rec = k.Sanitize(rec)
		*PT(&rec).Meta() = meta
	}

	row, err := toRow[T, PT](k, rec)
	if err != nil {
		return &pushResult[T]{op: "upsert", err: err}
	}

	stored, err := e.Remote.Upsert(ctx, target, row)
	if err != nil {
		return &pushResult[T]{op: "upsert", err: err}
	}

	meta := PT(&rec).Meta()
	remoteID := stored.ID()
	if remoteID == "" {
		remoteID = meta.RemoteKey()
	}
	now := e.now()

	meta.RemoteID = &remoteID
	meta.Sync = domain.SyncState{Dirty: false, LastSyncedAt: &now, Target: target.DisplayName}

	return &pushResult[T]{op: "upsert", record: rec}
}

// RowOf returns the JSON object form of a record without its sync metadata
func RowOf(v interface{}) (remote.Row, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling record")
	}

	var row remote.Row
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, errors.Wrap(err, "unmarshalling record")
	}

	delete(row, "sync")
	delete(row, "remoteId")

	return row, nil
}

func toRow[T any, PT interface {
	*T
	domain.Syncable
}](k Kind[T], rec T) (remote.Row, error) {
	var row remote.Row
	var err error

	if k.ToRow != nil {
		row, err = k.ToRow(rec)
	} else {
		row, err = RowOf(rec)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "converting %s record", k.Name)
	}
	if row == nil {
		row = remote.Row{}
	}

	row["id"] = PT(&rec).Meta().RemoteKey()

	return row, nil
}

// pull lists every remote row and sanitizes it into a clean, synced record
// whose identifiers are the remote id. Paging stops at the first empty page
// since a server may cap pages below the requested size.
func pull[T any, PT interface {
	*T
	domain.Syncable
}](ctx context.Context, e *Engine, k Kind[T], target remote.TableTarget) ([]T, error) {
	pageSize := e.pageSize()
	now := e.now()

	ret := []T{}
	for offset := 0; ; {
		rows, err := e.Remote.List(ctx, target, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		offset += len(rows)

		for _, row := range rows {
			id := row.ID()
			if id == "" {
				log.Debug("skipping %s row without id\n", k.Name)
				continue
			}

			rec := k.FromRow(row)
			synced := now
			remoteID := id
			*PT(&rec).Meta() = domain.SyncMeta{
				ID:       id,
				RemoteID: &remoteID,
				Sync:     domain.SyncState{LastSyncedAt: &synced, Target: target.DisplayName},
			}

			ret = append(ret, rec)
		}
	}

	return ret, nil
}

// content returns the JSON form of the record without its sync metadata
func content[T any, PT interface {
	*T
	domain.Syncable
}](rec T) string {
	*PT(&rec).Meta() = domain.SyncMeta{}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", rec)
	}

	return string(b) + "\n"
}
