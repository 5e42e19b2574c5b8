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

package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/reconcile"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/flockbook/flockbook/pkg/clock"
	"github.com/pkg/errors"
)

// fakeRemote keeps rows per table
type fakeRemote struct {
	mu      sync.Mutex
	tables  map[string]map[string]remote.Row
	failAll bool
	// onUpsert is called before each upsert is stored
	onUpsert func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{tables: map[string]map[string]remote.Row{}}
}

func (f *fakeRemote) table(t remote.TableTarget) map[string]remote.Row {
	rows, ok := f.tables[t.DisplayName]
	if !ok {
		rows = map[string]remote.Row{}
		f.tables[t.DisplayName] = rows
	}

	return rows
}

func (f *fakeRemote) List(ctx context.Context, t remote.TableTarget, limit, offset int) ([]remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if offset > 0 {
		return []remote.Row{}, nil
	}

	ret := []remote.Row{}
	for _, r := range f.table(t) {
		ret = append(ret, r)
	}

	return ret, nil
}

func (f *fakeRemote) Upsert(ctx context.Context, t remote.TableTarget, row remote.Row) (remote.Row, error) {
	if f.onUpsert != nil {
		f.onUpsert()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return nil, &remote.Error{StatusCode: 401, Message: "JWT expired"}
	}

	f.table(t)[row.ID()] = row
	return row, nil
}

func (f *fakeRemote) Delete(ctx context.Context, t remote.TableTarget, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.table(t), id)
	return nil
}

func setup(t *testing.T, r reconcile.Store) (*Syncer, *clock.Mock) {
	c := clock.NewMock()
	db := database.InitTestMemoryDB(t)

	st, err := store.New(db, c)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating store"))
	}

	s := &Syncer{
		Store:  st,
		Engine: &reconcile.Engine{Remote: r, Clock: c, Guard: reconcile.NewGuard()},
		Tables: domain.DefaultTableNames(),
	}

	return s, c
}

func TestRun(t *testing.T) {
	r := newFakeRemote()
	s, c := setup(t, r)

	m, err := records.Create(s.Store.Members(), domain.Member{Name: "Ama"})
	if err != nil {
		t.Fatal(err)
	}

	reports := s.Run(context.Background(), domain.CollectionMembers)
	assert.Equal(t, len(reports), 1, "report count mismatch")
	assert.Equal(t, reports[0].Failed(), false, "report failed mismatch")
	assert.Equal(t, reports[0].Outcome.Upserted, 1, "Upserted mismatch")
	assert.Equal(t, reports[0].Summary(), "members: 1 pushed, 0 deleted, 0 pulled, 0 removed, 0 failed", "summary mismatch")

	assert.Equal(t, r.tables["members"][m.ID]["name"], "Ama", "remote row mismatch")

	status, err := s.Status(domain.CollectionMembers)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, status.Total, 1, "Total mismatch")
	assert.Equal(t, status.Dirty, 0, "Dirty mismatch")
	assert.Equal(t, status.LastSyncedAt.Unix(), c.Now().Unix(), "LastSyncedAt mismatch")
	assert.Equal(t, status.LastError, "", "LastError mismatch")

	logs, err := database.ListSyncLogs(s.Store.DB, domain.CollectionMembers, 10)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(logs), 1, "sync log count mismatch")
	assert.Equal(t, logs[0].Upserted, 1, "logged Upserted mismatch")
}

func TestRun_Failure(t *testing.T) {
	r := newFakeRemote()
	r.failAll = true
	s, _ := setup(t, r)

	if _, err := records.Create(s.Store.Tasks(), domain.Task{Title: "Order hymnals"}); err != nil {
		t.Fatal(err)
	}

	reports := s.Run(context.Background(), domain.CollectionTasks)
	assert.Equal(t, reports[0].Failed(), true, "report failed mismatch")

	status, err := s.Status(domain.CollectionTasks)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, status.Dirty, 1, "failed record must stay dirty")
	assert.NotEqual(t, status.LastError, "", "LastError mismatch")

	// a later successful pass clears the error
	r.failAll = false
	s.Run(context.Background(), domain.CollectionTasks)

	status, err = s.Status(domain.CollectionTasks)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, status.Dirty, 0, "Dirty mismatch")
	assert.Equal(t, status.LastError, "", "LastError must be cleared")
}

func TestRun_Skipped(t *testing.T) {
	s, _ := setup(t, nil)

	if _, err := records.Create(s.Store.Members(), domain.Member{Name: "Ama"}); err != nil {
		t.Fatal(err)
	}

	reports := s.Run(context.Background())
	assert.Equal(t, len(reports), len(domain.SyncedCollections), "report count mismatch")
	for _, r := range reports {
		assert.Equal(t, r.Outcome.Skipped, true, "Skipped mismatch")
	}

	status, err := s.Status(domain.CollectionMembers)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, status.Dirty, 1, "Dirty mismatch")
	assert.Equal(t, status.LastSyncedAt, (*time.Time)(nil), "LastSyncedAt mismatch")
}

func TestRun_RebasesConcurrentEdits(t *testing.T) {
	r := newFakeRemote()
	s, _ := setup(t, r)

	first, err := records.Create(s.Store.Members(), domain.Member{Name: "Ama"})
	if err != nil {
		t.Fatal(err)
	}

	var created domain.Member
	once := sync.Once{}
	r.onUpsert = func() {
		once.Do(func() {
			created, err = records.Create(s.Store.Members(), domain.Member{Name: "Kofi"})
		})
	}

	report := s.RunOne(context.Background(), domain.CollectionMembers)
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating during the pass"))
	}
	assert.Equal(t, report.Err, nil, "report error mismatch")

	snap, err := s.Store.Members().Load()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(snap.Records), 2, "record count mismatch")

	got := map[string]domain.Member{}
	for _, m := range snap.Records {
		got[m.ID] = m
	}
	assert.Equal(t, got[first.ID].Sync.Dirty, false, "synced record must be clean")
	assert.Equal(t, got[created.ID].Sync.Dirty, true, "record created during the pass must stay dirty")
}

func TestRunOne_Unknown(t *testing.T) {
	s, _ := setup(t, newFakeRemote())

	report := s.RunOne(context.Background(), "sermons")
	assert.NotEqual(t, report.Err, nil, "error mismatch")
}
