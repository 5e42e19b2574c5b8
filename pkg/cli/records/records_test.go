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

package records

import (
	"testing"
	"time"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/flockbook/flockbook/pkg/clock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *store.Store {
	db := database.InitTestMemoryDB(t)

	s, err := store.New(db, clock.NewMock())
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating store"))
	}

	return s
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)

	e, err := Create(s.Entries(), domain.ContributionEntry{
		Date:   "2024-01-07",
		Amount: decimal.RequireFromString("-3"),
		Type:   domain.ContributionType("bogus"),
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.NotEqual(t, e.ID, "", "id must be generated")
	assert.Equal(t, e.Sync.Dirty, true, "created record must be dirty")
	assert.Equal(t, e.Amount.IsZero(), true, "amount must be sanitized")
	assert.Equal(t, e.Type, domain.TypeOther, "type must be sanitized")

	snap, err := s.Entries().Load()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(snap.Records), 1, "record count mismatch")
	assert.Equal(t, snap.Records[0].ID, e.ID, "stored id mismatch")
}

func TestCreate_KeepsRemoteIdentity(t *testing.T) {
	s := newTestStore(t)

	synced := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	remoteID := "srv-1"
	existing := domain.AttendanceRecord{
		SyncMeta: domain.SyncMeta{ID: domain.AttendanceID("2024-01-07"), RemoteID: &remoteID, Sync: domain.SyncState{LastSyncedAt: &synced}},
		Date:     "2024-01-07",
	}
	if _, err := s.Attendance().Save([]domain.AttendanceRecord{existing}, 0); err != nil {
		t.Fatal(err)
	}

	rec, err := Create(s.Attendance(), existing.WithMark("m1", domain.AttendancePresent))
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, *rec.RemoteID, "srv-1", "remote id must be kept")

	snap, err := s.Attendance().Load()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(snap.Records), 1, "record count mismatch")
	assert.Equal(t, *snap.Records[0].RemoteID, "srv-1", "stored remote id mismatch")
	assert.Equal(t, snap.Records[0].Sync.Dirty, true, "dirty mismatch")
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	synced := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	remoteID := "srv-1"
	m := domain.Member{
		SyncMeta: domain.SyncMeta{ID: "m1", RemoteID: &remoteID, Sync: domain.SyncState{LastSyncedAt: &synced}},
		Name:     "Ama",
	}
	other := domain.Member{SyncMeta: domain.SyncMeta{ID: "m2", Sync: domain.SyncState{LastSyncedAt: &synced}}, Name: "Kofi"}
	if _, err := s.Members().Save([]domain.Member{m, other}, 0); err != nil {
		t.Fatal(err)
	}

	got, err := Update(s.Members(), "m1", func(m *domain.Member) error {
		m.Name = "  Ama Mensah "
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, got.Name, "Ama Mensah", "name must be trimmed")
	assert.Equal(t, got.Sync.Dirty, true, "dirty mismatch")
	assert.Equal(t, *got.RemoteID, "srv-1", "remote id mismatch")
	assert.Equal(t, *got.Sync.LastSyncedAt, synced, "LastSyncedAt mismatch")

	snap, err := s.Members().Load()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, snap.Records[1].Sync.Dirty, false, "unrelated record must stay clean")

	_, err = Update(s.Members(), "missing", func(m *domain.Member) error { return nil })
	assert.Equal(t, errors.Cause(err), ErrNotFound, "missing record error mismatch")
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	m, err := Create(s.Members(), domain.Member{Name: "Ama"})
	if err != nil {
		t.Fatal(err)
	}

	if err := Delete(s.Members(), m.ID); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Members().Load()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, len(snap.Records), 1, "tombstone must be kept until synced")
	assert.Equal(t, snap.Records[0].Sync.Deleted, true, "Deleted mismatch")
	assert.Equal(t, len(Live(snap.Records)), 0, "live count mismatch")
	assert.Equal(t, Dirty(snap.Records), 1, "dirty count mismatch")

	_, ok := Find(snap.Records, m.ID)
	assert.Equal(t, ok, false, "tombstone must not be found")

	err = Delete(s.Members(), m.ID)
	assert.Equal(t, errors.Cause(err), ErrNotFound, "deleting twice error mismatch")
}
