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

package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/flockbook/flockbook/pkg/cli/spreadsheet"
	"github.com/pkg/errors"
)

func TestWrite_CSV(t *testing.T) {
	ctx := context.InitTestCtx(t)
	dir := filepath.Join(t.TempDir(), "out")

	two := 2
	if _, err := records.Create(ctx.Store.Members(), domain.Member{SyncMeta: domain.SyncMeta{ID: "m1"}, Name: "Ama, Jr.", ClassNumber: &two}); err != nil {
		t.Fatal(errors.Wrap(err, "creating member"))
	}

	path, err := Write(ctx, domain.CollectionMembers, FormatCSV, dir)
	if err != nil {
		t.Fatal(errors.Wrap(err, "writing"))
	}
	assert.Equal(t, path, filepath.Join(dir, "members-2009-11-10.csv"), "path mismatch")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading"))
	}
	assert.Equal(t, string(b), "id,name,classNumber\nm1,\"Ama, Jr.\",2", "content mismatch")
}

func TestWrite_XLSX(t *testing.T) {
	ctx := context.InitTestCtx(t)
	dir := t.TempDir()

	path, err := Write(ctx, domain.CollectionTasks, FormatXLSX, dir)
	if err != nil {
		t.Fatal(errors.Wrap(err, "writing"))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening"))
	}
	defer f.Close()

	header, recs, err := spreadsheet.Read(f)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading"))
	}
	assert.Equal(t, header[0], "id", "header mismatch")
	assert.Equal(t, len(recs), 0, "no tasks")
}

func TestWrite_Invalid(t *testing.T) {
	ctx := context.InitTestCtx(t)

	_, err := Write(ctx, domain.CollectionMembers, "pdf", t.TempDir())
	assert.NotEqual(t, err, nil, "unknown format should fail")

	_, err = Write(ctx, domain.CollectionUsers, FormatCSV, t.TempDir())
	assert.NotEqual(t, err, nil, "users cannot be exported")
}

func TestVisibleCollections(t *testing.T) {
	ctx := context.InitTestCtx(t)

	got, err := visibleCollections(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.Equal(t, len(got), 5, "everything is visible without a session")

	if _, err := ctx.Store.Users().Modify(func(users []domain.User) ([]domain.User, error) {
		return append(users, domain.User{Username: "esi", Password: "pass", Role: domain.RoleFinance}), nil
	}); err != nil {
		t.Fatal(errors.Wrap(err, "saving user"))
	}
	ctx.SessionUser = "esi"

	got, err = visibleCollections(ctx)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing"))
	}
	assert.DeepEqual(t, got, []string{"members", "entries", "tasks"}, "finance collections mismatch")
}
