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

package entry

import (
	"fmt"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func addMember(t *testing.T, ctx context.FlockCtx, name string) domain.Member {
	m, err := records.Create(ctx.Store.Members(), domain.Member{Name: name})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating member"))
	}

	return m
}

func TestAdd(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ama := addMember(t, ctx, "Ama Mensah")

	e, err := Add(ctx, Input{
		Member: "ama mensah",
		Amount: "1,250.50",
		Type:   "tithes",
		Method: "MoMo",
		Fund:   " General ",
		Note:   "first fruits",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "adding"))
	}

	assert.Equal(t, e.MemberID, ama.ID, "member id mismatch")
	assert.Equal(t, e.MemberName, "Ama Mensah", "member name mismatch")
	assert.Equal(t, e.Amount.Equal(decimal.RequireFromString("1250.5")), true, "amount mismatch")
	assert.Equal(t, e.Type, domain.TypeTithe, "type mismatch")
	assert.Equal(t, e.Method, domain.MethodMobile, "method mismatch")
	assert.Equal(t, e.Fund, "General", "fund mismatch")
	assert.Equal(t, e.Date, "2009-11-10", "date should default to today")
	assert.Equal(t, e.Sync.Dirty, true, "new entry should be dirty")

	snap, err := ctx.Store.Entries().Load()
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading"))
	}
	assert.Equal(t, len(snap.Records), 1, "entry count mismatch")
	assert.Equal(t, *snap.Records[0].Note, "first fruits", "note mismatch")
}

func TestAdd_UnknownMember(t *testing.T) {
	ctx := context.InitTestCtx(t)

	e, err := Add(ctx, Input{Member: "Visitor Kwame", Amount: "10"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "adding"))
	}
	assert.Equal(t, e.MemberID, "", "member id should be empty")
	assert.Equal(t, e.MemberName, "Visitor Kwame", "member name should be kept")

	settings := domain.DefaultSettings()
	settings.EnforceDirectory = true
	if _, err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatal(errors.Wrap(err, "saving settings"))
	}

	_, err = Add(ctx, Input{Member: "Visitor Kwame", Amount: "10"})
	assert.Equal(t, errors.Cause(err), infra.ErrUnknownMember, "error mismatch")
}

func TestAdd_Invalid(t *testing.T) {
	testCases := []Input{
		{Amount: ""},
		{Amount: "ten"},
		{Amount: "-5"},
		{Amount: "5", Date: "2009-13-40"},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			ctx := context.InitTestCtx(t)

			_, err := Add(ctx, tc)
			assert.NotEqual(t, err, nil, "error should not be nil")

			snap, err := ctx.Store.Entries().Load()
			if err != nil {
				t.Fatal(errors.Wrap(err, "loading"))
			}
			assert.Equal(t, len(snap.Records), 0, "nothing should be stored")
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.InitTestCtx(t)
	ama := addMember(t, ctx, "Ama Mensah")

	inputs := []Input{
		{Member: ama.ID, Amount: "20", Date: "2009-10-04"},
		{Member: ama.ID, Amount: "30", Date: "2009-09-27"},
		{Amount: "5", Date: "2009-10-04"},
		{Member: ama.ID, Amount: "40", Date: "2009-11-01"},
	}
	for _, in := range inputs {
		if _, err := Add(ctx, in); err != nil {
			t.Fatal(errors.Wrap(err, "adding"))
		}
	}

	testCases := []struct {
		filter   domain.EntryFilter
		expected []string
	}{
		{
			filter:   domain.EntryFilter{},
			expected: []string{"2009-09-27", "2009-10-04", "2009-10-04", "2009-11-01"},
		},
		{
			filter:   domain.EntryFilter{From: "2009-10-01", To: "2009-10-31"},
			expected: []string{"2009-10-04", "2009-10-04"},
		},
		{
			filter:   domain.EntryFilter{MemberID: ama.ID, From: "2009-10-01"},
			expected: []string{"2009-10-04", "2009-11-01"},
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			got, err := List(ctx, tc.filter)
			if err != nil {
				t.Fatal(errors.Wrap(err, "listing"))
			}

			dates := []string{}
			for _, e := range got {
				dates = append(dates, e.Date)
			}
			assert.DeepEqual(t, dates, tc.expected, "dates mismatch")
		})
	}
}

func TestEdit(t *testing.T) {
	ctx := context.InitTestCtx(t)
	kofi := addMember(t, ctx, "Kofi Boateng")

	e, err := Add(ctx, Input{Amount: "10", Type: "offering", Note: "loose"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "adding"))
	}

	changed := map[string]bool{"amount": true, "member": true, "note": true}
	got, err := Edit(ctx, e.ID, Input{Amount: "12", Member: "Kofi Boateng", Type: "tithe"}, func(name string) bool {
		return changed[name]
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "editing"))
	}

	assert.Equal(t, got.ID, e.ID, "id should be kept")
	assert.Equal(t, got.Amount.Equal(decimal.NewFromInt(12)), true, "amount mismatch")
	assert.Equal(t, got.MemberID, kofi.ID, "member mismatch")
	assert.Equal(t, got.Type, domain.TypeOffering, "type should not change")
	assert.Equal(t, got.Note, (*string)(nil), "note should be cleared")

	_, err = Edit(ctx, "entry-missing", Input{Amount: "1"}, func(name string) bool { return name == "amount" })
	assert.Equal(t, errors.Cause(err), records.ErrNotFound, "error mismatch")
}
