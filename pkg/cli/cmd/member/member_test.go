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

package member

import (
	"fmt"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/pkg/errors"
)

func TestAdd(t *testing.T) {
	testCases := []struct {
		name          string
		class         int
		expectedClass *int
		expectErr     bool
	}{
		{name: "  Ama Mensah ", class: 3, expectedClass: intPtr(3)},
		{name: "Kofi", class: 0, expectedClass: nil},
		{name: "Kofi", class: 13, expectErr: true},
		{name: "Kofi", class: -1, expectErr: true},
		{name: "   ", class: 1, expectErr: true},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			ctx := context.InitTestCtx(t)

			m, err := Add(ctx, tc.name, tc.class)
			if tc.expectErr {
				assert.NotEqual(t, err, nil, "error should not be nil")
				return
			}
			if err != nil {
				t.Fatal(errors.Wrap(err, "adding"))
			}

			assert.Equal(t, m.ClassNumber, tc.expectedClass, "class mismatch")
			assert.NotEqual(t, m.ID, "", "id should be generated")
		})
	}
}

func intPtr(i int) *int {
	return &i
}

func TestList(t *testing.T) {
	ctx := context.InitTestCtx(t)

	for _, m := range []struct {
		name  string
		class int
	}{{"yaw", 2}, {"Ama", 1}, {"Esi", 2}, {"Kojo", 0}} {
		if _, err := Add(ctx, m.name, m.class); err != nil {
			t.Fatal(errors.Wrap(err, "adding"))
		}
	}

	names := func(members []domain.Member) []string {
		ret := []string{}
		for _, m := range members {
			ret = append(ret, m.Name)
		}
		return ret
	}

	t.Run("all", func(t *testing.T) {
		got, err := List(ctx, 0)
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing"))
		}
		assert.DeepEqual(t, names(got), []string{"Ama", "Esi", "Kojo", "yaw"}, "members mismatch")
	})

	t.Run("class", func(t *testing.T) {
		got, err := List(ctx, 2)
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing"))
		}
		assert.DeepEqual(t, names(got), []string{"Esi", "yaw"}, "members mismatch")
	})

	t.Run("class leader", func(t *testing.T) {
		class := 1
		leader := domain.User{Username: "leader", Password: "pass", Role: domain.RoleClassLeader, ClassLed: &class}
		if _, err := ctx.Store.Users().Modify(func(users []domain.User) ([]domain.User, error) {
			return append(users, leader), nil
		}); err != nil {
			t.Fatal(errors.Wrap(err, "saving user"))
		}

		lctx := ctx
		lctx.SessionUser = "leader"

		got, err := List(lctx, 0)
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing"))
		}
		assert.DeepEqual(t, names(got), []string{"Ama"}, "members mismatch")

		assert.Equal(t, errors.Cause(infra.Authorize(lctx, permissions.TabEntries)), infra.ErrForbidden, "class leaders should not see entries")
	})
}
