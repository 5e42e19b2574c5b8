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

package user

import (
	"fmt"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/validate"
	"github.com/pkg/errors"
)

func TestAdd(t *testing.T) {
	testCases := []struct {
		account   validate.Account
		class     int
		expectErr bool
	}{
		{account: validate.Account{Username: "kwesi", Password: "pass", Role: "leader"}, class: 2},
		{account: validate.Account{Username: "esi", Password: "pass", Role: "treasurer"}},
		{account: validate.Account{Username: "esi", Password: "pass", Role: "finance"}, class: 2, expectErr: true},
		{account: validate.Account{Username: "kwesi", Password: "pass", Role: "leader"}, class: 99, expectErr: true},
		{account: validate.Account{Username: "k", Password: "pass", Role: "admin"}, expectErr: true},
		{account: validate.Account{Username: "kwesi", Password: "pw", Role: "admin"}, expectErr: true},
		{account: validate.Account{Username: "kwesi mensah", Password: "pass", Role: "admin"}, expectErr: true},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			ctx := context.InitTestCtx(t)

			u, err := Add(ctx, tc.account, tc.class)
			if tc.expectErr {
				assert.NotEqual(t, err, nil, "error should not be nil")
				return
			}
			if err != nil {
				t.Fatal(errors.Wrap(err, "adding"))
			}

			snap, err := ctx.Store.Users().Load()
			if err != nil {
				t.Fatal(errors.Wrap(err, "loading"))
			}
			assert.Equal(t, len(snap.Records), 1, "user count mismatch")
			assert.Equal(t, snap.Records[0].Role, u.Role, "role mismatch")
			if tc.class != 0 {
				assert.Equal(t, *snap.Records[0].ClassLed, tc.class, "class mismatch")
			}
		})
	}
}

func TestAdd_Duplicate(t *testing.T) {
	ctx := context.InitTestCtx(t)

	if _, err := Add(ctx, validate.Account{Username: "esi", Password: "pass", Role: "admin"}, 0); err != nil {
		t.Fatal(errors.Wrap(err, "adding"))
	}

	_, err := Add(ctx, validate.Account{Username: "ESI", Password: "pass", Role: "admin"}, 0)
	assert.NotEqual(t, err, nil, "usernames are unique regardless of case")
}

func TestRemove(t *testing.T) {
	ctx := context.InitTestCtx(t)

	for _, a := range []validate.Account{
		{Username: "admin", Password: "admin", Role: "admin"},
		{Username: "stats", Password: "pass", Role: "statistician"},
	} {
		if _, err := Add(ctx, a, 0); err != nil {
			t.Fatal(errors.Wrap(err, "adding"))
		}
	}

	assert.Equal(t, errors.Cause(Remove(ctx, "admin")), ErrLastAdmin, "last admin should stay")
	assert.NotEqual(t, Remove(ctx, "nobody"), nil, "unknown account should fail")

	if err := Remove(ctx, "Stats"); err != nil {
		t.Fatal(errors.Wrap(err, "removing"))
	}

	snap, err := ctx.Store.Users().Load()
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading"))
	}
	assert.Equal(t, len(snap.Records), 1, "user count mismatch")
	assert.Equal(t, snap.Records[0].Role, domain.RoleAdmin, "admin should remain")
}

func TestSetPassword(t *testing.T) {
	ctx := context.InitTestCtx(t)

	if _, err := Add(ctx, validate.Account{Username: "esi", Password: "pass", Role: "finance"}, 0); err != nil {
		t.Fatal(errors.Wrap(err, "adding"))
	}

	if err := SetPassword(ctx, "esi", "newpass"); err != nil {
		t.Fatal(errors.Wrap(err, "setting password"))
	}

	_, ok, err := ctx.Store.Authenticate("esi", "newpass")
	if err != nil {
		t.Fatal(errors.Wrap(err, "authenticating"))
	}
	assert.Equal(t, ok, true, "new password should work")

	assert.NotEqual(t, SetPassword(ctx, "esi", "no"), nil, "short password should fail")
	assert.NotEqual(t, SetPassword(ctx, "nobody", "newpass"), nil, "unknown account should fail")
}
