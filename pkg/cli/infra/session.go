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

package infra

import (
	"strconv"
	"strings"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/consts"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/flockbook/flockbook/pkg/cli/ui"
	"github.com/pkg/errors"
)

// SessionDuration is how long a login lasts
const SessionDuration = 30 * 24 * time.Hour

// ErrForbidden is returned when the signed in user cannot use a command
var ErrForbidden = errors.New("your role does not have access to this command")

// ErrUnknownMember is returned when a member reference matches nobody in the directory
var ErrUnknownMember = errors.New("no such member in the directory")

// CurrentUser returns the signed in user, or nil if nobody is signed in
func CurrentUser(ctx context.FlockCtx) (*domain.User, error) {
	if ctx.SessionUser == "" {
		return nil, nil
	}

	snap, err := ctx.Store.Users().Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading users")
	}

	u, ok := store.FindUser(snap.Records, ctx.SessionUser)
	if !ok {
		return nil, errors.Errorf("the signed in user %s no longer exists. Run `flockbook logout`", ctx.SessionUser)
	}

	return &u, nil
}

// Authorize returns ErrForbidden if the signed in user cannot view the tab
func Authorize(ctx context.FlockCtx, tab permissions.Tab) error {
	u, err := CurrentUser(ctx)
	if err != nil {
		return err
	}

	if !permissions.CanView(u, tab) {
		return errors.Wrapf(ErrForbidden, "%s (%s)", u.Username, u.Role)
	}

	return nil
}

// SaveSession signs the user in
func SaveSession(ctx context.FlockCtx, username string) error {
	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	expiry := ctx.Clock.Now().Add(SessionDuration).Unix()
	if err := database.UpdateSystem(tx, consts.SystemSessionUser, username); err != nil {
		return errors.Wrap(err, "saving session user")
	}
	if err := database.UpdateSystem(tx, consts.SystemSessionExpiry, strconv.FormatInt(expiry, 10)); err != nil {
		return errors.Wrap(err, "saving session expiry")
	}

	return tx.Commit()
}

// ClearSession signs the user out
func ClearSession(ctx context.FlockCtx) error {
	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	if err := database.DeleteSystem(tx, consts.SystemSessionUser); err != nil {
		return errors.Wrap(err, "deleting session user")
	}
	if err := database.DeleteSystem(tx, consts.SystemSessionExpiry); err != nil {
		return errors.Wrap(err, "deleting session expiry")
	}

	return tx.Commit()
}

// Today returns the current calendar day
func Today(ctx context.FlockCtx) string {
	return ctx.Clock.Now().Format(domain.DateLayout)
}

// ResolveMember finds a live member by id or by name, ignoring case
func ResolveMember(ctx context.FlockCtx, ref string) (domain.Member, error) {
	snap, err := ctx.Store.Members().Load()
	if err != nil {
		return domain.Member{}, errors.Wrap(err, "loading members")
	}
	live := records.Live(snap.Records)

	ref = strings.TrimSpace(ref)
	if m, ok := records.Find(live, ref); ok {
		return m, nil
	}

	var found []domain.Member
	for _, m := range live {
		if strings.EqualFold(m.Name, ref) {
			found = append(found, m)
		}
	}

	switch len(found) {
	case 0:
		return domain.Member{}, errors.Wrap(ErrUnknownMember, ref)
	case 1:
		return found[0], nil
	}

	return domain.Member{}, errors.Errorf("%d members are named %s. Use the member id", len(found), ref)
}

// ConfirmDelete asks before removing something unless yes is set
func ConfirmDelete(what string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}

	return ui.Confirm("remove "+what+"?", false)
}
