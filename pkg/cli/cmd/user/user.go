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

// Package user implements the commands for local accounts
package user

import (
	"os"
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/output"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/flockbook/flockbook/pkg/cli/ui"
	"github.com/flockbook/flockbook/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrLastAdmin is returned when a change would leave no admin account
var ErrLastAdmin = errors.New("at least one admin account must remain")

var example = `
 * Add a class leader for class 2
 flockbook user add kwesi --role class-leader --class 2

 * Change a password
 flockbook user passwd kwesi`

// NewCmd returns a new user command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users", "u"},
		Short:   "Manage local accounts",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabUsers)
		},
	}

	cmd.AddCommand(newAddCmd(ctx), newLsCmd(ctx), newPasswdCmd(ctx), newRmCmd(ctx))

	return cmd
}

func countAdmins(users []domain.User) int {
	n := 0
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			n++
		}
	}

	return n
}

// Add creates an account. A class of 0 means none.
func Add(ctx context.FlockCtx, a validate.Account, class int) (domain.User, error) {
	a.Username = strings.TrimSpace(a.Username)
	if err := validate.User(a); err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		Username: a.Username,
		Password: a.Password,
		Role:     domain.ParseRole(a.Role),
	}
	if class != 0 {
		if u.Role != domain.RoleClassLeader {
			return domain.User{}, errors.New("only class leaders lead a class")
		}
		settings, err := ctx.Store.Settings()
		if err != nil {
			return domain.User{}, errors.Wrap(err, "reading settings")
		}
		if class < 0 || class > settings.MaxClassCount {
			return domain.User{}, errors.Errorf("class must be between 1 and %d", settings.MaxClassCount)
		}
		u.ClassLed = &class
	}

	_, err := ctx.Store.Users().Modify(func(users []domain.User) ([]domain.User, error) {
		if _, ok := store.FindUser(users, u.Username); ok {
			return nil, errors.Errorf("%s already exists", u.Username)
		}

		return append(users, u), nil
	})
	if err != nil {
		return domain.User{}, err
	}

	return u, nil
}

func newAddCmd(ctx context.FlockCtx) *cobra.Command {
	var a validate.Account
	var class int

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Username = args[0]
			if a.Password == "" {
				if err := ui.PromptPassword("password", &a.Password); err != nil {
					return errors.Wrap(err, "getting password input")
				}
			}

			u, err := Add(ctx, a, class)
			if err != nil {
				return errors.Wrap(err, "adding the account")
			}

			log.Successf("added %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&a.Role, "role", "r", string(domain.RoleClassLeader), "admin, finance, class-leader or statistician")
	f.StringVarP(&a.Password, "password", "p", "", "password. Prompted for if omitted")
	f.IntVarP(&class, "class", "c", 0, "class led by a class leader")

	return cmd
}

func newLsCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := ctx.Store.Users().Load()
			if err != nil {
				return errors.Wrap(err, "loading users")
			}

			output.Users(os.Stdout, snap.Records)
			return nil
		},
	}

	return cmd
}

// SetPassword changes the password of an account
func SetPassword(ctx context.FlockCtx, username, password string) error {
	if err := validate.User(validate.Account{Username: username, Password: password, Role: string(domain.RoleAdmin)}); err != nil {
		return err
	}

	_, err := ctx.Store.Users().Modify(func(users []domain.User) ([]domain.User, error) {
		ret := make([]domain.User, len(users))
		found := false
		for i, u := range users {
			if strings.EqualFold(u.Username, username) {
				u.Password = password
				found = true
			}
			ret[i] = u
		}
		if !found {
			return nil, errors.Errorf("no account named %s", username)
		}

		return ret, nil
	})

	return err
}

func newPasswdCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Change the password of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if err := ui.PromptPassword("new password", &password); err != nil {
				return errors.Wrap(err, "getting password input")
			}

			if err := SetPassword(ctx, args[0], password); err != nil {
				return errors.Wrap(err, "changing the password")
			}

			log.Success("password changed\n")
			return nil
		},
	}

	return cmd
}

// Remove deletes an account. The last admin cannot be removed.
func Remove(ctx context.FlockCtx, username string) error {
	_, err := ctx.Store.Users().Modify(func(users []domain.User) ([]domain.User, error) {
		target, ok := store.FindUser(users, username)
		if !ok {
			return nil, errors.Errorf("no account named %s", username)
		}

		ret := []domain.User{}
		for _, u := range users {
			if u.Username != target.Username {
				ret = append(ret, u)
			}
		}

		if target.Role == domain.RoleAdmin && countAdmins(ret) == 0 {
			return nil, ErrLastAdmin
		}

		return ret, nil
	})

	return err
}

func newRmCmd(ctx context.FlockCtx) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <username>",
		Aliases: []string{"remove"},
		Short:   "Remove an account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(args[0], ctx.SessionUser) {
				return errors.New("you cannot remove the account you are signed in with")
			}

			ok, err := infra.ConfirmDelete("the account "+args[0], yes)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("aborted by user\n")
				return nil
			}

			if err := Remove(ctx, args[0]); err != nil {
				return errors.Wrap(err, "removing the account")
			}

			log.Success("removed\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
