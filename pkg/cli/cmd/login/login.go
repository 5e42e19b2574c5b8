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

package login

import (
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrLoginFailed is returned when the username or the password is wrong
var ErrLoginFailed = errors.New("wrong username or password")

var example = `
  flockbook login
  flockbook login --username treasurer`

var usernameFlag, passwordFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Sign in with a local account",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&usernameFlag, "username", "u", "", "username")
	f.StringVarP(&passwordFlag, "password", "p", "", "password. Prompted for if omitted")

	return cmd
}

// Do signs the user in
func Do(ctx context.FlockCtx, username, password string) (domain.User, error) {
	u, ok, err := ctx.Store.Authenticate(strings.TrimSpace(username), password)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "authenticating")
	}
	if !ok {
		return domain.User{}, ErrLoginFailed
	}

	if err := infra.SaveSession(ctx, u.Username); err != nil {
		return domain.User{}, errors.Wrap(err, "saving session")
	}

	return u, nil
}

func newRun(ctx context.FlockCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		username := usernameFlag
		if username == "" {
			if err := ui.PromptInput("username", &username); err != nil {
				return errors.Wrap(err, "getting username input")
			}
		}

		password := passwordFlag
		if password == "" {
			if err := ui.PromptPassword("password", &password); err != nil {
				return errors.Wrap(err, "getting password input")
			}
		}

		u, err := Do(ctx, username, password)
		if err == ErrLoginFailed {
			log.Error("wrong username or password\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging in")
		}

		tabs := []string{}
		for _, t := range permissions.TabsFor(u.Role) {
			tabs = append(tabs, string(t))
		}

		log.Successf("signed in as %s (%s)\n", u.Username, u.Role)
		log.Plainf("you can use: %s\n", strings.Join(tabs, ", "))

		return nil
	}
}
