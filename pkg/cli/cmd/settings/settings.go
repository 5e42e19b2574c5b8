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

// Package settings implements the commands for the application settings
package settings

import (
	"os"
	"strconv"
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/output"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Show the settings
 flockbook settings

 * Use Ghanaian cedis
 flockbook settings set currency GHS

 * Sync history to a table in another schema
 flockbook settings set tables.history 'reports."Weekly History"'`

// NewCmd returns a new settings command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Show or change the settings",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabSettings)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.Store.Settings()
			if err != nil {
				return err
			}

			output.Settings(os.Stdout, s)
			return nil
		},
	}

	cmd.AddCommand(newSetCmd(ctx), newResetCmd(ctx))

	return cmd
}

func setTable(t *domain.TableNames, collection, value string) error {
	switch collection {
	case domain.CollectionEntries:
		t.Entries = value
	case domain.CollectionMembers:
		t.Members = value
	case domain.CollectionAttendance:
		t.Attendance = value
	case domain.CollectionHistory:
		t.History = value
	case domain.CollectionTasks:
		t.Tasks = value
	default:
		return errors.Errorf("%s is not a synced collection", collection)
	}

	return nil
}

// Set changes one setting and stores the result if it is valid
func Set(ctx context.FlockCtx, key, value string) (domain.Settings, error) {
	s, err := ctx.Store.Settings()
	if err != nil {
		return s, err
	}

	value = strings.TrimSpace(value)

	switch {
	case key == "currency":
		s.Currency = strings.ToUpper(value)
	case key == "maxClassCount":
		n, err := strconv.Atoi(value)
		if err != nil {
			return s, errors.Errorf("%q is not a number", value)
		}
		s.MaxClassCount = n
	case key == "enforceDirectory":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return s, errors.Errorf("%q is not true or false", value)
		}
		s.EnforceDirectory = b
	case strings.HasPrefix(key, "tables."):
		if err := setTable(&s.Tables, strings.TrimPrefix(key, "tables."), value); err != nil {
			return s, err
		}
	default:
		return s, errors.Errorf("unknown setting %s", key)
	}

	if err := validate.Settings(s); err != nil {
		return s, err
	}

	return ctx.Store.SaveSettings(s)
}

func newSetCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting. Keys are currency, maxClassCount, enforceDirectory and tables.<collection>.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := Set(ctx, args[0], args[1])
			if err != nil {
				return errors.Wrap(err, "changing the setting")
			}

			output.Settings(os.Stdout, s)
			return nil
		},
	}

	return cmd
}

func newResetCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := infra.ConfirmDelete("the current settings", false)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("aborted by user\n")
				return nil
			}

			if _, err := ctx.Store.SaveSettings(domain.DefaultSettings()); err != nil {
				return err
			}

			log.Success("restored the default settings\n")
			return nil
		},
	}

	return cmd
}
