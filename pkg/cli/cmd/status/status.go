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

// Package status implements the status command
package status

import (
	"os"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/output"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/cli/syncer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  flockbook status`

// NewCmd returns a new status command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show who is signed in and what is waiting to be synced",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Collect returns the sync status of every synced collection
func Collect(s *syncer.Syncer) ([]syncer.Status, error) {
	ret := make([]syncer.Status, 0, len(domain.SyncedCollections))

	for _, c := range domain.SyncedCollections {
		st, err := s.Status(c)
		if err != nil {
			return nil, errors.Wrapf(err, "getting the status of %s", c)
		}
		ret = append(ret, st)
	}

	return ret, nil
}

func describeRemote(ctx context.FlockCtx) string {
	c, err := remote.NewClient(ctx.Remote, ctx.HTTPClient)
	if err != nil {
		return err.Error()
	}

	return c.Endpoint()
}

func newRun(ctx context.FlockCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		u, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if u == nil {
			log.Plain("not signed in\n")
		} else {
			log.Plainf("signed in as %s (%s)\n", u.Username, u.Role)
		}
		log.Plainf("remote: %s\n\n", describeRemote(ctx))

		s, err := infra.NewSyncer(ctx)
		if err != nil {
			return errors.Wrap(err, "setting up sync")
		}

		statuses, err := Collect(s)
		if err != nil {
			return err
		}
		output.SyncStatus(os.Stdout, statuses)

		return nil
	}
}
