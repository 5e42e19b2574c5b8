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

// Package history implements the commands for the weekly service history
package history

import (
	"os"
	"sort"
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/output"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/flockbook/flockbook/pkg/cli/ui"
	"github.com/flockbook/flockbook/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Record a service
 flockbook history add --service "Sunday Service" --theme "Grace" --men 40 --women 52 --children 30

 * Write the highlights in your editor
 flockbook history add --date 2025-03-02 --edit

 * List the services of March
 flockbook history ls --from 2025-03-01 --to 2025-03-31`

// Input is a service record as given on the command line
type Input struct {
	Date          string
	ServiceType   string
	Theme         string
	Preacher      string
	Scripture     string
	Highlights    string
	Announcements string
	Counts        domain.HeadCounts
}

// NewCmd returns a new history command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "Keep the weekly service history",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabHistory)
		},
	}

	cmd.AddCommand(newAddCmd(ctx), newLsCmd(ctx), newShowCmd(ctx), newRmCmd(ctx))

	return cmd
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}

// Save stores the record of a service date, replacing an earlier record of
// the same date
func Save(ctx context.FlockCtx, in Input) (domain.WeeklyHistoryRecord, error) {
	if in.Date == "" {
		in.Date = infra.Today(ctx)
	}
	if err := validate.Date(in.Date); err != nil {
		return domain.WeeklyHistoryRecord{}, err
	}

	c := in.Counts
	for _, n := range []int{c.Men, c.Women, c.Youth, c.Children, c.Visitors, c.NewConverts, c.Catechumens} {
		if n < 0 {
			return domain.WeeklyHistoryRecord{}, errors.New("head counts cannot be negative")
		}
	}

	rec := domain.WeeklyHistoryRecord{
		SyncMeta:      domain.SyncMeta{ID: domain.HistoryID(in.Date)},
		Date:          in.Date,
		ServiceType:   strings.TrimSpace(in.ServiceType),
		Theme:         strings.TrimSpace(in.Theme),
		Preacher:      strings.TrimSpace(in.Preacher),
		Scripture:     strings.TrimSpace(in.Scripture),
		Highlights:    optional(in.Highlights),
		Announcements: optional(in.Announcements),
		Counts:        c,
	}

	return records.Create(ctx.Store.History(), rec)
}

func newAddCmd(ctx context.FlockCtx) *cobra.Command {
	var in Input
	var edit bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit {
				text, err := ui.EditText(ctx, in.Highlights)
				if err != nil {
					return errors.Wrap(err, "editing highlights")
				}
				in.Highlights = text
			}

			rec, err := Save(ctx, in)
			if err != nil {
				return errors.Wrap(err, "saving the service")
			}

			log.Successf("recorded the service of %s, %d attended\n", rec.Date, rec.Counts.Total())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Date, "date", "d", "", "service date (YYYY-MM-DD, defaults to today)")
	f.StringVarP(&in.ServiceType, "service", "s", "", "type of service")
	f.StringVar(&in.Theme, "theme", "", "theme of the service")
	f.StringVar(&in.Preacher, "preacher", "", "preacher")
	f.StringVar(&in.Scripture, "scripture", "", "scripture reading")
	f.StringVar(&in.Highlights, "highlights", "", "highlights of the service")
	f.StringVar(&in.Announcements, "announcements", "", "announcements")
	f.IntVar(&in.Counts.Men, "men", 0, "number of men")
	f.IntVar(&in.Counts.Women, "women", 0, "number of women")
	f.IntVar(&in.Counts.Youth, "youth", 0, "number of youth")
	f.IntVar(&in.Counts.Children, "children", 0, "number of children")
	f.IntVar(&in.Counts.Visitors, "visitors", 0, "number of visitors")
	f.IntVar(&in.Counts.NewConverts, "converts", 0, "number of new converts")
	f.IntVar(&in.Counts.Catechumens, "catechumens", 0, "number of catechumens")
	f.BoolVarP(&edit, "edit", "e", false, "write the highlights in your editor")

	return cmd
}

// List returns the live records between from and to, both optional, newest first
func List(ctx context.FlockCtx, from, to string) ([]domain.WeeklyHistoryRecord, error) {
	snap, err := ctx.Store.History().Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading history")
	}

	ret := []domain.WeeklyHistoryRecord{}
	for _, r := range records.Live(snap.Records) {
		if from != "" && r.Date < from {
			continue
		}
		if to != "" && r.Date > to {
			continue
		}
		ret = append(ret, r)
	}

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Date > ret[j].Date
	})

	return ret, nil
}

func newLsCmd(ctx context.FlockCtx) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List services",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := List(ctx, from, to)
			if err != nil {
				return err
			}

			if len(recs) == 0 {
				log.Info("no services recorded\n")
				return nil
			}
			output.History(os.Stdout, recs)

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first date to include (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "last date to include (YYYY-MM-DD)")

	return cmd
}

func find(ctx context.FlockCtx, date string) (domain.WeeklyHistoryRecord, error) {
	snap, err := ctx.Store.History().Load()
	if err != nil {
		return domain.WeeklyHistoryRecord{}, errors.Wrap(err, "loading history")
	}

	for _, r := range records.Live(snap.Records) {
		if r.Date == date || r.ID == date {
			return r, nil
		}
	}

	return domain.WeeklyHistoryRecord{}, errors.Errorf("no service recorded on %s", date)
}

func newShowCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <date>",
		Short: "Show the details of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := find(ctx, args[0])
			if err != nil {
				return err
			}

			output.History(os.Stdout, []domain.WeeklyHistoryRecord{r})
			log.Plainf("\ntheme: %s\npreacher: %s\nscripture: %s\n", r.Theme, r.Preacher, r.Scripture)
			log.Plainf("new converts: %d, catechumens: %d\n", r.Counts.NewConverts, r.Counts.Catechumens)
			if r.Highlights != nil {
				log.Plainf("\n%s\n", *r.Highlights)
			}
			if r.Announcements != nil {
				log.Plainf("\nannouncements:\n%s\n", *r.Announcements)
			}

			return nil
		},
	}

	return cmd
}

func newRmCmd(ctx context.FlockCtx) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <date>",
		Aliases: []string{"remove"},
		Short:   "Remove the record of a service",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := find(ctx, args[0])
			if err != nil {
				return err
			}

			ok, err := infra.ConfirmDelete("the service of "+r.Date, yes)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("aborted by user\n")
				return nil
			}

			if err := records.Delete(ctx.Store.History(), r.ID); err != nil {
				return err
			}

			log.Success("removed\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
