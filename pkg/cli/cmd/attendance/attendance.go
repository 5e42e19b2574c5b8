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

// Package attendance implements the commands for service attendance
package attendance

import (
	"os"
	"sort"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/output"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/records"
	"github.com/flockbook/flockbook/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Mark a member present today
 flockbook attendance mark "Ama Mensah" present

 * Mark a member sick on a past service
 flockbook attendance mark "Kofi Boateng" sick --date 2025-03-02

 * Show the attendance of a service
 flockbook attendance ls --date 2025-03-02`

// NewCmd returns a new attendance command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attendance",
		Aliases: []string{"att", "a"},
		Short:   "Take attendance",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabAttendance)
		},
	}

	cmd.AddCommand(newMarkCmd(ctx), newLsCmd(ctx), newDatesCmd(ctx))

	return cmd
}

// visibleDirectory returns the directory of members the signed in user may see
func visibleDirectory(ctx context.FlockCtx) (domain.Directory, error) {
	u, err := infra.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := ctx.Store.Members().Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading members")
	}

	return domain.NewDirectory(permissions.VisibleMembers(u, snap.Records)), nil
}

// Mark sets the status of a member on a service date
func Mark(ctx context.FlockCtx, date, memberRef, status string) (domain.AttendanceRecord, error) {
	if date == "" {
		date = infra.Today(ctx)
	}
	if err := validate.Date(date); err != nil {
		return domain.AttendanceRecord{}, err
	}

	m, err := infra.ResolveMember(ctx, memberRef)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}

	dir, err := visibleDirectory(ctx)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	if !dir.Has(m.ID) {
		return domain.AttendanceRecord{}, errors.Wrapf(infra.ErrForbidden, "%s is not in your class", m.Name)
	}

	st := domain.ParseAttendanceStatus(status)
	coll := ctx.Store.Attendance()
	id := domain.AttendanceID(date)

	snap, err := coll.Load()
	if err != nil {
		return domain.AttendanceRecord{}, errors.Wrap(err, "loading attendance")
	}

	if _, ok := records.Find(snap.Records, id); ok {
		return records.Update(coll, id, func(r *domain.AttendanceRecord) error {
			*r = r.WithMark(m.ID, st)
			return nil
		})
	}

	rec := domain.AttendanceRecord{
		SyncMeta: domain.SyncMeta{ID: id},
		Date:     date,
	}

	return records.Create(coll, rec.WithMark(m.ID, st))
}

func newMarkCmd(ctx context.FlockCtx) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "mark <member> <status>",
		Short: "Mark a member present, absent, sick, travelling or catechumen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := Mark(ctx, date, args[0], args[1])
			if err != nil {
				return errors.Wrap(err, "marking attendance")
			}

			log.Successf("marked %s %s on %s\n", args[0], domain.ParseAttendanceStatus(args[1]), r.Date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "service date (YYYY-MM-DD, defaults to today)")

	return cmd
}

// Get returns the attendance of a date limited to the members the signed in
// user may see
func Get(ctx context.FlockCtx, date string) (domain.AttendanceRecord, domain.Directory, error) {
	dir, err := visibleDirectory(ctx)
	if err != nil {
		return domain.AttendanceRecord{}, nil, err
	}

	snap, err := ctx.Store.Attendance().Load()
	if err != nil {
		return domain.AttendanceRecord{}, nil, errors.Wrap(err, "loading attendance")
	}

	r, ok := records.Find(snap.Records, domain.AttendanceID(date))
	if !ok {
		return domain.AttendanceRecord{Date: date}, dir, nil
	}

	u, err := infra.CurrentUser(ctx)
	if err != nil {
		return r, dir, err
	}
	if permissions.RestrictedToClass(u) {
		marks := []domain.AttendanceMark{}
		for _, m := range r.Marks {
			if dir.Has(m.MemberID) {
				marks = append(marks, m)
			}
		}
		r.Marks = marks
	}

	return r, dir, nil
}

func newLsCmd(ctx context.FlockCtx) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the attendance of a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = infra.Today(ctx)
			}
			if err := validate.Date(date); err != nil {
				return err
			}

			r, dir, err := Get(ctx, date)
			if err != nil {
				return err
			}

			output.Attendance(os.Stdout, r, dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "service date (YYYY-MM-DD, defaults to today)")

	return cmd
}

func newDatesCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List the service dates with attendance",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := ctx.Store.Attendance().Load()
			if err != nil {
				return errors.Wrap(err, "loading attendance")
			}

			live := records.Live(snap.Records)
			sort.Slice(live, func(i, j int) bool {
				return live[i].Date > live[j].Date
			})

			for _, r := range live {
				tally := r.Tally()
				log.Plainf("%s  %d marked, %d present\n", r.Date, len(r.Marks), tally[domain.AttendancePresent])
			}
			if len(live) == 0 {
				log.Info("no attendance taken yet\n")
			}

			return nil
		},
	}

	return cmd
}
