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

// Package task implements the commands for tasks
package task

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
	"github.com/flockbook/flockbook/pkg/cli/validate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Add a task
 flockbook task add "Order communion cups" --due 2025-03-28 --priority high --assign Esi

 * List the unfinished tasks
 flockbook task ls

 * Mark a task done
 flockbook task status task-8c1e... done`

// Input is a task as given on the command line
type Input struct {
	Title    string
	Notes    string
	Assign   string
	Due      string
	Status   string
	Priority string
}

// NewCmd returns a new task command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Track tasks",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabTasks)
		},
	}

	cmd.AddCommand(newAddCmd(ctx), newLsCmd(ctx), newStatusCmd(ctx), newEditCmd(ctx), newRmCmd(ctx))

	return cmd
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}

// Add creates a task
func Add(ctx context.FlockCtx, in Input) (domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, errors.New("the title is required")
	}
	if in.Due != "" {
		if err := validate.Date(in.Due); err != nil {
			return domain.Task{}, err
		}
	}

	now := ctx.Clock.Now().UTC()
	t := domain.Task{
		Title:      title,
		Notes:      optional(in.Notes),
		AssignedTo: optional(in.Assign),
		DueDate:    optional(in.Due),
		Status:     domain.ParseTaskStatus(in.Status),
		Priority:   domain.ParseTaskPriority(in.Priority),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return records.Create(ctx.Store.Tasks(), t)
}

func bindInput(cmd *cobra.Command, in *Input) {
	f := cmd.Flags()
	f.StringVarP(&in.Notes, "notes", "n", "", "notes")
	f.StringVarP(&in.Assign, "assign", "a", "", "who the task is assigned to")
	f.StringVarP(&in.Due, "due", "d", "", "due date (YYYY-MM-DD)")
	f.StringVarP(&in.Priority, "priority", "p", "", "low, medium or high")
	f.StringVarP(&in.Status, "status", "s", "", "pending, in progress or completed")
}

func newAddCmd(ctx context.FlockCtx) *cobra.Command {
	var in Input

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]

			t, err := Add(ctx, in)
			if err != nil {
				return errors.Wrap(err, "adding the task")
			}

			log.Successf("added %s\n", t.Title)
			log.Plainf("id: %s\n", t.ID)
			return nil
		},
	}

	bindInput(cmd, &in)

	return cmd
}

var priorityRank = map[domain.TaskPriority]int{
	domain.PriorityHigh:   0,
	domain.PriorityMedium: 1,
	domain.PriorityLow:    2,
}

// List returns the live tasks. Unless all is set, completed tasks are left
// out. Tasks are ordered by due date, then priority. Tasks without a due
// date come last.
func List(ctx context.FlockCtx, all, overdueOnly bool) ([]domain.Task, error) {
	snap, err := ctx.Store.Tasks().Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading tasks")
	}

	today := infra.Today(ctx)

	ret := []domain.Task{}
	for _, t := range records.Live(snap.Records) {
		if !all && t.Status == domain.TaskCompleted {
			continue
		}
		if overdueOnly && !t.Overdue(today) {
			continue
		}
		ret = append(ret, t)
	}

	sort.SliceStable(ret, func(i, j int) bool {
		a, b := ret[i], ret[j]
		if (a.DueDate == nil) != (b.DueDate == nil) {
			return a.DueDate != nil
		}
		if a.DueDate != nil && *a.DueDate != *b.DueDate {
			return *a.DueDate < *b.DueDate
		}

		return priorityRank[a.Priority] < priorityRank[b.Priority]
	})

	return ret, nil
}

func newLsCmd(ctx context.FlockCtx) *cobra.Command {
	var all, overdue bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := List(ctx, all, overdue)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				log.Info("no tasks\n")
				return nil
			}
			output.Tasks(os.Stdout, tasks, infra.Today(ctx))

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&all, "all", "a", false, "include completed tasks")
	f.BoolVar(&overdue, "overdue", false, "only overdue tasks")

	return cmd
}

// Edit changes the fields of a task whose flags were set
func Edit(ctx context.FlockCtx, id string, in Input, changed func(string) bool) (domain.Task, error) {
	if changed("due") && in.Due != "" {
		if err := validate.Date(in.Due); err != nil {
			return domain.Task{}, err
		}
	}
	if changed("title") && strings.TrimSpace(in.Title) == "" {
		return domain.Task{}, errors.New("the title is required")
	}

	now := ctx.Clock.Now().UTC()

	return records.Update(ctx.Store.Tasks(), id, func(t *domain.Task) error {
		if changed("title") {
			t.Title = strings.TrimSpace(in.Title)
		}
		if changed("notes") {
			t.Notes = optional(in.Notes)
		}
		if changed("assign") {
			t.AssignedTo = optional(in.Assign)
		}
		if changed("due") {
			t.DueDate = optional(in.Due)
		}
		if changed("status") {
			t.Status = domain.ParseTaskStatus(in.Status)
		}
		if changed("priority") {
			t.Priority = domain.ParseTaskPriority(in.Priority)
		}
		t.UpdatedAt = now

		return nil
	})
}

func newStatusCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := Edit(ctx, args[0], Input{Status: args[1]}, func(name string) bool {
				return name == "status"
			})
			if err != nil {
				return errors.Wrap(err, "changing the status")
			}

			log.Successf("%s is %s\n", t.Title, t.Status)
			return nil
		},
	}

	return cmd
}

func newEditCmd(ctx context.FlockCtx) *cobra.Command {
	var in Input

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 {
				return errors.New("nothing to change")
			}

			t, err := Edit(ctx, args[0], in, cmd.Flags().Changed)
			if err != nil {
				return errors.Wrap(err, "editing the task")
			}

			log.Successf("updated %s\n", t.Title)
			return nil
		},
	}

	bindInput(cmd, &in)
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "new title")

	return cmd
}

func newRmCmd(ctx context.FlockCtx) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := infra.ConfirmDelete("task "+args[0], yes)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("aborted by user\n")
				return nil
			}

			if err := records.Delete(ctx.Store.Tasks(), args[0]); err != nil {
				return err
			}

			log.Success("removed\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
