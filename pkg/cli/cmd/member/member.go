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

// Package member implements the commands for the member directory
package member

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
 * Add a member to class 3
 flockbook member add "Ama Mensah" --class 3

 * List the members of class 3
 flockbook member ls --class 3

 * Move a member to another class
 flockbook member edit "Ama Mensah" --class 4`

// NewCmd returns a new member command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "member",
		Aliases: []string{"members", "m"},
		Short:   "Manage the member directory",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabMembers)
		},
	}

	cmd.AddCommand(newAddCmd(ctx), newLsCmd(ctx), newEditCmd(ctx), newRmCmd(ctx))

	return cmd
}

func checkClass(ctx context.FlockCtx, class int) (*int, error) {
	if class == 0 {
		return nil, nil
	}

	settings, err := ctx.Store.Settings()
	if err != nil {
		return nil, errors.Wrap(err, "reading settings")
	}
	if class < 0 || class > settings.MaxClassCount {
		return nil, errors.Errorf("class must be between 1 and %d", settings.MaxClassCount)
	}

	return &class, nil
}

// Add adds a member to the directory. A class of 0 means no class.
func Add(ctx context.FlockCtx, name string, class int) (domain.Member, error) {
	name = strings.TrimSpace(name)
	if err := validate.Name(name); err != nil {
		return domain.Member{}, err
	}

	cn, err := checkClass(ctx, class)
	if err != nil {
		return domain.Member{}, err
	}

	return records.Create(ctx.Store.Members(), domain.Member{Name: name, ClassNumber: cn})
}

func newAddCmd(ctx context.FlockCtx) *cobra.Command {
	var class int

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := Add(ctx, args[0], class)
			if err != nil {
				return errors.Wrap(err, "adding the member")
			}

			log.Successf("added %s\n", m.Name)
			log.Plainf("id: %s\n", m.ID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&class, "class", "c", 0, "class number")

	return cmd
}

// List returns the members visible to the signed in user, ordered by name.
// A class of 0 lists every class.
func List(ctx context.FlockCtx, class int) ([]domain.Member, error) {
	u, err := infra.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := ctx.Store.Members().Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading members")
	}

	visible := permissions.VisibleMembers(u, records.Live(snap.Records))

	ret := []domain.Member{}
	for _, m := range visible {
		if class != 0 && (m.ClassNumber == nil || *m.ClassNumber != class) {
			continue
		}
		ret = append(ret, m)
	}

	sort.SliceStable(ret, func(i, j int) bool {
		return strings.ToLower(ret[i].Name) < strings.ToLower(ret[j].Name)
	})

	return ret, nil
}

func newLsCmd(ctx context.FlockCtx) *cobra.Command {
	var class int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := List(ctx, class)
			if err != nil {
				return err
			}

			if len(members) == 0 {
				log.Info("no members\n")
				return nil
			}
			output.Members(os.Stdout, members)

			return nil
		},
	}

	cmd.Flags().IntVarP(&class, "class", "c", 0, "only members of this class")

	return cmd
}

func newEditCmd(ctx context.FlockCtx) *cobra.Command {
	var name string
	var class int

	cmd := &cobra.Command{
		Use:   "edit <member>",
		Short: "Rename a member or change their class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("class") {
				return errors.New("nothing to change")
			}

			m, err := infra.ResolveMember(ctx, args[0])
			if err != nil {
				return err
			}

			if flags.Changed("name") {
				name = strings.TrimSpace(name)
				if err := validate.Name(name); err != nil {
					return err
				}
			}
			cn, err := checkClass(ctx, class)
			if err != nil {
				return err
			}

			m, err = records.Update(ctx.Store.Members(), m.ID, func(m *domain.Member) error {
				if flags.Changed("name") {
					m.Name = name
				}
				if flags.Changed("class") {
					m.ClassNumber = cn
				}
				return nil
			})
			if err != nil {
				return errors.Wrap(err, "editing the member")
			}

			log.Successf("updated %s\n", m.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.IntVarP(&class, "class", "c", 0, "new class number, 0 for none")

	return cmd
}

func newRmCmd(ctx context.FlockCtx) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <member>",
		Aliases: []string{"remove"},
		Short:   "Remove a member",
		Long:    "Remove a member from the directory. Contributions and attendance of the member are kept.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := infra.ResolveMember(ctx, args[0])
			if err != nil {
				return err
			}

			ok, err := infra.ConfirmDelete(m.Name, yes)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("aborted by user\n")
				return nil
			}

			if err := records.Delete(ctx.Store.Members(), m.ID); err != nil {
				return err
			}

			log.Successf("removed %s\n", m.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
