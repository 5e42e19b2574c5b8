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

// Package entry implements the commands for financial contributions
package entry

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
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var example = `
 * Record a tithe
 flockbook entry add --member "Ama Mensah" --amount 50 --type tithe --method cash

 * List the contributions of March with totals
 flockbook entry ls --from 2025-03-01 --to 2025-03-31 --summary

 * Correct an amount
 flockbook entry edit entry-3f2a... --amount 55

 * Remove an entry
 flockbook entry rm entry-3f2a...`

// Input is a contribution as given on the command line
type Input struct {
	Member string
	Amount string
	Type   string
	Method string
	Fund   string
	Date   string
	Note   string
}

// NewCmd returns a new entry command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entry",
		Aliases: []string{"entries", "e"},
		Short:   "Record financial contributions",
		Example: example,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabEntries)
		},
	}

	cmd.AddCommand(newAddCmd(ctx), newLsCmd(ctx), newEditCmd(ctx), newRmCmd(ctx))

	return cmd
}

func bindInput(cmd *cobra.Command, in *Input) {
	f := cmd.Flags()
	f.StringVarP(&in.Member, "member", "m", "", "member id or name")
	f.StringVarP(&in.Amount, "amount", "a", "", "amount given")
	f.StringVarP(&in.Type, "type", "t", "", "tithe, offering, thanksgiving, pledge, welfare, missions, building or other")
	f.StringVar(&in.Method, "method", "", "cash, check, card, e-transfer, mobile or other")
	f.StringVar(&in.Fund, "fund", "", "fund the contribution goes to")
	f.StringVarP(&in.Date, "date", "d", "", "date given (YYYY-MM-DD, defaults to today)")
	f.StringVarP(&in.Note, "note", "n", "", "a note")
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Errorf("%q is not an amount", s)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("the amount cannot be negative")
	}

	return d, nil
}

// applyMember sets the member of the entry. An unknown member is kept by name
// unless the directory is enforced.
func applyMember(ctx context.FlockCtx, e *domain.ContributionEntry, ref string) error {
	if strings.TrimSpace(ref) == "" {
		e.MemberID = ""
		e.MemberName = ""
		return nil
	}

	m, err := infra.ResolveMember(ctx, ref)
	if err == nil {
		e.MemberID = m.ID
		e.MemberName = m.Name
		return nil
	}

	if errors.Cause(err) != infra.ErrUnknownMember {
		return err
	}

	settings, serr := ctx.Store.Settings()
	if serr != nil {
		return errors.Wrap(serr, "reading settings")
	}
	if settings.EnforceDirectory {
		return err
	}

	e.MemberID = ""
	e.MemberName = strings.TrimSpace(ref)

	return nil
}

// Add records a new contribution
func Add(ctx context.FlockCtx, in Input) (domain.ContributionEntry, error) {
	var e domain.ContributionEntry

	amount, err := parseAmount(in.Amount)
	if err != nil {
		return e, err
	}

	date := in.Date
	if date == "" {
		date = infra.Today(ctx)
	}
	if err := validate.Date(date); err != nil {
		return e, err
	}

	e = domain.ContributionEntry{
		Date:   date,
		Type:   domain.ParseContributionType(in.Type),
		Method: domain.ParsePaymentMethod(in.Method),
		Fund:   strings.TrimSpace(in.Fund),
		Amount: amount,
	}
	if n := strings.TrimSpace(in.Note); n != "" {
		e.Note = &n
	}

	if err := applyMember(ctx, &e, in.Member); err != nil {
		return e, err
	}

	return records.Create(ctx.Store.Entries(), e)
}

func newAddCmd(ctx context.FlockCtx) *cobra.Command {
	var in Input

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a contribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := Add(ctx, in)
			if err != nil {
				return errors.Wrap(err, "adding the entry")
			}

			settings, err := ctx.Store.Settings()
			if err != nil {
				return err
			}

			log.Successf("recorded %s %s from %s\n", output.Money(e.Amount, settings.Currency), e.Type, displayName(e))
			log.Plainf("id: %s\n", e.ID)

			return nil
		},
	}

	bindInput(cmd, &in)
	cmd.MarkFlagRequired("amount")

	return cmd
}

func displayName(e domain.ContributionEntry) string {
	if e.MemberName != "" {
		return e.MemberName
	}

	return "an anonymous giver"
}

// List returns the live entries passing the filter, ordered by date
func List(ctx context.FlockCtx, f domain.EntryFilter) ([]domain.ContributionEntry, error) {
	snap, err := ctx.Store.Entries().Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading entries")
	}

	ret := domain.FilterEntries(snap.Records, f)
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].Date < ret[j].Date
	})

	return ret, nil
}

func newLsCmd(ctx context.FlockCtx) *cobra.Command {
	var filter domain.EntryFilter
	var member string
	var summary bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List contributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range []string{filter.From, filter.To} {
				if d == "" {
					continue
				}
				if err := validate.Date(d); err != nil {
					return err
				}
			}

			if member != "" {
				m, err := infra.ResolveMember(ctx, member)
				if err != nil {
					return err
				}
				filter.MemberID = m.ID
			}

			entries, err := List(ctx, filter)
			if err != nil {
				return err
			}

			settings, err := ctx.Store.Settings()
			if err != nil {
				return err
			}

			if summary {
				output.Summary(os.Stdout, domain.Summarize(entries), settings.Currency)
				return nil
			}

			if len(entries) == 0 {
				log.Info("no entries\n")
				return nil
			}
			output.Entries(os.Stdout, entries, settings.Currency)

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.From, "from", "", "first date to include (YYYY-MM-DD)")
	f.StringVar(&filter.To, "to", "", "last date to include (YYYY-MM-DD)")
	f.StringVarP(&member, "member", "m", "", "only entries of this member")
	f.BoolVarP(&summary, "summary", "s", false, "print totals by type, method and fund instead of the entries")

	return cmd
}

// Edit changes the fields of an entry whose flags were set
func Edit(ctx context.FlockCtx, id string, in Input, changed func(string) bool) (domain.ContributionEntry, error) {
	var amount decimal.Decimal
	if changed("amount") {
		var err error
		if amount, err = parseAmount(in.Amount); err != nil {
			return domain.ContributionEntry{}, err
		}
	}
	if changed("date") {
		if err := validate.Date(in.Date); err != nil {
			return domain.ContributionEntry{}, err
		}
	}

	var member domain.ContributionEntry
	if changed("member") {
		if err := applyMember(ctx, &member, in.Member); err != nil {
			return domain.ContributionEntry{}, err
		}
	}

	return records.Update(ctx.Store.Entries(), id, func(e *domain.ContributionEntry) error {
		if changed("amount") {
			e.Amount = amount
		}
		if changed("date") {
			e.Date = in.Date
		}
		if changed("type") {
			e.Type = domain.ParseContributionType(in.Type)
		}
		if changed("method") {
			e.Method = domain.ParsePaymentMethod(in.Method)
		}
		if changed("fund") {
			e.Fund = strings.TrimSpace(in.Fund)
		}
		if changed("note") {
			n := strings.TrimSpace(in.Note)
			e.Note = &n
			if n == "" {
				e.Note = nil
			}
		}
		if changed("member") {
			e.MemberID = member.MemberID
			e.MemberName = member.MemberName
		}

		return nil
	})
}

func newEditCmd(ctx context.FlockCtx) *cobra.Command {
	var in Input

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a contribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 {
				return errors.New("nothing to change")
			}

			e, err := Edit(ctx, args[0], in, cmd.Flags().Changed)
			if err != nil {
				return errors.Wrap(err, "editing the entry")
			}

			log.Successf("updated %s\n", e.ID)
			return nil
		},
	}

	bindInput(cmd, &in)

	return cmd
}

func newRmCmd(ctx context.FlockCtx) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a contribution",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := infra.ConfirmDelete("entry "+args[0], yes)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn("aborted by user\n")
				return nil
			}

			if err := records.Delete(ctx.Store.Entries(), args[0]); err != nil {
				return err
			}

			log.Success("removed\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
