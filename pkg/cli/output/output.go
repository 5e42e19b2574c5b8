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

// Package output provides functions to print records and summaries
// in a consistent manner
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/syncer"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Money formats an amount in the given ISO 4217 currency, with the
// currency's standard number of fraction digits and grouped thousands
func Money(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return strings.TrimSpace(strings.ToUpper(code) + " " + amount.StringFixed(2))
	}

	scale, _ := currency.Standard.Rounding(unit)
	f, _ := amount.Round(int32(scale)).Float64()

	return unit.String() + " " + printer.Sprint(number.Decimal(f, number.Scale(scale)))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}

	return *s
}

func dirtyMark(m domain.SyncMeta) string {
	if m.Sync.Dirty {
		return "*"
	}

	return ""
}

// Entries prints contribution entries as a table. Unsynced rows are marked with '*'.
func Entries(w io.Writer, entries []domain.ContributionEntry, currencyCode string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tMEMBER\tTYPE\tMETHOD\tFUND\tAMOUNT\tID\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s%s\t\n",
			e.Date, e.MemberName, e.Type, e.Method, e.Fund, Money(e.Amount, currencyCode), e.ID, dirtyMark(e.SyncMeta))
	}
	tw.Flush()
}

// Summary prints the totals of a set of contributions
func Summary(w io.Writer, s domain.Summary, currencyCode string) {
	fmt.Fprintf(w, "%d contribution(s), total %s\n", s.Count, Money(s.Total, currencyCode))

	tw := newTable(w)
	fmt.Fprintln(tw, "\nBY TYPE\t\t")
	for _, t := range domain.ContributionTypes {
		if v, ok := s.ByType[t]; ok {
			fmt.Fprintf(tw, "%s\t%s\t\n", t, Money(v, currencyCode))
		}
	}
	fmt.Fprintln(tw, "\nBY METHOD\t\t")
	for _, m := range domain.PaymentMethods {
		if v, ok := s.ByMethod[m]; ok {
			fmt.Fprintf(tw, "%s\t%s\t\n", m, Money(v, currencyCode))
		}
	}
	if funds := s.Funds(); len(funds) > 0 {
		fmt.Fprintln(tw, "\nBY FUND\t\t")
		for _, f := range funds {
			fmt.Fprintf(tw, "%s\t%s\t\n", f, Money(s.ByFund[f], currencyCode))
		}
	}
	tw.Flush()
}

// Members prints the member directory
func Members(w io.Writer, members []domain.Member) {
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tCLASS\tID\t")
	for _, m := range members {
		class := "-"
		if m.ClassNumber != nil {
			class = fmt.Sprintf("%d", *m.ClassNumber)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\t\n", m.Name, class, m.ID, dirtyMark(m.SyncMeta))
	}
	tw.Flush()
}

// Attendance prints the marks of one service date
func Attendance(w io.Writer, r domain.AttendanceRecord, dir domain.Directory) {
	fmt.Fprintf(w, "attendance on %s\n", r.Date)

	tw := newTable(w)
	for _, m := range r.Marks {
		fmt.Fprintf(tw, "%s\t%s\t\n", dir.NameOf(m.MemberID), m.Status)
	}
	tw.Flush()

	tally := r.Tally()
	parts := make([]string, 0, len(domain.AttendanceStatuses))
	for _, s := range domain.AttendanceStatuses {
		parts = append(parts, fmt.Sprintf("%s %d", s, tally[s]))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

// History prints weekly history records
func History(w io.Writer, records []domain.WeeklyHistoryRecord) {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tSERVICE\tMEN\tWOMEN\tYOUTH\tCHILDREN\tVISITORS\tTOTAL\tID\t")
	for _, h := range records {
		c := h.Counts
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s%s\t\n",
			h.Date, h.ServiceType, c.Men, c.Women, c.Youth, c.Children, c.Visitors, c.Total(), h.ID, dirtyMark(h.SyncMeta))
	}
	tw.Flush()
}

// Tasks prints tasks. Overdue tasks are highlighted relative to today.
func Tasks(w io.Writer, tasks []domain.Task, today string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TITLE\tSTATUS\tPRIORITY\tDUE\tASSIGNED\tID\t")
	for _, t := range tasks {
		due := optional(t.DueDate)
		if t.Overdue(today) {
			due = color.RedString("%s (overdue)", due)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s%s\t\n",
			t.Title, t.Status, t.Priority, due, optional(t.AssignedTo), t.ID, dirtyMark(t.SyncMeta))
	}
	tw.Flush()
}

// Users prints the local accounts without their passwords
func Users(w io.Writer, users []domain.User) {
	tw := newTable(w)
	fmt.Fprintln(tw, "USERNAME\tROLE\tCLASS\t")
	for _, u := range users {
		class := "-"
		if u.ClassLed != nil {
			class = fmt.Sprintf("%d", *u.ClassLed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", u.Username, u.Role, class)
	}
	tw.Flush()
}

// Settings prints the application settings
func Settings(w io.Writer, s domain.Settings) {
	tw := newTable(w)
	fmt.Fprintf(tw, "currency\t%s\t\n", s.Currency)
	fmt.Fprintf(tw, "maxClassCount\t%d\t\n", s.MaxClassCount)
	fmt.Fprintf(tw, "enforceDirectory\t%t\t\n", s.EnforceDirectory)
	for _, c := range domain.SyncedCollections {
		fmt.Fprintf(tw, "tables.%s\t%s\t\n", c, s.Tables.For(c))
	}
	tw.Flush()
}

// SyncStatus prints the sync status of collections. Times are shown in the
// local time zone.
func SyncStatus(w io.Writer, statuses []syncer.Status) {
	tw := newTable(w)
	fmt.Fprintln(tw, "COLLECTION\tTABLE\tRECORDS\tPENDING\tLAST SYNCED\t")
	for _, s := range statuses {
		last := "never"
		if s.LastSyncedAt != nil {
			last = s.LastSyncedAt.Local().Format(time.RFC822)
		}

		pending := fmt.Sprintf("%d", s.Dirty)
		if s.Dirty > 0 {
			pending = color.YellowString(pending)
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n", s.Collection, s.Table, s.Total, pending, last)
	}
	tw.Flush()

	for _, s := range statuses {
		if s.LastError != "" {
			fmt.Fprintf(w, "%s: %s\n", s.Collection, color.RedString(s.LastError))
		}
	}
}
