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

// Package sanitize coerces untrusted input, such as CSV rows, remote rows and
// stored records, into well-formed domain records. Every function is total:
// malformed input is corrected to a default, never reported as an error.
package sanitize

import (
	"sort"
	"strings"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/utils"
	"github.com/flockbook/flockbook/pkg/clock"
)

const (
	// DefaultMemberName is used for members without a name
	DefaultMemberName = "Unnamed member"
	// DefaultTaskTitle is used for tasks without a title
	DefaultTaskTitle = "Untitled task"
)

// Sanitizer holds the collaborators needed to fill defaults
type Sanitizer struct {
	Clock clock.Clock
	// NewID generates identifiers for records without one
	NewID func(prefix string) string
}

// New returns a sanitizer using the given clock and the default identifier generator
func New(c clock.Clock) Sanitizer {
	return Sanitizer{
		Clock: c,
		NewID: utils.GenerateID,
	}
}

func (s Sanitizer) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}

	return s.Clock.Now().UTC()
}

func (s Sanitizer) today() string {
	return s.now().Format(domain.DateLayout)
}

func (s Sanitizer) newID(prefix string) string {
	if s.NewID == nil {
		return utils.GenerateID(prefix)
	}

	return s.NewID(prefix)
}

func (s Sanitizer) date(f fields, keys ...string) string {
	if v, ok := f.lookup(keys...); ok {
		if d, ok := ParseDate(v); ok {
			return d
		}
	}

	return s.today()
}

func optDate(f fields, keys ...string) *string {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil
	}

	d, ok := ParseDate(v)
	if !ok {
		return nil
	}

	return &d
}

// meta reads the identity and sync state. Records without any sync information
// are treated as unsynced local edits.
func (s Sanitizer) meta(f fields, id string) domain.SyncMeta {
	ret := domain.SyncMeta{
		ID:       id,
		RemoteID: f.optStr("remoteId"),
	}

	if sub, ok := f.sub("sync"); ok {
		ret.Sync = syncState(sub)
		return ret
	}

	if f.has("dirty", "deleted", "lastSyncedAt") {
		ret.Sync = syncState(f)
		return ret
	}

	ret.Sync = domain.SyncState{Dirty: true}
	return ret
}

func syncState(f fields) domain.SyncState {
	ret := domain.SyncState{
		Dirty:   f.boolean("dirty"),
		Deleted: f.boolean("deleted"),
		Target:  f.str("target"),
	}

	if v, ok := f.lookup("lastSyncedAt"); ok {
		if t, ok := ParseTimestamp(v); ok {
			ret.LastSyncedAt = &t
		}
	}

	return ret
}

func (s Sanitizer) idOr(f fields, prefix string) string {
	if id := f.str("id"); id != "" {
		return id
	}

	return s.newID(prefix)
}

// Entry sanitizes a contribution entry
func (s Sanitizer) Entry(raw interface{}) domain.ContributionEntry {
	f := toFields(raw)

	var amount interface{}
	if v, ok := f.lookup("amount", "value", "total"); ok {
		amount = v
	}

	return domain.ContributionEntry{
		SyncMeta:   s.meta(f, s.idOr(f, "entry")),
		Date:       s.date(f, "date", "entryDate", "givenOn"),
		MemberID:   f.str("memberId", "member"),
		MemberName: f.str("memberName", "name", "giver"),
		Type:       domain.ParseContributionType(f.str("type", "contributionType", "category")),
		Fund:       f.str("fund"),
		Method:     domain.ParsePaymentMethod(f.str("method", "paymentMethod", "paidBy")),
		Amount:     ParseAmount(amount),
		Note:       f.optStr("note", "notes", "memo"),
	}
}

// Member sanitizes a directory member
func (s Sanitizer) Member(raw interface{}) domain.Member {
	f := toFields(raw)

	name := f.str("name", "fullName", "memberName")
	if name == "" {
		name = DefaultMemberName
	}

	return domain.Member{
		SyncMeta:    s.meta(f, s.idOr(f, "member")),
		Name:        name,
		ClassNumber: f.positive("classNumber", "class"),
	}
}

// Attendance sanitizes the attendance of one service date. Marks may be a list
// of {memberId, status} objects or an object mapping member ids to statuses.
// Duplicate marks for a member keep the last one.
func (s Sanitizer) Attendance(raw interface{}) domain.AttendanceRecord {
	f := toFields(raw)

	date := s.date(f, "date")
	id := f.str("id")
	if id == "" {
		id = domain.AttendanceID(date)
	}

	ret := domain.AttendanceRecord{
		SyncMeta: s.meta(f, id),
		Date:     date,
		Marks:    []domain.AttendanceMark{},
	}

	for _, item := range f.list("marks", "records", "attendance") {
		m := toFields(item)
		memberID := m.str("memberId", "member", "id")
		if memberID == "" {
			continue
		}
		ret = ret.WithMark(memberID, domain.ParseAttendanceStatus(m.str("status")))
	}

	if v, ok := f.lookup("statuses"); ok {
		statuses := rawObject(v)
		memberIDs := make([]string, 0, len(statuses))
		for memberID := range statuses {
			memberIDs = append(memberIDs, memberID)
		}
		sort.Strings(memberIDs)

		for _, memberID := range memberIDs {
			if strings.TrimSpace(memberID) == "" {
				continue
			}
			ret = ret.WithMark(strings.TrimSpace(memberID), domain.ParseAttendanceStatus(stringify(statuses[memberID])))
		}
	}

	return ret
}

// History sanitizes a weekly history record. Head counts may be nested under
// "counts" or given as top-level fields.
func (s Sanitizer) History(raw interface{}) domain.WeeklyHistoryRecord {
	f := toFields(raw)

	date := s.date(f, "date", "serviceDate")
	id := f.str("id")
	if id == "" {
		id = domain.HistoryID(date)
	}

	counts, ok := f.sub("counts", "attendance")
	if !ok {
		counts = f
	}

	return domain.WeeklyHistoryRecord{
		SyncMeta:      s.meta(f, id),
		Date:          date,
		ServiceType:   f.str("serviceType", "service"),
		Theme:         f.str("theme", "topic"),
		Preacher:      f.str("preacher", "speaker"),
		Scripture:     f.str("scripture", "text", "reading"),
		Highlights:    f.optStr("highlights", "summary"),
		Announcements: f.optStr("announcements"),
		Counts: domain.HeadCounts{
			Men:         counts.count("men"),
			Women:       counts.count("women"),
			Youth:       counts.count("youth"),
			Children:    counts.count("children"),
			Visitors:    counts.count("visitors"),
			NewConverts: counts.count("newConverts", "converts"),
			Catechumens: counts.count("catechumens"),
		},
	}
}

// Task sanitizes a task
func (s Sanitizer) Task(raw interface{}) domain.Task {
	f := toFields(raw)

	title := f.str("title", "name")
	if title == "" {
		title = DefaultTaskTitle
	}

	createdAt := s.now()
	if v, ok := f.lookup("createdAt"); ok {
		if t, ok := ParseTimestamp(v); ok {
			createdAt = t
		}
	}
	updatedAt := createdAt
	if v, ok := f.lookup("updatedAt"); ok {
		if t, ok := ParseTimestamp(v); ok {
			updatedAt = t
		}
	}

	return domain.Task{
		SyncMeta:   s.meta(f, s.idOr(f, "task")),
		Title:      title,
		Notes:      f.optStr("notes", "description"),
		AssignedTo: f.optStr("assignedTo", "assignee"),
		DueDate:    optDate(f, "dueDate", "due"),
		Status:     domain.ParseTaskStatus(f.str("status")),
		Priority:   domain.ParseTaskPriority(f.str("priority")),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// User sanitizes a local account. The class led is kept only for class leaders.
func (s Sanitizer) User(raw interface{}) domain.User {
	f := toFields(raw)

	role := domain.ParseRole(f.str("role"))

	ret := domain.User{
		Username: f.str("username", "user", "login"),
		Role:     role,
	}

	// passwords are opaque and kept verbatim
	if v, ok := f.lookup("password"); ok {
		if p, ok := v.(string); ok {
			ret.Password = p
		} else {
			ret.Password = stringify(v)
		}
	}

	if role == domain.RoleClassLeader {
		ret.ClassLed = f.positive("classLed", "class")
	}

	return ret
}

// Settings sanitizes the application settings, filling defaults
func (s Sanitizer) Settings(raw interface{}) domain.Settings {
	f := toFields(raw)
	ret := domain.DefaultSettings()

	if c := strings.ToUpper(f.str("currency")); isCurrencyCode(c) {
		ret.Currency = c
	}
	if n := f.positive("maxClassCount"); n != nil {
		ret.MaxClassCount = *n
	}
	ret.EnforceDirectory = f.boolean("enforceDirectory")

	if t, ok := f.sub("tables"); ok {
		setIfPresent(&ret.Tables.Entries, t.str("entries"))
		setIfPresent(&ret.Tables.Members, t.str("members"))
		setIfPresent(&ret.Tables.Attendance, t.str("attendance"))
		setIfPresent(&ret.Tables.History, t.str("history"))
		setIfPresent(&ret.Tables.Tasks, t.str("tasks"))
	}

	return ret
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}

	return true
}
