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

package sanitize

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/clock"
)

func newTestSanitizer() Sanitizer {
	c := clock.NewMock()
	c.SetNow(time.Date(2024, time.January, 7, 15, 0, 0, 0, time.UTC))

	n := 0
	return Sanitizer{
		Clock: c,
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s-%d", prefix, n)
		},
	}
}

// malformedInputs are fed to every sanitizer
var malformedInputs = []interface{}{
	nil,
	42,
	"not json",
	"{\"amount\": \"NaN\"}",
	[]interface{}{1, 2},
	map[string]interface{}{},
	map[string]interface{}{
		"id":          nil,
		"date":        "not a date",
		"amount":      math.NaN(),
		"type":        42,
		"method":      []interface{}{"cash"},
		"name":        map[string]interface{}{"first": "x"},
		"classNumber": -3,
		"men":         "many",
		"women":       -5,
		"counts":      "garbage",
		"status":      nil,
		"priority":    true,
		"dueDate":     "someday",
		"sync":        "dirty",
		"marks":       "everyone",
		"role":        "pope",
		"currency":    "dollars",
	},
	map[string]string{"amount": "-12", "type": "", "date": "2024-02-30"},
}

func TestSanitizers_Total(t *testing.T) {
	s := newTestSanitizer()

	for idx, raw := range malformedInputs {
		msg := fmt.Sprintf("input %d", idx)

		e := s.Entry(raw)
		assert.NotEqual(t, e.ID, "", msg+": entry id")
		assert.Equal(t, e.Amount.IsNegative(), false, msg+": entry amount")
		assert.Equal(t, parsesAs(string(e.Type), domain.ContributionTypes), true, msg+": entry type")
		assert.Equal(t, parsesAs(string(e.Method), domain.PaymentMethods), true, msg+": entry method")
		assert.Equal(t, isDate(e.Date), true, msg+": entry date")

		m := s.Member(raw)
		assert.NotEqual(t, m.ID, "", msg+": member id")
		assert.NotEqual(t, m.Name, "", msg+": member name")
		if m.ClassNumber != nil {
			assert.Equal(t, *m.ClassNumber > 0, true, msg+": class number")
		}

		a := s.Attendance(raw)
		assert.Equal(t, isDate(a.Date), true, msg+": attendance date")
		assert.NotEqual(t, a.Marks, nil, msg+": attendance marks")
		for _, mark := range a.Marks {
			assert.Equal(t, parsesAs(string(mark.Status), domain.AttendanceStatuses), true, msg+": attendance status")
		}

		h := s.History(raw)
		assert.Equal(t, isDate(h.Date), true, msg+": history date")
		c := h.Counts
		for _, n := range []int{c.Men, c.Women, c.Youth, c.Children, c.Visitors, c.NewConverts, c.Catechumens} {
			assert.Equal(t, n >= 0, true, msg+": history count")
		}

		tk := s.Task(raw)
		assert.NotEqual(t, tk.Title, "", msg+": task title")
		assert.Equal(t, parsesAs(string(tk.Status), domain.TaskStatuses), true, msg+": task status")
		assert.Equal(t, parsesAs(string(tk.Priority), domain.TaskPriorities), true, msg+": task priority")
		if tk.DueDate != nil {
			assert.Equal(t, isDate(*tk.DueDate), true, msg+": task due date")
		}

		u := s.User(raw)
		assert.Equal(t, parsesAs(string(u.Role), domain.Roles), true, msg+": user role")

		st := s.Settings(raw)
		assert.Equal(t, len(st.Currency), 3, msg+": currency")
		assert.Equal(t, st.MaxClassCount > 0, true, msg+": max class count")
		assert.NotEqual(t, st.Tables.Entries, "", msg+": entries table")
	}
}

func parsesAs[T ~string](v string, domainValues []T) bool {
	for _, d := range domainValues {
		if string(d) == v {
			return true
		}
	}

	return false
}

func isDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

func TestEntry(t *testing.T) {
	s := newTestSanitizer()

	got := s.Entry(map[string]interface{}{
		"id":          " entry-abc ",
		"Date":        "01/14/2024",
		"member_id":   "member-1",
		"Member Name": "  Ama Mensah ",
		"type":        "Tithes",
		"fund":        "General",
		"method":      "Cheque",
		"amount":      "$1,234.567",
		"note":        "   ",
		"sync":        map[string]interface{}{"dirty": false, "lastSyncedAt": "2024-01-10T08:00:00Z"},
		"remoteId":    "42",
	})

	assert.Equal(t, got.ID, "entry-abc", "id")
	assert.Equal(t, got.Date, "2024-01-14", "date")
	assert.Equal(t, got.MemberID, "member-1", "member id")
	assert.Equal(t, got.MemberName, "Ama Mensah", "member name")
	assert.Equal(t, got.Type, domain.TypeTithe, "type")
	assert.Equal(t, got.Method, domain.MethodCheck, "method")
	assert.Equal(t, got.Amount.StringFixed(2), "1234.57", "amount")
	assert.Equal(t, got.Note, (*string)(nil), "blank note is absent")
	assert.Equal(t, *got.RemoteID, "42", "remote id")
	assert.Equal(t, got.Sync.Dirty, false, "dirty")
	assert.Equal(t, got.Sync.LastSyncedAt.Equal(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)), true, "last synced at")
}

func TestEntry_Defaults(t *testing.T) {
	s := newTestSanitizer()

	got := s.Entry(map[string]interface{}{"amount": 25.0})

	assert.Equal(t, got.ID, "entry-1", "generated id")
	assert.Equal(t, got.Date, "2024-01-07", "date defaults to today")
	assert.Equal(t, got.Type, domain.TypeOther, "type default")
	assert.Equal(t, got.Method, domain.MethodOther, "method default")
	assert.Equal(t, got.Amount.StringFixed(2), "25.00", "amount")
	assert.Equal(t, got.Sync.Dirty, true, "records without sync state are dirty")
}

func TestEntry_RoundTripsTypedRecord(t *testing.T) {
	s := newTestSanitizer()

	first := s.Entry(map[string]interface{}{"id": "entry-9", "amount": "10.5", "type": "offering", "date": "2024-03-01"})
	second := s.Entry(first)

	assert.Equal(t, second.ID, first.ID, "id")
	assert.Equal(t, second.Amount.Equal(first.Amount), true, "amount")
	assert.Equal(t, second.Type, first.Type, "type")
	assert.Equal(t, second.Date, first.Date, "date")
	assert.Equal(t, second.Sync, first.Sync, "sync")
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		input    interface{}
		expected string
	}{
		{input: "12", expected: "12.00"},
		{input: "1,234.50", expected: "1234.50"},
		{input: "1.234,50", expected: "1234.50"},
		{input: "12,5", expected: "12.50"},
		{input: "1,234", expected: "1234.00"},
		{input: "GH₵ 40", expected: "40.00"},
		{input: "-20", expected: "0.00"},
		{input: "(20)", expected: "0.00"},
		{input: "abc", expected: "0.00"},
		{input: "", expected: "0.00"},
		{input: 19.999, expected: "20.00"},
		{input: math.Inf(1), expected: "0.00"},
		{input: true, expected: "0.00"},
		{input: nil, expected: "0.00"},
	}

	for _, tc := range testCases {
		got := ParseAmount(tc.input)
		assert.Equal(t, got.StringFixed(2), tc.expected, fmt.Sprintf("amount mismatch for %#v", tc.input))
	}
}

func TestParseDate(t *testing.T) {
	testCases := []struct {
		input    interface{}
		expected string
		ok       bool
	}{
		{input: "2024-01-07", expected: "2024-01-07", ok: true},
		{input: "2024-1-7", expected: "2024-01-07", ok: true},
		{input: "2024/01/07", expected: "2024-01-07", ok: true},
		{input: "1/7/2024", expected: "2024-01-07", ok: true},
		{input: "Jan 7, 2024", expected: "2024-01-07", ok: true},
		{input: "7 January 2024", expected: "2024-01-07", ok: true},
		{input: "2024-01-07T23:30:00-05:00", expected: "2024-01-07", ok: true},
		{input: 1704585600000.0, expected: "2024-01-07", ok: true},
		{input: "2024-02-30", expected: "", ok: false},
		{input: "yesterday", expected: "", ok: false},
		{input: "", expected: "", ok: false},
		{input: false, expected: "", ok: false},
	}

	for _, tc := range testCases {
		got, ok := ParseDate(tc.input)
		assert.Equal(t, ok, tc.ok, fmt.Sprintf("ok mismatch for %#v", tc.input))
		assert.Equal(t, got, tc.expected, fmt.Sprintf("date mismatch for %#v", tc.input))
	}
}

func TestMember(t *testing.T) {
	s := newTestSanitizer()

	testCases := []struct {
		input         map[string]interface{}
		expectedName  string
		expectedClass *int
	}{
		{
			input:         map[string]interface{}{"name": "Kofi", "classNumber": "3"},
			expectedName:  "Kofi",
			expectedClass: intPtr(3),
		},
		{
			// above the configured class count, kept as stored
			input:         map[string]interface{}{"name": "", "class": 40},
			expectedName:  DefaultMemberName,
			expectedClass: intPtr(40),
		},
		{
			input:         map[string]interface{}{"name": "Ama", "classNumber": -2},
			expectedName:  "Ama",
			expectedClass: nil,
		},
		{
			input:         map[string]interface{}{"name": "Esi", "classNumber": 0},
			expectedName:  "Esi",
			expectedClass: nil,
		},
	}

	for idx, tc := range testCases {
		got := s.Member(tc.input)
		assert.Equal(t, got.Name, tc.expectedName, fmt.Sprintf("name mismatch at %d", idx))
		assert.DeepEqual(t, got.ClassNumber, tc.expectedClass, fmt.Sprintf("class mismatch at %d", idx))
	}
}

func intPtr(n int) *int {
	return &n
}

func TestAttendance(t *testing.T) {
	s := newTestSanitizer()

	t.Run("list of marks", func(t *testing.T) {
		got := s.Attendance(map[string]interface{}{
			"date": "2024-01-07",
			"marks": []interface{}{
				map[string]interface{}{"memberId": "m1", "status": "P"},
				map[string]interface{}{"memberId": "m2", "status": "out of town"},
				map[string]interface{}{"memberId": "m1", "status": "sick"},
				map[string]interface{}{"memberId": "", "status": "present"},
				"garbage",
			},
		})

		assert.Equal(t, got.ID, domain.AttendanceID("2024-01-07"), "id derived from date")
		assert.DeepEqual(t, got.Marks, []domain.AttendanceMark{
			{MemberID: "m2", Status: domain.AttendanceTravel},
			{MemberID: "m1", Status: domain.AttendanceSick},
		}, "marks")
	})

	t.Run("status object", func(t *testing.T) {
		got := s.Attendance(map[string]interface{}{
			"date":     "2024-01-14",
			"statuses": map[string]interface{}{"member-B": "catechumen", "member-A": "present"},
		})

		assert.DeepEqual(t, got.Marks, []domain.AttendanceMark{
			{MemberID: "member-A", Status: domain.AttendancePresent},
			{MemberID: "member-B", Status: domain.AttendanceCatechumen},
		}, "marks")
	})
}

func TestHistory(t *testing.T) {
	s := newTestSanitizer()

	nested := s.History(map[string]interface{}{
		"date":     "2024-01-07",
		"preacher": "Rev. Asante",
		"counts":   map[string]interface{}{"men": 12.0, "women": "15", "children": -1, "visitors": "a few"},
	})
	assert.Equal(t, nested.ID, domain.HistoryID("2024-01-07"), "id")
	assert.Equal(t, nested.Preacher, "Rev. Asante", "preacher")
	assert.Equal(t, nested.Counts, domain.HeadCounts{Men: 12, Women: 15}, "nested counts")
	assert.Equal(t, nested.Counts.Total(), 27, "total")

	flat := s.History(map[string]interface{}{"date": "2024-01-14", "men": "4", "new_converts": 2})
	assert.Equal(t, flat.Counts, domain.HeadCounts{Men: 4, NewConverts: 2}, "flat counts")
}

func TestTask(t *testing.T) {
	s := newTestSanitizer()
	now := time.Date(2024, time.January, 7, 15, 0, 0, 0, time.UTC)

	got := s.Task(map[string]interface{}{
		"title":      "  Order hymnals ",
		"status":     "in-progress",
		"priority":   "URGENT",
		"dueDate":    "2024-01-20",
		"assignedTo": "",
	})

	assert.Equal(t, got.Title, "Order hymnals", "title")
	assert.Equal(t, got.Status, domain.TaskInProgress, "status")
	assert.Equal(t, got.Priority, domain.PriorityHigh, "priority")
	assert.Equal(t, *got.DueDate, "2024-01-20", "due date")
	assert.Equal(t, got.AssignedTo, (*string)(nil), "assignee")
	assert.Equal(t, got.CreatedAt, now, "created at defaults to now")
	assert.Equal(t, got.UpdatedAt, now, "updated at defaults to created at")
	assert.Equal(t, got.Sync.Dirty, true, "dirty")
}

func TestUser(t *testing.T) {
	s := newTestSanitizer()

	leader := s.User(map[string]interface{}{"username": "esi", "password": " p@ss ", "role": "Class Leader", "classLed": 4})
	assert.Equal(t, leader.Password, " p@ss ", "password kept verbatim")
	assert.Equal(t, leader.Role, domain.RoleClassLeader, "role")
	assert.Equal(t, *leader.ClassLed, 4, "class led")

	treasurer := s.User(map[string]interface{}{"username": "kwame", "role": "treasurer", "classLed": 4})
	assert.Equal(t, treasurer.Role, domain.RoleFinance, "role")
	assert.Equal(t, treasurer.ClassLed, (*int)(nil), "class led only for class leaders")
}

func TestSettings(t *testing.T) {
	s := newTestSanitizer()

	got := s.Settings(map[string]interface{}{
		"currency":         "cad",
		"maxClassCount":    "20",
		"enforceDirectory": "yes",
		"tables":           map[string]interface{}{"entries": "finance.\"Entries\"", "tasks": ""},
	})

	assert.Equal(t, got.Currency, "CAD", "currency")
	assert.Equal(t, got.MaxClassCount, 20, "max class count")
	assert.Equal(t, got.EnforceDirectory, true, "enforce directory")
	assert.Equal(t, got.Tables.Entries, "finance.\"Entries\"", "entries table")
	assert.Equal(t, got.Tables.Tasks, "tasks", "tasks table default")

	assert.Equal(t, s.Settings(nil), domain.DefaultSettings(), "defaults")
}
