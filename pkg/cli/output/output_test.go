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

package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/flockbook/flockbook/pkg/cli/syncer"
	"github.com/shopspring/decimal"
)

func TestMoney(t *testing.T) {
	testCases := []struct {
		amount   string
		code     string
		expected string
	}{
		{amount: "1234.5", code: "USD", expected: "USD 1,234.50"},
		{amount: "0", code: "USD", expected: "USD 0.00"},
		{amount: "12.345", code: "EUR", expected: "EUR 12.35"},
		{amount: "1500", code: "JPY", expected: "JPY 1,500"},
		{amount: "5", code: "", expected: "5.00"},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			got := Money(decimal.RequireFromString(tc.amount), tc.code)
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestTasks_Overdue(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	due := "2025-01-05"
	tasks := []domain.Task{
		{Title: "Print bulletins", Status: domain.TaskPending, Priority: domain.PriorityHigh, DueDate: &due},
		{Title: "Tune piano", Status: domain.TaskCompleted, Priority: domain.PriorityLow, DueDate: &due},
	}

	var buf bytes.Buffer
	Tasks(&buf, tasks, "2025-01-10")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 3, "line count mismatch")
	assert.Equal(t, strings.Contains(lines[1], "(overdue)"), true, "pending task past due must be overdue")
	assert.Equal(t, strings.Contains(lines[2], "(overdue)"), false, "completed task must not be overdue")
}

func TestMembers(t *testing.T) {
	class := 3
	members := []domain.Member{
		{SyncMeta: domain.SyncMeta{ID: "member-1"}, Name: "Ama", ClassNumber: &class},
		{SyncMeta: domain.SyncMeta{ID: "member-2", Sync: domain.SyncState{Dirty: true}}, Name: "Kofi"},
	}

	var buf bytes.Buffer
	Members(&buf, members)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 3, "line count mismatch")
	assert.Equal(t, strings.Fields(lines[1])[1], "3", "class mismatch")
	assert.Equal(t, strings.Fields(lines[2])[2], "member-2*", "dirty marker mismatch")
}

func TestSyncStatus(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	synced := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	statuses := []syncer.Status{
		{Collection: "members", Table: "members", Total: 12, LastSyncedAt: &synced},
		{Collection: "history", Table: "weekly_history", Total: 3, Dirty: 1, LastError: "relation does not exist"},
	}

	var buf bytes.Buffer
	SyncStatus(&buf, statuses)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 4, "line count mismatch")
	assert.DeepEqual(t, strings.Fields(lines[2]), []string{"history", "weekly_history", "3", "1", "never"}, "history row mismatch")
	assert.Equal(t, lines[3], "history: relation does not exist", "error line mismatch")
}
