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

package permissions

import (
	"fmt"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
	"github.com/flockbook/flockbook/pkg/cli/domain"
)

func TestCanView(t *testing.T) {
	admin := &domain.User{Username: "admin", Role: domain.RoleAdmin}
	finance := &domain.User{Username: "esi", Role: domain.RoleFinance}
	leader := &domain.User{Username: "kojo", Role: domain.RoleClassLeader}
	stats := &domain.User{Username: "abena", Role: domain.RoleStatistician}

	testCases := []struct {
		user     *domain.User
		tab      Tab
		expected bool
	}{
		{user: nil, tab: TabSettings, expected: true},
		{user: admin, tab: TabUsers, expected: true},
		{user: admin, tab: TabEntries, expected: true},
		{user: finance, tab: TabEntries, expected: true},
		{user: finance, tab: TabAttendance, expected: false},
		{user: finance, tab: TabUsers, expected: false},
		{user: leader, tab: TabAttendance, expected: true},
		{user: leader, tab: TabEntries, expected: false},
		{user: leader, tab: TabTransfer, expected: false},
		{user: stats, tab: TabHistory, expected: true},
		{user: stats, tab: TabSettings, expected: false},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			assert.Equal(t, CanView(tc.user, tc.tab), tc.expected, "result mismatch")
		})
	}
}

func TestVisibleMembers(t *testing.T) {
	one, two := 1, 2
	members := []domain.Member{
		{SyncMeta: domain.SyncMeta{ID: "m1"}, Name: "Ama", ClassNumber: &one},
		{SyncMeta: domain.SyncMeta{ID: "m2"}, Name: "Kofi", ClassNumber: &two},
		{SyncMeta: domain.SyncMeta{ID: "m3"}, Name: "Yaw"},
	}

	t.Run("class leader", func(t *testing.T) {
		got := VisibleMembers(&domain.User{Role: domain.RoleClassLeader, ClassLed: &two}, members)
		assert.Equal(t, len(got), 1, "count mismatch")
		assert.Equal(t, got[0].ID, "m2", "member mismatch")
	})

	t.Run("class leader without class", func(t *testing.T) {
		got := VisibleMembers(&domain.User{Role: domain.RoleClassLeader}, members)
		assert.Equal(t, len(got), 3, "count mismatch")
	})

	t.Run("admin", func(t *testing.T) {
		got := VisibleMembers(&domain.User{Role: domain.RoleAdmin, ClassLed: &one}, members)
		assert.Equal(t, len(got), 3, "count mismatch")
	})
}

func TestCollectionTab(t *testing.T) {
	assert.Equal(t, CollectionTab(domain.CollectionHistory), TabHistory, "history tab mismatch")
	assert.Equal(t, CollectionTab(domain.CollectionEntries), TabEntries, "entries tab mismatch")
	assert.Equal(t, CollectionTab("notes"), Tab(""), "unknown collections have no tab")
}
