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

// Package permissions decides which parts of the program a user can see
package permissions

import (
	"github.com/flockbook/flockbook/pkg/cli/domain"
)

// Tab is a group of commands shown to users with the right role
type Tab string

const (
	TabEntries    Tab = "entries"
	TabMembers    Tab = "members"
	TabAttendance Tab = "attendance"
	TabHistory    Tab = "history"
	TabTasks      Tab = "tasks"
	TabTransfer   Tab = "transfer"
	TabSync       Tab = "sync"
	TabUsers      Tab = "users"
	TabSettings   Tab = "settings"
)

var tabsByRole = map[domain.Role][]Tab{
	domain.RoleAdmin:        {TabEntries, TabMembers, TabAttendance, TabHistory, TabTasks, TabTransfer, TabSync, TabUsers, TabSettings},
	domain.RoleFinance:      {TabEntries, TabMembers, TabTasks, TabTransfer, TabSync},
	domain.RoleClassLeader:  {TabMembers, TabAttendance, TabTasks, TabSync},
	domain.RoleStatistician: {TabAttendance, TabHistory, TabTasks, TabTransfer, TabSync},
}

// TabsFor returns the tabs visible to the role
func TabsFor(role domain.Role) []Tab {
	return tabsByRole[domain.ParseRole(string(role))]
}

// CanView checks if the given user can view the tab. A nil user is the
// single operator of an installation nobody signed in to, who sees everything.
func CanView(user *domain.User, tab Tab) bool {
	if user == nil {
		return true
	}

	for _, t := range TabsFor(user.Role) {
		if t == tab {
			return true
		}
	}

	return false
}

// RestrictedToClass reports whether the user sees only the members of one class
func RestrictedToClass(user *domain.User) bool {
	return user != nil && user.Role == domain.RoleClassLeader && user.ClassLed != nil
}

// VisibleMembers returns the members the user may see. A class leader with a
// class sees only the members of that class.
func VisibleMembers(user *domain.User, members []domain.Member) []domain.Member {
	if !RestrictedToClass(user) {
		return members
	}

	ret := []domain.Member{}
	for _, m := range members {
		if m.ClassNumber != nil && *m.ClassNumber == *user.ClassLed {
			ret = append(ret, m)
		}
	}

	return ret
}

var collectionTabs = map[string]Tab{
	domain.CollectionEntries:    TabEntries,
	domain.CollectionMembers:    TabMembers,
	domain.CollectionAttendance: TabAttendance,
	domain.CollectionHistory:    TabHistory,
	domain.CollectionTasks:      TabTasks,
	domain.CollectionUsers:      TabUsers,
	domain.CollectionSettings:   TabSettings,
}

// CollectionTab returns the tab through which the collection is managed
func CollectionTab(collection string) Tab {
	return collectionTabs[collection]
}
