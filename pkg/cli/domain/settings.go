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

package domain

// Collection keys of the local store
const (
	CollectionEntries    = "entries"
	CollectionMembers    = "members"
	CollectionAttendance = "attendance"
	CollectionHistory    = "history"
	CollectionTasks      = "tasks"
	CollectionUsers      = "users"
	CollectionSettings   = "settings"
)

// SyncedCollections are the collections reconciled with the remote store, in sync order
var SyncedCollections = []string{
	CollectionMembers,
	CollectionEntries,
	CollectionAttendance,
	CollectionHistory,
	CollectionTasks,
}

// TableNames maps synced collections to remote table names. A name may be
// schema-qualified and use quoted identifiers.
type TableNames struct {
	Entries    string `json:"entries" validate:"required"`
	Members    string `json:"members" validate:"required"`
	Attendance string `json:"attendance" validate:"required"`
	History    string `json:"history" validate:"required"`
	Tasks      string `json:"tasks" validate:"required"`
}

// For returns the table name configured for the collection
func (t TableNames) For(collection string) string {
	switch collection {
	case CollectionEntries:
		return t.Entries
	case CollectionMembers:
		return t.Members
	case CollectionAttendance:
		return t.Attendance
	case CollectionHistory:
		return t.History
	case CollectionTasks:
		return t.Tasks
	}

	return ""
}

// Settings is the process-wide application configuration
type Settings struct {
	Currency         string     `json:"currency" validate:"len=3,alpha"`
	MaxClassCount    int        `json:"maxClassCount" validate:"min=1,max=1000"`
	EnforceDirectory bool       `json:"enforceDirectory"`
	Tables           TableNames `json:"tables"`
}

// Defaults for settings
const (
	DefaultCurrency      = "USD"
	DefaultMaxClassCount = 12
)

// DefaultTableNames returns the default remote table names
func DefaultTableNames() TableNames {
	return TableNames{
		Entries:    "entries",
		Members:    "members",
		Attendance: "attendance",
		History:    "weekly_history",
		Tasks:      "tasks",
	}
}

// DefaultSettings returns the settings used when none are stored
func DefaultSettings() Settings {
	return Settings{
		Currency:      DefaultCurrency,
		MaxClassCount: DefaultMaxClassCount,
		Tables:        DefaultTableNames(),
	}
}
