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

// Package domain defines the records kept by Flockbook and their canonical enums
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical layout of a calendar day
const DateLayout = "2006-01-02"

// UnknownMemberName is displayed for references to members that do not exist
const UnknownMemberName = "Unknown member"

// SyncState tracks the reconciliation status of a record. A record with
// Deleted set is a tombstone waiting for its remote delete. Target is the
// display name of the table the record was last synced against.
type SyncState struct {
	Dirty        bool       `json:"dirty"`
	Deleted      bool       `json:"deleted,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	Target       string     `json:"target,omitempty"`
}

// SyncMeta is the identity and sync state shared by every synchronized record
type SyncMeta struct {
	ID       string    `json:"id"`
	RemoteID *string   `json:"remoteId,omitempty"`
	Sync     SyncState `json:"sync"`
}

// Meta returns the sync metadata of the record
func (m *SyncMeta) Meta() *SyncMeta {
	return m
}

// RemoteKey returns the identifier under which the record is stored remotely
func (m SyncMeta) RemoteKey() string {
	if m.RemoteID != nil && *m.RemoteID != "" {
		return *m.RemoteID
	}

	return m.ID
}

// Syncable is implemented by pointers to records carrying SyncMeta
type Syncable interface {
	Meta() *SyncMeta
}

// ContributionEntry is a single financial contribution
type ContributionEntry struct {
	SyncMeta
	Date       string           `json:"date"`
	MemberID   string           `json:"memberId"`
	MemberName string           `json:"memberName"`
	Type       ContributionType `json:"type"`
	Fund       string           `json:"fund"`
	Method     PaymentMethod    `json:"method"`
	Amount     decimal.Decimal  `json:"amount"`
	Note       *string          `json:"note,omitempty"`
}

// Member is an entry in the member directory
type Member struct {
	SyncMeta
	Name        string `json:"name"`
	ClassNumber *int   `json:"classNumber,omitempty"`
}

// AttendanceMark is the status of one member on a service date
type AttendanceMark struct {
	MemberID string           `json:"memberId"`
	Status   AttendanceStatus `json:"status"`
}

// AttendanceRecord holds the attendance of a single service date
type AttendanceRecord struct {
	SyncMeta
	Date  string           `json:"date"`
	Marks []AttendanceMark `json:"marks"`
}

// AttendanceID returns the identifier of the attendance record of the given date.
// Records are keyed by date so that every device converges on one record per date.
func AttendanceID(date string) string {
	return "attendance-" + date
}

// StatusOf returns the status of the member, if marked
func (r AttendanceRecord) StatusOf(memberID string) (AttendanceStatus, bool) {
	for _, m := range r.Marks {
		if m.MemberID == memberID {
			return m.Status, true
		}
	}

	return "", false
}

// WithMark returns a copy of the record with the member's status set,
// replacing an existing mark for the same member.
func (r AttendanceRecord) WithMark(memberID string, status AttendanceStatus) AttendanceRecord {
	marks := make([]AttendanceMark, 0, len(r.Marks)+1)
	for _, m := range r.Marks {
		if m.MemberID != memberID {
			marks = append(marks, m)
		}
	}
	marks = append(marks, AttendanceMark{MemberID: memberID, Status: status})

	r.Marks = marks
	return r
}

// Tally counts the marks per status
func (r AttendanceRecord) Tally() map[AttendanceStatus]int {
	ret := make(map[AttendanceStatus]int, len(AttendanceStatuses))
	for _, m := range r.Marks {
		ret[m.Status]++
	}

	return ret
}

// HeadCounts are the attendance figures of a service
type HeadCounts struct {
	Men         int `json:"men"`
	Women       int `json:"women"`
	Youth       int `json:"youth"`
	Children    int `json:"children"`
	Visitors    int `json:"visitors"`
	NewConverts int `json:"newConverts"`
	Catechumens int `json:"catechumens"`
}

// Total returns the number of attendees. New converts and catechumens are
// already counted in the other groups.
func (c HeadCounts) Total() int {
	return c.Men + c.Women + c.Youth + c.Children + c.Visitors
}

// WeeklyHistoryRecord is the narrative and head count of one service date
type WeeklyHistoryRecord struct {
	SyncMeta
	Date          string     `json:"date"`
	ServiceType   string     `json:"serviceType"`
	Theme         string     `json:"theme"`
	Preacher      string     `json:"preacher"`
	Scripture     string     `json:"scripture"`
	Highlights    *string    `json:"highlights,omitempty"`
	Announcements *string    `json:"announcements,omitempty"`
	Counts        HeadCounts `json:"counts"`
}

// HistoryID returns the identifier of the history record of the given date
func HistoryID(date string) string {
	return "history-" + date
}

// Task is a unit of work assigned to someone in the organization
type Task struct {
	SyncMeta
	Title      string       `json:"title"`
	Notes      *string      `json:"notes,omitempty"`
	AssignedTo *string      `json:"assignedTo,omitempty"`
	DueDate    *string      `json:"dueDate,omitempty"`
	Status     TaskStatus   `json:"status"`
	Priority   TaskPriority `json:"priority"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Overdue reports whether the task is unfinished past its due date.
// today is a calendar day in DateLayout.
func (t Task) Overdue(today string) bool {
	if t.Status == TaskCompleted || t.DueDate == nil {
		return false
	}

	return *t.DueDate < today
}

// User is a local account. Passwords are compared in plain text.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	ClassLed *int   `json:"classLed,omitempty"`
}

// Directory resolves member identifiers to members
type Directory map[string]Member

// NewDirectory indexes the live members by identifier
func NewDirectory(members []Member) Directory {
	ret := make(Directory, len(members))
	for _, m := range members {
		if m.Sync.Deleted {
			continue
		}
		ret[m.ID] = m
	}

	return ret
}

// Has reports whether the member exists
func (d Directory) Has(id string) bool {
	_, ok := d[id]
	return ok
}

// NameOf returns the member's name, or UnknownMemberName for dangling references
func (d Directory) NameOf(id string) string {
	if m, ok := d[id]; ok {
		return m.Name
	}

	return UnknownMemberName
}
