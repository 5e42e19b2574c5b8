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
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/domain"
)

// collection applies the scalar sanitizer across an array. Input that is not
// an array is an empty collection. Records sharing an identifier collapse into
// the last one, kept at the position of the first.
func collection[T any, PT interface {
	*T
	domain.Syncable
}](raw interface{}, fn func(interface{}) T) []T {
	items := toList(raw)

	ret := make([]T, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		v := fn(item)
		id := PT(&v).Meta().ID

		if i, ok := index[id]; ok {
			ret[i] = v
			continue
		}

		index[id] = len(ret)
		ret = append(ret, v)
	}

	return ret
}

// Entries sanitizes a collection of contribution entries
func (s Sanitizer) Entries(raw interface{}) []domain.ContributionEntry {
	return collection(raw, s.Entry)
}

// Members sanitizes a collection of members
func (s Sanitizer) Members(raw interface{}) []domain.Member {
	return collection(raw, s.Member)
}

// AttendanceRecords sanitizes a collection of attendance records
func (s Sanitizer) AttendanceRecords(raw interface{}) []domain.AttendanceRecord {
	return collection(raw, s.Attendance)
}

// HistoryRecords sanitizes a collection of weekly history records
func (s Sanitizer) HistoryRecords(raw interface{}) []domain.WeeklyHistoryRecord {
	return collection(raw, s.History)
}

// Tasks sanitizes a collection of tasks
func (s Sanitizer) Tasks(raw interface{}) []domain.Task {
	return collection(raw, s.Task)
}

// Users sanitizes a collection of users. Users without a username are
// dropped and usernames are unique regardless of case, the last one winning.
func (s Sanitizer) Users(raw interface{}) []domain.User {
	items := toList(raw)

	ret := make([]domain.User, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		u := s.User(item)
		if u.Username == "" {
			continue
		}

		key := strings.ToLower(u.Username)
		if i, ok := index[key]; ok {
			ret[i] = u
			continue
		}

		index[key] = len(ret)
		ret = append(ret, u)
	}

	return ret
}
