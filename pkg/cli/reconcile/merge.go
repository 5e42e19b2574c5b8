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

package reconcile

import (
	"encoding/json"

	"github.com/flockbook/flockbook/pkg/cli/domain"
)

// MergeResult is the outcome of merging a remote snapshot into a local
// collection
type MergeResult[T any] struct {
	Records   []T
	Pulled    int
	Removed   int
	Conflicts []Conflict
}

func isPending(m *domain.SyncMeta) bool {
	return m.Sync.Dirty || m.Sync.Deleted
}

func wasSynced(m *domain.SyncMeta) bool {
	return m.RemoteID != nil || m.Sync.LastSyncedAt != nil
}

// removable reports whether a local record missing from a snapshot of the
// target was deleted there. Only records last synced against that same
// target qualify, so pointing a collection at another table never drops
// local data.
func removable(m *domain.SyncMeta, target string) bool {
	return !isPending(m) && wasSynced(m) && m.Sync.Target == target
}

// Merge merges a remote snapshot of the target table into the local
// collection. Local records are matched to remote rows by remote id, then by
// local id.
//
//   - A remote row with no local record is appended.
//   - A clean local record is replaced by its remote row, keeping its local id.
//   - A dirty or tombstoned local record is kept as is. A content difference
//     with its remote row is reported as a conflict.
//   - A local record missing remotely is removed if it is clean and was last
//     synced against the target, and kept otherwise.
//
// The result never holds two records with the same id. Remote records must
// carry the remote id as both their id and remote id.
func Merge[T any, PT interface {
	*T
	domain.Syncable
}](local, remoteRecords []T, target string) MergeResult[T] {
	remoteIdx := make(map[string]int, len(remoteRecords))
	for i := range remoteRecords {
		remoteIdx[PT(&remoteRecords[i]).Meta().ID] = i
	}

	matched := make([]bool, len(remoteRecords))
	used := make(map[string]bool, len(local)+len(remoteRecords))

	var ret MergeResult[T]
	ret.Records = make([]T, 0, len(local)+len(remoteRecords))

	findRemote := func(m *domain.SyncMeta) (int, bool) {
		if m.RemoteID != nil {
			if i, ok := remoteIdx[*m.RemoteID]; ok && !matched[i] {
				return i, true
			}
		}
		if i, ok := remoteIdx[m.ID]; ok && !matched[i] {
			return i, true
		}

		return 0, false
	}

	for _, rec := range local {
		meta := PT(&rec).Meta()
		if used[meta.ID] {
			continue
		}

		ri, ok := findRemote(meta)
		if !ok {
			if removable(meta, target) {
				ret.Removed++
			} else {
				used[meta.ID] = true
				ret.Records = append(ret.Records, rec)
			}
			continue
		}
		matched[ri] = true

		remoteRec := remoteRecords[ri]
		localContent := content[T, PT](rec)
		remoteContent := content[T, PT](remoteRec)

		if isPending(meta) {
			if localContent != remoteContent {
				ret.Conflicts = append(ret.Conflicts, Conflict{
					ID:     meta.ID,
					Report: reportConflict(localContent, remoteContent),
				})
			}
			if meta.RemoteID == nil {
				remoteID := *PT(&remoteRec).Meta().RemoteID
				meta.RemoteID = &remoteID
			}

			used[meta.ID] = true
			ret.Records = append(ret.Records, rec)
			continue
		}

		if localContent != remoteContent {
			ret.Pulled++
		}

		rm := PT(&remoteRec).Meta()
		rm.ID = meta.ID

		used[rm.ID] = true
		ret.Records = append(ret.Records, remoteRec)
	}

	for i, rec := range remoteRecords {
		if matched[i] {
			continue
		}

		meta := PT(&rec).Meta()
		if used[meta.ID] {
			// the id is held by a local record linked to another remote row
			meta.ID = meta.ID + "-remote"
			if used[meta.ID] {
				continue
			}
		}

		used[meta.ID] = true
		ret.Pulled++
		ret.Records = append(ret.Records, rec)
	}

	return ret
}

func fingerprint(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(b)
}

// Rebase applies the result of a pass that started from base onto current,
// the collection as it is now. Records changed or added locally while the
// pass ran are kept as they are now, and everything else is taken from the
// result.
func Rebase[T any, PT interface {
	*T
	domain.Syncable
}](base, result, current []T) []T {
	baseByID := make(map[string]string, len(base))
	for i := range base {
		baseByID[PT(&base[i]).Meta().ID] = fingerprint(base[i])
	}

	resultByID := make(map[string]int, len(result))
	for i := range result {
		resultByID[PT(&result[i]).Meta().ID] = i
	}

	seen := make(map[string]bool, len(current))
	ret := make([]T, 0, len(result)+len(current))

	for _, rec := range current {
		meta := PT(&rec).Meta()
		seen[meta.ID] = true

		baseFP, inBase := baseByID[meta.ID]
		ri, inResult := resultByID[meta.ID]

		if inBase && baseFP == fingerprint(rec) {
			if inResult {
				ret = append(ret, result[ri])
			}
			continue
		}

		// changed during the pass
		if inResult && meta.RemoteID == nil {
			if rid := PT(&result[ri]).Meta().RemoteID; rid != nil {
				id := *rid
				meta.RemoteID = &id
			}
		}
		ret = append(ret, rec)
	}

	for i := range result {
		id := PT(&result[i]).Meta().ID
		if seen[id] {
			continue
		}
		if _, inBase := baseByID[id]; inBase {
			continue
		}

		ret = append(ret, result[i])
	}

	return ret
}
