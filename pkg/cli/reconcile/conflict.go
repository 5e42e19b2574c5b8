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
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/utils/diff"
)

const (
	conflictLocalMarker  = "<<<<<<< Local\n"
	conflictSepMarker    = "=======\n"
	conflictRemoteMarker = ">>>>>>> Remote\n"
)

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}

// writeConflict writes one conflict block per pair of differing lines
func writeConflict(b *strings.Builder, local, remote string) {
	localLines := splitLines(local)
	remoteLines := splitLines(remote)

	n := len(localLines)
	if len(remoteLines) > n {
		n = len(remoteLines)
	}

	for i := 0; i < n; i++ {
		b.WriteString(conflictLocalMarker)
		if i < len(localLines) {
			b.WriteString(withNewline(localLines[i]))
		}
		b.WriteString(conflictSepMarker)
		if i < len(remoteLines) {
			b.WriteString(withNewline(remoteLines[i]))
		}
		b.WriteString(conflictRemoteMarker)
	}
}

// reportConflict returns the local text with the lines that differ from the
// remote text marked as conflicts
func reportConflict(local, remote string) string {
	var b strings.Builder
	for _, h := range diff.Lines(local, remote) {
		if !h.Changed {
			b.WriteString(h.Same)
			continue
		}

		writeConflict(&b, h.Local, h.Remote)
	}

	return b.String()
}
