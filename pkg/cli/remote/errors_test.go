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

package remote

import (
	"fmt"
	"strings"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
)

func TestEnrichMessage(t *testing.T) {
	target := ResolveTableTarget("public.entries")
	guidance := `Ensure the table "public.entries" exists or update the table name in settings.`

	testCases := []struct {
		input    string
		expected string
	}{
		{
			input:    `relation "public.entries" does not exist`,
			expected: `relation "public.entries" does not exist. ` + guidance,
		},
		{
			input:    `relation "public"."entries" does not exist`,
			expected: `relation "public"."entries" does not exist. ` + guidance,
		},
		{
			input:    `relation public.entries does not exist`,
			expected: `relation public.entries does not exist. ` + guidance,
		},
		{
			input:    `Could not find the table 'public'.'entries' in the schema cache`,
			expected: `Could not find the table 'public'.'entries' in the schema cache. ` + guidance,
		},
		{
			input:    `relation 'entries' does not exist.`,
			expected: `relation 'entries' does not exist. ` + guidance,
		},
		{
			input:    `Could not find the table 'public.entries' in the schema cache`,
			expected: `Could not find the table 'public.entries' in the schema cache. ` + guidance,
		},
		{
			input:    `Could not find the table "entries" in the schema cache!  `,
			expected: `Could not find the table "entries" in the schema cache! ` + guidance,
		},
		{
			input:    "Table not found",
			expected: "Table not found. " + guidance,
		},
		{
			input:    "JWT expired",
			expected: "JWT expired",
		},
		{
			input:    "duplicate key value violates unique constraint",
			expected: "duplicate key value violates unique constraint",
		},
		{
			input:    "",
			expected: "",
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", idx), func(t *testing.T) {
			assert.Equal(t, EnrichMessage(tc.input, target), tc.expected, "result mismatch")
		})
	}
}

func TestEnrichMessage_Idempotent(t *testing.T) {
	target := ResolveTableTarget(`"custom schema"."Entries Table"`)

	once := EnrichMessage("Could not find the table 'custom schema.Entries Table' in the schema cache", target)
	twice := EnrichMessage(once, target)

	assert.Equal(t, twice, once, "guidance must not be appended twice")
	assert.Equal(t, strings.Count(twice, "Ensure the table"), 1, "guidance count mismatch")
	assert.Equal(t, strings.Contains(once, "cache. Ensure"), true, "sentence boundary mismatch")
}

func TestError(t *testing.T) {
	err := &Error{StatusCode: 404, Code: "42P01", Message: "missing"}

	assert.Equal(t, err.Error(), "remote responded 404: missing", "message mismatch")
	assert.Equal(t, err.IsNotFound(), true, "IsNotFound mismatch")
	assert.Equal(t, err.IsConflict(), false, "IsConflict mismatch")

	netErr := &Error{Message: "request failed"}
	assert.Equal(t, netErr.Error(), "request failed", "message mismatch")
}

func TestConfigError(t *testing.T) {
	assert.Equal(t, (&ConfigError{Setting: "remote.url"}).Error(), "remote sync is not configured: remote.url is not set", "message mismatch")
	assert.Equal(t, (&ConfigError{Setting: "remote.url", Reason: "must be an http or https URL"}).Error(), "remote sync is misconfigured: remote.url must be an http or https URL", "message mismatch")
}
