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
	"fmt"
	"testing"

	"github.com/flockbook/flockbook/pkg/assert"
)

func TestReportConflict(t *testing.T) {
	testCases := []struct {
		local    string
		remote   string
		expected string
	}{
		{
			local:    "\n",
			remote:   "\n",
			expected: "\n",
		},
		{
			local:    "",
			remote:   "",
			expected: "",
		},
		{
			local:    `{"name": "Ama"}`,
			remote:   `{"name": "Ama"}`,
			expected: `{"name": "Ama"}`,
		},
		{
			local:  `"amount": "10"`,
			remote: `"amount": "12"`,
			expected: `<<<<<<< Local
"amount": "10"
=======
"amount": "12"
>>>>>>> Remote
`,
		},
		{
			local:  "  \"fund\": \"building\"\n",
			remote: "\n",
			expected: `<<<<<<< Local
  "fund": "building"
=======

>>>>>>> Remote
`,
		},
		{
			local:  "{\n  \"date\": \"2024-01-07\",\n  \"amount\": \"10\",\n  \"type\": \"tithe\"\n}\n",
			remote: "{\n  \"date\": \"2024-01-07\",\n  \"amount\": \"15\",\n  \"type\": \"tithe\"\n}\n",
			expected: `{
  "date": "2024-01-07",
<<<<<<< Local
  "amount": "10",
=======
  "amount": "15",
>>>>>>> Remote
  "type": "tithe"
}
`,
		},
		{
			local:  "{\n  \"name\": \"Ama\",\n  \"classNumber\": 2\n}\n",
			remote: "{\n  \"name\": \"Ama Mensah\",\n  \"classNumber\": 3\n}\n",
			expected: `{
<<<<<<< Local
  "name": "Ama",
=======
  "name": "Ama Mensah",
>>>>>>> Remote
<<<<<<< Local
  "classNumber": 2
=======
  "classNumber": 3
>>>>>>> Remote
}
`,
		},
	}

	for idx, tc := range testCases {
		result := reportConflict(tc.local, tc.remote)

		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.DeepEqual(t, result, tc.expected, "result mismatch")
		})
	}
}
