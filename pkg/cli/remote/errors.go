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
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ConfigError is returned when a required remote setting is missing or
// invalid. No request is made in that case.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("remote sync is misconfigured: %s %s", e.Setting, e.Reason)
	}

	return fmt.Sprintf("remote sync is not configured: %s is not set", e.Setting)
}

// Error is a failed request to the remote store. StatusCode is 0 when no
// response was received.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}

	return fmt.Sprintf("remote responded %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the remote reported a missing table or row
func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "42P01" || e.Code == "PGRST205"
}

// IsConflict returns true if the error is a 409 Conflict error
func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// tableIdent matches a table name that may be schema-qualified, with each
// part bare or in single or double quotes
const tableIdent = `(?:"[^"]+"|'[^']+'|[^"'\s.]+)(?:\.(?:"[^"]+"|'[^']+'|[^"'\s.]+))*`

var missingTablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)relation\s+` + tableIdent + `\s+does not exist`),
	regexp.MustCompile(`(?i)could not find the table\s+` + tableIdent + `\s+in the schema cache`),
	regexp.MustCompile(`(?i)\btable\b.*\bnot found\b`),
}

const guidancePrefix = "Ensure the table"

func isMissingTable(msg string) bool {
	for _, p := range missingTablePatterns {
		if p.MatchString(msg) {
			return true
		}
	}

	return false
}

// EnrichMessage appends guidance naming the configured table to a
// table-not-found message. Other messages, and messages that already carry
// the guidance, are returned unchanged.
func EnrichMessage(msg string, target TableTarget) string {
	if !isMissingTable(msg) || strings.Contains(msg, guidancePrefix) {
		return msg
	}

	name := target.DisplayName
	if name == "" {
		name = target.Label
	}
	guidance := fmt.Sprintf(`%s "%s" exists or update the table name in settings.`, guidancePrefix, name)

	base := strings.TrimRightFunc(msg, unicode.IsSpace)
	if r, _ := utf8.DecodeLastRuneInString(base); !strings.ContainsRune(".!?", r) {
		base += "."
	}

	return base + " " + guidance
}
