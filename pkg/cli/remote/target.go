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
	"net/url"
	"strings"
)

// TableTarget is a resolved remote table name
type TableTarget struct {
	// Path is the escaped table segment used in request paths
	Path string
	// Schema is the schema qualifier, if any
	Schema *string
	Table  string
	// Label is the name as configured, for error context
	Label string
	// DisplayName is the dotted schema.table form
	DisplayName string
}

// ResolveTableTarget parses a possibly schema-qualified and possibly quoted
// table identifier such as `entries`, `public.entries` or
// `"custom schema"."Entries Table"`. The split happens at the last dot
// outside of quotes.
func ResolveTableTarget(name string) TableTarget {
	label := strings.TrimSpace(name)

	split := -1
	inQuotes := false
	for i := 0; i < len(label); i++ {
		switch label[i] {
		case '"':
			inQuotes = !inQuotes
		case '.':
			if !inQuotes {
				split = i
			}
		}
	}

	var schema *string
	table := label
	if split >= 0 {
		if s := unquoteIdent(label[:split]); s != "" {
			schema = &s
		}
		table = label[split+1:]
	}
	table = unquoteIdent(table)

	displayName := table
	if schema != nil {
		displayName = *schema + "." + table
	}

	return TableTarget{
		Path:        url.PathEscape(table),
		Schema:      schema,
		Table:       table,
		Label:       label,
		DisplayName: displayName,
	}
}

func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}

	return s
}

// SchemaName returns the schema qualifier or an empty string
func (t TableTarget) SchemaName() string {
	if t.Schema == nil {
		return ""
	}

	return *t.Schema
}
