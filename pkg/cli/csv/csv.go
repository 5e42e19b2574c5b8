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

package csv

import (
	"fmt"
	"strings"
)

const bom = "\uFEFF"

// Encode writes a header line from the keys of the first record, then one
// line per record. Values containing a comma, a quote or a line break are
// quoted, with inner quotes doubled. A line holding a single empty value is
// written as "" so that it is not read back as a blank line. Lines are
// separated by "\n".
func Encode(records []Record) string {
	if len(records) == 0 {
		return ""
	}

	header := records[0].Keys()

	var b strings.Builder
	writeLine(&b, header)

	for _, r := range records {
		values := make([]string, len(header))
		for i, key := range header {
			v, _ := r.Get(key)
			values[i] = v
		}

		b.WriteByte('\n')
		writeLine(&b, values)
	}

	return b.String()
}

func writeLine(b *strings.Builder, values []string) {
	if len(values) == 1 && values[0] == "" {
		b.WriteString(`""`)
		return
	}

	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(v))
	}
}

func escape(v string) string {
	if !strings.ContainsAny(v, ",\"\r\n") {
		return v
	}

	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Decode parses the text into records keyed by the header line. Fields
// missing from a row are empty and fields beyond the header are dropped.
func Decode(text string) []Record {
	header, rows := Parse(text)
	if len(header) == 0 {
		return []Record{}
	}

	ret := make([]Record, 0, len(rows))
	for _, row := range rows {
		r := make(Record, len(header))
		for i, key := range header {
			var v string
			if i < len(row) {
				v = row[i]
			}
			r[i] = Field{Key: key, Value: v}
		}
		ret = append(ret, r)
	}

	return ret
}

// Parse splits the text into a trimmed header and data rows. A leading byte
// order mark is ignored, "\r\n", "\n" and "\r" all end a row, and blank lines
// are skipped.
func Parse(text string) ([]string, [][]string) {
	text = strings.TrimPrefix(text, bom)

	rows := parseRows(text)
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	return header, rows[1:]
}

type parser struct {
	rows   [][]string
	row    []string
	field  strings.Builder
	quoted bool
}

func (p *parser) endField() {
	p.row = append(p.row, p.field.String())
	p.field.Reset()
}

func (p *parser) endRow(sawQuote bool) {
	p.endField()

	blank := len(p.row) == 1 && p.row[0] == "" && !sawQuote
	if !blank {
		p.rows = append(p.rows, p.row)
	}

	p.row = nil
}

func parseRows(text string) [][]string {
	var p parser

	inQuotes := false
	// rowQuoted tells a blank line from a row holding a single quoted empty field
	rowQuoted := false
	started := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		started = true

		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					p.field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			p.field.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			if p.field.Len() == 0 {
				inQuotes = true
				rowQuoted = true
			} else {
				p.field.WriteByte(c)
			}
		case ',':
			p.endField()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			p.endRow(rowQuoted)
			rowQuoted = false
			started = false
		case '\n':
			p.endRow(rowQuoted)
			rowQuoted = false
			started = false
		default:
			p.field.WriteByte(c)
		}
	}

	if started || p.field.Len() > 0 || len(p.row) > 0 {
		p.endRow(rowQuoted)
	}

	return p.rows
}

// MissingColumnsError reports required headers absent from a file
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// RequireColumns returns a *MissingColumnsError if any required column is not
// in the header. Names are compared case-insensitively.
func RequireColumns(header []string, required ...string) error {
	var missing []string

	for _, r := range required {
		found := false
		for _, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), r) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, r)
		}
	}

	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}

	return nil
}
