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
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/domain"
	"github.com/shopspring/decimal"
)

var isoDatePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// dateLayouts are tried in order. Slash dates without a leading year are
// month first.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"1/2/2006",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate normalizes a calendar day to domain.DateLayout
func ParseDate(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return parseDateString(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
			return "", false
		}
		return epochDate(int64(x)), true
	case json.Number:
		n, err := x.Int64()
		if err != nil || n <= 0 {
			return "", false
		}
		return epochDate(n), true
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.Format(domain.DateLayout), true
	}

	return "", false
}

// epochDate treats large values as milliseconds
func epochDate(n int64) string {
	var t time.Time
	if n > 100000000000 {
		t = time.UnixMilli(n)
	} else {
		t = time.Unix(n, 0)
	}

	return t.UTC().Format(domain.DateLayout)
}

func parseDateString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	// timestamps keep the calendar day they were written in
	if m := isoDatePrefix.FindString(s); m != "" {
		if t, err := time.Parse(domain.DateLayout, m); err == nil {
			return t.Format(domain.DateLayout), true
		}
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.DateLayout), true
		}
	}

	return "", false
}

// ParseTimestamp parses an RFC 3339 timestamp or an epoch number
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", domain.DateLayout} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
			return time.Time{}, false
		}
		if x > 100000000000 {
			return time.UnixMilli(int64(x)).UTC(), true
		}
		return time.Unix(int64(x), 0).UTC(), true
	case time.Time:
		return x.UTC(), !x.IsZero()
	}

	return time.Time{}, false
}

var amountJunk = regexp.MustCompile(`[^0-9.,\-()]`)

// ParseAmount coerces money input to a non-negative decimal rounded to cents.
// Currency symbols and grouping separators are ignored; negative, NaN and
// unparsable input is zero.
func ParseAmount(v interface{}) decimal.Decimal {
	var d decimal.Decimal

	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		d = decimal.NewFromFloat(x)
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	case decimal.Decimal:
		d = x
	case string:
		parsed, ok := parseAmountString(x)
		if !ok {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}

	if d.IsNegative() {
		return decimal.Zero
	}

	return d.Round(2)
}

func parseAmountString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		// accounting notation for negatives
		return decimal.Zero, false
	}

	s = amountJunk.ReplaceAllString(s, "")
	s = strings.Trim(s, "()")
	if s == "" {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the later separator is the decimal separator
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// a single comma followed by one or two digits is a decimal comma
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 && len(s)-lastComma-1 > 0 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}
