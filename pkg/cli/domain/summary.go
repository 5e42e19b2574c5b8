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

package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary is the aggregate of a set of contributions
type Summary struct {
	Count    int
	Total    decimal.Decimal
	ByType   map[ContributionType]decimal.Decimal
	ByMethod map[PaymentMethod]decimal.Decimal
	ByFund   map[string]decimal.Decimal
}

// Summarize totals the live entries
func Summarize(entries []ContributionEntry) Summary {
	ret := Summary{
		Total:    decimal.Zero,
		ByType:   map[ContributionType]decimal.Decimal{},
		ByMethod: map[PaymentMethod]decimal.Decimal{},
		ByFund:   map[string]decimal.Decimal{},
	}

	for _, e := range entries {
		if e.Sync.Deleted {
			continue
		}

		ret.Count++
		ret.Total = ret.Total.Add(e.Amount)
		ret.ByType[e.Type] = ret.ByType[e.Type].Add(e.Amount)
		ret.ByMethod[e.Method] = ret.ByMethod[e.Method].Add(e.Amount)
		if e.Fund != "" {
			ret.ByFund[e.Fund] = ret.ByFund[e.Fund].Add(e.Amount)
		}
	}

	return ret
}

// Funds returns the fund names of the summary in alphabetical order
func (s Summary) Funds() []string {
	ret := make([]string, 0, len(s.ByFund))
	for f := range s.ByFund {
		ret = append(ret, f)
	}
	sort.Strings(ret)

	return ret
}

// EntryFilter selects entries by date range and member. Empty fields match everything.
type EntryFilter struct {
	From     string
	To       string
	MemberID string
}

// Match reports whether the entry passes the filter
func (f EntryFilter) Match(e ContributionEntry) bool {
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	if f.MemberID != "" && e.MemberID != f.MemberID {
		return false
	}

	return true
}

// FilterEntries returns the live entries that pass the filter
func FilterEntries(entries []ContributionEntry, f EntryFilter) []ContributionEntry {
	var ret []ContributionEntry
	for _, e := range entries {
		if e.Sync.Deleted || !f.Match(e) {
			continue
		}
		ret = append(ret, e)
	}

	return ret
}
