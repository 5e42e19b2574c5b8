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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/domain"
)

// fields is an untrusted record with keys folded by domain.Fold, so that
// "memberId", "member_id" and "Member ID" are the same key.
type fields map[string]interface{}

func toFields(raw interface{}) fields {
	switch v := raw.(type) {
	case nil:
		return fields{}
	case fields:
		return v
	case map[string]interface{}:
		ret := make(fields, len(v))
		for k, val := range v {
			ret[domain.Fold(k)] = val
		}
		return ret
	case map[string]string:
		ret := make(fields, len(v))
		for k, val := range v {
			ret[domain.Fold(k)] = val
		}
		return ret
	case []byte:
		return fromJSON(v)
	case json.RawMessage:
		return fromJSON(v)
	case string:
		return fromJSON([]byte(v))
	}

	// typed values, such as domain records, go through their JSON form
	b, err := json.Marshal(raw)
	if err != nil {
		return fields{}
	}

	return fromJSON(b)
}

func fromJSON(b []byte) fields {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return fields{}
	}

	return toFields(m)
}

// lookup returns the first present, non-null value among the keys
func (f fields) lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := f[domain.Fold(k)]; ok && v != nil {
			return v, true
		}
	}

	return nil, false
}

func (f fields) has(keys ...string) bool {
	_, ok := f.lookup(keys...)
	return ok
}

// str returns the trimmed string form of the first present value
func (f fields) str(keys ...string) string {
	v, ok := f.lookup(keys...)
	if !ok {
		return ""
	}

	return stringify(v)
}

// optStr is like str but returns nil for absent or blank values
func (f fields) optStr(keys ...string) *string {
	s := f.str(keys...)
	if s == "" {
		return nil
	}

	return &s
}

func (f fields) boolean(keys ...string) bool {
	v, ok := f.lookup(keys...)
	if !ok {
		return false
	}

	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		switch domain.Fold(x) {
		case "true", "1", "yes", "y", "on":
			return true
		}
	}

	return false
}

// count returns a non-negative integer. Malformed input is 0.
func (f fields) count(keys ...string) int {
	v, ok := f.lookup(keys...)
	if !ok {
		return 0
	}

	n, ok := toInt(v)
	if !ok || n < 0 {
		return 0
	}

	return n
}

// positive returns a positive integer or nil. Class numbers are bounded by
// the settings when they are entered, not when they are read.
func (f fields) positive(keys ...string) *int {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil
	}

	n, ok := toInt(v)
	if !ok || n < 1 {
		return nil
	}

	return &n
}

// sub returns a nested record
func (f fields) sub(keys ...string) (fields, bool) {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil, false
	}

	switch v.(type) {
	case map[string]interface{}, map[string]string:
		return toFields(v), true
	case string:
		// nested records stored as JSON text by some backends
		sub := toFields(v)
		return sub, len(sub) > 0
	}

	return nil, false
}

func (f fields) list(keys ...string) []interface{} {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil
	}

	return toList(v)
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case map[string]interface{}, []interface{}:
		return ""
	}

	return strings.TrimSpace(fmt.Sprint(v))
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case int:
		return x, true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if fl, err := x.Float64(); err == nil {
			return toInt(fl)
		}
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if fl, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt(fl)
		}
	}

	return 0, false
}

func toList(v interface{}) []interface{} {
	switch x := v.(type) {
	case []interface{}:
		return x
	case []map[string]interface{}:
		ret := make([]interface{}, len(x))
		for i, item := range x {
			ret[i] = item
		}
		return ret
	case []byte:
		return listFromJSON(x)
	case json.RawMessage:
		return listFromJSON(x)
	case string:
		return listFromJSON([]byte(x))
	case nil:
		return nil
	}

	// typed slices, such as []domain.Task
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	return listFromJSON(b)
}

func listFromJSON(b []byte) []interface{} {
	var ret []interface{}
	if err := json.Unmarshal(b, &ret); err != nil {
		return nil
	}

	return ret
}

// rawObject returns an object without folding its keys
func rawObject(v interface{}) map[string]interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		return x
	case map[string]string:
		ret := make(map[string]interface{}, len(x))
		for k, val := range x {
			ret[k] = val
		}
		return ret
	case string:
		var ret map[string]interface{}
		if err := json.Unmarshal([]byte(x), &ret); err == nil {
			return ret
		}
	}

	return nil
}
