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

// Package csv transcodes between text and ordered flat records in the common
// CSV dialect: comma separated, double-quote escaped, any line ending.
package csv

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is a single key and value of a record
type Field struct {
	Key   string
	Value interface{}
}

// Record is a flat record whose fields keep their insertion order
type Record []Field

// Get returns the string form of the value for the key
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return FormatValue(f.Value), true
		}
	}

	return "", false
}

// Lookup returns the value for the first of the keys present, matching keys
// case-insensitively.
func (r Record) Lookup(keys ...string) string {
	for _, key := range keys {
		for _, f := range r {
			if strings.EqualFold(strings.TrimSpace(f.Key), key) {
				return FormatValue(f.Value)
			}
		}
	}

	return ""
}

// Set returns the record with the key set to the value. A new key is appended.
func (r Record) Set(key string, value interface{}) Record {
	for i, f := range r {
		if f.Key == key {
			ret := make(Record, len(r))
			copy(ret, r)
			ret[i].Value = value
			return ret
		}
	}

	ret := make(Record, len(r), len(r)+1)
	copy(ret, r)
	return append(ret, Field{Key: key, Value: value})
}

// Keys returns the keys in order
func (r Record) Keys() []string {
	ret := make([]string, len(r))
	for i, f := range r {
		ret[i] = f.Key
	}

	return ret
}

// Map returns the record as a map of string values
func (r Record) Map() map[string]interface{} {
	ret := make(map[string]interface{}, len(r))
	for _, f := range r {
		if _, ok := ret[f.Key]; ok {
			continue
		}
		ret[f.Key] = FormatValue(f.Value)
	}

	return ret
}

// FormatValue returns the CSV text of a value. Absent values are empty.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}

	return fmt.Sprint(v)
}
