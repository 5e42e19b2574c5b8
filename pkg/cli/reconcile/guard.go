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
	"sync"
)

// Guard allows a single reconciliation pass per sync target at a time
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard returns an empty guard
func NewGuard() *Guard {
	return &Guard{
		active: map[string]struct{}{},
	}
}

// TryAcquire marks the target busy. It returns false if a pass over the
// target is already in flight.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[key]; ok {
		return false
	}
	g.active[key] = struct{}{}

	return true
}

// Release marks the target idle
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.active, key)
}

// Busy returns true if a pass over the target is in flight
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.active[key]
	return ok
}

// Active returns the number of passes in flight
func (g *Guard) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.active)
}
