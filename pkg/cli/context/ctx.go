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

// Package context defines the flockbook runtime context
package context

import (
	"net/http"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/flockbook/flockbook/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// FlockCtx is a context holding the information of the current runtime
type FlockCtx struct {
	Paths              Paths
	Version            string
	DB                 *database.DB
	Store              *store.Store
	Clock              clock.Clock
	HTTPClient         *http.Client
	Remote             remote.Config
	SyncInterval       time.Duration
	EnableUpgradeCheck bool
	// SessionUser is the username signed in with `login`, if any
	SessionUser string
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx FlockCtx) FlockCtx {
	if ctx.Remote.APIKey != "" {
		ctx.Remote.APIKey = "1"
	} else {
		ctx.Remote.APIKey = "0"
	}

	return ctx
}
