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

package main

import (
	"os"
	"strings"

	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/flockbook/flockbook/pkg/cli/cmd/attendance"
	"github.com/flockbook/flockbook/pkg/cli/cmd/entry"
	"github.com/flockbook/flockbook/pkg/cli/cmd/export"
	"github.com/flockbook/flockbook/pkg/cli/cmd/history"
	"github.com/flockbook/flockbook/pkg/cli/cmd/imports"
	"github.com/flockbook/flockbook/pkg/cli/cmd/login"
	"github.com/flockbook/flockbook/pkg/cli/cmd/logout"
	"github.com/flockbook/flockbook/pkg/cli/cmd/member"
	"github.com/flockbook/flockbook/pkg/cli/cmd/root"
	"github.com/flockbook/flockbook/pkg/cli/cmd/settings"
	"github.com/flockbook/flockbook/pkg/cli/cmd/status"
	"github.com/flockbook/flockbook/pkg/cli/cmd/sync"
	"github.com/flockbook/flockbook/pkg/cli/cmd/task"
	"github.com/flockbook/flockbook/pkg/cli/cmd/user"
	"github.com/flockbook/flockbook/pkg/cli/cmd/version"
)

// remoteURL and versionTag are populated during link time
var remoteURL string
var versionTag = "master"

// parseDBPath extracts --dbPath flag value from command line arguments
// regardless of where it appears (before or after subcommand).
// Returns empty string if not found.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	// --dbPath can appear after the subcommand (e.g. "flockbook sync --dbPath=./custom.db")
	// and root.ParseFlags only parses flags before the subcommand.
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, remoteURL, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(entry.NewCmd(*ctx))
	root.Register(member.NewCmd(*ctx))
	root.Register(attendance.NewCmd(*ctx))
	root.Register(history.NewCmd(*ctx))
	root.Register(task.NewCmd(*ctx))
	root.Register(imports.NewCmd(*ctx))
	root.Register(export.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(settings.NewCmd(*ctx))
	root.Register(user.NewCmd(*ctx))
	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
