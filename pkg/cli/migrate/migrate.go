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

// Package migrate applies the local schema migrations
package migrate

import (
	"embed"

	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	dialect = "sqlite3"
	// TableName is the table recording applied migrations
	TableName = "migrations"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func newSet() *migrate.MigrationSet {
	return &migrate.MigrationSet{TableName: TableName}
}

func source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Run applies the pending migrations and returns how many were applied
func Run(db *database.DB) (int, error) {
	n, err := newSet().Exec(db.Conn, dialect, source(), migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "applying migrations")
	}

	if n > 0 {
		log.Debug("applied %d migration(s)\n", n)
	}

	return n, nil
}

// Applied returns the ids of the applied migrations in order
func Applied(db *database.DB) ([]string, error) {
	records, err := newSet().GetMigrationRecords(db.Conn, dialect)
	if err != nil {
		return nil, errors.Wrap(err, "reading migration records")
	}

	ret := make([]string, len(records))
	for i, r := range records {
		ret[i] = r.Id
	}

	return ret, nil
}

// Pending returns the ids of the migrations not yet applied
func Pending(db *database.DB) ([]string, error) {
	planned, _, err := newSet().PlanMigration(db.Conn, dialect, source(), migrate.Up, 0)
	if err != nil {
		return nil, errors.Wrap(err, "planning migrations")
	}

	ret := make([]string, len(planned))
	for i, p := range planned {
		ret[i] = p.Id
	}

	return ret, nil
}
