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

// Package database provides the local SQLite store
package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLCommon is the interface shared by a connection and a transaction
type SQLCommon interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB is a connection to the local database, or a transaction on it
type DB struct {
	Conn *sql.DB
	tx   *sql.Tx
}

func (d *DB) handle() SQLCommon {
	if d.tx != nil {
		return d.tx
	}

	return d.Conn
}

// Open opens the database at the given path, creating its directory if
// needed. A "file:" DSN is opened without creating a directory.
func Open(dbPath string) (*DB, error) {
	if !strings.HasPrefix(dbPath, "file:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}
	}

	conn, err := sql.Open("sqlite3", withParams(dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "opening db connection")
	}

	return &DB{Conn: conn}, nil
}

// withParams adds the connection parameters to the DSN
func withParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_busy_timeout=5000&_foreign_keys=1"
}

// Begin begins a transaction
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("transaction already in progress")
	}

	tx, err := d.Conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{Conn: d.Conn, tx: tx}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	if d.tx == nil {
		return errors.New("not in a transaction")
	}

	return d.tx.Commit()
}

// Rollback rolls back the transaction. It is a no-op outside of a transaction.
func (d *DB) Rollback() error {
	if d.tx == nil {
		return nil
	}

	err := d.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}

	return err
}

// Exec executes a query without returning rows
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.handle().Exec(query, args...)
}

// Query executes a query returning rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return d.handle().Query(query, args...)
}

// QueryRow executes a query returning at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return d.handle().QueryRow(query, args...)
}

// Close closes the connection
func (d *DB) Close() error {
	return d.Conn.Close()
}
