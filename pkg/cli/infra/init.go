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

// Package infra provides operations and definitions for the
// local infrastructure for flockbook
package infra

import (
	"database/sql"
	"path/filepath"
	"strconv"

	"github.com/flockbook/flockbook/pkg/cli/config"
	"github.com/flockbook/flockbook/pkg/cli/consts"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/database"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/migrate"
	"github.com/flockbook/flockbook/pkg/cli/reconcile"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/cli/store"
	"github.com/flockbook/flockbook/pkg/cli/syncer"
	"github.com/flockbook/flockbook/pkg/cli/utils"
	"github.com/flockbook/flockbook/pkg/clock"
	"github.com/flockbook/flockbook/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunEFunc is a function type of flockbook commands
type RunEFunc func(*cobra.Command, []string) error

func getDBPath(paths context.Paths, customPath string) string {
	if customPath != "" {
		return customPath
	}

	return filepath.Join(paths.Data, consts.AppDirName, consts.DBFileName)
}

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.FlockCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitDirs(paths); err != nil {
		return context.FlockCtx{}, errors.Wrap(err, "creating the flockbook dirs")
	}

	db, err := database.Open(getDBPath(paths, customDBPath))
	if err != nil {
		return context.FlockCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.FlockCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
		Clock:   clock.New(),
	}

	return ctx, nil
}

// Init initializes the flockbook environment and returns a new context.
// remoteURL is used when creating a new config file.
func Init(versionTag, remoteURL, dbPath string) (*context.FlockCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, remoteURL); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	n, err := migrate.Run(ctx.DB)
	if err != nil {
		return nil, errors.Wrap(err, "running migration")
	}
	log.Debug("applied %d migration(s)\n", n)

	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	seeded, err := ctx.Store.EnsureDefaultUser()
	if err != nil {
		return nil, errors.Wrap(err, "seeding the default user")
	}
	if seeded {
		log.Infof("created the default user %q. Change its password with `flockbook user add`.\n", store.DefaultUser.Username)
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.FlockCtx) (context.FlockCtx, error) {
	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	st, err := store.New(ctx.DB, ctx.Clock)
	if err != nil {
		return ctx, errors.Wrap(err, "opening the store")
	}

	sessionUser, err := readSession(ctx.DB, ctx.Clock)
	if err != nil {
		return ctx, errors.Wrap(err, "reading the session")
	}

	ret := context.FlockCtx{
		Paths:              ctx.Paths,
		Version:            ctx.Version,
		DB:                 ctx.DB,
		Store:              st,
		Clock:              ctx.Clock,
		HTTPClient:         remote.NewRateLimitedHTTPClient(),
		Remote:             remote.Config{URL: cf.Remote.URL, APIKey: cf.Remote.APIKey},
		SyncInterval:       cf.Interval(),
		EnableUpgradeCheck: cf.EnableUpgradeCheck,
		SessionUser:        sessionUser,
	}

	return ret, nil
}

// readSession returns the signed in username, or an empty string if the
// session is missing or expired
func readSession(db *database.DB, c clock.Clock) (string, error) {
	var username string
	var expiry int64

	err := database.GetSystem(db, consts.SystemSessionUser, &username)
	if err == sql.ErrNoRows {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "finding session user")
	}

	err = database.GetSystem(db, consts.SystemSessionExpiry, &expiry)
	if err != nil && err != sql.ErrNoRows {
		return "", errors.Wrap(err, "finding session expiry")
	}

	if expiry != 0 && expiry < c.Now().Unix() {
		log.Debug("session of %s expired\n", username)
		return "", nil
	}

	return username, nil
}

func initSystemKV(db *database.DB, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.FlockCtx) error {
	log.Debug("initializing the system\n")

	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}
	defer tx.Rollback()

	nowStr := strconv.FormatInt(ctx.Clock.Now().Unix(), 10)
	if err := initSystemKV(tx, consts.SystemLastUpgrade, nowStr); err != nil {
		return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastUpgrade)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.FlockCtx, remoteURL string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	cf := config.Config{
		Remote:             config.Remote{URL: remoteURL},
		SyncInterval:       config.DefaultSyncInterval.String(),
		EnableUpgradeCheck: true,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// NewSyncer builds a syncer for the context. A remote that is not configured
// yields a syncer whose passes are skipped. A misconfigured remote is an error.
func NewSyncer(ctx context.FlockCtx) (*syncer.Syncer, error) {
	settings, err := ctx.Store.Settings()
	if err != nil {
		return nil, errors.Wrap(err, "reading settings")
	}

	engine := &reconcile.Engine{Clock: ctx.Clock, Guard: reconcile.NewGuard()}

	c, err := remote.NewClient(ctx.Remote, ctx.HTTPClient)
	if err != nil {
		var ce *remote.ConfigError
		if !errors.As(err, &ce) || ce.Reason != "" {
			return nil, err
		}

		log.Debug("remote sync is off: %s\n", err.Error())
	} else {
		engine.Remote = c
	}

	return &syncer.Syncer{
		Store:  ctx.Store,
		Engine: engine,
		Tables: settings.Tables,
	}, nil
}
