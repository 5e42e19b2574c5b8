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

package sync

import (
	stdctx "context"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/config"
	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/remote"
	"github.com/flockbook/flockbook/pkg/cli/syncer"
	"github.com/flockbook/flockbook/pkg/cli/upgrade"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

var example = `
  flockbook sync
  flockbook sync members entries
  flockbook sync --watch`

// probeInterval is how often an offline watcher checks the remote again
var probeInterval = 15 * time.Second

// drainInterval is how often a stopping watcher checks for a running pass
var drainInterval = 50 * time.Millisecond

var watchFlag bool
var intervalFlag time.Duration

// NewCmd returns a new sync command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync [collection...]",
		Aliases: []string{"s"},
		Short:   "Sync records with the remote store",
		Example: example,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabSync)
		},
		RunE: newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&watchFlag, "watch", "w", false, "keep syncing on an interval until interrupted")
	f.DurationVar(&intervalFlag, "interval", 0, "interval between passes with --watch (defaults to syncInterval in the config)")

	return cmd
}

// isOffline reports whether the report failed because the remote could not
// be reached, as opposed to the remote rejecting a request
func isOffline(r syncer.Report) bool {
	err := r.Err
	if err == nil {
		err = r.Outcome.PullError
	}
	if err == nil && len(r.Outcome.Failures) > 0 {
		err = r.Outcome.Failures[0].Err
	}
	if err == nil {
		return false
	}

	var re *remote.Error
	var ce *remote.ConfigError
	return !errors.As(err, &re) && !errors.As(err, &ce)
}

// printReports logs the reports and returns true if any pass failed
func printReports(reports []syncer.Report) bool {
	failed := false

	for _, r := range reports {
		if !r.Failed() {
			log.Successf("%s\n", r.Summary())
		} else {
			failed = true
			log.Warnf("%s\n", r.Summary())
		}

		if r.Err != nil {
			log.Errorf("  %s\n", r.Err.Error())
		}
		if r.Outcome.PullError != nil {
			log.Errorf("  %s\n", r.Outcome.PullError.Error())
		}
		for _, f := range r.Outcome.Failures {
			log.Errorf("  %s %s: %s\n", f.Op, f.ID, f.Err.Error())
		}
		for _, c := range r.Outcome.Conflicts {
			log.Warnf("  %s has local changes that differ from the remote copy\n", c.ID)
			log.Debug("%s\n", c.Report)
		}
	}

	return failed
}

func allSkipped(reports []syncer.Report) bool {
	for _, r := range reports {
		if !r.Outcome.Skipped {
			return false
		}
	}

	return len(reports) > 0
}

// watcher runs passes on triggers, skipping triggers that arrive while a
// pass is running
type watcher struct {
	syncer      *syncer.Syncer
	collections []string
	probe       func(stdctx.Context) error

	running int32
	offline int32
}

// trigger runs a pass unless one is running. It returns false if skipped.
func (w *watcher) trigger(reason string) bool {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		log.Debug("a pass is running, skipping the %s trigger\n", reason)
		return false
	}
	defer atomic.StoreInt32(&w.running, 0)

	log.Debug("sync triggered by %s\n", reason)

	reports := w.syncer.Run(stdctx.Background(), w.collections...)
	printReports(reports)

	offline := int32(0)
	for _, r := range reports {
		if isOffline(r) {
			offline = 1
			break
		}
	}
	if offline == 1 && atomic.LoadInt32(&w.offline) == 0 {
		log.Warn("the remote store is unreachable. Changes are kept and will be sent once it is back\n")
	}
	atomic.StoreInt32(&w.offline, offline)

	return true
}

// wait blocks until the running pass, if any, has finished
func (w *watcher) wait() {
	for atomic.LoadInt32(&w.running) == 1 {
		time.Sleep(drainInterval)
	}
}

// checkConnection probes an unreachable remote and syncs once it is back
func (w *watcher) checkConnection() {
	if atomic.LoadInt32(&w.offline) == 0 || w.probe == nil {
		return
	}

	c, cancel := stdctx.WithTimeout(stdctx.Background(), probeInterval)
	defer cancel()

	if err := w.probe(c); err != nil {
		log.Debug("remote still unreachable: %s\n", err.Error())
		return
	}

	log.Info("the remote store is reachable again\n")
	w.trigger("reconnect")
}

func watch(ctx context.FlockCtx, s *syncer.Syncer, collections []string) error {
	interval := intervalFlag
	if interval <= 0 {
		interval = ctx.SyncInterval
	}
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}

	w := &watcher{syncer: s, collections: collections}
	if c, err := remote.NewClient(ctx.Remote, ctx.HTTPClient); err == nil {
		w.probe = c.Ping
	}

	c := cron.New()
	if err := c.AddFunc("@every "+interval.String(), func() { w.trigger("interval") }); err != nil {
		return errors.Wrap(err, "scheduling sync")
	}
	if err := c.AddFunc("@every "+probeInterval.String(), w.checkConnection); err != nil {
		return errors.Wrap(err, "scheduling reconnect probe")
	}

	log.Infof("syncing every %s. Press Ctrl+C to stop\n", interval)
	w.trigger("start")

	c.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	// cron does not wait for a job that is already running
	c.Stop()

	log.Plain("\n")
	if atomic.LoadInt32(&w.running) == 1 {
		log.Info("waiting for the running pass to finish\n")
		w.wait()
	}

	return nil
}

func newRun(ctx context.FlockCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		s, err := infra.NewSyncer(ctx)
		if err != nil {
			return errors.Wrap(err, "setting up sync")
		}

		for _, c := range args {
			if _, err := s.Status(c); err != nil {
				return err
			}
		}

		if watchFlag {
			return watch(ctx, s, args)
		}

		reports := s.Run(stdctx.Background(), args...)
		if allSkipped(reports) {
			log.Warnf("remote sync is not configured. Set remote.url and remote.apiKey in %s\n", config.GetPath(ctx))
			for _, r := range reports {
				if st, err := s.Status(r.Collection); err == nil {
					log.Pending(r.Collection, st.Dirty)
				}
			}
			return nil
		}

		failed := printReports(reports)

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		if failed {
			return errors.New("some records could not be synced. They will be retried on the next sync")
		}

		return nil
	}
}
