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

// Package imports implements the import command
package imports

import (
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/csv"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/spreadsheet"
	"github.com/flockbook/flockbook/pkg/cli/transfer"
	"github.com/flockbook/flockbook/pkg/cli/upgrade"
	"github.com/flockbook/flockbook/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
)

var example = `
 * Import members from a spreadsheet
 flockbook import members ./members.xlsx

 * Import contributions exported from another device
 flockbook import entries ./entries-2025-03-31.csv

 * Import every file dropped into a folder. The collection is taken from
   the start of the file name, like attendance-march.csv
 flockbook import --watch ~/Dropbox/flockbook`

// importedDir is where watched files are moved once imported
const importedDir = "imported"

// pollInterval is how often a watched folder is scanned
var pollInterval = time.Second

var fileRegexp = regexp.MustCompile(`(?i)\.(csv|xlsx)$`)

var watchFlag string

func preRun(cmd *cobra.Command, args []string) error {
	if watchFlag != "" {
		if len(args) != 0 {
			return errors.New("--watch takes no arguments")
		}
		return nil
	}
	if len(args) != 2 {
		return errors.New("Incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new import command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import <collection> <file>",
		Short:   "Import records from a CSV or XLSX file",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&watchFlag, "watch", "w", "", "import files dropped into this folder")

	return cmd
}

func authorize(ctx context.FlockCtx, collection string) error {
	if err := infra.Authorize(ctx, permissions.TabTransfer); err != nil {
		return err
	}

	return infra.Authorize(ctx, permissions.CollectionTab(collection))
}

// readText returns the content of a CSV file, or of the first sheet of an
// XLSX file as CSV
func readText(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", path)
		}
		return string(b), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	header, recs, err := spreadsheet.Read(f)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	if len(recs) == 0 {
		return strings.Join(header, ","), nil
	}

	return csv.Encode(recs), nil
}

// File imports the file into the collection
func File(ctx context.FlockCtx, collection, path string) (transfer.Result, error) {
	if _, err := transfer.LayoutOf(collection); err != nil {
		return transfer.Result{}, err
	}
	if err := authorize(ctx, collection); err != nil {
		return transfer.Result{}, err
	}

	text, err := readText(path)
	if err != nil {
		return transfer.Result{}, err
	}

	return transfer.Import(ctx.Store, collection, text)
}

// collectionOf returns the collection named at the start of the file name
func collectionOf(path string) (string, bool) {
	name := strings.ToLower(filepath.Base(path))

	for _, c := range transfer.Collections() {
		if !strings.HasPrefix(name, c) {
			continue
		}

		rest := name[len(c):]
		if rest == "" || !isLetter(rest[0]) {
			return c, true
		}
	}

	return "", false
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func report(path string, r transfer.Result) {
	log.Successf("%s: %d added, %d updated, %d skipped\n", filepath.Base(path), r.Added, r.Updated, r.Skipped)
	for _, w := range r.Warnings {
		log.Warnf("%s\n", w)
	}
}

func reportError(path string, err error) {
	log.Errorf("%s: %s\n", filepath.Base(path), err.Error())
}

// handleDropped imports a file dropped into a watched folder and moves it
// out of the way
func handleDropped(ctx context.FlockCtx, dir, path string) error {
	collection, ok := collectionOf(path)
	if !ok {
		return errors.Errorf("%s does not start with a collection name", filepath.Base(path))
	}

	r, err := File(ctx, collection, path)
	if err != nil {
		return err
	}
	report(path, r)

	dest := filepath.Join(dir, importedDir)
	if err := utils.EnsureDir(dest); err != nil {
		return errors.Wrap(err, "creating the imported folder")
	}
	if err := os.Rename(path, filepath.Join(dest, filepath.Base(path))); err != nil {
		return errors.Wrap(err, "moving the imported file")
	}

	return nil
}

func watch(ctx context.FlockCtx, dir string) error {
	w := watcher.New()
	w.FilterOps(watcher.Create, watcher.Write)
	w.AddFilterHook(watcher.RegexFilterHook(fileRegexp, false))

	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "watching %s", dir)
	}

	go func() {
		for {
			select {
			case ev := <-w.Event:
				if ev.IsDir() {
					continue
				}
				if err := handleDropped(ctx, dir, ev.Path); err != nil {
					reportError(ev.Path, err)
				}
			case err := <-w.Error:
				log.Errorf("watcher: %s\n", err.Error())
			case <-w.Closed:
				return
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		w.Close()
	}()

	log.Infof("watching %s for csv and xlsx files. Press Ctrl+C to stop\n", dir)

	return w.Start(pollInterval)
}

func newRun(ctx context.FlockCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if watchFlag != "" {
			return watch(ctx, watchFlag)
		}

		collection, path := args[0], args[1]

		r, err := File(ctx, collection, path)
		if err != nil {
			var missing *csv.MissingColumnsError
			if errors.As(err, &missing) {
				l, _ := transfer.LayoutOf(collection)
				return errors.Errorf("%s. The first line must name the columns: %s",
					missing.Error(), strings.Join(l.Header, ","))
			}
			return errors.Wrap(err, "importing")
		}
		report(path, r)

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		return nil
	}
}
