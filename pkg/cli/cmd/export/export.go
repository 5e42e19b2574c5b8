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

// Package export implements the export command
package export

import (
	"os"
	"path/filepath"

	"github.com/flockbook/flockbook/pkg/cli/context"
	"github.com/flockbook/flockbook/pkg/cli/infra"
	"github.com/flockbook/flockbook/pkg/cli/log"
	"github.com/flockbook/flockbook/pkg/cli/permissions"
	"github.com/flockbook/flockbook/pkg/cli/spreadsheet"
	"github.com/flockbook/flockbook/pkg/cli/transfer"
	"github.com/flockbook/flockbook/pkg/cli/upgrade"
	"github.com/flockbook/flockbook/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var example = `
 * Export everything you can see as CSV
 flockbook export

 * Export contributions as a spreadsheet to the current folder
 flockbook export entries --format xlsx --out .`

var formatFlag, outFlag string

// NewCmd returns a new export command
func NewCmd(ctx context.FlockCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export [collection...]",
		Short:   "Export records to CSV or XLSX files",
		Example: example,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return infra.Authorize(ctx, permissions.TabTransfer)
		},
		RunE: newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&formatFlag, "format", "f", FormatCSV, "csv or xlsx")
	f.StringVarP(&outFlag, "out", "o", "", "folder to write to (defaults to the exports folder)")

	return cmd
}

// Write exports the collection into a file in dir and returns its path
func Write(ctx context.FlockCtx, collection, format, dir string) (string, error) {
	l, err := transfer.LayoutOf(collection)
	if err != nil {
		return "", err
	}
	if format != FormatCSV && format != FormatXLSX {
		return "", errors.Errorf("unknown format %s", format)
	}

	recs, err := transfer.Export(ctx.Store, collection)
	if err != nil {
		return "", errors.Wrapf(err, "exporting %s", collection)
	}

	if err := utils.EnsureDir(dir); err != nil {
		return "", errors.Wrap(err, "creating the export folder")
	}
	path := filepath.Join(dir, collection+"-"+infra.Today(ctx)+"."+format)

	if format == FormatCSV {
		if err := utils.WriteFileAtomic(path, []byte(transfer.Encode(collection, recs))); err != nil {
			return "", errors.Wrapf(err, "writing %s", path)
		}
		return path, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	if err := spreadsheet.Write(f, collection, l.Header, recs); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}

	return path, nil
}

// visibleCollections returns the collections the signed in user may export
func visibleCollections(ctx context.FlockCtx) ([]string, error) {
	u, err := infra.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	ret := []string{}
	for _, c := range transfer.Collections() {
		if permissions.CanView(u, permissions.CollectionTab(c)) {
			ret = append(ret, c)
		}
	}

	return ret, nil
}

func newRun(ctx context.FlockCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		collections := args
		if len(collections) == 0 {
			var err error
			if collections, err = visibleCollections(ctx); err != nil {
				return err
			}
		}

		dir := outFlag
		if dir == "" {
			dir = context.ExportDir(ctx.Paths)
		}

		for _, c := range collections {
			if err := infra.Authorize(ctx, permissions.CollectionTab(c)); err != nil {
				return errors.Wrapf(err, "exporting %s", c)
			}

			path, err := Write(ctx, c, formatFlag, dir)
			if err != nil {
				return err
			}
			log.Successf("%s\n", path)
		}

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		return nil
	}
}
