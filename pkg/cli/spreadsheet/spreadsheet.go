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

// Package spreadsheet writes and reads CSV records as XLSX workbooks
package spreadsheet

import (
	"io"

	"github.com/flockbook/flockbook/pkg/cli/csv"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet every new workbook starts with
const defaultSheet = "Sheet1"

func cellValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return ""
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case *int:
		if t == nil {
			return ""
		}
		return *t
	case string, int, int64, float64, bool:
		return t
	}

	return csv.FormatValue(v)
}

// Write writes the records to a workbook with a single sheet. The header
// row is bold and comes from header, so an empty export still has columns.
func Write(w io.Writer, sheet string, header []string, recs []csv.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return errors.Wrap(err, "naming the sheet")
		}
	}

	row := make([]interface{}, len(header))
	for i, k := range header {
		row[i] = k
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return errors.Wrap(err, "writing the header")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating the header style")
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return errors.Wrap(err, "locating the header")
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return errors.Wrap(err, "styling the header")
		}
	}

	for i, rec := range recs {
		values := make([]interface{}, len(header))
		for j, k := range header {
			for _, field := range rec {
				if field.Key == k {
					values[j] = cellValue(field.Value)
					break
				}
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrapf(err, "locating row %d", i+2)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing the workbook")
	}

	return nil
}

// Read reads the first sheet of a workbook as CSV records keyed by its
// header row. Short rows are padded with empty values.
func Read(r io.Reader) ([]string, []csv.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening the workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("the workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) == 0 {
		return []string{}, []csv.Record{}, nil
	}

	header := rows[0]
	ret := make([]csv.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(csv.Record, len(header))
		empty := true
		for i, k := range header {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if v != "" {
				empty = false
			}
			rec[i] = csv.Field{Key: k, Value: v}
		}
		if empty {
			continue
		}
		ret = append(ret, rec)
	}

	return header, ret, nil
}
