// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"fmt"
	"io"

	"github.com/UNO-SOFT/sheetgrid/grid"
	"github.com/xuri/excelize/v2"
)

// Container is the package writer a Document persists its sheet with.
type Container interface {
	// AddSheet registers the (only) worksheet.
	AddSheet(name string) error
	// Flush hands over the current row/cell tree.
	// Only the rows in s.Pending() changed since the previous Flush.
	Flush(sheet string, s *grid.Store) error
	// WriteTo writes the whole package.
	WriteTo(w io.Writer) (int64, error)
	io.Closer
}

var _ Container = (*ExcelizeContainer)(nil)

// ExcelizeContainer is a Container backed by an excelize.File.
//
// It collects everything in memory, so big sheets may impose problems.
type ExcelizeContainer struct {
	xl *excelize.File
}

// NewExcelizeContainer returns a new, empty ExcelizeContainer.
func NewExcelizeContainer() *ExcelizeContainer {
	return &ExcelizeContainer{xl: excelize.NewFile()}
}

func (ec *ExcelizeContainer) AddSheet(name string) error {
	return ec.xl.SetSheetName(ec.xl.GetSheetName(0), name)
}

// Flush writes the pending rows of s with SetCellStr, which would cut texts
// longer than sheetgrid.MaxCellChars; the store rejects those.
func (ec *ExcelizeContainer) Flush(sheet string, s *grid.Store) error {
	for _, r := range s.Pending() {
		for _, c := range r.Cells {
			if err := ec.xl.SetCellStr(sheet, c.Ref, c.Value); err != nil {
				return fmt.Errorf("%s[%s]: %w", sheet, c.Ref, err)
			}
		}
	}
	return nil
}

func (ec *ExcelizeContainer) WriteTo(w io.Writer) (int64, error) {
	return ec.xl.WriteTo(w)
}

func (ec *ExcelizeContainer) Close() error {
	if ec == nil || ec.xl == nil {
		return nil
	}
	xl := ec.xl
	ec.xl = nil
	return xl.Close()
}
