// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package grid is the sparse row/cell tree of a worksheet.
//
// A Store accepts two kinds of writes: SetCell/SetRow upsert at any
// coordinate and keep rows and cells sorted, while AppendRow builds the next
// row directly and is meant for bulk ingestion.
// The two must not be mixed once a random-access write went past the append
// counter: AppendRow then returns sheetgrid.ErrInvalidState.
//
// A Store is not safe for concurrent use.
package grid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/UNO-SOFT/sheetgrid"
)

// CellType is the declared data type of a cell.
type CellType uint8

// CellTypeString is the only type the store emits: every cell is text.
const CellTypeString CellType = 1

func (t CellType) String() string {
	if t == CellTypeString {
		return "string"
	}
	return "CellType(" + strconv.Itoa(int(t)) + ")"
}

// Cell is one written cell.
type Cell struct {
	// Ref is the cell reference, e.g. "B3".
	Ref string
	// Value is the sanitized text.
	Value  string
	Column int // 1-based
	Type   CellType
}

// Row is a written row. Cells written by SetCell are ordered by reference,
// cells built by AppendRow by column.
type Row struct {
	Cells []*Cell
	Index uint // 1-based
	dirty bool
}

// Cell returns the cell at the 1-based column, or nil.
func (r *Row) Cell(column int) *Cell {
	for _, c := range r.Cells {
		if c.Column == column {
			return c
		}
	}
	return nil
}

// Values returns the values of the row indexed by column-1,
// with "" for the missing cells.
func (r *Row) Values() []string {
	var n int
	for _, c := range r.Cells {
		n = max(n, c.Column)
	}
	vv := make([]string, n)
	for _, c := range r.Cells {
		vv[c.Column-1] = c.Value
	}
	return vv
}

// Store is the sparse row/cell tree. The zero value is an empty store.
type Store struct {
	rows         []*Row
	lastRowIndex uint // AppendRow counter
}

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.rows) }

// Rows returns the rows in ascending index order.
// The slice must not be modified.
func (s *Store) Rows() []*Row { return s.rows }

// Row returns the row with the given index, or nil.
func (s *Store) Row(index uint) *Row {
	if i, ok := s.search(index); ok {
		return s.rows[i]
	}
	return nil
}

// Pending returns the rows changed since the last Commit, in ascending order.
func (s *Store) Pending() []*Row {
	var rr []*Row
	for _, r := range s.rows {
		if r.dirty {
			rr = append(rr, r)
		}
	}
	return rr
}

// Commit marks every row as flushed.
func (s *Store) Commit() {
	for _, r := range s.rows {
		r.dirty = false
	}
}

func (s *Store) search(index uint) (int, bool) {
	return slices.BinarySearchFunc(s.rows, index, func(r *Row, index uint) int {
		switch {
		case r.Index < index:
			return -1
		case r.Index > index:
			return 1
		}
		return 0
	})
}

func checkRowIndex(rowIndex uint) error {
	if rowIndex == 0 {
		return fmt.Errorf("row index must be bigger than 0: %w", sheetgrid.ErrInvalidArgument)
	}
	if rowIndex > sheetgrid.MaxRowCount {
		return fmt.Errorf("row index %d is beyond %d: %w", rowIndex, sheetgrid.MaxRowCount, sheetgrid.ErrInvalidArgument)
	}
	return nil
}

func checkColumn(column int) error {
	if column > sheetgrid.MaxColumnCount {
		return fmt.Errorf("column %d is beyond %d: %w", column, sheetgrid.MaxColumnCount, sheetgrid.ErrInvalidArgument)
	}
	return nil
}

// sanitizeValue returns the sanitized text, or an error if it is longer than
// sheetgrid.MaxCellChars.
func sanitizeValue(column int, text string) (string, error) {
	text = Sanitize(text)
	if len(text) > sheetgrid.MaxCellChars {
		if n := utf8.RuneCountInString(text); n > sheetgrid.MaxCellChars {
			return "", fmt.Errorf("column %d: text of %d characters is longer than %d: %w",
				column, n, sheetgrid.MaxCellChars, sheetgrid.ErrInvalidArgument)
		}
	}
	return text, nil
}

// SetCell writes text (sanitized) to the cell at rowIndex and the 1-based
// column, creating the row and the cell if needed, and returns the cell.
// An existing cell is overwritten.
func (s *Store) SetCell(rowIndex uint, column int, text string) (*Cell, error) {
	if err := checkRowIndex(rowIndex); err != nil {
		return nil, err
	}
	if err := checkColumn(column); err != nil {
		return nil, err
	}
	name, err := ColumnName(column)
	if err != nil {
		return nil, err
	}
	if text, err = sanitizeValue(column, text); err != nil {
		return nil, err
	}
	c := s.row(rowIndex).cell(name, column)
	c.Value, c.Type = text, CellTypeString
	return c, nil
}

// SetRow writes values[i] to column i+1 of the row at rowIndex,
// in any row order. Either every value is written or none.
//
// Empty values write nothing: the returned row is the existing one, or nil.
func (s *Store) SetRow(rowIndex uint, values []string) (*Row, error) {
	if err := checkRowIndex(rowIndex); err != nil {
		return nil, err
	}
	if err := checkColumn(len(values)); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return s.Row(rowIndex), nil
	}
	texts := make([]string, len(values))
	for i, v := range values {
		var err error
		if texts[i], err = sanitizeValue(i+1, v); err != nil {
			return nil, err
		}
	}
	r := s.row(rowIndex)
	for i, v := range texts {
		name, _ := ColumnName(i + 1)
		c := r.cell(name, i+1)
		c.Value, c.Type = v, CellTypeString
	}
	return r, nil
}

// row returns the row at index, inserting a new one in order if missing.
func (s *Store) row(index uint) *Row {
	i, ok := s.search(index)
	if !ok {
		s.rows = slices.Insert(s.rows, i, &Row{Index: index})
	}
	r := s.rows[i]
	r.dirty = true
	return r
}

// cell returns the cell of the column, inserting a new one if missing,
// before the first cell whose reference compares greater.
//
// References are compared case-insensitively as plain strings, not by column
// number: "AA1" sorts before "J1". Rows built by AppendRow are in column
// order instead, so both lookups scan.
func (r *Row) cell(name string, column int) *Cell {
	ref := name + strconv.FormatUint(uint64(r.Index), 10)
	i := len(r.Cells)
	for j, c := range r.Cells {
		if c.Column == column {
			return c
		}
		if i == len(r.Cells) && compareRef(c.Ref, ref) > 0 {
			i = j
		}
	}
	c := &Cell{Ref: ref, Column: column, Type: CellTypeString}
	r.Cells = slices.Insert(r.Cells, i, c)
	return c
}

func compareRef(a, b string) int {
	return strings.Compare(strings.ToUpper(a), strings.ToUpper(b))
}

// AppendRow appends the next row, numbered one above the previous AppendRow,
// starting from 1. The cells are built in column order without any search.
//
// Returns sheetgrid.ErrInvalidState if a SetCell/SetRow already wrote a row
// at or above the next index.
func (s *Store) AppendRow(values ...string) (*Row, error) {
	index := s.lastRowIndex + 1
	if index > sheetgrid.MaxRowCount {
		return nil, sheetgrid.ErrTooManyRows
	}
	if err := checkColumn(len(values)); err != nil {
		return nil, err
	}
	if n := len(s.rows); n != 0 && s.rows[n-1].Index >= index {
		return nil, fmt.Errorf("append row %d after row %d was written: %w",
			index, s.rows[n-1].Index, sheetgrid.ErrInvalidState)
	}
	suffix := strconv.FormatUint(uint64(index), 10)
	r := &Row{Index: index, Cells: make([]*Cell, len(values)), dirty: true}
	for i, v := range values {
		text, err := sanitizeValue(i+1, v)
		if err != nil {
			return nil, fmt.Errorf("append row %d: %w", index, err)
		}
		name, _ := ColumnName(i + 1)
		r.Cells[i] = &Cell{Ref: name + suffix, Value: text, Column: i + 1, Type: CellTypeString}
	}
	s.lastRowIndex = index
	s.rows = append(s.rows, r)
	return r, nil
}
