// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package sheetgrid builds single-sheet spreadsheet documents incrementally,
// in memory, and hands them to a package writer.
package sheetgrid

import (
	"errors"
	"io"
)

// Writer writes one sheet of a spreadsheet document.
// The document is finished when Close is called.
//
// Implementations need not be safe for concurrent use,
// and should document if they are.
type Writer interface {
	io.Closer
	CreateSheet(name string) error
	// SetCell writes values to the given 1-based row, starting at column A,
	// in any row order.
	SetCell(rowIndex uint, values []string, save bool) error
	// AppendRow writes the next row. Must not be mixed with SetCell
	// once SetCell wrote past the last appended row.
	AppendRow(values ...string) error
	Save() error
}

var (
	// ErrInvalidArgument is returned for a zero row index, a bad column,
	// an empty or invalid sheet name or an empty path.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when an operation is called in the wrong
	// lifecycle state, e.g. writing before CreateSheet or after Close.
	ErrInvalidState = errors.New("invalid state")
	// ErrIO wraps storage and container failures.
	ErrIO = errors.New("i/o error")

	ErrTooManyRows = errors.New("too many rows")
)

const (
	// MaxRowCount is the number of maximum rows.
	MaxRowCount = 1_048_576
	// MaxColumnCount is the number of maximum columns (XFD).
	MaxColumnCount = 16_384
	// MaxCellChars is the maximum length of a cell text, in characters.
	MaxCellChars = 32_767
)
