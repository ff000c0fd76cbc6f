// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"fmt"
	"strconv"

	"github.com/UNO-SOFT/sheetgrid"
)

// ColumnName returns the letters of the 1-based column number:
// 1 is A, 26 is Z, 27 is AA, 703 is AAA.
func ColumnName(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("column number %d: %w", n, sheetgrid.ErrInvalidArgument)
	}
	var a [16]byte
	i := len(a)
	for n > 0 {
		modulo := (n - 1) % 26
		i--
		a[i] = byte('A' + modulo)
		n = (n - modulo) / 26
	}
	return string(a[i:]), nil
}

// ColumnNumber is the inverse of ColumnName. Lower case letters are accepted.
func ColumnNumber(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty column name: %w", sheetgrid.ErrInvalidArgument)
	}
	var n int
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case 'A' <= c && c <= 'Z':
		case 'a' <= c && c <= 'z':
			c -= 'a' - 'A'
		default:
			return 0, fmt.Errorf("column name %q: %w", name, sheetgrid.ErrInvalidArgument)
		}
		n = n*26 + int(c-'A'+1)
		if n > sheetgrid.MaxColumnCount {
			return 0, fmt.Errorf("column name %q is beyond %d: %w", name, sheetgrid.MaxColumnCount, sheetgrid.ErrInvalidArgument)
		}
	}
	return n, nil
}

// CellName returns the reference of the cell, such as "B3".
func CellName(col int, row uint) (string, error) {
	if row == 0 {
		return "", fmt.Errorf("row index must be bigger than 0: %w", sheetgrid.ErrInvalidArgument)
	}
	name, err := ColumnName(col)
	if err != nil {
		return "", err
	}
	return name + strconv.FormatUint(uint64(row), 10), nil
}
