// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/UNO-SOFT/sheetgrid"
)

func refs(r *Row) []string {
	ss := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		ss[i] = c.Ref
	}
	return ss
}

func indexes(s *Store) []uint {
	ii := make([]uint, 0, s.Len())
	for _, r := range s.Rows() {
		ii = append(ii, r.Index)
	}
	return ii
}

func TestSetCellSparse(t *testing.T) {
	var s Store
	for _, i := range []uint{1, 5, 3} {
		if _, err := s.SetRow(i, []string{"a", "b"}); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := indexes(&s), []uint{1, 3, 5}; !slices.Equal(got, want) {
		t.Errorf("got rows %v, wanted %v", got, want)
	}
	if r := s.Row(3); r == nil || !slices.Equal(refs(r), []string{"A3", "B3"}) {
		t.Errorf("row 3: %+v", r)
	}
	if r := s.Row(2); r != nil {
		t.Errorf("row 2 exists: %+v", r)
	}
}

func TestSetCellOverwrite(t *testing.T) {
	var s Store
	c1, err := s.SetCell(2, 3, "x")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := s.SetCell(2, 3, "y&")
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Error("overwrite created a new cell")
	}
	r := s.Row(2)
	if len(r.Cells) != 1 {
		t.Fatalf("got %d cells, wanted 1", len(r.Cells))
	}
	if c := r.Cell(3); c == nil || c.Value != "y" || c.Ref != "C2" || c.Type != CellTypeString {
		t.Errorf("got %+v", c)
	}
}

func TestSetCellInvalid(t *testing.T) {
	var s Store
	for _, tt := range []struct {
		row uint
		col int
	}{
		{0, 1},
		{1, 0},
		{1, -1},
		{sheetgrid.MaxRowCount + 1, 1},
		{1, sheetgrid.MaxColumnCount + 1},
	} {
		if _, err := s.SetCell(tt.row, tt.col, "x"); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
			t.Errorf("SetCell(%d, %d): %v", tt.row, tt.col, err)
		}
	}
	if _, err := s.SetRow(0, []string{"x"}); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
		t.Errorf("SetRow(0): %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("failed writes left %d rows", s.Len())
	}
}

// The cells of a row are ordered by plain string comparison of their
// references, so multi-letter columns sort before the later single letters.
func TestCellOrderByReference(t *testing.T) {
	var s Store
	for _, col := range []int{10, 1, 27, 2, 26} {
		if _, err := s.SetCell(1, col, strings.Repeat("v", col)); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"A1", "AA1", "B1", "J1", "Z1"}
	if got := refs(s.Row(1)); !slices.Equal(got, want) {
		t.Errorf("got %v, wanted %v", got, want)
	}
	if got := s.Row(1).Values(); len(got) != 27 || got[26] != strings.Repeat("v", 27) || got[2] != "" {
		t.Errorf("Values: %q", got)
	}
}

func TestSetCellRandomOrder(t *testing.T) {
	var s Store
	rnd := rand.New(rand.NewPCG(1, 2))
	seen := make(map[string]string)
	for i := 0; i < 2000; i++ {
		row, col := uint(rnd.IntN(200)+1), rnd.IntN(60)+1
		v := fmt.Sprintf("%d/%d", i, col)
		c, err := s.SetCell(row, col, v)
		if err != nil {
			t.Fatal(err)
		}
		seen[c.Ref] = v
	}
	var n int
	var prev uint
	for _, r := range s.Rows() {
		if r.Index <= prev {
			t.Fatalf("row %d after %d", r.Index, prev)
		}
		prev = r.Index
		for j := 1; j < len(r.Cells); j++ {
			if compareRef(r.Cells[j-1].Ref, r.Cells[j].Ref) >= 0 {
				t.Errorf("row %d: %q before %q", r.Index, r.Cells[j-1].Ref, r.Cells[j].Ref)
			}
		}
		for _, c := range r.Cells {
			n++
			if want := seen[c.Ref]; c.Value != want {
				t.Errorf("%s=%q, wanted %q", c.Ref, c.Value, want)
			}
		}
	}
	if n != len(seen) {
		t.Errorf("got %d cells, wanted %d", n, len(seen))
	}
}

func TestAppendRow(t *testing.T) {
	var s Store
	rows := [][]string{
		{"Id", "Name"},
		{"1", "John", "extra"},
		{},
		{"2", "Dupond"},
	}
	for _, vv := range rows {
		if _, err := s.AppendRow(vv...); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := indexes(&s), []uint{1, 2, 3, 4}; !slices.Equal(got, want) {
		t.Fatalf("got rows %v, wanted %v", got, want)
	}
	for i, r := range s.Rows() {
		if len(r.Cells) != len(rows[i]) {
			t.Errorf("row %d: got %d cells, wanted %d", r.Index, len(r.Cells), len(rows[i]))
		}
	}
	if got := refs(s.Row(4)); !slices.Equal(got, []string{"A4", "B4"}) {
		t.Errorf("row 4: %v", got)
	}
	if got := s.Row(2).Values(); !slices.Equal(got, rows[1]) {
		t.Errorf("row 2: %q", got)
	}
}

func TestAppendRowWide(t *testing.T) {
	var s Store
	vv := make([]string, 30)
	for i := range vv {
		vv[i] = fmt.Sprint(i + 1)
	}
	r, err := s.AppendRow(vv...)
	if err != nil {
		t.Fatal(err)
	}
	if r.Cells[26].Ref != "AA1" || r.Cells[29].Ref != "AD1" {
		t.Errorf("got %v", refs(r))
	}
	// Upserting into an appended row finds the existing cells.
	if _, err := s.SetRow(1, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetCell(1, 28, "ab"); err != nil {
		t.Fatal(err)
	}
	if len(r.Cells) != 30 || r.Cell(1).Value != "x" || r.Cell(28).Value != "ab" {
		t.Errorf("got %v", r.Values())
	}
}

func TestAppendAfterSetCell(t *testing.T) {
	var s Store
	if _, err := s.AppendRow("a"); err != nil {
		t.Fatal(err)
	}
	// Rewriting an already appended row is fine.
	if _, err := s.SetRow(1, []string{"b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendRow("c"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetCell(3, 1, "d"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendRow("e"); !errors.Is(err, sheetgrid.ErrInvalidState) {
		t.Errorf("append over row 3: %v", err)
	}
	if got, want := indexes(&s), []uint{1, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("got rows %v, wanted %v", got, want)
	}
}

func TestAppendRowTooWide(t *testing.T) {
	var s Store
	if _, err := s.AppendRow(make([]string, sheetgrid.MaxColumnCount+1)...); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
		t.Errorf("got %v", err)
	}
	if s.Len() != 0 {
		t.Error("failed append added a row")
	}
	if r, err := s.AppendRow("first"); err != nil || r.Index != 1 {
		t.Errorf("got %+v, %v", r, err)
	}
}

func TestAppendRowTooManyRows(t *testing.T) {
	var s Store
	s.lastRowIndex = sheetgrid.MaxRowCount
	if _, err := s.AppendRow("a"); !errors.Is(err, sheetgrid.ErrTooManyRows) {
		t.Errorf("got %v, wanted %v", err, sheetgrid.ErrTooManyRows)
	}
	if s.Len() != 0 || s.lastRowIndex != sheetgrid.MaxRowCount {
		t.Errorf("failed append changed the store: %d rows, last index %d", s.Len(), s.lastRowIndex)
	}
}

func TestSetRowEmpty(t *testing.T) {
	var s Store
	for _, values := range [][]string{nil, {}} {
		r, err := s.SetRow(5, values)
		if err != nil || r != nil {
			t.Errorf("SetRow(5, %#v): got %+v, %v", values, r, err)
		}
	}
	if s.Len() != 0 || len(s.Pending()) != 0 {
		t.Errorf("empty SetRow created %v", indexes(&s))
	}
	if r, err := s.AppendRow("a"); err != nil || r.Index != 1 {
		t.Errorf("got %+v, %v", r, err)
	}
	if _, err := s.SetRow(0, nil); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
		t.Errorf("row 0: got %v", err)
	}
	s.Commit()
	if r, err := s.SetRow(1, nil); err != nil || r == nil || r.Index != 1 {
		t.Errorf("got %+v, %v", r, err)
	}
	if got := s.Pending(); len(got) != 0 {
		t.Errorf("empty SetRow marked %d rows pending", len(got))
	}
}

func TestCellTooLong(t *testing.T) {
	fits := strings.Repeat("é", sheetgrid.MaxCellChars)
	// Stripped runes do not count.
	stripped := fits + "&&&"
	long := strings.Repeat("x", sheetgrid.MaxCellChars+1)

	var s Store
	if c, err := s.SetCell(1, 1, stripped); err != nil || c.Value != fits {
		t.Errorf("%d characters: %v", sheetgrid.MaxCellChars, err)
	}
	if _, err := s.SetCell(1, 2, long); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
		t.Errorf("SetCell: got %v", err)
	}
	if _, err := s.SetRow(2, []string{"a", long}); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
		t.Errorf("SetRow: got %v", err)
	}
	if got, want := indexes(&s), []uint{1}; !slices.Equal(got, want) {
		t.Errorf("got rows %v, wanted %v", got, want)
	}
	if got := len(s.Row(1).Cells); got != 1 {
		t.Errorf("got %d cells in row 1, wanted 1", got)
	}

	var a Store
	if _, err := a.AppendRow("a", long); !errors.Is(err, sheetgrid.ErrInvalidArgument) {
		t.Errorf("AppendRow: got %v", err)
	}
	if a.Len() != 0 {
		t.Error("failed append added a row")
	}
	if r, err := a.AppendRow(fits); err != nil || r.Index != 1 {
		t.Errorf("got %+v, %v", r, err)
	}
}

func TestPending(t *testing.T) {
	var s Store
	s.AppendRow("a")
	s.AppendRow("b")
	s.SetCell(7, 1, "c")
	if got := len(s.Pending()); got != 3 {
		t.Errorf("got %d pending rows, wanted 3", got)
	}
	s.Commit()
	if got := s.Pending(); len(got) != 0 {
		t.Errorf("got %d pending rows after Commit", len(got))
	}
	s.SetCell(2, 2, "d")
	if got := s.Pending(); len(got) != 1 || got[0].Index != 2 {
		t.Errorf("got %+v", got)
	}
}

func BenchmarkAppendRow(b *testing.B) {
	vv := []string{"1", "Line 1", "Hello there", "how are you today?", "I am fine thank you"}
	for b.Loop() {
		var s Store
		for range 1000 {
			if _, err := s.AppendRow(vv...); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkSetRow(b *testing.B) {
	vv := []string{"1", "Line 1", "Hello there", "how are you today?", "I am fine thank you"}
	for b.Loop() {
		var s Store
		for i := range 1000 {
			if _, err := s.SetRow(uint(i+1), vv); err != nil {
				b.Fatal(err)
			}
		}
	}
}
