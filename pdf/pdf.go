// Copyright 2021, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package pdf renders a grid.Store as a PDF table.
package pdf

import (
	"errors"
	"math"
	"unicode/utf8"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/UNO-SOFT/sheetgrid/grid"
)

// Options of Render.
type Options struct {
	// AlternateColor is the background of every second row,
	// DefaultAlternateColor if nil.
	AlternateColor *props.Color
	// FontSize of the body, the header is 1.375 times bigger. Default 8.
	FontSize  float64
	Landscape bool
}

// DefaultAlternateColor is light gray.
var DefaultAlternateColor = props.Color{Red: 230, Green: 230, Blue: 230}

// ErrEmpty is returned when the store has no rows.
var ErrEmpty = errors.New("empty sheet")

// Render returns the rows of s as a PDF table, the first row being the header.
// Column widths are proportional to the average length of their texts.
func Render(s *grid.Store, opts Options) ([]byte, error) {
	if s == nil || s.Len() == 0 {
		return nil, ErrEmpty
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 8
	}
	if opts.AlternateColor == nil {
		c := DefaultAlternateColor
		opts.AlternateColor = &c
	}

	rows := make([][]string, 0, s.Len())
	var width int
	for _, r := range s.Rows() {
		vv := r.Values()
		width = max(width, len(vv))
		rows = append(rows, vv)
	}
	if width == 0 {
		return nil, ErrEmpty
	}
	gridSizes := GridSizes(rows, width)
	var total int
	for _, n := range gridSizes {
		total += n
	}

	orient := orientation.Vertical
	if opts.Landscape {
		orient = orientation.Horizontal
	}
	cfg := config.NewBuilder().
		WithOrientation(orient).
		WithPageSize(pagesize.A4).
		WithMaxGridSize(total).
		Build()
	m := maroto.New(cfg)

	headerProp := props.Text{
		Family: fontfamily.Arial,
		Style:  fontstyle.Bold,
		Size:   opts.FontSize * 1.375,
		Align:  align.Center,
	}
	contentProp := props.Text{
		Family: fontfamily.Courier,
		Style:  fontstyle.Normal,
		Size:   opts.FontSize,
		Align:  align.Left,
	}
	if err := m.RegisterHeader(tableRow(rows[0], gridSizes, headerProp)); err != nil {
		return nil, err
	}
	body := make([]core.Row, 0, len(rows)-1)
	for i, vv := range rows[1:] {
		r := tableRow(vv, gridSizes, contentProp)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: opts.AlternateColor})
		}
		body = append(body, r)
	}
	m.AddRows(body...)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func tableRow(values []string, gridSizes []int, prop props.Text) core.Row {
	cols := make([]core.Col, len(gridSizes))
	for i, n := range gridSizes {
		var v string
		if i < len(values) {
			v = values[i]
		}
		cols[i] = text.NewCol(n, v, prop)
	}
	return row.New().Add(cols...)
}

// GridSizes returns the grid size of each column: the average text length of
// the column relative to the overall average, at least 1.
func GridSizes(rows [][]string, width int) []int {
	lengths := make([]float64, width)
	var all float64
	for _, vv := range rows {
		for i, v := range vv {
			n := float64(utf8.RuneCountInString(v))
			lengths[i] += n
			all += n
		}
	}
	avg := all / float64(width)
	sizes := make([]int, width)
	for i, l := range lengths {
		if avg > 0 {
			sizes[i] = int(math.Round(4 * l / avg))
		}
		if sizes[i] == 0 {
			sizes[i] = 1
		}
	}
	return sizes
}
