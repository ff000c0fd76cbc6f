// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package ooxml writes a single-sheet SpreadsheetML package directly,
// without an intermediate workbook model.
//
// Every cell is written as an inline string, so there is no shared string
// table to build: the cost of WriteTo is proportional to the cell count.
package ooxml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adnsv/srw/xml"
	"github.com/klauspost/compress/zip"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/UNO-SOFT/sheetgrid/grid"
)

const (
	nsMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOfficeDocument = nsRelationships + "/officeDocument"
	relWorksheet      = nsRelationships + "/worksheet"
	relExtended       = nsRelationships + "/extended-properties"
	relCore           = nsPackageRels + "/metadata/core-properties"

	sheetPath = "xl/worksheets/sheet1.xml"
)

// Package is a package writer for one worksheet.
// It keeps a reference to the flushed grid.Store and serializes it on WriteTo.
type Package struct {
	store *grid.Store
	sheet string
	// AppName is written into docProps/app.xml.
	AppName string
	// Created is the creation time in docProps/core.xml, the time of WriteTo if zero.
	Created time.Time
}

// New returns an empty Package.
func New() *Package { return &Package{AppName: "sheetgrid"} }

var errSheetExists = errors.New("package already has a sheet")

// AddSheet sets the name of the worksheet.
func (p *Package) AddSheet(name string) error {
	if p.sheet != "" {
		return fmt.Errorf("%q: %w", name, errSheetExists)
	}
	p.sheet = name
	return nil
}

// Flush records s as the content of the sheet.
func (p *Package) Flush(sheet string, s *grid.Store) error {
	if sheet != p.sheet {
		return fmt.Errorf("flush %q: unknown sheet (have %q)", sheet, p.sheet)
	}
	p.store = s
	return nil
}

// Close releases the store.
func (p *Package) Close() error {
	p.store = nil
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// zipStorage writes the parts of the package as deflated zip entries.
type zipStorage struct {
	z *zip.Writer
}

func (zs zipStorage) WriteBlob(path string, blob []byte) error {
	f, err := zs.z.CreateHeader(&zip.FileHeader{
		Name:   strings.TrimPrefix(path, "/"),
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = f.Write(blob)
	return err
}

// WriteTo writes the package as a zip archive.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	if p.sheet == "" {
		return 0, errors.New("no sheet")
	}
	cw := &countingWriter{w: w}
	zs := zipStorage{z: zip.NewWriter(cw)}
	created := p.Created
	if created.IsZero() {
		created = time.Now()
	}
	for _, part := range []struct {
		path  string
		write func(x *xml.Writer)
	}{
		{"[Content_Types].xml", writeContentTypes},
		{"_rels/.rels", func(x *xml.Writer) {
			writeRels(x, []rel{
				{relOfficeDocument, "xl/workbook.xml"},
				{relCore, "docProps/core.xml"},
				{relExtended, "docProps/app.xml"},
			})
		}},
		{"docProps/app.xml", p.writeApp},
		{"docProps/core.xml", func(x *xml.Writer) { writeCore(x, created) }},
		{"xl/workbook.xml", p.writeWorkbook},
		{"xl/_rels/workbook.xml.rels", func(x *xml.Writer) {
			writeRels(x, []rel{{relWorksheet, strings.TrimPrefix(sheetPath, "xl/")}})
		}},
		{sheetPath, p.writeSheet},
	} {
		var bb bytes.Buffer
		x := xml.NewWriter(&bb, xml.WriterConfig{Indent: xml.Indent2Spaces})
		x.XmlStandaloneDecl()
		part.write(x)
		if err := zs.WriteBlob(part.path, bb.Bytes()); err != nil {
			return cw.n, fmt.Errorf("%s: %w", part.path, err)
		}
	}
	err := zs.z.Close()
	return cw.n, err
}

func writeContentTypes(x *xml.Writer) {
	x.OTag("Types")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
	x.OTag("+Default").Attr("Extension", "rels").
		Attr("ContentType", "application/vnd.openxmlformats-package.relationships+xml").CTag()
	x.OTag("+Default").Attr("Extension", "xml").Attr("ContentType", "application/xml").CTag()
	for _, o := range [][2]string{
		{"/xl/workbook.xml", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"},
		{"/" + sheetPath, "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"},
		{"/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml"},
		{"/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml"},
	} {
		x.OTag("+Override").Attr("PartName", o[0]).Attr("ContentType", o[1]).CTag()
	}
	x.CTag()
}

type rel struct {
	Type, Target string
}

func writeRels(x *xml.Writer, rels []rel) {
	x.OTag("Relationships")
	x.Attr("xmlns", nsPackageRels)
	for i, r := range rels {
		x.OTag("+Relationship").Attr("Id", "rId"+strconv.Itoa(i+1)).
			Attr("Type", r.Type).Attr("Target", r.Target).CTag()
	}
	x.CTag()
}

func (p *Package) writeApp(x *xml.Writer) {
	x.OTag("Properties")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	x.OTag("+Application").Write(xmlText(p.AppName)).CTag()
	x.CTag()
}

func writeCore(x *xml.Writer, created time.Time) {
	x.OTag("cp:coreProperties")
	x.Attr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	x.Attr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	x.Attr("xmlns:dcterms", "http://purl.org/dc/terms/")
	x.Attr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	x.OTag("+dcterms:created").Attr("xsi:type", "dcterms:W3CDTF").
		Write(created.UTC().Format(time.RFC3339)).CTag()
	x.CTag()
}

func (p *Package) writeWorkbook(x *xml.Writer) {
	x.OTag("workbook")
	x.Attr("xmlns", nsMain)
	x.Attr("xmlns:r", nsRelationships)
	x.OTag("+sheets")
	x.OTag("+sheet").Attr("name", xmlText(p.sheet)).Attr("sheetId", "1").Attr("r:id", "rId1").CTag()
	x.CTag()
	x.CTag()
}

func byColumn(a, b *grid.Cell) int { return a.Column - b.Column }

func (p *Package) writeSheet(x *xml.Writer) {
	x.OTag("worksheet")
	x.Attr("xmlns", nsMain)
	x.Attr("xmlns:r", nsRelationships)
	x.OTag("+dimension").Attr("ref", Dimension(p.store)).CTag()

	x.OTag("+sheetData")
	if p.store != nil {
		for _, r := range p.store.Rows() {
			x.OTag("+row").Attr("r", strconv.FormatUint(uint64(r.Index), 10))
			cells := r.Cells
			// Readers expect the cells in column order.
			if !slices.IsSortedFunc(cells, byColumn) {
				cells = slices.SortedFunc(slices.Values(cells), byColumn)
			}
			for _, c := range cells {
				x.OTag("+c").Attr("r", c.Ref).Attr("t", "inlineStr")
				x.OTag("is")
				x.OTag("t")
				if strings.TrimSpace(c.Value) != c.Value {
					x.Attr("xml:space", "preserve")
				}
				x.Write(xmlText(c.Value)).CTag()
				x.CTag() // is
				x.CTag() // c
			}
			x.CTag() // row
		}
	}
	x.CTag() // sheetData

	x.CTag() // worksheet
}

// Dimension returns the used range of the store, such as "A1:C3".
func Dimension(s *grid.Store) string {
	if s == nil || s.Len() == 0 {
		return "A1"
	}
	rows := s.Rows()
	minCol, maxCol := 0, 0
	for _, r := range rows {
		for _, c := range r.Cells {
			if minCol == 0 || c.Column < minCol {
				minCol = c.Column
			}
			maxCol = max(maxCol, c.Column)
		}
	}
	if minCol == 0 {
		minCol, maxCol = 1, 1
	}
	first, _ := grid.CellName(minCol, rows[0].Index)
	last, _ := grid.CellName(maxCol, rows[len(rows)-1].Index)
	if first == last {
		return first
	}
	return first + ":" + last
}

// isXMLChar reports whether r is allowed in an XML 1.0 document.
func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		0x20 <= r && r <= 0xD7FF ||
		0xE000 <= r && r <= 0xFFFD ||
		0x10000 <= r && r <= utf8.MaxRune
}

// toXMLChars replaces the runes XML does not allow with U+FFFD.
// Invalid UTF-8 bytes reach the mapping as utf8.RuneError.
var toXMLChars = runes.Map(func(r rune) rune {
	if isXMLChar(r) {
		return r
	}
	return utf8.RuneError
})

// xmlText returns s with invalid UTF-8 and the non-XML characters replaced by
// U+FFFD, as encoding/xml.EscapeText does.
func xmlText(s string) string {
	clean := true
	for _, r := range s {
		if r == utf8.RuneError || !isXMLChar(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	t, _, err := transform.String(toXMLChars, s)
	if err != nil {
		return strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return t
}
