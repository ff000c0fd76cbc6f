// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetgrid

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// EncName is the default charset of the CSV input, taken from $LANG.
var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	} else {
		EncName = ""
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

// GetEncoding returns the encoding for the name, or nil for UTF-8.
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

type csvReadCloser struct {
	*csv.Reader
	io.Closer
}

// OpenCsv opens fn ("" or "-" is stdin) for reading as CSV,
// decoding from encName and sniffing the field separator.
//
// The returned reader reuses its records.
func OpenCsv(fn, encName string) (csvReadCloser, error) {
	var enc encoding.Encoding
	if encName != "" {
		var err error
		if enc, err = GetEncoding(encName); err != nil {
			return csvReadCloser{}, err
		}
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return csvReadCloser{}, err
		}
	}
	cr, err := NewCsvReader(fh, enc)
	if err != nil {
		fh.Close()
		return csvReadCloser{}, err
	}
	return csvReadCloser{cr, fh}, nil
}

// NewCsvReader returns a csv.Reader over r, decoded with enc (if not nil),
// with the separator guessed from the first line: the first rune which is not
// a letter, number, space, '"' or '_'.
func NewCsvReader(r io.Reader, enc encoding.Encoding) (*csv.Reader, error) {
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		return nil, err
	}
	sep := rune(',')
	for _, r := range string(b) {
		if r == '"' || r == '_' || r == ' ' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		if r != '\r' && r != '\n' {
			sep = r
		}
		break
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.Comma = sep
	return cr, nil
}
