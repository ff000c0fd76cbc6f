// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx writes a single-sheet grid.Store as an xlsx file.
package xlsx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/UNO-SOFT/sheetgrid"
	"github.com/UNO-SOFT/sheetgrid/grid"
)

var _ = (sheetgrid.Writer)((*Document)(nil))

type state uint8

const (
	stateUninitialized state = iota
	stateFileCreated
	stateSheetRegistered
	stateWritable
	stateClosed
)

var stateNames = [...]string{"uninitialized", "file created", "sheet registered", "writable", "closed"}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Option configures a Document.
type Option func(*Document)

// WithContainer sets the package writer constructor, the default is
// NewExcelizeContainer.
func WithContainer(newContainer func() Container) Option {
	return func(d *Document) { d.newContainer = newContainer }
}

// WithLogger sets the logger for the debug messages, the default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) { d.logger = logger }
}

// Document is an xlsx file with one worksheet, built in memory and
// written to the file by Save and Close.
//
// The methods of Document are serialized with a mutex,
// so it can be shared between goroutines.
//
// Close must be called on every path, even after an error.
type Document struct {
	newContainer func() Container
	container    Container
	logger       *slog.Logger
	fh           *os.File
	path, sheet  string
	store        grid.Store
	mu           sync.Mutex
	state        state
	saved        bool
}

// New returns an uninitialized Document; call CreateFile on it.
func New(opts ...Option) *Document {
	d := &Document{
		newContainer: func() Container { return NewExcelizeContainer() },
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// CreateFile creates (truncates) the file at path and returns the Document
// writing to it. If sheetName is not empty, the sheet is created, too.
func CreateFile(path, sheetName string, opts ...Option) (*Document, error) {
	d := New(opts...)
	if err := d.CreateFile(path, sheetName); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateFile creates (truncates) the file at path.
// If sheetName is not empty, the sheet is created, too.
//
// On error, nothing is left open, and a file created here is removed.
func (d *Document) CreateFile(path, sheetName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateUninitialized {
		return fmt.Errorf("create file %q in %s document: %w", path, d.state, sheetgrid.ErrInvalidState)
	}
	if path == "" {
		return fmt.Errorf("empty path: %w", sheetgrid.ErrInvalidArgument)
	}
	if sheetName != "" {
		if err := validateSheetName(sheetName); err != nil {
			return err
		}
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", sheetgrid.ErrIO, err)
	}
	d.fh, d.path = fh, path
	d.container = d.newContainer()
	d.state = stateFileCreated
	d.logger.Debug("file created", "path", path)
	if sheetName == "" {
		return nil
	}
	if err = d.createSheet(sheetName); err != nil {
		d.close()
		if rmErr := os.Remove(path); rmErr != nil {
			d.logger.Warn("remove", "path", path, "error", rmErr)
		}
		d.fh, d.path = nil, ""
		d.state = stateUninitialized
	}
	return err
}

// CreateSheet creates the worksheet. Only one sheet is allowed.
func (d *Document) CreateSheet(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createSheet(name)
}

func (d *Document) createSheet(name string) error {
	if name == "" {
		return fmt.Errorf("empty sheet name: %w", sheetgrid.ErrInvalidArgument)
	}
	switch d.state {
	case stateFileCreated:
	case stateSheetRegistered, stateWritable:
		return fmt.Errorf("sheet %q already exists, cannot add %q: %w", d.sheet, name, sheetgrid.ErrInvalidState)
	default:
		return fmt.Errorf("create sheet %q in %s document: %w", name, d.state, sheetgrid.ErrInvalidState)
	}
	if err := validateSheetName(name); err != nil {
		return err
	}
	if err := d.container.AddSheet(name); err != nil {
		return fmt.Errorf("add sheet %q: %w", name, err)
	}
	d.sheet = name
	d.state = stateSheetRegistered
	d.logger.Debug("sheet created", "path", d.path, "sheet", name)
	return nil
}

func (d *Document) checkWritable(op string) error {
	if d.state == stateSheetRegistered || d.state == stateWritable {
		return nil
	}
	return fmt.Errorf("%s in %s document: %w", op, d.state, sheetgrid.ErrInvalidState)
}

// SetCell writes values to the row at rowIndex (1-based), starting from
// column A. Rows can be written in any order, and a cell written twice keeps
// the last value. If save is true, the file is saved.
func (d *Document) SetCell(rowIndex uint, values []string, save bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkWritable("set cell"); err != nil {
		return err
	}
	if _, err := d.store.SetRow(rowIndex, values); err != nil {
		return fmt.Errorf("%s: %w", d.sheet, err)
	}
	d.state = stateWritable
	if !save {
		return nil
	}
	return d.save()
}

// AppendRow writes the next row, starting from row 1.
//
// AppendRow is the fast path for writing many rows, but must not be used
// after SetCell wrote a row beyond the last appended one.
func (d *Document) AppendRow(values ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkWritable("append row"); err != nil {
		return err
	}
	if _, err := d.store.AppendRow(values...); err != nil {
		return fmt.Errorf("%s: %w", d.sheet, err)
	}
	d.state = stateWritable
	return nil
}

// Save writes the current state of the sheet into the file.
// It can be called any number of times.
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkWritable("save"); err != nil {
		return err
	}
	return d.save()
}

func (d *Document) save() error {
	pending := len(d.store.Pending())
	if err := d.container.Flush(d.sheet, &d.store); err != nil {
		return fmt.Errorf("%w: flush %q: %w", sheetgrid.ErrIO, d.path, err)
	}
	if _, err := d.fh.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", sheetgrid.ErrIO, err)
	}
	if err := d.fh.Truncate(0); err != nil {
		return fmt.Errorf("%w: %w", sheetgrid.ErrIO, err)
	}
	bw := bufio.NewWriterSize(d.fh, 1<<20)
	if _, err := d.container.WriteTo(bw); err != nil {
		return fmt.Errorf("%w: write %q: %w", sheetgrid.ErrIO, d.path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", sheetgrid.ErrIO, err)
	}
	d.store.Commit()
	d.saved = true
	d.logger.Debug("saved", "path", d.path, "rows", d.store.Len(), "pending", pending)
	return nil
}

// Close saves the unsaved changes and closes the file.
// Close is idempotent, but every other method fails after it.
func (d *Document) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateClosed || d.state == stateUninitialized {
		d.state = stateClosed
		return nil
	}
	var err error
	if d.checkWritable("close") == nil && (!d.saved || len(d.store.Pending()) != 0) {
		err = d.save()
	}
	return errors.Join(err, d.close())
}

func (d *Document) close() error {
	d.state = stateClosed
	var errs []error
	if d.container != nil {
		if err := d.container.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: close container: %w", sheetgrid.ErrIO, err))
		}
		d.container = nil
	}
	if d.fh != nil {
		if err := d.fh.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", sheetgrid.ErrIO, err))
		}
		d.fh = nil
	}
	d.logger.Debug("closed", "path", d.path)
	return errors.Join(errs...)
}

// CreateDocumentWithRows creates the file at path with one sheet holding the
// rows, appended in order.
func CreateDocumentWithRows(path, sheetName string, rows [][]string, opts ...Option) (err error) {
	if sheetName == "" {
		return fmt.Errorf("empty sheet name: %w", sheetgrid.ErrInvalidArgument)
	}
	d, err := CreateFile(path, sheetName, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	for _, row := range rows {
		if err = d.AppendRow(row...); err != nil {
			return err
		}
	}
	return d.Save()
}

// Path returns the path of the file.
func (d *Document) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// SheetName returns the name of the sheet, or "" if not created yet.
func (d *Document) SheetName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sheet
}

func validateSheetName(s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return fmt.Errorf("empty sheet name: %w", sheetgrid.ErrInvalidArgument)
	} else if n > 31 {
		return fmt.Errorf("sheet name %q is longer than 31 characters: %w", s, sheetgrid.ErrInvalidArgument)
	}
	if strings.HasPrefix(s, "'") || strings.HasSuffix(s, "'") {
		return fmt.Errorf("sheet name %q starts or ends with a single quote: %w", s, sheetgrid.ErrInvalidArgument)
	}
	if strings.ContainsAny(s, ":\\/?*[]") {
		return fmt.Errorf("sheet name %q contains any of :\\/?*[]: %w", s, sheetgrid.ErrInvalidArgument)
	}
	return nil
}
