// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/sheetgrid"
	"github.com/UNO-SOFT/sheetgrid/ooxml"
	"github.com/UNO-SOFT/sheetgrid/xlsx"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil && !errors.Is(err, flag.ErrHelp) {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	fs := flag.NewFlagSet("csv2xlsx", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", sheetgrid.EncName, "csv charset name")
	flagOut := fs.String("o", "", "output file name (default input file + .xlsx)")
	flagEngine := fs.String("engine", "excelize", "package writer: excelize or ooxml")

	documentOptions := func() ([]xlsx.Option, error) {
		opts := []xlsx.Option{xlsx.WithLogger(logger)}
		switch *flagEngine {
		case "", "excelize":
		case "ooxml":
			opts = append(opts, xlsx.WithContainer(func() xlsx.Container { return ooxml.New() }))
		default:
			return nil, fmt.Errorf("unknown engine %q (excelize or ooxml)", *flagEngine)
		}
		return opts, nil
	}

	demoFS := flag.NewFlagSet("demo", flag.ContinueOnError)
	flagDir := demoFS.String("dir", ".", "output directory")
	flagLines := demoFS.Int("n", 100_000, "number of lines to append")
	demoCmd := ffcli.Command{Name: "demo", FlagSet: demoFS,
		ShortUsage: "csv2xlsx demo [-dir=.] [-n=100000]",
		ShortHelp:  "write the sample files (automatic, manual and append-line)",
		Exec: func(ctx context.Context, args []string) error {
			opts, err := documentOptions()
			if err != nil {
				return err
			}
			return demo(ctx, *flagDir, *flagLines, opts)
		},
	}

	app := ffcli.Command{Name: "csv2xlsx", FlagSet: fs,
		ShortUsage: "csv2xlsx [flags] [sheet:]input.csv",
		ShortHelp:  "convert a CSV file to a one-sheet xlsx",
		Options:    []ff.Option{ff.WithEnvVarPrefix("CSV2XLSX")},
		Exec: func(ctx context.Context, args []string) error {
			opts, err := documentOptions()
			if err != nil {
				return err
			}
			fn := "-"
			if len(args) != 0 {
				fn = args[0]
			}
			sheetName := "Sheet1"
			if i := strings.IndexByte(fn, ':'); i >= 0 {
				sheetName, fn = fn[:i], fn[i+1:]
			} else if fn != "" && fn != "-" {
				sheetName = strings.TrimSuffix(filepath.Base(fn), ".csv")
			}
			out := *flagOut
			if out == "" {
				if fn == "" || fn == "-" {
					return errors.New("-o is required when reading from stdin")
				}
				out = strings.TrimSuffix(fn, ".csv") + ".xlsx"
			}
			logger.Info("convert", "input", fn, "output", out, "sheet", sheetName, "charset", *flagEnc)
			if err := convert(ctx, out, sheetName, fn, *flagEnc, opts); err != nil {
				return fmt.Errorf("%q: %w", fn, err)
			}
			return nil
		},
		Subcommands: []*ffcli.Command{&demoCmd},
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.ParseAndRun(ctx, os.Args[1:])
}

func convert(ctx context.Context, out, sheetName, fn, encName string, opts []xlsx.Option) error {
	cr, err := sheetgrid.OpenCsv(fn, encName)
	if err != nil {
		return err
	}
	defer cr.Close()

	d, err := xlsx.CreateFile(out, sheetName, opts...)
	if err != nil {
		return err
	}
	defer d.Close()
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if err = d.AppendRow(row...); err != nil {
			return err
		}
	}
	return d.Close()
}

var demoRows = [][]string{
	{"Id", "Name"},
	{"1", "John"},
	{"2", "Dupond"},
}

// demo writes the same rows three ways: all at once, as sparse rows 1, 3
// and 5, and as a header followed by n appended lines.
func demo(ctx context.Context, dir string, n int, opts []xlsx.Option) error {
	const sheetName = "Data"
	fn := filepath.Join(dir, "DataFile-Automatic.xlsx")
	if err := xlsx.CreateDocumentWithRows(fn, sheetName, demoRows, opts...); err != nil {
		return err
	}
	logger.Info("written", "file", fn)

	fn = filepath.Join(dir, "DataFile-Manual.xlsx")
	d, err := xlsx.CreateFile(fn, sheetName, opts...)
	if err != nil {
		return err
	}
	defer d.Close()
	for i, row := range demoRows {
		if err = d.SetCell(uint(2*i+1), row, true); err != nil {
			return err
		}
	}
	if err = d.Close(); err != nil {
		return err
	}
	logger.Info("written", "file", fn)

	fn = filepath.Join(dir, "DataFile-AppendLine.xlsx")
	if d, err = xlsx.CreateFile(fn, sheetName, opts...); err != nil {
		return err
	}
	defer d.Close()
	if err = d.AppendRow(demoRows[0]...); err != nil {
		return err
	}
	for i := range n {
		if i%1024 == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
		s := strconv.Itoa(i)
		if err = d.AppendRow(s, "Line "+s, "Hello there", "how are you today?", "I am fine thank you"); err != nil {
			return err
		}
	}
	if err = d.Close(); err != nil {
		return err
	}
	logger.Info("written", "file", fn, "lines", n+1)
	return nil
}
