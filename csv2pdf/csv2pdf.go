// Copyright 2021, 2025 Tamas Gulacsi. All rights reserved.

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/sheetgrid"
	"github.com/UNO-SOFT/sheetgrid/grid"
	"github.com/UNO-SOFT/sheetgrid/pdf"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil && !errors.Is(err, flag.ErrHelp) {
		slog.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	alternateColor := Color{Color: pdf.DefaultAlternateColor}

	fs := flag.NewFlagSet("csv2pdf", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", sheetgrid.EncName, "csv charset name")
	flagOut := fs.String("o", "", "output file name (default input file + .pdf)")
	flagColor := fs.String("alternate-color", alternateColor.String(), "alternate color")
	flagLandscape := fs.Bool("L", false, "landscape orientation (default: portrait)")
	flagFontSize := fs.Float64("f", 8, "font size")

	app := ffcli.Command{Name: "csv2pdf", FlagSet: fs,
		ShortUsage: "csv2pdf [flags] input.csv",
		Options:    []ff.Option{ff.WithEnvVarPrefix("CSV2PDF")},
		Exec: func(ctx context.Context, args []string) error {
			if err := alternateColor.Parse(*flagColor); err != nil {
				return fmt.Errorf("alternate-color=%q: %w", *flagColor, err)
			}
			fn := "-"
			if len(args) != 0 {
				fn = args[0]
			}
			var s grid.Store
			if err := readCsv(ctx, &s, fn, *flagEnc); err != nil {
				return fmt.Errorf("%q: %w", fn, err)
			}
			logger.Debug("read", "file", fn, "rows", s.Len())
			b, err := pdf.Render(&s, pdf.Options{
				AlternateColor: &alternateColor.Color,
				FontSize:       *flagFontSize,
				Landscape:      *flagLandscape,
			})
			if err != nil {
				return err
			}
			out := *flagOut
			if out == "" && fn != "" && fn != "-" {
				out = fn + ".pdf"
			}
			if out == "" || out == "-" {
				_, err = os.Stdout.Write(b)
				return err
			}
			return os.WriteFile(out, b, 0666)
		},
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if strings.HasPrefix(a, "-f") && len(a) > 2 && '0' <= a[2] && a[2] <= '9' {
			args = append(args, "-f", a[2:])
		} else {
			args = append(args, a)
		}
	}
	logger.Debug("args", "original", os.Args[1:], "fixed", args)
	if err := app.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// readCsv appends the records of fn to s.
func readCsv(ctx context.Context, s *grid.Store, fn, encName string) error {
	cr, err := sheetgrid.OpenCsv(fn, encName)
	if err != nil {
		return err
	}
	defer cr.Close()
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if _, err = s.AppendRow(row...); err != nil {
			return err
		}
	}
}

type Color struct {
	props.Color
}

func (c *Color) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.Red, c.Green, c.Blue)
}
func (c *Color) Parse(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 3 {
		return fmt.Errorf("%q: need 3 bytes, got %d", s, len(b))
	}
	c.Red, c.Green, c.Blue = int(b[0]), int(b[1]), int(b[2])
	return nil
}
