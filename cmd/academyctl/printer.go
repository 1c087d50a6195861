package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printer writes command output. Results go to out, status lines and errors to err.
type printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

func newPrinter(out, err io.Writer, noColor bool) *printer {
	useColors := !noColor
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		useColors = false
	}
	return &printer{out: out, err: err, useColors: useColors}
}

func (p *printer) Banner(appName string) {
	fig := figure.NewFigure(appName, "cybermedium", true)
	fmt.Fprintln(p.out, fig.String())
}

func (p *printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Success(format string, args ...any) {
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.err, "✓ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[OK] "+format+"\n", args...)
}

func (p *printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

func (p *printer) Error(format string, args ...any) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Hint is printed under an error
func (p *printer) Hint(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.err, "  "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "  "+format+"\n", args...)
}

func (p *printer) Header(title string) {
	if p.useColors {
		color.New(color.Bold).Fprintf(p.out, "%s\n", title)
		return
	}
	fmt.Fprintf(p.out, "%s\n", title)
}

func (p *printer) Table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// JSON pretty prints a raw JSON body, or writes it as is when it is not JSON
func (p *printer) JSON(raw []byte) {
	if len(raw) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, _ = p.out.Write(raw)
		fmt.Fprintln(p.out)
		return
	}
	fmt.Fprintln(p.out, buf.String())
}
