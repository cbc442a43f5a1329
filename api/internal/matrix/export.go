package matrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a download format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
)

const (
	// BaseName is the download file name without extension.
	BaseName  = "QA_Matrix"
	SheetName = "Test Matrix"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q; use md, csv or xlsx", s)
}

func (f Format) FileName() string { return BaseName + "." + string(f) }

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Write renders md in format f. For CSV and XLSX the table must parse.
func Write(w io.Writer, f Format, md string) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, md)
	case FormatXLSX:
		return WriteXLSX(w, md)
	default:
		return WriteMarkdown(w, md)
	}
}

// WriteMarkdown writes the model output unchanged.
func WriteMarkdown(w io.Writer, md string) error {
	_, err := io.WriteString(w, md)
	return err
}

func WriteCSV(w io.Writer, md string) error {
	t, err := ParseTable(md)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Write(t.Header)
	for _, r := range t.Rows {
		cw.Write(r)
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, md string) error {
	t, err := ParseTable(md)
	if err != nil {
		return err
	}
	f, err := buildWorkbook(t)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func buildWorkbook(t Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rows := append([][]string{t.Header}, t.Rows...)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		vals := make([]interface{}, len(r))
		for j, v := range r {
			vals[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			f.Close()
			return nil, fmt.Errorf("set row %d: %w", i+1, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	if len(t.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("header style: %w", err)
		}
	}
	return f, nil
}
