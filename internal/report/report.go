// Package report writes tabular pipeline output as CSV files and XLSX workbooks.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Table is a named grid of already formatted cells.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// WriteCSV writes t to w with a header row.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes t to path, creating parent directories.
func WriteCSVFile(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, t); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sheetName trims a table name to the 31 characters a worksheet name allows.
func sheetName(name string) string {
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}

// WriteWorkbook writes every table to its own sheet of one workbook.
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, t := range tables {
		name := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}

		sw, err := f.NewStreamWriter(name)
		if err != nil {
			return fmt.Errorf("failed to open sheet %s: %w", name, err)
		}
		header := make([]interface{}, len(t.Headers))
		for j, h := range t.Headers {
			header[j] = excelize.Cell{StyleID: headerStyle, Value: h}
		}
		if err := sw.SetRow("A1", header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", name, err)
		}
		for r, row := range t.Rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, cells); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", r+2, name, err)
			}
		}
		if err := sw.Flush(); err != nil {
			return fmt.Errorf("failed to flush sheet %s: %w", name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteAll writes each table as dir/<name>.csv and, when workbook is set, all
// tables to dir/<workbookName>.xlsx. It returns the written paths.
func WriteAll(dir, workbookName string, tables []Table, workbook bool) ([]string, error) {
	paths := make([]string, 0, len(tables)+1)
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := WriteCSVFile(path, t); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if workbook && len(tables) > 0 {
		path := filepath.Join(dir, workbookName+".xlsx")
		if err := WriteWorkbook(path, tables); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
