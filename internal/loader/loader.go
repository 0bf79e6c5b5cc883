// Package loader reads point-of-sale extracts (CSV or XLSX) into sale records.
package loader

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrMissingColumns is returned when the header lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format identifies the encoding of an extract.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf derives the format from a file name.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

// columnAliases lists accepted header spellings per canonical column, in SaleColumns order.
var columnAliases = [][]string{
	{"store name", "store", "branch"},
	{"item_code", "item code", "sku"},
	{"description", "item description"},
	{"category"},
	{"section"},
	{"sub-department", "sub department", "subdept"},
	{"supplier", "supplier name"},
	{"quantity", "qty"},
	{"total sales", "sales", "total_sales"},
	{"rrp", "recommended retail price"},
	{"date of sale", "date", "sale date"},
}

const (
	colStore = iota
	colItem
	colDescription
	colCategory
	colSection
	colSubDept
	colSupplier
	colQuantity
	colTotalSales
	colRRP
	colDate
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(strings.TrimPrefix(name, "\ufeff")))
	return columnNameSanitizer.Replace(name)
}

// LoadFile reads an extract from disk, picking the reader from the file extension.
func LoadFile(path string) ([]domain.SaleRecord, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("rows", len(records)).Msg("sales extract loaded")
	return records, nil
}

// Read decodes an extract of the given format.
func Read(r io.Reader, format Format) ([]domain.SaleRecord, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// ReadCSV decodes a comma separated extract with a header row.
func ReadCSV(r io.Reader) ([]domain.SaleRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: %w", ErrMissingColumns)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	p, err := newRowParser(header, parseDate)
	if err != nil {
		return nil, err
	}

	records := make([]domain.SaleRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if rec, ok := p.parse(row); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ReadXLSX decodes the first sheet of a workbook. Cells are read raw so dates
// arrive as Excel serial numbers.
func ReadXLSX(r io.Reader) ([]domain.SaleRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets: %w", ErrMissingColumns)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var p *rowParser
	records := make([]domain.SaleRecord, 0)
	for rows.Next() {
		row, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read xlsx row: %w", err)
		}
		if p == nil {
			if isBlank(row) {
				continue
			}
			if p, err = newRowParser(row, parseSheetDate); err != nil {
				return nil, err
			}
			continue
		}
		if rec, ok := p.parse(row); ok {
			records = append(records, rec)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating xlsx rows: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("xlsx sheet %s is empty: %w", sheets[0], ErrMissingColumns)
	}
	return records, nil
}

type rowParser struct {
	idx       []int
	parseDate func(string) (time.Time, bool)
}

func newRowParser(header []string, dateParser func(string) (time.Time, bool)) (*rowParser, error) {
	p := &rowParser{idx: make([]int, len(columnAliases)), parseDate: dateParser}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	var missing []string
	for i, aliases := range columnAliases {
		p.idx[i] = colIndex(aliases...)
		if p.idx[i] < 0 {
			missing = append(missing, domain.SaleColumns[i])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return p, nil
}

// parse converts one data row. Fully blank rows are skipped.
func (p *rowParser) parse(row []string) (domain.SaleRecord, bool) {
	if isBlank(row) {
		return domain.SaleRecord{}, false
	}
	get := func(col int) string {
		i := p.idx[col]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.SaleRecord{
		StoreName:     get(colStore),
		ItemCode:      normalizeCode(get(colItem)),
		Description:   get(colDescription),
		Category:      get(colCategory),
		Section:       get(colSection),
		SubDepartment: get(colSubDept),
		Supplier:      get(colSupplier),
		Quantity:      parseNumber(get(colQuantity)),
		TotalSales:    parseNumber(get(colTotalSales)),
		RRP:           parseNumber(get(colRRP)),
	}
	if t, ok := p.parseDate(get(colDate)); ok {
		rec.DateOfSale = sql.NullTime{Time: t, Valid: true}
	}
	return rec, true
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeCode drops the ".0" spreadsheets append to numeric item codes.
func normalizeCode(v string) string {
	if strings.HasSuffix(v, ".0") {
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return strings.TrimSuffix(v, ".0")
		}
	}
	return v
}

var nullTokens = map[string]struct{}{
	"": {}, "nan": {}, "null": {}, "none": {}, "na": {}, "n/a": {}, "-": {},
}

// parseNumber reads a numeric cell, accepting thousands separators. Empty and
// unparseable cells are missing.
func parseNumber(v string) sql.NullFloat64 {
	if _, null := nullTokens[strings.ToLower(v)]; null {
		return sql.NullFloat64{}
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// Numeric dd/mm/yyyy and dd-mm-yyyy dates are day-first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02-Jan-2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// parseDate reads a date cell and truncates it to the calendar day.
func parseDate(v string) (time.Time, bool) {
	if _, null := nullTokens[strings.ToLower(v)]; null {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return toDay(t), true
		}
	}
	return time.Time{}, false
}

// parseSheetDate accepts Excel serial dates as well as text dates.
func parseSheetDate(v string) (time.Time, bool) {
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return toDay(t), true
	}
	return parseDate(v)
}

func toDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
