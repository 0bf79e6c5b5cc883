package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Store Name,Item_Code,Description,Category,Section,Sub-Department,Supplier,Quantity,Total Sales,RRP,Date Of Sale
Kilimani,1001.0,Golden Fry 1L,Cooking Oil,Oils,Food,BIDCO AFRICA LIMITED,2,"1,080",600,2025-01-05
Kilimani,1002,Elianto 1L,Cooking Oil,Oils,Food,Other Supplier,,500,,
,,,,,,,,,,
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Kilimani", first.StoreName)
	assert.Equal(t, "1001", first.ItemCode)
	assert.Equal(t, "BIDCO AFRICA LIMITED", first.Supplier)
	assert.True(t, first.Quantity.Valid)
	assert.Equal(t, 2.0, first.Quantity.Float64)
	assert.Equal(t, 1080.0, first.TotalSales.Float64)
	require.True(t, first.DateOfSale.Valid)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), first.DateOfSale.Time)
	assert.Equal(t, 0, first.MissingCells())

	second := records[1]
	assert.False(t, second.Quantity.Valid)
	assert.False(t, second.RRP.Valid)
	assert.False(t, second.DateOfSale.Valid)
	assert.Equal(t, 3, second.MissingCells())
}

func TestReadCSVAcceptsHeaderVariants(t *testing.T) {
	in := "store,SKU,description,category,section,Sub Department,supplier,QTY,total_sales,rrp,date\n" +
		"A,1,x,c,s,d,BIDCO,1,10,12,05/01/2025\n"

	records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), records[0].DateOfSale.Time)
}

func TestParseDateSlashesAreDayFirst(t *testing.T) {
	cases := map[string]time.Time{
		"06/01/2025": time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		"13/01/2025": time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		"06-01-2025": time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		"2025/01/06": time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := parseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	// month-first input with a day above 12 is rejected, not swapped
	_, ok := parseDate("01/13/2025")
	assert.False(t, ok)
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Store Name,Item_Code\nA,1\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Supplier")
	assert.Contains(t, err.Error(), "Date Of Sale")

	_, err = ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("Test_Data.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = FormatOf("data.parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadFileXLSX(t *testing.T) {
	header := make([]interface{}, 0, 11)
	for _, h := range []string{"Store Name", "Item_Code", "Description", "Category", "Section",
		"Sub-Department", "Supplier", "Quantity", "Total Sales", "RRP", "Date Of Sale"} {
		header = append(header, h)
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		header,
		{"Westlands", 2001, "Ribena 1L", "Juice", "Drinks", "Beverages", "BIDCO", 3, 450.5, 160, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)},
		{"Westlands", 2002, "Pick n Peel", "Juice", "Drinks", "Beverages", "Other", 1, 120, nil, "2025-01-08"},
	})

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2001", records[0].ItemCode)
	assert.Equal(t, 450.5, records[0].TotalSales.Float64)
	require.True(t, records[0].DateOfSale.Valid)
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), records[0].DateOfSale.Time)

	assert.False(t, records[1].RRP.Valid)
	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), records[1].DateOfSale.Time)
}

func TestLoadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
