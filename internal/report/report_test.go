package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sample = Table{
	Name:    "section_pricing",
	Headers: []string{"Section", "Weekly_Gain_KSh"},
	Rows: [][]string{
		{"Oils", "27618"},
		{"Soaps, bar", "0"},
	},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))
	assert.Equal(t, "Section,Weekly_Gain_KSh\nOils,27618\n\"Soaps, bar\",0\n", buf.String())
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	other := Table{Name: "a_very_long_table_name_that_exceeds_sheet_limits", Headers: []string{"x"}}

	paths, err := WriteAll(dir, "report", []Table{sample, other}, true)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	data, err := os.ReadFile(filepath.Join(dir, "section_pricing.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Section,Weekly_Gain_KSh"))

	f, err := excelize.OpenFile(filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"section_pricing", "a_very_long_table_name_that_exc"}, f.GetSheetList())
	rows, err := f.GetRows("section_pricing")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Section", "Weekly_Gain_KSh"}, {"Oils", "27618"}, {"Soaps, bar", "0"}}, rows)
}

func TestWriteAllWithoutWorkbook(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir, "report", []Table{sample}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "section_pricing.csv")}, paths)
	_, err = os.Stat(filepath.Join(dir, "report.xlsx"))
	assert.True(t, os.IsNotExist(err))
}
