package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Pipeline")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "pipeline.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"NOME DA OPORTUNIDADE", "VALOR SUGERIDO"},
		{"Acme rollout", "1500"},
		{"", ""},
		{"Globex renewal", "900"},
	})

	table, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"NOME DA OPORTUNIDADE", "VALOR SUGERIDO"}, table.Headers)
	// The fully-empty row is dropped.
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Globex renewal", table.Rows[1][0])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{{"A"}, {"1"}})

	table, err := ReadXLSX(path, XLSXOptions{SheetName: "Pipeline"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, table.Headers)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{{"A"}})

	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	assert.Error(t, err)
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
