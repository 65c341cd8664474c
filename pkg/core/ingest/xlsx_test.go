package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"evalup/pkg/core/finance"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestFromXLSX_MergesSheets(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Compte de résultat": {
			{"Poste", "2022", "2023"},
			{"Chiffre d'affaires", "1 000 000", "1 200 000"},
			{"Résultat d'exploitation", "100 000", "150 000"},
		},
		"Bilan": {
			{"Poste", "2022", "2023"},
			{"Capitaux propres", "400 000", "450 000"},
			{"Trésorerie", "120 000", "200 000"},
		},
		"Notes": {
			{"Commentaire libre"},
		},
	})

	years, err := FromXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, finance.SourceManual, years[0].Source)
	assert.Equal(t, 1200000.0, years[1].Revenue)
	assert.Equal(t, 450000.0, years[1].Equity)
	assert.Equal(t, 200000.0, years[1].Cash)
}

func TestFromXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Saisie": {
			{"Poste", "2023"},
			{"CA", "500 000"},
		},
		"Brouillon": {
			{"Poste", "2023"},
			{"CA", "1"},
		},
	})

	years, err := FromXLSX(path, "Saisie")
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, 500000.0, years[0].Revenue)

	_, err = FromXLSX(path, "Absente")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFromXLSX_NumericCells(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Saisie")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().SetString("Poste")
	header.AddCell().SetString("2023")
	row := sheet.AddRow()
	row.AddCell().SetString("Chiffre d'affaires")
	row.AddCell().SetFloat(1234567.5)

	path := filepath.Join(t.TempDir(), "numeric.xlsx")
	require.NoError(t, f.Save(path))

	years, err := FromXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, 1234567.5, years[0].Revenue)
}

func TestFromXLSX_NoUsableSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Notes": {{"rien", "ici"}},
	})
	_, err := FromXLSX(path, "")
	assert.ErrorIs(t, err, ErrNoYearHeader)

	_, err = FromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}
