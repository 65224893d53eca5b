// Package workbook loads the per-county results workbook into memory.
package workbook

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet is one worksheet: a county's name and its rows as string cells.
type Sheet struct {
	Name string
	Rows [][]string
}

// Load reads every worksheet of the file in workbook order. Sheet order is
// meaningful downstream: county codes derive from 1-based sheet positions.
func Load(path string) ([]Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}

	sheets := make([]Sheet, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			rows = append(rows, rowToStrings(row))
		}
		sheets = append(sheets, Sheet{Name: sheet.Name, Rows: rows})
	}

	return sheets, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
