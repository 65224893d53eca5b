package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/votemap/precinct-cli/internal/model"
	"github.com/votemap/precinct-cli/internal/workbook"
)

// Stations streams parsed station rows in workbook order: sheet by sheet, row
// by row. Each sheet holds one county; its 1-based position is the county
// code. The first row of every sheet is a header and is dropped; rows that do
// not parse as stations are skipped silently.
//
// The stream performs no remote calls. It is unbuffered, keeping row parsing
// in lock-step with the consumer, and closes when the workbook is exhausted
// or the context ends.
func (p *Pipeline) Stations(ctx context.Context, sheets []workbook.Sheet) <-chan Station {
	out := make(chan Station)

	go func() {
		defer close(out)

		for i, sheet := range sheets {
			countyCode := fmt.Sprintf("%02d", i+1)
			zap.L().Info("reading county sheet",
				zap.String("sheet", sheet.Name),
				zap.String("county_code", countyCode),
				zap.Int("rows", len(sheet.Rows)),
			)

			rows := sheet.Rows
			if len(rows) > 0 {
				rows = rows[1:]
			}

			for _, row := range rows {
				record, ok := model.ParseStationRow(row)
				if !ok {
					continue
				}

				select {
				case out <- Station{CountyCode: countyCode, Record: record}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
