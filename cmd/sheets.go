package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/votemap/precinct-cli/internal/model"
	"github.com/votemap/precinct-cli/internal/workbook"
)

var sheetsWorkbook string

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List workbook sheets and their county codes",
	Long: `Sheets lists every worksheet with the county code its position derives,
its name, and the number of station rows it holds. Useful for checking that
sheet order matches the county codes the portlet expects.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := sheetsWorkbook
		if path == "" {
			path = cfg.Workbook.Path
		}

		sheets, err := workbook.Load(path)
		if err != nil {
			return err
		}

		formatSheets(os.Stdout, sheets)
		return nil
	},
}

func init() {
	sheetsCmd.Flags().StringVar(&sheetsWorkbook, "workbook", "", "path to the results workbook (default: workbook.path from config)")
	rootCmd.AddCommand(sheetsCmd)
}

// formatSheets writes a tabular representation of the workbook layout to w.
func formatSheets(out io.Writer, sheets []workbook.Sheet) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tSHEET\tSTATIONS")
	_, _ = fmt.Fprintln(w, "----\t-----\t--------")

	for i, sheet := range sheets {
		_, _ = fmt.Fprintf(w, "%02d\t%s\t%d\n", i+1, sheet.Name, countStationRows(sheet))
	}
	_ = w.Flush()
}

// countStationRows counts the rows of a sheet that parse as stations, the
// same rule the export pipeline applies.
func countStationRows(sheet workbook.Sheet) int {
	rows := sheet.Rows
	if len(rows) > 0 {
		rows = rows[1:]
	}

	var n int
	for _, row := range rows {
		if _, ok := model.ParseStationRow(row); ok {
			n++
		}
	}
	return n
}
