package sheets

import "context"

// RowExporter mirrors a user's exported rows to a spreadsheet tab.
type RowExporter interface {
	// ExportRows replaces the content of the user's tab with rows and
	// returns a reference to it.
	ExportRows(ctx context.Context, userID int64, rows [][]string) (ref string, err error)
}
