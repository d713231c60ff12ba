package core

// RowHeader is the first row of every export.
var RowHeader = []string{"Date", "Type", "Category", "Amount"}

// Rows renders transactions as [date, type, category, amount] rows, header
// first, in insertion order. Dates drop the time of day.
func Rows(txs []Transaction) [][]string {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, append([]string(nil), RowHeader...))
	for _, t := range txs {
		rows = append(rows, []string{
			t.Timestamp.Format("2006-01-02"),
			t.Kind.String(),
			t.Category,
			t.Amount.String(),
		})
	}
	return rows
}
