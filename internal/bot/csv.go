package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

func exportFileName(userID int64) string {
	return fmt.Sprintf("transactions_%d.csv", userID)
}

// encodeCSV renders rows as an in-memory CSV file with CRLF line endings.
func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
