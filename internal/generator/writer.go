package generator

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/finflow/muleguard/internal/engine"
)

const csvTimestampLayout = "2006-01-02 15:04:05"

// WriteCSV serializes records into the transaction_id,sender_id,
// receiver_id,amount,timestamp format internal/ingest reads back, creating
// any missing parent directory.
func WriteCSV(records []engine.TransactionRecord, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	return writeCSV(records, file)
}

func writeCSV(records []engine.TransactionRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"transaction_id", "sender_id", "receiver_id", "amount", "timestamp"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.TransactionID,
			r.SenderID,
			r.ReceiverID,
			fmt.Sprintf("%.2f", r.Amount),
			r.Timestamp.UTC().Format(csvTimestampLayout),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", r.TransactionID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
