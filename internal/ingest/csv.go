// Package ingest parses transaction batches from CSV into engine.TransactionRecord,
// validating each row before it ever reaches the detection core.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/finflow/muleguard/internal/engine"
)

// ErrInputRejected is the sentinel wrapped by every Error returned from this
// package. The core never returns it itself; ingest is the only boundary
// where malformed input is possible.
var ErrInputRejected = errors.New("input rejected")

const civilLayout = "2006-01-02 15:04:05"

var requiredColumns = []string{"transaction_id", "sender_id", "receiver_id", "amount", "timestamp"}

var validate = validator.New()

// Error reports a rejected CSV row, naming its 1-based line number.
type Error struct {
	Line   int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *Error) Unwrap() error {
	return ErrInputRejected
}

func rejected(line int, reason string, args ...any) error {
	return &Error{Line: line, Reason: fmt.Sprintf(reason, args...)}
}

// row is the intermediate DTO validated before conversion to
// engine.TransactionRecord. Amount is parsed as a string column first so a
// non-numeric value fails with a line-numbered Error rather than a bare
// strconv error.
type row struct {
	TransactionID string  `validate:"required"`
	SenderID      string  `validate:"required"`
	ReceiverID    string  `validate:"required"`
	Amount        float64 `validate:"required,gt=0"`
}

// Parse reads transaction records from r, a text/csv stream with a header
// row naming transaction_id, sender_id, receiver_id, amount, and timestamp
// (YYYY-MM-DD HH:MM:SS, interpreted as UTC). An empty file (header only, or
// no rows at all) is not rejected: it yields a nil, empty slice, which
// engine.Analyze treats as the EmptyInput case.
func Parse(r io.Reader) ([]engine.TransactionRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, rejected(1, "failed to read header: %v", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, rejected(1, "%v", err)
	}

	var records []engine.TransactionRecord
	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, rejected(line, "malformed CSV row: %v", err)
		}

		record, err := parseRow(line, fields, index)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return index, nil
}

func parseRow(line int, fields []string, index map[string]int) (engine.TransactionRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	amountStr := get("amount")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return engine.TransactionRecord{}, rejected(line, "amount %q is not a valid number", amountStr)
	}

	dto := row{
		TransactionID: get("transaction_id"),
		SenderID:      get("sender_id"),
		ReceiverID:    get("receiver_id"),
		Amount:        amount,
	}
	if err := validate.Struct(dto); err != nil {
		return engine.TransactionRecord{}, rejected(line, "validation failed: %v", err)
	}

	timestampStr := get("timestamp")
	timestamp, err := time.ParseInLocation(civilLayout, timestampStr, time.UTC)
	if err != nil {
		return engine.TransactionRecord{}, rejected(line, "timestamp %q does not match %s", timestampStr, civilLayout)
	}

	return engine.TransactionRecord{
		TransactionID: dto.TransactionID,
		SenderID:      dto.SenderID,
		ReceiverID:    dto.ReceiverID,
		Amount:        dto.Amount,
		Timestamp:     timestamp,
	}, nil
}
