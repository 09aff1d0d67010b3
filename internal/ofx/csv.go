package ofx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/normalize"
)

// csvDateLayouts are tried in order for the date column.
var csvDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2 Jan 2006",
}

// ParseCSV reads a date,description,amount statement export. A header row
// is skipped when the first field does not parse as a date. Amounts may
// use comma decimal separators and currency prefixes.
func ParseCSV(ctx context.Context, reader io.Reader, opts ImportOptions) ([]model.BankTransaction, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var transactions []model.BankTransaction
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line++

		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected date, description, amount, got %d fields", line, len(record))
		}

		date, err := parseCSVDate(record[0])
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		description := strings.TrimSpace(record[1])
		if description == "" {
			return nil, fmt.Errorf("line %d: description is empty", line)
		}

		amount, err := parseCSVAmount(record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		txn := model.BankTransaction{
			ID:                uuid.New().String(),
			UserID:            opts.UserID,
			ClientID:          opts.ClientID,
			Date:              date,
			RawDescription:    description,
			Description:       description,
			NormalizedPattern: normalize.Description(description),
			Amount:            amount,
			IsDebit:           amount < 0,
		}
		txn.Hash = txn.GenerateHash()
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func parseCSVDate(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	for _, layout := range csvDateLayouts {
		if date, err := time.Parse(layout, field); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", field)
}

func parseCSVAmount(field string) (float64, error) {
	cleaned := strings.TrimSpace(field)
	cleaned = strings.TrimPrefix(cleaned, "R")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if strings.Contains(cleaned, ",") && !strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognized amount %q", field)
	}
	return amount, nil
}
