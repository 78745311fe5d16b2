package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses pre-extracted transaction tuples from a CSV stream with a
// header row of date, description, amount, account and an optional category
// column, in any order. Field validation happens later in NormalizeBatch;
// this only maps columns.
func ReadCSV(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "description", "amount", "account"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	var records []RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		record := RawRecord{
			Date:        field(row, index, "date"),
			Description: field(row, index, "description"),
			Amount:      field(row, index, "amount"),
			Account:     field(row, index, "account"),
			Category:    field(row, index, "category"),
		}
		records = append(records, record)
	}

	return records, nil
}

func field(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
