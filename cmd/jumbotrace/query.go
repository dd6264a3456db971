package main

import (
	"encoding/json"
	"fmt"
	"io"

	"jumbotrace/internal/label"

	"github.com/itchyny/gojq"
)

// writeLabels prints labels as JSON, one value per line. With a query, the
// label array is filtered through it first.
func writeLabels(w io.Writer, labels []label.Label, query string) error {
	records := make([]any, 0, len(labels))
	for _, l := range labels {
		records = append(records, l.Record())
	}

	enc := json.NewEncoder(w)
	if query == "" {
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	q, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("failed to parse jq query: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return fmt.Errorf("failed to compile jq query: %w", err)
	}

	iter := code.Run(records)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("execution error: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
