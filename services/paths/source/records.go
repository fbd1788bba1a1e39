// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
)

// EdgeRecord is one row of a tabular edge source.
type EdgeRecord struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

// ParseRecords reads every "from,to,weight" row from r.
//
// # Description
//
// Rows must have exactly three fields, non-empty endpoints, and an integer
// weight. Blank lines are skipped. Every other line is a record, including
// one whose first endpoint starts with '#'. A negative weight is not
// rejected here; BuildFromRecords reports it as graph.ErrInvalidWeight.
//
// # Outputs
//
//   - []EdgeRecord: All rows, in file order.
//   - error: *MalformedRecordError for the first bad row, or an I/O error.
func ParseRecords(ctx context.Context, r io.Reader) ([]EdgeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	var records []EdgeRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &MalformedRecordError{Line: pe.Line, Record: fields, Reason: pe.Err.Error()}
			}
			return nil, fmt.Errorf("read records: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRecord(fields)
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Line = line
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseRecord validates the shape of one row.
func parseRecord(fields []string) (EdgeRecord, error) {
	if len(fields) != 3 {
		return EdgeRecord{}, &MalformedRecordError{
			Record: fields,
			Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields)),
		}
	}

	from := strings.TrimSpace(fields[0])
	to := strings.TrimSpace(fields[1])
	if from == "" || to == "" {
		return EdgeRecord{}, &MalformedRecordError{Record: fields, Reason: "empty endpoint"}
	}

	w, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return EdgeRecord{}, &MalformedRecordError{Record: fields, Reason: "weight is not an integer"}
	}

	return EdgeRecord{From: from, To: to, Weight: w}, nil
}

// BuildFromRecords creates a frozen graph with one edge per record.
//
// # Outputs
//
//   - *graph.Graph: Frozen graph, or nil on error.
//   - error: Wraps graph.ErrInvalidWeight for negative weights, naming the
//     offending record.
func BuildFromRecords(records []EdgeRecord) (*graph.Graph, error) {
	g := graph.NewGraph(graph.WithEdgeCapacity(len(records)))
	for i, rec := range records {
		if _, err := g.AddEdge(rec.From, rec.To, float64(rec.Weight)); err != nil {
			return nil, fmt.Errorf("record %d (%s,%s,%d): %w", i+1, rec.From, rec.To, rec.Weight, err)
		}
	}
	g.Freeze()
	return g, nil
}

// ReadRecords parses r and builds a graph in one step.
func ReadRecords(ctx context.Context, r io.Reader) (*graph.Graph, error) {
	records, err := ParseRecords(ctx, r)
	if err != nil {
		return nil, err
	}
	return BuildFromRecords(records)
}

// LoadRecordsFile opens path and parses its records.
func LoadRecordsFile(ctx context.Context, path string) ([]EdgeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph data %s: %w", path, err)
	}
	defer f.Close()

	records, err := ParseRecords(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse graph data %s: %w", path, err)
	}
	return records, nil
}
