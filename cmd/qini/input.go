// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AleutianAI/qini"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

var errMalformedJSON = errors.New("malformed json")

// loadMatrices reads the three core input matrices concurrently. Shape
// agreement is not checked here; the fit itself rejects mismatched
// matrices with a precise error.
func loadMatrices(rewardPath, scoresPath, costPath string) (reward, scores, cost [][]float64, err error) {
	var g errgroup.Group

	g.Go(func() error {
		var err error
		if reward, err = readMatrix(rewardPath); err != nil {
			return fmt.Errorf("reward %s: %w", rewardPath, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if scores, err = readMatrix(scoresPath); err != nil {
			return fmt.Errorf("scores %s: %w", scoresPath, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if cost, err = readMatrix(costPath); err != nil {
			return fmt.Errorf("cost %s: %w", costPath, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return reward, scores, cost, nil
}

// readMatrix loads a numeric matrix from path. Files ending in .json
// hold an array of row arrays; everything else parses as headerless CSV.
func readMatrix(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isJSONPath(path) {
		return parseMatrixJSON(data)
	}
	return parseMatrixCSV(data)
}

// readVector loads a float vector: a flat JSON array or a one-column CSV.
func readVector(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isJSONPath(path) {
		return parseVectorJSON(data)
	}
	rows, err := parseMatrixCSV(data)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, fmt.Errorf("row %d has %d columns, want 1", i+1, len(row))
		}
		out[i] = row[0]
	}
	return out, nil
}

// readIntVector loads an integer vector, rejecting fractional values.
// Used for cluster ids and tie-breaker permutations.
func readIntVector(path string) ([]int, error) {
	vals, err := readVector(path)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		n := int(v)
		if float64(n) != v {
			return nil, fmt.Errorf("row %d: %v is not an integer", i+1, v)
		}
		out[i] = n
	}
	return out, nil
}

// readCurve loads and decodes a fitted curve document.
func readCurve(path string) (*qini.Curve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c qini.Curve
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func parseMatrixCSV(data []byte) ([][]float64, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	out := make([][]float64, 0, len(records))
	for i, rec := range records {
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %q is not a number", i+1, j+1, cell)
			}
			row[j] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func parseMatrixJSON(data []byte) ([][]float64, error) {
	if !gjson.ValidBytes(data) {
		return nil, errMalformedJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("top-level value is not an array")
	}

	var out [][]float64
	var parseErr error
	root.ForEach(func(_, rowVal gjson.Result) bool {
		if !rowVal.IsArray() {
			parseErr = fmt.Errorf("row %d is not an array", len(out)+1)
			return false
		}
		var row []float64
		rowVal.ForEach(func(_, cell gjson.Result) bool {
			if cell.Type != gjson.Number {
				parseErr = fmt.Errorf("row %d column %d: %s is not a number",
					len(out)+1, len(row)+1, cell.Raw)
				return false
			}
			row = append(row, cell.Num)
			return true
		})
		if parseErr != nil {
			return false
		}
		out = append(out, row)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}

func parseVectorJSON(data []byte) ([]float64, error) {
	if !gjson.ValidBytes(data) {
		return nil, errMalformedJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("top-level value is not an array")
	}

	var out []float64
	var parseErr error
	root.ForEach(func(_, cell gjson.Result) bool {
		if cell.Type != gjson.Number {
			parseErr = fmt.Errorf("index %d: %s is not a number", len(out), cell.Raw)
			return false
		}
		out = append(out, cell.Num)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}
