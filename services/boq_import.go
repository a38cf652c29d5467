package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// boqImportHeaders is the expected column order of the BOQ import template.
var boqImportHeaders = []string{
	"Phase", "Work Type", "Description", "Spec", "Volume", "Unit", "Reference Price",
}

// ImportRowError is a single field-level error on one uploaded row. Row
// numbers are 1-based and count the header row, matching what the uploader
// sees in their spreadsheet.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BOQImportResult is returned after parsing and validating an uploaded BOQ
// file. The tree is only usable when ErrorRows is zero.
type BOQImportResult struct {
	TotalRows int              `json:"total_rows"`
	ValidRows int              `json:"valid_rows"`
	ErrorRows int              `json:"error_rows"`
	Errors    []ImportRowError `json:"errors,omitempty"`
	Tree      *BOQ             `json:"-"`
}

// ParseBOQCSV reads an uploaded CSV into a BOQ tree. Each data row is one
// spec; consecutive rows sharing the same phase / work type / description
// names nest under the same branch, so the file reads top to bottom exactly
// like the tree flattens. maxRows caps the number of data rows accepted;
// pass 0 for no cap.
func ParseBOQCSV(file io.Reader, maxRows int) (*BOQImportResult, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	if maxRows > 0 && len(allRows)-1 > maxRows {
		return nil, fmt.Errorf("file has %d data rows, the maximum is %d", len(allRows)-1, maxRows)
	}

	if err := checkBOQHeaders(allRows[0]); err != nil {
		return nil, err
	}

	result := &BOQImportResult{Tree: &BOQ{}}
	for i, row := range allRows[1:] {
		rowNum := i + 2 // 1-based, after the header
		result.TotalRows++

		for len(row) < len(boqImportHeaders) {
			row = append(row, "")
		}
		phaseName := strings.TrimSpace(row[0])
		workTypeName := strings.TrimSpace(row[1])
		descName := strings.TrimSpace(row[2])
		specDesc := strings.TrimSpace(row[3])
		volumeStr := strings.TrimSpace(row[4])
		unit := strings.TrimSpace(row[5])
		priceStr := strings.TrimSpace(row[6])

		rowErrs := 0
		requireField := func(field, value string) {
			if value == "" {
				result.Errors = append(result.Errors, ImportRowError{
					Row: rowNum, Field: field, Message: field + " is required",
				})
				rowErrs++
			}
		}
		requireField("Phase", phaseName)
		requireField("Work Type", workTypeName)
		requireField("Description", descName)
		requireField("Spec", specDesc)
		requireField("Unit", unit)

		volume, err := strconv.ParseFloat(volumeStr, 64)
		if err != nil || volume <= 0 {
			result.Errors = append(result.Errors, ImportRowError{
				Row: rowNum, Field: "Volume", Message: "Volume must be a number greater than zero",
			})
			rowErrs++
		}
		price := 0.0
		if priceStr != "" {
			price, err = strconv.ParseFloat(priceStr, 64)
			if err != nil || price < 0 {
				result.Errors = append(result.Errors, ImportRowError{
					Row: rowNum, Field: "Reference Price", Message: "Reference Price must be a non-negative number",
				})
				rowErrs++
			}
		}

		if rowErrs > 0 {
			result.ErrorRows++
			continue
		}
		result.ValidRows++
		appendSpec(result.Tree, phaseName, workTypeName, descName, Spec{
			Description:    specDesc,
			Volume:         volume,
			Unit:           unit,
			ReferencePrice: price,
		})
	}

	return result, nil
}

// checkBOQHeaders verifies the uploaded header row matches the template,
// case-insensitively.
func checkBOQHeaders(headers []string) error {
	if len(headers) < len(boqImportHeaders) {
		return fmt.Errorf("expected %d columns (%s), got %d",
			len(boqImportHeaders), strings.Join(boqImportHeaders, ", "), len(headers))
	}
	for i, want := range boqImportHeaders {
		got := strings.TrimSpace(headers[i])
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("column %d should be %q, got %q", i+1, want, got)
		}
	}
	return nil
}

// appendSpec walks to (or creates) the branch named by the row and appends
// the spec. Only the most recent branch at each level is matched: a repeated
// phase name later in the file starts a new phase, preserving file order.
func appendSpec(b *BOQ, phaseName, workTypeName, descName string, spec Spec) {
	if len(b.Phases) == 0 || b.Phases[len(b.Phases)-1].Name != phaseName {
		b.Phases = append(b.Phases, Phase{Name: phaseName})
	}
	phase := &b.Phases[len(b.Phases)-1]

	if len(phase.WorkTypes) == 0 || phase.WorkTypes[len(phase.WorkTypes)-1].Name != workTypeName {
		phase.WorkTypes = append(phase.WorkTypes, WorkType{Name: workTypeName})
	}
	workType := &phase.WorkTypes[len(phase.WorkTypes)-1]

	if len(workType.Descriptions) == 0 || workType.Descriptions[len(workType.Descriptions)-1].Name != descName {
		workType.Descriptions = append(workType.Descriptions, Description{Name: descName})
	}
	desc := &workType.Descriptions[len(workType.Descriptions)-1]

	desc.Specs = append(desc.Specs, spec)
}

// BOQCSVTemplate returns the downloadable import template with one example
// row.
func BOQCSVTemplate() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(boqImportHeaders)
	w.Write([]string{"Persiapan", "Pembersihan", "Pembersihan lahan", "Bongkar dinding eksisting", "12.5", "m2", "45000"})
	w.Flush()
	return buf.Bytes()
}
