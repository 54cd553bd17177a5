package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVHeader is written by WriteCSV and skipped by LoadRecords when it is the
// first line of a file.
const CSVHeader = "Traffic Count,Timestamp"

// LoadRecords reads "count,timestamp" lines. Any bad row fails the whole
// read with a *ParseError.
func LoadRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	records := []Record{}
	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if isHeader(line) {
				continue
			}
		}

		countText, tsText, ok := strings.Cut(line, ",")
		if !ok {
			return nil, &ParseError{Line: lineNo, Text: line, Err: fmt.Errorf("expected count,timestamp")}
		}
		count, err := parseCount(countText)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Err: err}
		}
		ts, err := ParseLoadTimestamp(tsText)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Err: err}
		}
		records = append(records, Record{Count: count, Timestamp: ts})
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: lineNo + 1, Err: err}
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return records, nil
}

// Load replaces the dataset with the records read from r. On error the
// dataset is left as it was.
func (d *Dataset) Load(r io.Reader) error {
	records, err := LoadRecords(r)
	if err != nil {
		return err
	}
	d.Replace(records)
	return nil
}

func (d *Dataset) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	return d.Load(f)
}

// WriteCSV writes the header and one row per record in dataset order. An
// empty dataset produces a header-only file.
func (d *Dataset) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, CSVHeader); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	for _, r := range d.records {
		if _, err := fmt.Fprintf(bw, "%d,%s\n", r.Count, FormatTimestamp(r.Timestamp)); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (d *Dataset) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := d.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func isHeader(line string) bool {
	countText, _, ok := strings.Cut(line, ",")
	if !ok {
		return false
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(countText), 10, 64); err == nil {
		return false
	}
	return strings.EqualFold(strings.ReplaceAll(line, " ", ""), strings.ReplaceAll(CSVHeader, " ", ""))
}
