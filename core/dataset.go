package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Record struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func (r Record) String() string {
	return fmt.Sprintf("%d, %s", r.Count, DisplayTimestamp(r.Timestamp))
}

type PeakHour struct {
	Hour  int   `json:"hour"`
	Total int64 `json:"total"`
}

type Summary struct {
	Entries int       `json:"entries"`
	Total   int64     `json:"total"`
	Average float64   `json:"average"`
	Min     int64     `json:"min"`
	Max     int64     `json:"max"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Dataset is an ordered, in-memory table of traffic records. Positions are
// indexes into the current order. A Dataset is not safe for concurrent use.
type Dataset struct {
	records []Record
}

// NewDataset returns a Dataset holding a copy of records in the given order.
func NewDataset(records ...Record) *Dataset {
	d := &Dataset{}
	d.records = append(make([]Record, 0, len(records)), records...)
	return d
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the records in current order.
func (d *Dataset) Records() []Record {
	return append(make([]Record, 0, len(d.records)), d.records...)
}

func (d *Dataset) At(pos int) (Record, error) {
	if pos < 0 || pos >= len(d.records) {
		return Record{}, &IndexError{Position: pos, Len: len(d.records)}
	}
	return d.records[pos], nil
}

// Replace swaps in a new set of records, keeping their order.
func (d *Dataset) Replace(records []Record) {
	d.records = append(make([]Record, 0, len(records)), records...)
}

// Between returns the records with start <= timestamp <= end in dataset
// order. An inverted range yields an empty slice.
func (d *Dataset) Between(start, end time.Time) []Record {
	result := []Record{}
	for _, r := range d.records {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// FilterByRange parses both bounds with ParseUserTimestamp and returns
// Between(start, end).
func (d *Dataset) FilterByRange(startText, endText string) ([]Record, error) {
	start, err := ParseUserTimestamp(startText)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	end, err := ParseUserTimestamp(endText)
	if err != nil {
		return nil, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	return d.Between(start, end), nil
}

func (d *Dataset) Average() (float64, error) {
	if len(d.records) == 0 {
		return 0, ErrEmptyDataset
	}
	return float64(d.total()) / float64(len(d.records)), nil
}

// PeakHour sums counts per hour of day and returns the busiest hour. Equal
// sums resolve to the earliest hour.
func (d *Dataset) PeakHour() (PeakHour, error) {
	return peakHour(d.records)
}

// Add parses user input and inserts the record, re-sorting by timestamp.
func (d *Dataset) Add(countText, timestampText string) (Record, error) {
	count, err := parseCount(countText)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	ts, err := ParseUserTimestamp(timestampText)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rec := Record{Count: count, Timestamp: ts}
	if err := d.Insert(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Insert appends rec and stable-sorts the dataset ascending by timestamp.
func (d *Dataset) Insert(rec Record) error {
	if rec.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidInput, rec.Count)
	}
	d.records = append(d.records, rec)
	sort.SliceStable(d.records, func(i, j int) bool {
		return d.records[i].Timestamp.Before(d.records[j].Timestamp)
	})
	return nil
}

// Delete removes the record at pos and returns it.
func (d *Dataset) Delete(pos int) (Record, error) {
	rec, err := d.At(pos)
	if err != nil {
		return Record{}, err
	}
	d.records = append(d.records[:pos], d.records[pos+1:]...)
	return rec, nil
}

func (d *Dataset) Summary() (Summary, error) {
	if len(d.records) == 0 {
		return Summary{}, ErrEmptyDataset
	}
	first := d.records[0]
	s := Summary{
		Entries: len(d.records),
		Min:     first.Count,
		Max:     first.Count,
		Start:   first.Timestamp,
		End:     first.Timestamp,
	}
	for _, r := range d.records {
		s.Total += r.Count
		if r.Count < s.Min {
			s.Min = r.Count
		}
		if r.Count > s.Max {
			s.Max = r.Count
		}
		if r.Timestamp.Before(s.Start) {
			s.Start = r.Timestamp
		}
		if r.Timestamp.After(s.End) {
			s.End = r.Timestamp
		}
	}
	s.Average = float64(s.Total) / float64(s.Entries)
	return s, nil
}

func (d *Dataset) total() int64 {
	var total int64
	for _, r := range d.records {
		total += r.Count
	}
	return total
}

func peakHour(records []Record) (PeakHour, error) {
	if len(records) == 0 {
		return PeakHour{}, ErrEmptyDataset
	}
	var perHour [24]int64
	var seen [24]bool
	for _, r := range records {
		h := r.Timestamp.Hour()
		perHour[h] += r.Count
		seen[h] = true
	}
	peak := PeakHour{Hour: -1}
	for h := 0; h < 24; h++ {
		if !seen[h] {
			continue
		}
		if peak.Hour < 0 || perHour[h] > peak.Total {
			peak = PeakHour{Hour: h, Total: perHour[h]}
		}
	}
	return peak, nil
}

func parseCount(text string) (int64, error) {
	text = strings.TrimSpace(text)
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("count %q is not an integer", text)
	}
	if n < 0 {
		return 0, fmt.Errorf("count %d is negative", n)
	}
	return n, nil
}
