package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Direction selects which side of an anchor instant a window covers.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

func ParseDirection(text string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "1", "+1", "forward", "f":
		return Forward, nil
	case "-1", "backward", "b":
		return Backward, nil
	}
	return 0, fmt.Errorf("%w: direction %q", ErrInvalidInput, text)
}

// SecondsSpan converts a window length in seconds to a Duration, rejecting
// lengths a Duration cannot hold. Negative lengths pass through for Window
// to reject.
func SecondsSpan(seconds int64) (time.Duration, error) {
	limit := int64(math.MaxInt64 / int64(time.Second))
	if seconds > limit || seconds < -limit {
		return 0, fmt.Errorf("%w: window of %d seconds is too long", ErrInvalidInput, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// Window returns the records in [anchor, anchor+span] for Forward or
// [anchor-span, anchor] for Backward, in dataset order.
func (d *Dataset) Window(anchor time.Time, span time.Duration, dir Direction) ([]Record, error) {
	if span < 0 {
		return nil, fmt.Errorf("%w: negative window %s", ErrInvalidRange, span)
	}
	if dir == Backward {
		return d.Between(anchor.Add(-span), anchor), nil
	}
	return d.Between(anchor, anchor.Add(span)), nil
}

func (d *Dataset) WindowAverage(anchor time.Time, span time.Duration, dir Direction) (float64, []Record, error) {
	records, err := d.Window(anchor, span, dir)
	if err != nil {
		return 0, nil, err
	}
	if len(records) == 0 {
		return 0, records, fmt.Errorf("%w: no records in window", ErrEmptyDataset)
	}
	var total int64
	for _, r := range records {
		total += r.Count
	}
	return float64(total) / float64(len(records)), records, nil
}

// PeakHourBetween is PeakHour restricted to records in [start, end]. The end
// must be after the start.
func (d *Dataset) PeakHourBetween(start, end time.Time) (PeakHour, error) {
	if !end.After(start) {
		return PeakHour{}, fmt.Errorf("%w: end must be after start", ErrInvalidRange)
	}
	peak, err := peakHour(d.Between(start, end))
	if err != nil {
		return PeakHour{}, fmt.Errorf("%w: no records in range", err)
	}
	return peak, nil
}
