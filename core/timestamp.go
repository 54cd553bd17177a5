package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// LoadLayout is the only timestamp layout accepted in bulk-loaded files
	// and the one used when exporting.
	LoadLayout    = "Mon Jan 02 15:04:05 2006"
	DisplayLayout = "2006-01-02 15:04:05"
)

// ctime pads single-digit days with a space; some writers drop the padding.
var loadLayouts = []string{
	LoadLayout,
	time.ANSIC,
	"Mon Jan 2 15:04:05 2006",
}

// ParseLoadTimestamp parses text in the fixed bulk-load layout. It does not
// guess at other representations.
func ParseLoadTimestamp(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	var firstErr error
	for _, layout := range loadLayouts {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q does not match %q: %w", text, LoadLayout, firstErr)
}

// ParseUserTimestamp accepts free-form, hand-typed timestamps such as
// "2024-03-01 10:00:00". The result is naive like ParseLoadTimestamp: the
// wall clock fields as typed, in UTC, to whole seconds. Any zone offset and
// fractional seconds are dropped so the value survives export and reload.
func ParseUserTimestamp(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", text, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

func FormatTimestamp(t time.Time) string {
	return t.Format(LoadLayout)
}

func DisplayTimestamp(t time.Time) string {
	return t.Format(DisplayLayout)
}
