// Package dates turns heterogeneous date text into calendar fields.
package dates

import (
	"fmt"
	"strings"
	"time"

	"gamecat/pkg/cell"
)

// Precision is the finest calendar unit kept on a parsed timestamp
type Precision uint8

const (
	// Day truncates to midnight
	Day Precision = iota
	// Instant keeps the time of day to the second
	Instant
)

// Parts is the outcome of decomposing one field. All fields are nil when the
// input could not be parsed.
type Parts struct {
	Time    *time.Time
	Year    *int
	Month   *int
	Quarter *string
}

// layouts tried in order; month-first for ambiguous slash dates
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
	"2006",
}

// Decompose parses v and derives year, month and quarter. It never fails;
// unparseable input yields empty Parts.
// Day precision keeps the calendar date as written, whatever its offset.
func Decompose(v cell.Value, p Precision) Parts {
	t, ok := parse(v)
	if !ok {
		return Parts{}
	}
	if p == Day {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		t = t.UTC().Truncate(time.Second)
	}
	return FromTime(t)
}

// FromTime derives the calendar parts of an already parsed timestamp
func FromTime(t time.Time) Parts {
	year := t.Year()
	month := int(t.Month())
	quarter := fmt.Sprintf("%dQ%d", year, (month-1)/3+1)
	return Parts{Time: &t, Year: &year, Month: &month, Quarter: &quarter}
}

// Parse converts a cell into a UTC timestamp. Integers are read as Unix seconds.
func Parse(v cell.Value) (time.Time, bool) {
	t, ok := parse(v)
	return t.UTC(), ok
}

// ParseText tries every known layout against s
func ParseText(s string) (time.Time, bool) {
	t, ok := parseText(s)
	return t.UTC(), ok
}

// parse keeps the location the value was written in
func parse(v cell.Value) (time.Time, bool) {
	switch v.Kind() {
	case cell.KindTimestamp:
		t, _ := v.Timestamp()
		return t, true
	case cell.KindInteger:
		i, _ := v.Int()
		return time.Unix(i, 0).UTC(), true
	case cell.KindText:
		return parseText(v.Text())
	}
	return time.Time{}, false
}

func parseText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
