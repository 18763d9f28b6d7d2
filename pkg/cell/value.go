package cell

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which variant a Value holds
type Kind uint8

const (
	KindAbsent Kind = iota
	KindInteger
	KindText
	KindTextSequence
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindTextSequence:
		return "text_sequence"
	case KindTimestamp:
		return "timestamp"
	}
	return "unknown"
}

// Value is a single raw cell. The zero Value is Absent.
type Value struct {
	kind Kind
	i    int64
	s    string
	seq  []string
	t    time.Time
}

// Row maps a column name to its raw cell
type Row map[string]Value

func Absent() Value { return Value{} }

func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

func Text(s string) Value { return Value{kind: KindText, s: s} }

func Seq(items []string) Value { return Value{kind: KindTextSequence, seq: items} }

func Time(t time.Time) Value { return Value{kind: KindTimestamp, t: t} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the textual rendering of a scalar value. Absent and sequence
// values render as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindTimestamp:
		return v.t.Format(time.RFC3339)
	}
	return ""
}

// Sequence returns the held sequence and whether the value is a sequence
func (v Value) Sequence() ([]string, bool) {
	return v.seq, v.kind == KindTextSequence
}

// Timestamp returns the held timestamp and whether the value is a timestamp
func (v Value) Timestamp() (time.Time, bool) {
	return v.t, v.kind == KindTimestamp
}

// Int coerces the value to an integer. Text is accepted when it holds a whole
// number, optionally written as a float ("12.0"). Everything else fails.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInteger:
		return v.i, true
	case KindText:
		return ParseInt(v.s)
	}
	return 0, false
}

// ParseInt coerces text to a whole number the way a numeric column reader would
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Decimal coerces the value to a decimal amount
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindInteger:
		return decimal.NewFromInt(v.i), true
	case KindText:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

// Get returns the named cell, Absent when the column is missing
func (r Row) Get(column string) Value {
	return r[column]
}

// Has reports whether the row carries the column at all
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}
