package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Report is a single submitted incident as served by the reports endpoint.
type Report struct {
	ID           ReportID   `json:"id"`
	DisasterType string     `json:"disastertype"`
	Location     string     `json:"location"` // free-text address
	Lat          Coordinate `json:"lat"`
	Lng          Coordinate `json:"lng"`
	Description  string     `json:"description"`
	CreatedAt    Timestamp  `json:"createdAt"`
}

// ReportID accepts both JSON strings and JSON numbers.
type ReportID string

func (id *ReportID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ReportID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("report id: %w", err)
	}
	*id = ReportID(n.String())
	return nil
}

func (id ReportID) String() string {
	return string(id)
}

// Coordinate is an optional latitude or longitude. Reports in the wild carry
// numbers, numeric strings, null or nothing at all.
type Coordinate struct {
	Value float64
	Valid bool
}

func Coord(v float64) Coordinate {
	return Coordinate{Value: v, Valid: true}
}

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = Coordinate{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = Coordinate{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*c = Coordinate{}
			return nil
		}
		*c = Coord(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	*c = Coord(v)
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// Set reports whether the coordinate is present and non-zero.
func (c Coordinate) Set() bool {
	return c.Valid && c.Value != 0
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp keeps the raw createdAt string next to its parsed time. A value
// that does not parse has a zero Time and sorts as the oldest report.
type Timestamp struct {
	Raw  string
	Time time.Time
}

func ParseTimestamp(raw string) Timestamp {
	ts := Timestamp{Raw: raw}
	s := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			break
		}
	}
	return ts
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	*t = ParseTimestamp(s)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Raw == "" && !t.Time.IsZero() {
		return json.Marshal(t.Time.Format(time.RFC3339))
	}
	return json.Marshal(t.Raw)
}

func (t Timestamp) Valid() bool {
	return !t.Time.IsZero()
}
