// pkg/model/value.go
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindBool
	KindDate
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Value is a single table cell. The zero Value is Missing.
type Value struct {
	kind Kind
	num  float64
	text string
	flag bool
	date time.Time
}

// Missing returns an explicitly missing cell
func Missing() Value { return Value{} }

// Number returns a numeric cell; NaN is stored as Missing
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a text cell
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean cell
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Date returns a date cell
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Str returns the text payload
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Truth returns the boolean payload
func (v Value) Truth() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Time returns the date payload
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// String renders the cell for display and export. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		if v.flag {
			return "True"
		}
		return "False"
	case KindDate:
		return v.date.Format("2006-01-02")
	default:
		return ""
	}
}

// Key returns a string that is equal for equal values and distinct across kinds.
// It is used for distinct-value scans and grouping.
func (v Value) Key() string {
	switch v.kind {
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return "s:" + v.text
	case KindBool:
		return "b:" + strconv.FormatBool(v.flag)
	case KindDate:
		return "d:" + v.date.UTC().Format(time.RFC3339Nano)
	default:
		return "∅"
	}
}

// Equal reports whether two cells hold the same variant and payload
func (v Value) Equal(o Value) bool {
	return v.Key() == o.Key()
}

type valueJSON struct {
	K string          `json:"k"`
	V json.RawMessage `json:"v,omitempty"`
}

// MarshalJSON keeps the variant so cached tables round-trip with their kinds
func (v Value) MarshalJSON() ([]byte, error) {
	var (
		out valueJSON
		err error
	)
	switch v.kind {
	case KindMissing:
		out.K = "m"
	case KindNumber:
		out.K = "n"
		out.V, err = json.Marshal(v.num)
	case KindText:
		out.K = "s"
		out.V, err = json.Marshal(v.text)
	case KindBool:
		out.K = "b"
		out.V, err = json.Marshal(v.flag)
	case KindDate:
		out.K = "d"
		out.V, err = json.Marshal(v.date.Format(time.RFC3339))
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a cell written by MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.K {
	case "m", "":
		*v = Missing()
	case "n":
		var f float64
		if err := json.Unmarshal(in.V, &f); err != nil {
			return err
		}
		*v = Number(f)
	case "s":
		var s string
		if err := json.Unmarshal(in.V, &s); err != nil {
			return err
		}
		*v = Text(s)
	case "b":
		var b bool
		if err := json.Unmarshal(in.V, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case "d":
		var s string
		if err := json.Unmarshal(in.V, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		*v = Date(t)
	default:
		return fmt.Errorf("unknown value kind %q", in.K)
	}
	return nil
}
