package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ValueKind tags the representation held by a Value.
type ValueKind string

// Value kinds.
const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
	KindYear   ValueKind = "year"
)

// Value is a single record cell. Exactly one of Text, Number or Year is
// meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
	Year   int       `json:"year,omitempty"`
}

// Text returns a text Value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Year returns a year Value.
func Year(y int) Value { return Value{Kind: KindYear, Year: y} }

// String renders the value the way it would appear in a document.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindYear:
		return strconv.Itoa(v.Year)
	default:
		return v.Text
	}
}

// IsBlank reports whether the value is empty after trimming whitespace.
func (v Value) IsBlank() bool {
	return strings.TrimSpace(v.String()) == ""
}

// Field is a named record cell.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping from field name to value, as stored in the
// accreditation database for one criterion submission.
type Record struct {
	Fields []Field
}

// NewRecord builds a record from fields in the given order.
func NewRecord(fields ...Field) Record {
	return Record{Fields: fields}
}

// Get returns the value for name and whether it exists.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value for name, appending the field if it is new.
func (r *Record) Set(name string, v Value) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = v
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: v})
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.Fields) }

// Map returns the record as a plain string map. Order is lost.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value.String()
	}
	return m
}

// MarshalJSON encodes the record as a JSON object preserving field order.
// Numbers and years are written as JSON numbers.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, eris.Wrap(err, "model: marshal record key")
		}
		buf.Write(key)
		buf.WriteByte(':')
		switch f.Value.Kind {
		case KindNumber, KindYear:
			buf.WriteString(f.Value.String())
		default:
			val, err := json.Marshal(f.Value.Text)
			if err != nil {
				return nil, eris.Wrap(err, "model: marshal record value")
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object into an ordered record.
// Integral numbers in the 1900..2100 range under a field whose name
// mentions "year" become Year values.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "model: decode record")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return eris.New("model: record must be a JSON object")
	}

	r.Fields = r.Fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "model: decode record key")
		}
		name, _ := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return eris.Wrapf(err, "model: decode record field %q", name)
		}
		r.Fields = append(r.Fields, Field{Name: name, Value: FromAny(name, raw)})
	}
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "model: decode record end")
	}
	return nil
}

// FromAny converts a loosely typed value (JSON, database column, spreadsheet
// cell) into a Value. The field name is used to recognise years.
func FromAny(name string, raw any) Value {
	isYearField := strings.Contains(strings.ToLower(name), "year")
	switch v := raw.(type) {
	case nil:
		return Text("")
	case string:
		return Text(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return fromInt(isYearField, i)
		}
		f, err := v.Float64()
		if err != nil {
			return Text(v.String())
		}
		return Number(f)
	case float64:
		if v == float64(int64(v)) {
			return fromInt(isYearField, int64(v))
		}
		return Number(v)
	case float32:
		return FromAny(name, float64(v))
	case int:
		return fromInt(isYearField, int64(v))
	case int32:
		return fromInt(isYearField, int64(v))
	case int64:
		return fromInt(isYearField, v)
	case bool:
		return Text(strconv.FormatBool(v))
	case []byte:
		return Text(string(v))
	case time.Time:
		return Text(v.Format("2006-01-02"))
	case interface{ String() string }:
		return Text(v.String())
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return Text("")
		}
		return Text(string(b))
	}
}

func fromInt(isYearField bool, i int64) Value {
	if isYearField && i >= 1900 && i <= 2100 {
		return Year(int(i))
	}
	return Number(float64(i))
}
