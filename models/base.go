package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DecimalMap is a JSON column mapping item ids to quantities or money.
type DecimalMap map[string]decimal.Decimal

func (m DecimalMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *DecimalMap) Scan(value interface{}) error {
	if value == nil {
		*m = DecimalMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for DecimalMap")
	}
	if len(data) == 0 {
		*m = DecimalMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Clone returns a deep copy; decimal values are immutable so a shallow map
// copy suffices.
func (m DecimalMap) Clone() DecimalMap {
	out := make(DecimalMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m DecimalMap) Equal(other DecimalMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Details is the operation-specific payload of a ledger transaction. The shape
// varies per operation_type; typed accessors absorb the JSON round-trip.
type Details map[string]interface{}

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Details) Scan(value interface{}) error {
	if value == nil {
		*d = Details{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for Details")
	}
	if len(data) == 0 {
		*d = Details{}
		return nil
	}
	return json.Unmarshal(data, d)
}

func (d Details) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Decimal reads a numeric detail regardless of whether it arrived as a JSON
// number, a string, or a decimal written in-process.
func (d Details) Decimal(key string) decimal.Decimal {
	switch v := d[key].(type) {
	case decimal.Decimal:
		return v
	case string:
		if dec, err := decimal.NewFromString(v); err == nil {
			return dec
		}
	case float64:
		return decimal.NewFromFloat(v)
	case json.Number:
		if dec, err := decimal.NewFromString(v.String()); err == nil {
			return dec
		}
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	}
	return decimal.Zero
}

// DecimalMap reads a nested map detail (e.g. PushToProduction deductions).
func (d Details) DecimalMap(key string) DecimalMap {
	out := DecimalMap{}
	switch m := d[key].(type) {
	case DecimalMap:
		return m
	case map[string]decimal.Decimal:
		return DecimalMap(m)
	case map[string]interface{}:
		for k, raw := range m {
			out[k] = Details{"v": raw}.Decimal("v")
		}
	}
	return out
}

func (d Details) Map(key string) map[string]interface{} {
	if v, ok := d[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// WithoutKeys returns a copy of the details with the given keys stripped
// (snapshot bulk rows are removed from per-date transaction listings).
func (d Details) WithoutKeys(keys ...string) Details {
	out := make(Details, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// StringSlice is a JSON column of strings (e.g. supplier sets).
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringSlice: %T", value)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}
