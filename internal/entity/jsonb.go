package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

var errJSONBType = errors.New("type assertion to []byte failed")

func jsonbValue(v any) (driver.Value, error) {
	return json.Marshal(v)
}

func jsonbScan(value any, dst any) error {
	if value == nil {
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errJSONBType
	}

	return json.Unmarshal(b, dst)
}

// StringMap is a JSONB encoded map of strings.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return jsonbValue(map[string]string{})
	}

	return jsonbValue(map[string]string(m))
}

func (m *StringMap) Scan(value any) error {
	return jsonbScan(value, m)
}
