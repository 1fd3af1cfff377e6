package repositories

import "encoding/json"

// nullString converts empty strings to nil for nullable columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// jsonbValue marshals v for a jsonb column. Nil maps and slices become JSON
// null rather than failing.
func jsonbValue(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// scanJSON unmarshals a jsonb column into dst, tolerating NULL.
func scanJSON(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
