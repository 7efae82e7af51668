package schema

import "math"

// CoerceString checks v against TypeString.
func CoerceString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &TypeMismatchError{Field: field}
	}
	return s, nil
}

// CoerceInt checks v against TypeInt. JSON decoding hands integers over as
// float64 and database drivers as int32/int64, so all integral numeric
// representations are accepted.
func CoerceInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, &TypeMismatchError{Field: field}
		}
		return int(n), nil
	default:
		return 0, &TypeMismatchError{Field: field}
	}
}

// GetString reads a required string key.
func GetString(m map[string]any, field string) (string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", &MissingFieldError{Field: field}
	}
	return CoerceString(field, v)
}

// GetNonEmptyString reads a required string key and rejects the empty
// string the same way an absent key is rejected.
func GetNonEmptyString(m map[string]any, field string) (string, error) {
	s, err := GetString(m, field)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &MissingFieldError{Field: field}
	}
	return s, nil
}

// GetInt reads a required integer key.
func GetInt(m map[string]any, field string) (int, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return 0, &MissingFieldError{Field: field}
	}
	return CoerceInt(field, v)
}

// GetOptionalString reads a string key, defaulting to "" when absent. A
// present value of the wrong type is still a mismatch.
func GetOptionalString(m map[string]any, field string) (string, error) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", nil
	}
	return CoerceString(field, v)
}
