package schema

// CoerceUpdate filters a partial-update payload down to the recognized
// updateable fields and type-checks every recognized value before any of
// them is handed to a setter. Unknown keys are dropped silently. A single
// mismatch fails the whole payload so callers can guarantee all-or-nothing
// application.
func CoerceUpdate(updateable map[string]FieldType, w Wire) (Wire, error) {
	out := make(Wire, len(w))
	for key, v := range w {
		t, ok := updateable[key]
		if !ok {
			continue
		}
		switch t {
		case TypeString:
			s, err := CoerceString(key, v)
			if err != nil {
				return nil, err
			}
			out[key] = s
		case TypeInt:
			n, err := CoerceInt(key, v)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
	}
	return out, nil
}
