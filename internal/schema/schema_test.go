package schema_test

import (
	"errors"
	"testing"

	"github.com/imgsrv/imageserver/internal/schema"
)

func TestFieldsAreUniqueAndIDFirst(t *testing.T) {
	for _, kind := range []schema.Kind{schema.KindUser, schema.KindPost} {
		fields := schema.Fields(kind)

		if len(fields) == 0 {
			t.Fatalf("no fields declared for %q", kind)
		}
		if fields[0].Name != schema.IDField {
			t.Fatalf("%q: first field = %q, want %q", kind, fields[0].Name, schema.IDField)
		}

		seen := map[string]bool{}
		for _, f := range fields {
			if seen[f.Name] {
				t.Fatalf("%q: duplicate field %q", kind, f.Name)
			}
			seen[f.Name] = true
		}
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{name: "int", value: 5, want: 5},
		{name: "int64", value: int64(7), want: 7},
		{name: "json_number", value: float64(12), want: 12},
		{name: "fractional", value: 12.5, wantErr: true},
		{name: "string", value: "12", wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.CoerceInt("likesCount", tt.value)

			if tt.wantErr {
				var mismatch *schema.TypeMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("got err %v, want TypeMismatchError", err)
				}
				if mismatch.Field != "likesCount" {
					t.Fatalf("error names field %q, want likesCount", mismatch.Field)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetNonEmptyString(t *testing.T) {
	m := map[string]any{"content": "hi", "empty": "", "num": 3}

	if _, err := schema.GetNonEmptyString(m, "missing"); !isMissing(err, "missing") {
		t.Fatalf("absent key: got %v, want MissingFieldError", err)
	}
	if _, err := schema.GetNonEmptyString(m, "empty"); !isMissing(err, "empty") {
		t.Fatalf("empty value: got %v, want MissingFieldError", err)
	}

	var mismatch *schema.TypeMismatchError
	if _, err := schema.GetNonEmptyString(m, "num"); !errors.As(err, &mismatch) {
		t.Fatalf("non-string: got %v, want TypeMismatchError", err)
	}

	s, err := schema.GetNonEmptyString(m, "content")
	if err != nil || s != "hi" {
		t.Fatalf("got (%q, %v), want (hi, nil)", s, err)
	}
}

func TestCoerceUpdateDropsUnknownKeys(t *testing.T) {
	updateable := map[string]schema.FieldType{
		"content":    schema.TypeString,
		"likesCount": schema.TypeInt,
	}

	out, err := schema.CoerceUpdate(updateable, schema.Wire{
		"content":  "new",
		"imageUrl": "should be ignored",
		"id":       "should be ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 1 || out["content"] != "new" {
		t.Fatalf("got %v, want only content=new", out)
	}
}

func TestCoerceUpdateFailsWholePayloadOnMismatch(t *testing.T) {
	updateable := map[string]schema.FieldType{
		"content":    schema.TypeString,
		"likesCount": schema.TypeInt,
	}

	out, err := schema.CoerceUpdate(updateable, schema.Wire{
		"content":    "fine",
		"likesCount": "not a number",
	})

	var mismatch *schema.TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got err %v, want TypeMismatchError", err)
	}
	if mismatch.Field != "likesCount" {
		t.Fatalf("error names %q, want likesCount", mismatch.Field)
	}
	if out != nil {
		t.Fatalf("expected nil output on mismatch, got %v", out)
	}
}

func isMissing(err error, field string) bool {
	var missing *schema.MissingFieldError
	return errors.As(err, &missing) && missing.Field == field
}
