package user

import "github.com/imgsrv/imageserver/internal/schema"

// User is a transient value holder over one users row. PasswordHash is set
// only through the auth path, never from generic wire input, and never
// leaves through ToWire.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ImageURL     string
}

// New builds a User from a creation payload. Only name and email are read
// from client input; both must be present and non-empty.
func New(w schema.Wire) (*User, error) {
	name, err := schema.GetNonEmptyString(w, "name")
	if err != nil {
		return nil, err
	}

	email, err := schema.GetNonEmptyString(w, "email")
	if err != nil {
		return nil, err
	}

	if !looksLikeEmail(email) {
		return nil, &schema.ValidationError{Field: "email", Reason: "not a valid email address"}
	}

	imageURL, err := schema.GetOptionalString(w, "imageUrl")
	if err != nil {
		return nil, err
	}

	return &User{
		Name:     name,
		Email:    email,
		ImageURL: imageURL,
	}, nil
}

// Load rebuilds a User from a persisted row. password and imageUrl are
// nullable columns, so absence there is not an error.
func Load(r schema.Row) (*User, error) {
	u := &User{}

	id, err := schema.GetOptionalString(r, schema.IDField)
	if err != nil {
		return nil, err
	}
	u.ID = id

	if u.Name, err = schema.GetString(r, "name"); err != nil {
		return nil, err
	}
	if u.Email, err = schema.GetString(r, "email"); err != nil {
		return nil, err
	}
	if u.PasswordHash, err = schema.GetOptionalString(r, "password"); err != nil {
		return nil, err
	}
	if u.ImageURL, err = schema.GetOptionalString(r, "imageUrl"); err != nil {
		return nil, err
	}

	return u, nil
}

func (u *User) SetID(id string) {
	u.ID = id
}

func (u *User) ToRow() schema.Row {
	return schema.Row{
		"name":     u.Name,
		"email":    u.Email,
		"password": u.PasswordHash,
		"imageUrl": u.ImageURL,
	}
}

// ToWire emits the client-facing representation. The password hash is
// deliberately absent.
func (u *User) ToWire() schema.Wire {
	return schema.Wire{
		schema.IDField: u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"imageUrl":     u.ImageURL,
	}
}

// Only name is reachable through partial update. Email, password, imageUrl
// and the id stay fixed on this path.
var updateableFields = map[string]schema.FieldType{
	"name": schema.TypeString,
}

var setters = map[string]func(*User, any){
	"name": func(u *User, v any) { u.Name = v.(string) },
}

// ApplyUpdate mutates the recognized updateable fields from a partial
// payload. Unknown keys are ignored; a type mismatch on any recognized key
// leaves the User untouched.
func (u *User) ApplyUpdate(w schema.Wire) error {
	coerced, err := schema.CoerceUpdate(updateableFields, w)
	if err != nil {
		return err
	}
	for key, v := range coerced {
		setters[key](u, v)
	}
	return nil
}

func looksLikeEmail(s string) bool {
	at := -1
	for i, c := range s {
		if c == '@' {
			if at != -1 {
				return false
			}
			at = i
		}
	}
	return at > 0 && at < len(s)-1
}
