package post

import "github.com/imgsrv/imageserver/internal/schema"

// Post is a transient value holder over one posts row. UserID records the
// owning user; it is populated server-side and is not part of the wire
// representation.
type Post struct {
	ID         string
	Content    string
	ImageURL   string
	LikesCount int
	UserID     string
}

// New builds a Post from a creation payload. Exactly content and imageUrl
// are read from client input; likesCount always starts at 0 and the id is
// assigned by storage.
func New(w schema.Wire) (*Post, error) {
	content, err := schema.GetNonEmptyString(w, "content")
	if err != nil {
		return nil, err
	}

	imageURL, err := schema.GetNonEmptyString(w, "imageUrl")
	if err != nil {
		return nil, err
	}

	return &Post{
		Content:  content,
		ImageURL: imageURL,
	}, nil
}

// Load rebuilds a Post from a persisted row.
func Load(r schema.Row) (*Post, error) {
	p := &Post{}

	id, err := schema.GetOptionalString(r, schema.IDField)
	if err != nil {
		return nil, err
	}
	p.ID = id

	if p.Content, err = schema.GetString(r, "content"); err != nil {
		return nil, err
	}
	if p.ImageURL, err = schema.GetString(r, "imageUrl"); err != nil {
		return nil, err
	}
	if p.LikesCount, err = schema.GetInt(r, "likesCount"); err != nil {
		return nil, err
	}
	if p.UserID, err = schema.GetOptionalString(r, "userId"); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Post) SetID(id string) {
	p.ID = id
}

func (p *Post) ToRow() schema.Row {
	return schema.Row{
		"content":    p.Content,
		"imageUrl":   p.ImageURL,
		"likesCount": p.LikesCount,
		"userId":     p.UserID,
	}
}

func (p *Post) ToWire() schema.Wire {
	return schema.Wire{
		schema.IDField: p.ID,
		"content":      p.Content,
		"imageUrl":     p.ImageURL,
		"likesCount":   p.LikesCount,
	}
}

// content and likesCount are the only fields reachable through partial
// update. imageUrl and the id stay fixed on this path. likesCount being
// client-writable mirrors the upstream behavior; see DESIGN.md before
// tightening it.
var updateableFields = map[string]schema.FieldType{
	"content":    schema.TypeString,
	"likesCount": schema.TypeInt,
}

var setters = map[string]func(*Post, any){
	"content":    func(p *Post, v any) { p.Content = v.(string) },
	"likesCount": func(p *Post, v any) { p.LikesCount = v.(int) },
}

// ApplyUpdate mutates the recognized updateable fields from a partial
// payload. Unknown keys are ignored; a type mismatch on any recognized key
// leaves the Post untouched.
func (p *Post) ApplyUpdate(w schema.Wire) error {
	coerced, err := schema.CoerceUpdate(updateableFields, w)
	if err != nil {
		return err
	}
	for key, v := range coerced {
		setters[key](p, v)
	}
	return nil
}
