package schema

// Kind names one entity collection. The value doubles as the backing
// table name in the postgres store.
type Kind string

const (
	KindUser Kind = "users"
	KindPost Kind = "posts"
)

type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
)

// Field is one column/key shared by row storage, wire serialization and
// partial update.
type Field struct {
	Name string
	Type FieldType
}

const IDField = "id"

// Row is one persisted record as a flat key -> scalar mapping.
type Row map[string]any

// Wire is one client-facing representation as a flat key -> scalar mapping.
type Wire map[string]any

var fieldsByKind = map[Kind][]Field{
	KindUser: {
		{Name: IDField, Type: TypeString},
		{Name: "name", Type: TypeString},
		{Name: "email", Type: TypeString},
		{Name: "password", Type: TypeString},
		{Name: "imageUrl", Type: TypeString},
	},
	KindPost: {
		{Name: IDField, Type: TypeString},
		{Name: "content", Type: TypeString},
		{Name: "imageUrl", Type: TypeString},
		{Name: "likesCount", Type: TypeInt},
		{Name: "userId", Type: TypeString},
	},
}

// Fields returns the ordered field list for a kind, id first. Callers must
// not mutate the returned slice.
func Fields(k Kind) []Field {
	return fieldsByKind[k]
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
