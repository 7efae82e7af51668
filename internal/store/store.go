package store

import (
	"context"
	"errors"

	"github.com/imgsrv/imageserver/internal/schema"
)

var ErrNotFound = errors.New("record not found")

// Store is the persistence collaborator the resource layer talks to.
// Rows exclude the id on the way in; implementations assign ids on Insert
// and include them in rows they return.
type Store interface {
	Get(ctx context.Context, kind schema.Kind, id string) (schema.Row, error)
	List(ctx context.Context, kind schema.Kind) ([]schema.Row, error)
	Insert(ctx context.Context, kind schema.Kind, row schema.Row) (string, error)
	Update(ctx context.Context, kind schema.Kind, id string, row schema.Row) error
	Delete(ctx context.Context, kind schema.Kind, id string) error

	// Find returns the first row whose field equals value.
	Find(ctx context.Context, kind schema.Kind, field string, value any) (schema.Row, error)

	// Migrate (re)creates the backing table for a kind from its field schema.
	Migrate(ctx context.Context, kind schema.Kind) error
}
