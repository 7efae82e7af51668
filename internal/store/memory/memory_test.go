package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store"
	"github.com/imgsrv/imageserver/internal/store/memory"
)

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	id, err := s.Insert(ctx, schema.KindPost, schema.Row{
		"content":    "hi",
		"imageUrl":   "http://x",
		"likesCount": 0,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" {
		t.Fatal("insert returned empty id")
	}

	row, err := s.Get(ctx, schema.KindPost, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row["content"] != "hi" || row[schema.IDField] != id {
		t.Fatalf("unexpected row: %v", row)
	}

	row["likesCount"] = 3
	if err := s.Update(ctx, schema.KindPost, id, row); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows, err := s.List(ctx, schema.KindPost)
	if err != nil || len(rows) != 1 {
		t.Fatalf("list: %v, %d rows", err, len(rows))
	}
	if rows[0]["likesCount"] != 3 {
		t.Fatalf("update not visible in list: %v", rows[0])
	}

	if err := s.Delete(ctx, schema.KindPost, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, schema.KindPost, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestGetReturnsClone(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	id, _ := s.Insert(ctx, schema.KindPost, schema.Row{"content": "hi"})

	row, _ := s.Get(ctx, schema.KindPost, id)
	row["content"] = "mutated by caller"

	again, _ := s.Get(ctx, schema.KindPost, id)
	if again["content"] != "hi" {
		t.Fatalf("caller mutation leaked into store: %v", again)
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	if _, err := s.Get(ctx, schema.KindPost, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get: got %v, want ErrNotFound", err)
	}
	if err := s.Update(ctx, schema.KindPost, "nope", schema.Row{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update: got %v, want ErrNotFound", err)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, _ = s.Insert(ctx, schema.KindUser, schema.Row{"name": "Ann", "email": "ann@example.com"})

	row, err := s.Find(ctx, schema.KindUser, "email", "ann@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if row["name"] != "Ann" {
		t.Fatalf("unexpected row: %v", row)
	}

	if _, err := s.Find(ctx, schema.KindUser, "email", "ghost@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("find absent: got %v, want ErrNotFound", err)
	}
}

func TestDeleteUserCascadesToPosts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	uid, _ := s.Insert(ctx, schema.KindUser, schema.Row{"name": "Ann", "email": "ann@example.com"})
	_, _ = s.Insert(ctx, schema.KindPost, schema.Row{"content": "mine", "imageUrl": "http://x", "likesCount": 0, "userId": uid})
	other, _ := s.Insert(ctx, schema.KindPost, schema.Row{"content": "other", "imageUrl": "http://y", "likesCount": 0, "userId": "someone-else"})

	if err := s.Delete(ctx, schema.KindUser, uid); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	rows, _ := s.List(ctx, schema.KindPost)
	if len(rows) != 1 || rows[0][schema.IDField] != other {
		t.Fatalf("cascade wrong, remaining posts: %v", rows)
	}
}
