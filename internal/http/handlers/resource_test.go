package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/imgsrv/imageserver/internal/domain/post"
	"github.com/imgsrv/imageserver/internal/domain/user"
	"github.com/imgsrv/imageserver/internal/http/handlers"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store/memory"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func postsDefinition() handlers.Definition {
	return handlers.Definition{
		Kind: schema.KindPost,
		New: func(w schema.Wire) (handlers.Entity, error) {
			p, err := post.New(w)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Load: func(r schema.Row) (handlers.Entity, error) {
			p, err := post.Load(r)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

func usersDefinition() handlers.Definition {
	return handlers.Definition{
		Kind: schema.KindUser,
		New: func(w schema.Wire) (handlers.Entity, error) {
			u, err := user.New(w)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
		Load: func(r schema.Row) (handlers.Entity, error) {
			u, err := user.Load(r)
			if err != nil {
				return nil, err
			}
			return u, nil
		},
	}
}

func newPostsRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()

	st := memory.New()
	h := handlers.NewResourceHandler(st, postsDefinition())

	r := gin.New()
	r.GET("/posts", h.List)
	r.GET("/posts/:id", h.Show)
	r.POST("/posts", h.Create)
	r.PATCH("/posts/:id", h.Update)
	r.DELETE("/posts/:id", h.Delete)

	return r, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCreatePost(t *testing.T) {
	r, _ := newPostsRouter(t)

	w := doJSON(t, r, http.MethodPost, "/posts", `{"content":"hi","imageUrl":"http://x/y.png"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["content"] != "hi" || body["imageUrl"] != "http://x/y.png" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["likesCount"] != float64(0) {
		t.Fatalf("likesCount = %v, want 0", body["likesCount"])
	}
	if id, _ := body["id"].(string); id == "" {
		t.Fatalf("no id assigned: %v", body)
	}
	if _, ok := body["userId"]; ok {
		t.Fatalf("owner leaked onto the wire: %v", body)
	}
}

func TestCreatePostMissingField(t *testing.T) {
	r, st := newPostsRouter(t)

	w := doJSON(t, r, http.MethodPost, "/posts", `{"content":"hi"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "missing_field" {
		t.Fatalf("code = %v, want missing_field", errObj["code"])
	}
	details, _ := errObj["details"].(map[string]any)
	if details["field"] != "imageUrl" {
		t.Fatalf("details = %v, want field=imageUrl", details)
	}

	rows, _ := st.List(context.Background(), schema.KindPost)
	if len(rows) != 0 {
		t.Fatalf("invalid payload was persisted: %v", rows)
	}
}

func TestShowPost(t *testing.T) {
	r, st := newPostsRouter(t)

	id, _ := st.Insert(context.Background(), schema.KindPost, schema.Row{
		"content": "hi", "imageUrl": "http://x", "likesCount": 2,
	})

	w := doJSON(t, r, http.MethodGet, "/posts/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["likesCount"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}

	// conditional re-fetch via the emitted ETag
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on show response")
	}

	req := httptest.NewRequest(http.MethodGet, "/posts/"+id, nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", w2.Code)
	}
}

func TestShowPostNotFound(t *testing.T) {
	r, _ := newPostsRouter(t)

	w := doJSON(t, r, http.MethodGet, "/posts/ghost", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdatePost(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLikes  int
		wantImage  string
	}{
		{
			name:       "recognized_key_applied_unknown_ignored",
			body:       `{"likesCount":5,"imageUrl":"new"}`,
			wantStatus: http.StatusOK,
			wantLikes:  5,
			wantImage:  "http://orig",
		},
		{
			name:       "type_mismatch_mutates_nothing",
			body:       `{"content":"would apply","likesCount":"ten"}`,
			wantStatus: http.StatusBadRequest,
			wantLikes:  1,
			wantImage:  "http://orig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, st := newPostsRouter(t)

			id, _ := st.Insert(context.Background(), schema.KindPost, schema.Row{
				"content": "original", "imageUrl": "http://orig", "likesCount": 1,
			})

			w := doJSON(t, r, http.MethodPatch, "/posts/"+id, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			row, _ := st.Get(context.Background(), schema.KindPost, id)
			if row["likesCount"] != tt.wantLikes {
				t.Fatalf("stored likesCount = %v, want %d", row["likesCount"], tt.wantLikes)
			}
			if row["imageUrl"] != tt.wantImage {
				t.Fatalf("stored imageUrl = %v, want %q", row["imageUrl"], tt.wantImage)
			}

			if tt.wantStatus == http.StatusBadRequest {
				body := decodeBody(t, w)
				errObj, _ := body["error"].(map[string]any)
				if errObj["code"] != "type_mismatch" {
					t.Fatalf("code = %v, want type_mismatch", errObj["code"])
				}
				if row["content"] != "original" {
					t.Fatalf("content mutated despite mismatch: %v", row)
				}
			}
		})
	}
}

func TestUpdatePostNotFound(t *testing.T) {
	r, _ := newPostsRouter(t)

	w := doJSON(t, r, http.MethodPatch, "/posts/ghost", `{"likesCount":5}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestDeletePost(t *testing.T) {
	r, st := newPostsRouter(t)

	id, _ := st.Insert(context.Background(), schema.KindPost, schema.Row{
		"content": "hi", "imageUrl": "http://x", "likesCount": 0,
	})

	w := doJSON(t, r, http.MethodDelete, "/posts/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	// deleting again is a 404, not a silent no-op
	w = doJSON(t, r, http.MethodDelete, "/posts/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", w.Code)
	}
}

func TestUserResourceUpdate(t *testing.T) {
	st := memory.New()
	h := handlers.NewResourceHandler(st, usersDefinition())

	r := gin.New()
	r.PATCH("/users/:id", h.Update)

	id, _ := st.Insert(context.Background(), schema.KindUser, schema.Row{
		"name": "Ann", "email": "ann@example.com", "password": "hash",
	})

	t.Run("wrong_type_name", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/users/"+id, `{"name":42}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
		}

		row, _ := st.Get(context.Background(), schema.KindUser, id)
		if row["name"] != "Ann" {
			t.Fatalf("user mutated: %v", row)
		}
	})

	t.Run("email_not_updateable", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/users/"+id, `{"name":"Bea","email":"new@example.com"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
		}

		body := decodeBody(t, w)
		if body["name"] != "Bea" || body["email"] != "ann@example.com" {
			t.Fatalf("unexpected body: %v", body)
		}
		if _, ok := body["password"]; ok {
			t.Fatalf("password leaked: %v", body)
		}
	})
}

func TestListPosts(t *testing.T) {
	r, st := newPostsRouter(t)

	for _, c := range []string{"one", "two", "three"} {
		_, _ = st.Insert(context.Background(), schema.KindPost, schema.Row{
			"content": c, "imageUrl": "http://x", "likesCount": 0,
		})
	}

	w := doJSON(t, r, http.MethodGet, "/posts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["count"] != float64(3) {
		t.Fatalf("count = %v, want 3", body["count"])
	}
	items, _ := body["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("items = %v", items)
	}
}
