package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUpload(t *testing.T) {
	dir := t.TempDir()
	l := Local{Dir: dir}
	u, err := l.Upload(context.Background(), "company_logo", "../../logo.png", []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(u, "/uploads/company_logo/") || !strings.HasSuffix(u, "_logo.png") {
		t.Fatalf("unexpected url %q", u)
	}
	data, err := os.ReadFile(filepath.Join(dir, "company_logo", filepath.Base(u)))
	if err != nil || string(data) != "img" {
		t.Fatalf("stored file: %v %q", err, data)
	}

	again, _ := l.Upload(context.Background(), "company_logo", "logo.png", []byte("img"), "")
	if again == u {
		t.Fatalf("uploads of the same name must not collide")
	}
	if _, err := l.Upload(context.Background(), "../etc", "x", []byte("x"), ""); err == nil {
		t.Fatalf("expected bucket name to be rejected")
	}
}

func TestBucketUpload(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotUpsert, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"Key":"company_logo/x"}`)
	}))
	defer srv.Close()

	b := Bucket{BaseURL: srv.URL + "/", Key: "secret"}
	u, err := b.Upload(context.Background(), "company_logo", "logo.png", []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if !strings.HasPrefix(gotPath, "/storage/v1/object/company_logo/") || !strings.HasSuffix(gotPath, "_logo.png") {
		t.Fatalf("unexpected object path %q", gotPath)
	}
	if gotAuth != "Bearer secret" || gotUpsert != "true" || gotBody != "img" {
		t.Fatalf("unexpected request: auth=%q upsert=%q body=%q", gotAuth, gotUpsert, gotBody)
	}
	want := srv.URL + "/storage/v1/object/public/company_logo/"
	if !strings.HasPrefix(u, want) || !strings.HasSuffix(u, "_logo.png") {
		t.Fatalf("public url %q does not start with %q", u, want)
	}
}

func TestBucketUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := (Bucket{BaseURL: url}).Upload(context.Background(), "company_logo", "a.png", []byte("x"), ""); err == nil {
		t.Fatalf("expected error for unreachable storage")
	}
	if _, err := (Bucket{}).Upload(context.Background(), "company_logo", "a.png", nil, ""); err == nil {
		t.Fatalf("expected missing base url error")
	}
	if _, err := (Bucket{BaseURL: url}).Upload(context.Background(), "a/b", "a.png", nil, ""); err == nil {
		t.Fatalf("expected bucket name to be rejected")
	}
}
