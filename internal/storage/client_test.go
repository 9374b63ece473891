package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dunamismax/pixelshrink/internal/domain"
)

func TestResultKey(t *testing.T) {
	cases := []struct {
		prefix, name, mime, want string
	}{
		{"results", "abc", domain.MIMEJPEG, "results/abc.jpeg"},
		{"/results/", "abc", domain.MIMEWebP, "results/abc.webp"},
		{"", "abc", domain.MIMEPNG, "abc.png"},
		{"a/b", "abc", "image/gif", "a/b/abc.bin"},
	}
	for _, tc := range cases {
		if got := ResultKey(tc.prefix, tc.name, tc.mime); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected bucket required error")
	}
}

type recordedRequest struct {
	method      string
	path        string
	contentType string
}

func fakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)

		mu.Lock()
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
		mu.Unlock()

		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestUploadResultPutsObject(t *testing.T) {
	srv, requests := fakeS3(t)

	client, err := NewClient(Config{
		Endpoint: strings.TrimPrefix(srv.URL, "http://"),
		Access:   "test",
		Secret:   "testtest",
		Bucket:   "pixelshrink-results",
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}
	key, err := client.UploadResult(context.Background(), "results", domain.Blob{Type: domain.MIMEWebP, Data: []byte("webp-bytes")})
	if err != nil {
		t.Fatalf("upload result: %v", err)
	}
	if !strings.HasPrefix(key, "results/") || !strings.HasSuffix(key, ".webp") {
		t.Fatalf("unexpected key %q", key)
	}

	var put *recordedRequest
	for _, r := range requests() {
		if r.method == http.MethodPut {
			put = &r
		}
	}
	if put == nil {
		t.Fatal("expected a PUT request")
	}
	if put.path != "/pixelshrink-results/"+key {
		t.Fatalf("expected object path for %s, got %s", key, put.path)
	}
	if put.contentType != domain.MIMEWebP {
		t.Fatalf("expected content type %s, got %s", domain.MIMEWebP, put.contentType)
	}
}
