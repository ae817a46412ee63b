package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"alcoholdb/internal/catalog"
	"alcoholdb/internal/imaging"
)

var _ catalog.ImageStore = (*Images)(nil)

// memObjects is an in-memory objectStore.
type memObjects struct {
	objects map[string][]byte
	failOn  string
}

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (m *memObjects) Upload(_ context.Context, key, _ string, data []byte) error {
	m.objects[key] = data
	return nil
}

func (m *memObjects) Copy(_ context.Context, src, dst string) error {
	if src == m.failOn {
		return errors.New("copy failed")
	}
	data, ok := m.objects[src]
	if !ok {
		return errors.New("no such key " + src)
	}
	m.objects[dst] = data
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjects) FileURL(key string) string { return "https://cdn.test/" + key }

func (m *memObjects) keys() []string {
	var out []string
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImagesLifecycle(t *testing.T) {
	ctx := context.Background()
	objs := newMemObjects()
	imgs := &Images{objects: objs, variants: []imaging.Variant{{Name: "sm", Width: 100, Quality: 70}, {Name: "md", Width: 300, Quality: 80}}}

	if err := imgs.Put(ctx, "alcohols/rioja-1234abcd", samplePNG(t)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	want := []string{"alcohols/rioja-1234abcd_md.jpg", "alcohols/rioja-1234abcd_sm.jpg"}
	if got := objs.keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v, want %v", got, want)
	}

	urls := imgs.URLs("alcohols/rioja-1234abcd")
	if urls["sm"] != "https://cdn.test/alcohols/rioja-1234abcd_sm.jpg" {
		t.Errorf("sm url = %q", urls["sm"])
	}

	if err := imgs.RenameImages(ctx, "alcohols/rioja-1234abcd", "alcohols/rioja-reserva-1234abcd"); err != nil {
		t.Fatalf("RenameImages: %v", err)
	}
	want = []string{"alcohols/rioja-reserva-1234abcd_md.jpg", "alcohols/rioja-reserva-1234abcd_sm.jpg"}
	if got := objs.keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("after rename keys = %v, want %v", got, want)
	}

	if err := imgs.DeleteImages(ctx, "alcohols/rioja-reserva-1234abcd"); err != nil {
		t.Fatalf("DeleteImages: %v", err)
	}
	if got := objs.keys(); len(got) != 0 {
		t.Errorf("keys left after delete: %v", got)
	}
}

func TestRenameImagesStopsOnCopyFailure(t *testing.T) {
	objs := newMemObjects()
	objs.objects["a_sm.jpg"] = []byte("x")
	objs.failOn = "a_sm.jpg"
	imgs := &Images{objects: objs, variants: []imaging.Variant{{Name: "sm"}}}

	if err := imgs.RenameImages(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := objs.objects["a_sm.jpg"]; !ok {
		t.Error("source must survive a failed copy")
	}
}

func TestNewWithoutCredentials(t *testing.T) {
	c, err := New("", "fsn1", "", "", "images", "")
	if c != nil || err != nil {
		t.Errorf("New() = %v, %v; want nil, nil", c, err)
	}
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		want      string
	}{
		{"path style", "", "https://s3.example.com/images/a_sm.jpg"},
		{"cdn", "https://cdn.example.com/", "https://cdn.example.com/a_sm.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("https://s3.example.com/", "fsn1", "ak", "sk", "images", tt.publicURL)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := c.FileURL("a_sm.jpg"); got != tt.want {
				t.Errorf("FileURL = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestClientAgainstFakeS3 checks the requests the SDK sends for each
// operation using a stub S3 endpoint.
func TestClientAgainstFakeS3(t *testing.T) {
	type call struct{ method, path, copySource string }
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get("X-Amz-Copy-Source")})
		mu.Unlock()
		switch {
		case r.Method == http.MethodPut && r.Header.Get("X-Amz-Copy-Source") != "":
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult><ETag>"abc"</ETag></CopyObjectResult>`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL, "us-east-1", "ak", "sk", "images", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := c.Upload(ctx, "alcohols/a_sm.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := c.Copy(ctx, "alcohols/a_sm.jpg", "alcohols/b_sm.jpg"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := c.Delete(ctx, "alcohols/a_sm.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []call{
		{http.MethodPut, "/images/alcohols/a_sm.jpg", ""},
		{http.MethodPut, "/images/alcohols/b_sm.jpg", "images/alcohols/a_sm.jpg"},
		{http.MethodDelete, "/images/alcohols/a_sm.jpg", ""},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}
