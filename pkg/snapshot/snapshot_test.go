package snapshot

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/vtree/internal/errors"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Put(ctx, "home.html", []byte("<p>v1</p>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "home.html", []byte("<p>v2</p>")); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	got, err := store.Get(ctx, "home.html")
	if err != nil || string(got) != "<p>v2</p>" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	_, err = store.Get(ctx, "missing.html")
	if !errors.Is(err, ErrNotFound) || errors.CodeOf(err) != "S001" {
		t.Errorf("Get(missing) error = %v, want S001 wrapping ErrNotFound", err)
	}
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	store, _ := NewFileStore(t.TempDir())
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		if err := store.Put(ctx, name, nil); errors.CodeOf(err) != "S001" {
			t.Errorf("Put(%q) error = %v, want S001", name, err)
		}
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, _ := NewFileStore(t.TempDir())
	if err := store.Put(ctx, "x", nil); err == nil {
		t.Error("Put with canceled context should fail")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "snaps/")

	if err := store.Put(ctx, "page.html", []byte("<div></div>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := fake.objects["bucket/snaps/page.html"]; !ok {
		t.Errorf("object keys = %v", fake.objects)
	}
	if ct := fake.types["bucket/snaps/page.html"]; ct != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", ct)
	}

	got, err := store.Get(ctx, "page.html")
	if err != nil || string(got) != "<div></div>" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	_, err = store.Get(ctx, "nope.html")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, S3Config{})
	if err != nil {
		t.Fatal(err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.Dir() != dir {
		t.Errorf("Open() = %T, want *FileStore in %s", s, dir)
	}

	s, err = Open(dir, S3Config{Bucket: "b", Endpoint: "http://localhost:9000"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*S3Store); !ok {
		t.Errorf("Open() = %T, want *S3Store", s)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.html": "text/html; charset=utf-8",
		"a.json": "application/json",
		"a.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}
