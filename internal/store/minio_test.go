package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of S3 calls MinioStore makes.
type fakeS3 struct {
	mu         sync.Mutex
	bucket     bool
	createCode string // S3 error code returned by bucket creation, if any
	objects    map[string]string
	calls      []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	isBucket := len(parts) == 1
	switch {
	case isBucket && r.Method == http.MethodHead:
		if !f.bucket {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case isBucket && r.Method == http.MethodPut:
		if f.createCode != "" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+f.createCode+`</Code><Message>bucket exists</Message></Error>`)
			return
		}
		f.bucket = true
		w.WriteHeader(http.StatusOK)
	case !isBucket && r.Method == http.MethodHead:
		if _, ok := f.objects[parts[1]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeS3Store(t *testing.T, f *fakeS3) (*MinioStore, error) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewMinioStore(context.Background(), MinioOptions{
		Endpoint:  u.Host,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "plant-photos",
		Region:    "us-east-1",
	})
}

func TestNewMinioStore_CreatesMissingBucket(t *testing.T) {
	t.Parallel()
	f := &fakeS3{}
	_, err := newFakeS3Store(t, f)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.True(t, f.bucket)
	assert.Contains(t, f.calls, "HEAD /plant-photos/")
	assert.Contains(t, f.calls, "PUT /plant-photos/")
}

func TestNewMinioStore_ExistingBucket(t *testing.T) {
	t.Parallel()
	f := &fakeS3{bucket: true}
	_, err := newFakeS3Store(t, f)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.calls, "HEAD /plant-photos/")
	assert.NotContains(t, f.calls, "PUT /plant-photos/")
}

func TestNewMinioStore_BucketCreatedConcurrently(t *testing.T) {
	t.Parallel()
	_, err := newFakeS3Store(t, &fakeS3{createCode: "BucketAlreadyOwnedByYou"})
	require.NoError(t, err)
}

func TestNewMinioStore_CreateFails(t *testing.T) {
	t.Parallel()
	_, err := newFakeS3Store(t, &fakeS3{createCode: "AccessDenied"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plant-photos")
}

func TestNewMinioStore_EmptyBucket(t *testing.T) {
	t.Parallel()
	_, err := NewMinioStore(context.Background(), MinioOptions{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestMinioStore_GetMissingObject(t *testing.T) {
	t.Parallel()
	s, err := newFakeS3Store(t, &fakeS3{bucket: true, objects: map[string]string{}})
	require.NoError(t, err)

	_, _, err = s.Get(context.Background(), "shares/1/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
