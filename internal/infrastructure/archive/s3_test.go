package archive

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap/zaptest"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    bool
}

func (f *fakeBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader("<Error><Code>InternalError</Code></Error>")),
			Header:     http.Header{"Content-Type": {"application/xml"}},
			Request:    req,
		}, nil
	}

	key := strings.TrimPrefix(req.URL.Path, "/")
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		f.types[key] = req.Header.Get("Content-Type")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     http.Header{"ETag": {"\"etag\""}},
			Request:    req,
		}, nil
	case http.MethodHead:
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}, Request: req}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}, Request: req}, nil
}

func newTestArchiver(t *testing.T, bucket *fakeBucket) *S3Archiver {
	t.Helper()
	a, err := New(context.Background(), Config{
		Bucket:          "herbs",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, zaptest.NewLogger(t), func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: bucket}
		o.RetryMaxAttempts = 1
	})
	if err != nil {
		t.Fatalf("new archiver: %v", err)
	}
	return a
}

func TestArchiveWritesDocument(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	a := newTestArchiver(t, bucket)

	doc := []byte(`{"batchId":"B001-ASH","status":"FINALIZED"}`)
	if err := a.Archive(context.Background(), "B001-ASH", doc); err != nil {
		t.Fatalf("archive: %v", err)
	}

	got, ok := bucket.objects["herbs/provenance/B001-ASH.json"]
	if !ok {
		t.Fatalf("object not written, have %v", bucket.objects)
	}
	if !bytes.Equal(got, doc) {
		t.Fatalf("unexpected body %s", got)
	}
	if ct := bucket.types["herbs/provenance/B001-ASH.json"]; ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestArchiveRejectsEmptyID(t *testing.T) {
	a := newTestArchiver(t, &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}})
	if err := a.Archive(context.Background(), "", []byte("{}")); err == nil {
		t.Fatal("expected error for empty batch id")
	}
}

func TestArchiveSurfacesBackendError(t *testing.T) {
	a := newTestArchiver(t, &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}, fail: true})
	if err := a.Archive(context.Background(), "B002-TUL", []byte("{}")); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error without bucket")
	}
	if (Config{}).Enabled() {
		t.Fatal("empty config must be disabled")
	}
}
