package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		name       string
		opts       RemoteOptions
		wantHost   string
		wantSecure bool
	}{
		{"aws default region", RemoteOptions{}, "s3.us-east-1.amazonaws.com", true},
		{"aws region", RemoteOptions{Region: "eu-west-1"}, "s3.eu-west-1.amazonaws.com", true},
		{"plain minio", RemoteOptions{Endpoint: "http://minio:9000"}, "minio:9000", false},
		{"tls endpoint", RemoteOptions{Endpoint: "https://r2.example.com/"}, "r2.example.com", true},
		{"bare host", RemoteOptions{Endpoint: "localhost:9000"}, "localhost:9000", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			host, secure := endpointHost(tc.opts)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantSecure, secure)
		})
	}
}

func TestBucketLookup(t *testing.T) {
	assert.Equal(t, minio.BucketLookupDNS, bucketLookup(RemoteOptions{}))
	assert.Equal(t, minio.BucketLookupPath, bucketLookup(RemoteOptions{Endpoint: "http://minio:9000"}))
}

func TestPublicReadPolicy(t *testing.T) {
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": "*",
			"Action": "s3:GetObject",
			"Resource": "arn:aws:s3:::uploads/*"
		}]
	}`, publicReadPolicy("uploads"))
}

// fakeBucketAPI answers the bucket-level calls EnsureBucket makes and records them.
type fakeBucketAPI struct {
	mu      sync.Mutex
	exists  bool
	headErr int
	calls   []string
	policy  string
}

func (f *fakeBucketAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := r.Method + " " + strings.TrimSuffix(r.URL.Path, "/")
	if r.URL.Query().Has("policy") {
		call += "?policy"
	}
	f.calls = append(f.calls, call)

	switch {
	case r.Method == http.MethodHead && f.headErr != 0:
		w.WriteHeader(f.headErr)
	case r.Method == http.MethodHead && !f.exists:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && r.URL.Query().Has("policy"):
		body, _ := io.ReadAll(r.Body)
		f.policy = string(body)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut:
		f.exists = true
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func ensureAgainst(t *testing.T, api *fakeBucketAPI, publicRead bool) error {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	return EnsureBucket(context.Background(), RemoteOptions{
		Region:          "us-east-1",
		Bucket:          "uploads",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Endpoint:        srv.URL,
	}, publicRead)
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name       string
		exists     bool
		publicRead bool
		wantCalls  []string
	}{
		{"creates and opens missing bucket", false, true, []string{"HEAD /uploads", "PUT /uploads", "PUT /uploads?policy"}},
		{"creates private bucket", false, false, []string{"HEAD /uploads", "PUT /uploads"}},
		{"keeps existing private bucket", true, false, []string{"HEAD /uploads"}},
		{"reapplies policy on existing bucket", true, true, []string{"HEAD /uploads", "PUT /uploads?policy"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeBucketAPI{exists: tc.exists}
			require.NoError(t, ensureAgainst(t, api, tc.publicRead))

			assert.Equal(t, tc.wantCalls, api.calls)
			assert.True(t, api.exists)
			if tc.publicRead {
				assert.JSONEq(t, publicReadPolicy("uploads"), api.policy)
			} else {
				assert.Empty(t, api.policy)
			}
		})
	}
}

func TestEnsureBucket_ExistenceCheckFails(t *testing.T) {
	api := &fakeBucketAPI{headErr: http.StatusForbidden}
	err := ensureAgainst(t, api, true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "check bucket existence")
	assert.Equal(t, []string{"HEAD /uploads"}, api.calls)
}
