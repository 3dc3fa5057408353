package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
}

// fakeS3 answers every request with status and records what it received.
func fakeS3(t *testing.T, status int) (*config.S3Config, func() []recordedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	cfg := &config.S3Config{Client: client, BucketName: "media", Region: "us-east-1"}

	return cfg, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestNewS3StorageAppliesBucketPolicy(t *testing.T) {
	cfg, requests := fakeS3(t, http.StatusNoContent)

	store := NewS3Storage(context.Background(), cfg)
	require.NotNil(t, store)

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/media", got[0].path)
	assert.Contains(t, got[0].query, "policy")
	assert.Contains(t, got[0].body, `"Action": "s3:GetObject"`)
	assert.Contains(t, got[0].body, "arn:aws:s3:::media/*")

	assert.Equal(t, "https://media.s3.us-east-1.amazonaws.com/recipes/images/a.png", store.URL("recipes/images/a.png"))
}

func TestNewS3StorageToleratesPolicyFailure(t *testing.T) {
	cfg, requests := fakeS3(t, http.StatusForbidden)

	store := NewS3Storage(context.Background(), cfg)
	require.NotNil(t, store)
	assert.NotEmpty(t, requests())
}
