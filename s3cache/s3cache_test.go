/* Copyright (c) 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file in the current directory for license terms
 */
package s3cache

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gregjones/httpcache/test"
)

// memS3 is an in-memory stand-in for the handful of S3 calls the cache
// makes.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemS3() *memS3 {
	return &memS3{objects: make(map[string][]byte)}
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput,
	_ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(append([]byte(nil), data...))),
	}, nil
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput,
	_ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.objects[*in.Key] = data
	m.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput,
	_ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {

	m.mu.Lock()
	delete(m.objects, *in.Key)
	m.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) HeadBucket(context.Context, *s3.HeadBucketInput,
	...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (m *memS3) ListObjectsV2(context.Context, *s3.ListObjectsV2Input,
	...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func TestCacheConformance(t *testing.T) {
	cache := New(context.Background(), "test-bucket", false, true)
	cache.Client = newMemS3()
	if err := cache.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	test.Cache(t, cache)
}

func TestCacheConformanceWithGzip(t *testing.T) {
	cache := New(context.Background(), "test-bucket", true, true)
	mem := newMemS3()
	cache.Client = mem

	test.Cache(t, cache)

	cache.Set("https://worldtkd.simplycompete.com/events/eventList", []byte("payload"))
	for k, v := range mem.objects {
		if !strings.HasSuffix(k, ".gz") {
			t.Errorf("object key %v lacks .gz suffix", k)
		}
		if bytes.Equal(v, []byte("payload")) {
			t.Errorf("object %v stored uncompressed", k)
		}
	}
}

func TestObjectKeyGroupsByHost(t *testing.T) {
	cache := New(context.Background(), "b", false, false)
	k := cache.objectKey("https://WorldTKD.simplycompete.com/events/eventList?x=1")
	if !strings.HasPrefix(k, "webcache/worldtkd.simplycompete.com/") {
		t.Errorf("objectKey = %v", k)
	}
	if k2 := cache.objectKey("not a url"); !strings.HasPrefix(k2, "webcache/other/") {
		t.Errorf("objectKey = %v", k2)
	}
}

// TestS3CacheLive exercises a real bucket when one is configured.
func TestS3CacheLive(t *testing.T) {
	bucket := os.Getenv("TKDRANK_TEST_BUCKET")
	if bucket == "" {
		t.Skip("Skipping test because TKDRANK_TEST_BUCKET is unset")
	}
	cache := New(context.Background(), bucket, true, true)
	if err := cache.Init(); err != nil {
		t.Skipf("Skipping test due to lack of access to %v: %v", bucket, err)
	}

	test.Cache(t, cache)
}
